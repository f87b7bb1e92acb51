package domain

import (
	"context"

	"github.com/kailas-cloud/vecrank/internal/domain/window"
)

// Vector is a single fixed-dimension embedding.
type Vector = []float32

// WindowOutput is the oracle output for one window: one vector per position.
// Pooled providers return a single position.
type WindowOutput [][]float32

// WindowEmbedder is the shared embedding oracle contract between layers.
// It receives every window of one document as a single padded batch and
// returns one WindowOutput per batch row, in row order.
type WindowEmbedder interface {
	EmbedWindows(ctx context.Context, batch window.Batch) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries window outputs and token usage through the decorator chain.
type EmbeddingResult struct {
	Outputs      []WindowOutput
	PromptTokens int
	TotalTokens  int
}
