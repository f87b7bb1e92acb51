package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/window"
)

// InstrumentedEmbedder wraps a WindowEmbedder with logging and per-request
// usage accounting. Transport metrics (requests, duration, tokens) are
// recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.WindowEmbedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.WindowEmbedder, provider, model string, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// EmbedWindows delegates to the inner embedder and records usage in the
// request context.
func (p *InstrumentedEmbedder) EmbedWindows(
	ctx context.Context, batch window.Batch,
) (domain.EmbeddingResult, error) {
	if batch.Len() == 0 {
		return domain.EmbeddingResult{}, nil
	}

	start := time.Now()
	result, err := p.inner.EmbedWindows(ctx, batch)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Window embedding failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("windows", batch.Len()),
			zap.Int("width", batch.Width()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed windows: %w", err)
	}

	domain.UsageFromContext(ctx).Add(result.TotalTokens, batch.Len())

	p.logger.Debug("Window embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Int("windows", batch.Len()),
		zap.Int("width", batch.Width()),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
