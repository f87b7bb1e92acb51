package chi

import (
	"context"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	healthuc "github.com/kailas-cloud/vecrank/internal/usecase/health"
)

// Encoder turns documents into per-window vectors.
type Encoder interface {
	EncodeAll(ctx context.Context, texts []string) ([][]domain.Vector, error)
}

// Scorer predicts relevance for a batch of feature records.
type Scorer interface {
	Score(ctx context.Context, records []feature.Record) ([]feature.Score, error)
}

// HealthReporter aggregates component readiness.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
