package scorer

import (
	"context"

	"github.com/kailas-cloud/vecrank/internal/domain/feature"
)

// Predictor is the scoring oracle: one score per row of a standardized matrix.
type Predictor interface {
	Predict(ctx context.Context, m feature.Matrix) ([]feature.Score, error)
}
