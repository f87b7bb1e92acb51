package scorer

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	"github.com/kailas-cloud/vecrank/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/vecrank/internal/usecase/scorer"

// Service standardizes a batch of feature records and scores it.
// Standardization statistics never outlive a call.
type Service struct {
	predictor Predictor
	logger    *zap.Logger
}

// New creates a relevance scorer.
func New(predictor Predictor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{predictor: predictor, logger: logger}
}

// Score returns one score per record, in input order.
func (s *Service) Score(ctx context.Context, records []feature.Record) ([]feature.Score, error) {
	if len(records) == 0 {
		return nil, domain.NewValidationError("no records to score")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "scorer.Score")
	defer span.End()
	span.SetAttributes(attribute.Int("scorer.records", len(records)))

	start := time.Now()
	scores, err := s.score(ctx, records)
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	metrics.ScoringBatchSize.Observe(float64(len(records)))

	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("scoring failed",
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.ScoringRequestsTotal.WithLabelValues("ok").Inc()
	return scores, nil
}

func (s *Service) score(ctx context.Context, records []feature.Record) ([]feature.Score, error) {
	standardized := feature.Standardize(feature.NewMatrix(records))

	scores, err := s.predict(ctx, standardized)
	if err != nil {
		return nil, domain.NewScoringError(err)
	}
	if len(scores) != len(records) {
		return nil, domain.NewScoringError(
			fmt.Errorf("model returned %d scores for %d records", len(scores), len(records)))
	}
	for i, sc := range scores {
		if len(sc) == 0 {
			return nil, domain.NewScoringError(fmt.Errorf("empty score for record %d", i))
		}
		for _, v := range sc {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, domain.NewScoringError(fmt.Errorf("non-finite score for record %d", i))
			}
		}
	}
	return scores, nil
}

// predict calls the oracle, turning a panic into an error.
func (s *Service) predict(ctx context.Context, m feature.Matrix) (scores []feature.Score, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			scores = nil
			err = fmt.Errorf("%v", rec)
		}
	}()
	return s.predictor.Predict(ctx, m)
}
