package encoder

import (
	"context"
	"fmt"
	"math"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/window"
	"github.com/kailas-cloud/vecrank/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/vecrank/internal/usecase/encoder"

// Service turns documents into one embedding per overlapping token window.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	tokenizer Tokenizer
	embedder  Embedder
	cfg       domain.EncoderConfig
	opts      window.Options
}

// New creates a chunked encoder. The window bounds are validated up front.
func New(tokenizer Tokenizer, embedder Embedder, cfg domain.EncoderConfig) (*Service, error) {
	opts := window.Options{MaxTokens: cfg.MaxWindowTokens, Stride: cfg.Stride}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("encoder config: %w", err)
	}
	if cfg.SummaryPosition < 0 || cfg.SummaryPosition >= cfg.MaxWindowTokens {
		return nil, fmt.Errorf("encoder config: summary position %d outside window of %d tokens",
			cfg.SummaryPosition, cfg.MaxWindowTokens)
	}
	if cfg.Dimensions < 0 {
		return nil, fmt.Errorf("encoder config: dimensions must be >= 0, got %d", cfg.Dimensions)
	}
	return &Service{
		tokenizer: tokenizer,
		embedder:  embedder,
		cfg:       cfg,
		opts:      opts,
	}, nil
}

// Encode returns one vector per window of text, in document order.
func (s *Service) Encode(ctx context.Context, text string) ([]domain.Vector, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "encoder.Encode")
	defer span.End()

	vectors, err := s.encode(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("encoder.windows", len(vectors)))
	return vectors, nil
}

// EncodeAll encodes documents in input order. The first failure aborts the
// whole call.
func (s *Service) EncodeAll(ctx context.Context, texts []string) ([][]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, domain.NewValidationError("no documents to encode")
	}
	out := make([][]domain.Vector, len(texts))
	for i, text := range texts {
		vectors, err := s.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = vectors
	}
	return out, nil
}

func (s *Service) encode(ctx context.Context, text string) ([]domain.Vector, error) {
	if text == "" {
		return nil, domain.NewValidationError("text is empty")
	}

	tokens, err := s.tokenizer.Tokenize(text)
	if err != nil {
		return nil, domain.NewEncodingError(fmt.Errorf("tokenize: %w", err))
	}
	if len(tokens) == 0 {
		return nil, domain.NewValidationError("text has no tokens")
	}

	windows, err := window.Split(tokens, s.opts)
	if err != nil {
		return nil, domain.NewEncodingError(fmt.Errorf("split: %w", err))
	}
	batch := window.Pad(windows, s.cfg.PadID)

	res, err := s.embedder.EmbedWindows(ctx, batch)
	if err != nil {
		return nil, domain.NewEncodingError(fmt.Errorf("embed windows: %w", err))
	}
	if len(res.Outputs) != len(windows) {
		return nil, domain.NewEncodingError(
			fmt.Errorf("oracle returned %d outputs for %d windows", len(res.Outputs), len(windows)))
	}

	vectors := make([]domain.Vector, len(windows))
	for i, out := range res.Outputs {
		vec, err := s.summary(out)
		if err != nil {
			return nil, domain.NewEncodingError(fmt.Errorf("window %d: %w", i, err))
		}
		vectors[i] = vec
	}

	metrics.EncoderWindows.Observe(float64(len(windows)))
	return vectors, nil
}

// summary picks the configured position's vector from a window output.
func (s *Service) summary(out domain.WindowOutput) (domain.Vector, error) {
	pos := s.cfg.SummaryPosition
	if len(out) == 1 {
		// pooled oracle output
		pos = 0
	}
	if pos >= len(out) {
		return nil, fmt.Errorf("output has %d positions, summary position is %d", len(out), pos)
	}
	vec := out[pos]
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty summary vector")
	}
	if s.cfg.Dimensions > 0 && len(vec) != s.cfg.Dimensions {
		return nil, fmt.Errorf("vector has %d dimensions, expected %d", len(vec), s.cfg.Dimensions)
	}
	for d, v := range vec {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite component %v at dimension %d", v, d)
		}
	}
	return slices.Clone(vec), nil
}
