package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding and pipeline Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrank",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrank",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrank",
			Name:      "embedding_cache_total",
			Help:      "Embedding window cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EncoderWindows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vecrank",
			Name:      "encoder_windows_per_document",
			Help:      "Number of token windows produced per encoded document",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)

	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrank",
			Name:      "scoring_requests_total",
			Help:      "Total number of scoring oracle calls",
		},
		[]string{"status"},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vecrank",
			Name:      "scoring_duration_seconds",
			Help:      "Standardization plus prediction duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	ScoringBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vecrank",
			Name:      "scoring_batch_size",
			Help:      "Number of feature records per scoring call",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

var registerOnce sync.Once

// RegisterPipelineMetrics registers embedding, encoder and scoring metrics.
// Safe to call more than once.
func RegisterPipelineMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			EncoderWindows,
			ScoringRequestsTotal,
			ScoringDuration,
			ScoringBatchSize,
		)
	})
}
