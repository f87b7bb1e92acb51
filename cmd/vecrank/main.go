package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/config"
	"github.com/kailas-cloud/vecrank/internal/db"
	dbRedis "github.com/kailas-cloud/vecrank/internal/db/redis"
	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	logpkg "github.com/kailas-cloud/vecrank/internal/logger"
	"github.com/kailas-cloud/vecrank/internal/metrics"
	"github.com/kailas-cloud/vecrank/internal/model/logreg"
	"github.com/kailas-cloud/vecrank/internal/repository/embcache"
	"github.com/kailas-cloud/vecrank/internal/tracing"
	chiTransport "github.com/kailas-cloud/vecrank/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/vecrank/internal/transport/openai"
	"github.com/kailas-cloud/vecrank/internal/transport/tiktoken"
	embeddinguc "github.com/kailas-cloud/vecrank/internal/usecase/embedding"
	encoderuc "github.com/kailas-cloud/vecrank/internal/usecase/encoder"
	healthuc "github.com/kailas-cloud/vecrank/internal/usecase/health"
	scoreruc "github.com/kailas-cloud/vecrank/internal/usecase/scorer"
	"github.com/kailas-cloud/vecrank/internal/version"
)

const serviceName = "vecrank"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err.Error())
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("max_window_tokens", cfg.Encoder.MaxWindowTokens),
		zap.Bool("cache_enabled", cfg.CacheEnabled()),
	)

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    env,
		Enabled:        cfg.Tracing.Enabled,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Insecure:       cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create tracer provider", zap.Error(err))
	}

	// Register embedding and pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Optional embedding cache store
	var store *dbRedis.Store
	if cfg.CacheEnabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Cache.Addrs,
			Username:   cfg.Cache.Username,
			Password:   cfg.Cache.Password,
			DB:         cfg.Cache.DB,
			Standalone: cfg.Cache.Standalone,
			ClientName: serviceName,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache",
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
	}

	tokenizer, err := tiktoken.New(cfg.Tokenizer.Encoding)
	if err != nil {
		logger.Fatal("Failed to create tokenizer", zap.Error(err))
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Pass a nil interface (not a typed nil pointer!) when the cache is disabled.
	var cacheStore db.KVStore
	if store != nil {
		cacheStore = store
	}
	embedder := buildEmbedder(base, cacheStore, cfg, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	encoderSvc, err := encoderuc.New(tokenizer, embedder, cfg.EncoderSettings())
	if err != nil {
		logger.Fatal("Invalid encoder settings", zap.Error(err))
	}

	model, err := loadScoringModel(cfg.Scorer.ModelPath)
	if err != nil {
		logger.Fatal("Failed to load scoring model", zap.Error(err))
	}
	logger.Info("Scoring model loaded",
		zap.String("path", cfg.Scorer.ModelPath),
		zap.Int("features", model.Width()),
	)
	scorerSvc := scoreruc.New(model, logger)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, newEmbeddingHealthChecker(base))

	server := chiTransport.NewServer(encoderSvc, scorerSvc, healthSvc, cfg.HTTP.MaxBodyBytes, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(tracing.Middleware(serviceName))
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps an embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.WindowEmbedder
}

func newEmbeddingHealthChecker(embedder domain.WindowEmbedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// loadScoringModel loads the model and checks it takes one column per signal.
func loadScoringModel(path string) (*logreg.Model, error) {
	model, err := logreg.Load(path)
	if err != nil {
		return nil, err
	}
	if model.Width() != feature.NumSignals {
		return nil, fmt.Errorf("model %s expects %d features, requests carry %d",
			path, model.Width(), feature.NumSignals)
	}
	return model, nil
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented.
func buildEmbedder(
	base domain.WindowEmbedder,
	store db.KVStore,
	cfg config.Config,
	logger *zap.Logger,
) domain.WindowEmbedder {
	embedder := base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			Model:     cfg.Embedding.Model,
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ctx := logpkg.With(
				logpkg.ContextWithLogger(r.Context(), logger),
				zap.String("request_id", requestID),
			)
			reqLogger := logpkg.FromContext(ctx)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tokens := ww.Header().Get("X-Embedding-Tokens"); tokens != "" {
				fields = append(fields, zap.String("embedding_tokens", tokens))
			}
			if traceID := tracing.TraceID(r.Context()); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID))
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request", fields...)
		})
	}
}
