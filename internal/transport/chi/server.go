package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	healthuc "github.com/kailas-cloud/vecrank/internal/usecase/health"
	"github.com/kailas-cloud/vecrank/internal/version"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the vectorize, rank and health endpoints.
type Server struct {
	encoder       Encoder
	scorer        Scorer
	health        HealthReporter
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. A nil health reporter disables
// component checks and /health always reports ok.
func NewServer(
	encoder Encoder,
	scorer Scorer,
	health HealthReporter,
	maxBodyBytes int64,
	logger *zap.Logger,
) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if health == nil {
		health = healthuc.New(nil, nil)
	}
	s := &Server{
		encoder:      encoder,
		scorer:       scorer,
		health:       health,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrScoring, http.StatusInternalServerError),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway),
		sentinelHandler(domain.ErrEncoding, http.StatusInternalServerError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Post("/vectorize", s.Vectorize)
	r.Post("/rank", s.Rank)
	r.Get("/ping", s.Ping)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type vectorizeItem struct {
	Text *string `json:"text"`
}

type vectorizeResponse struct {
	Vec [][]domain.Vector `json:"vec"`
}

// Vectorize handles POST /vectorize.
func (s *Server) Vectorize(w http.ResponseWriter, r *http.Request) {
	var items []vectorizeItem
	if err := s.decodeBody(w, r, &items); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	texts := make([]string, len(items))
	for i, it := range items {
		if it.Text == nil {
			s.handleDomainError(w, r, domain.NewValidationError("item %d: text is required", i))
			return
		}
		texts[i] = *it.Text
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	vectors, err := s.encoder.EncodeAll(ctx, texts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, vectorizeResponse{Vec: vectors})
}

type rankResponse struct {
	Rel []any `json:"rel"`
}

// Rank handles POST /rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var records []feature.Record
	if err := s.decodeBody(w, r, &records); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	scores, err := s.scorer.Score(r.Context(), records)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rel := make([]any, len(scores))
	for i, sc := range scores {
		if len(sc) == 1 {
			rel[i] = sc[0]
			continue
		}
		rel[i] = []float64(sc)
	}
	writeJSON(w, http.StatusOK, rankResponse{Rel: rel})
}

// Ping handles GET /ping.
func (s *Server) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type healthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version version.Info                    `json:"version"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := report.Checks
	if checks == nil {
		checks = map[string]healthuc.CheckResult{}
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  report.Status,
		Checks:  checks,
		Version: version.Get(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody reads a non-empty JSON array into dst. Oversized, missing,
// malformed and empty payloads are validation errors.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.NewValidationError("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("request body is empty")
		default:
			return domain.NewValidationError("malformed request body: %v", err)
		}
	}
	if dec.More() {
		return domain.NewValidationError("malformed request body: trailing data")
	}

	switch v := dst.(type) {
	case *[]vectorizeItem:
		if len(*v) == 0 {
			return domain.NewValidationError("no documents to vectorize")
		}
	case *[]feature.Record:
		if len(*v) == 0 {
			return domain.NewValidationError("no records to rank")
		}
	}
	return nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header so an unencodable payload
// becomes a 500 rather than a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"internal error"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// clientMessage returns the error text safe to show to the caller.
// Validation and scoring failures carry their cause, provider and encoding
// failures only their sentinel.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrScoring):
		var se *domain.ScoringError
		if errors.As(err, &se) {
			return se.Error()
		}
		return err.Error()
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return domain.ErrEmbeddingProvider.Error()
	case errors.Is(err, domain.ErrEncoding):
		return domain.ErrEncoding.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := clientMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
