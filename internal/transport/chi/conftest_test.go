package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	healthuc "github.com/kailas-cloud/vecrank/internal/usecase/health"
)

type mockEncoder struct {
	texts  []string
	tokens int
	fn     func(texts []string) ([][]domain.Vector, error)
}

func (m *mockEncoder) EncodeAll(ctx context.Context, texts []string) ([][]domain.Vector, error) {
	m.texts = texts
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).Add(m.tokens, len(texts))
	}
	if m.fn != nil {
		return m.fn(texts)
	}
	out := make([][]domain.Vector, len(texts))
	for i := range texts {
		out[i] = []domain.Vector{make(domain.Vector, 128)}
	}
	return out, nil
}

type mockScorer struct {
	records []feature.Record
	scores  []feature.Score
	err     error
}

func (m *mockScorer) Score(_ context.Context, records []feature.Record) ([]feature.Score, error) {
	m.records = records
	if m.err != nil {
		return nil, m.err
	}
	if m.scores != nil {
		return m.scores, nil
	}
	out := make([]feature.Score, len(records))
	for i := range records {
		out[i] = feature.Score{float64(i % 2)}
	}
	return out, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(srv *Server) http.Handler {
	r := gochi.NewRouter()
	srv.Register(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
