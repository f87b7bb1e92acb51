package scorer

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vecrank/internal/domain/feature"
)

// --- mock predictor ---

type mockPredictor struct {
	mu       sync.Mutex
	scores   []feature.Score
	err      error
	panicVal any
	seen     []feature.Matrix
	fn       func(feature.Matrix) []feature.Score
}

func (m *mockPredictor) Predict(_ context.Context, mat feature.Matrix) ([]feature.Score, error) {
	m.mu.Lock()
	m.seen = append(m.seen, mat)
	m.mu.Unlock()

	if m.panicVal != nil {
		panic(m.panicVal)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.fn != nil {
		return m.fn(mat), nil
	}
	return m.scores, nil
}

// firstColumn scores every row by its standardized cos signal.
func firstColumn(mat feature.Matrix) []feature.Score {
	out := make([]feature.Score, len(mat))
	for i, row := range mat {
		out[i] = feature.Score{row[0]}
	}
	return out
}
