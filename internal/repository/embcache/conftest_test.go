package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/window"
)

// mockEmbedder returns one single-position output per row, valued by the row's first token.
type mockEmbedder struct {
	tokensPerRow int
	err          error
	calls        int
	batches      []window.Batch
}

func (m *mockEmbedder) EmbedWindows(_ context.Context, b window.Batch) (domain.EmbeddingResult, error) {
	m.calls++
	m.batches = append(m.batches, b)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	outs := make([]domain.WindowOutput, b.Len())
	for i := range outs {
		outs[i] = domain.WindowOutput{{float32(b.IDs[i][0]), 0.5}}
	}
	tokens := m.tokensPerRow * b.Len()
	return domain.EmbeddingResult{Outputs: outs, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) lookup(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockKVStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	return getEach(ctx, keys, m.lookup)
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

// memKVStore is an in-memory store that round-trips values.
type memKVStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemKVStore() *memKVStore {
	return &memKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKVStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// getEach emulates a pipelined multi-get: a nil value is a miss, any error fails the call.
func getEach(
	ctx context.Context, keys []string, get func(context.Context, string) ([]byte, error),
) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := get(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, ms, Options{Model: "test-model"}, nil, zap.NewNop())
	return ce, ms
}

func batchOf(rows ...[]int) window.Batch {
	windows := make([]window.Window, len(rows))
	for i, r := range rows {
		windows[i] = window.Window{Tokens: r}
	}
	return window.Pad(windows, 0)
}
