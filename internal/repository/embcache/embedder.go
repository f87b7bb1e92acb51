package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/window"
)

// DefaultKeyPrefix namespaces cache entries in a shared keyspace.
const DefaultKeyPrefix = "vecrank:emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures cache keys and expiry.
type Options struct {
	// Model is mixed into every key so switching models never serves stale vectors.
	Model     string
	KeyPrefix string
	// TTL of zero keeps entries until evicted.
	TTL time.Duration
}

// CachedEmbedder caches window outputs keyed by the exact tokens sent to the oracle.
type CachedEmbedder struct {
	inner      domain.WindowEmbedder
	store      store
	opts       Options
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.WindowEmbedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// EmbedWindows serves cached rows and sends all misses to the inner embedder
// in one sub-batch. Only misses consume tokens.
func (c *CachedEmbedder) EmbedWindows(ctx context.Context, batch window.Batch) (domain.EmbeddingResult, error) {
	n := batch.Len()
	if n == 0 {
		return domain.EmbeddingResult{}, nil
	}

	keys := make([]string, n)
	for i := range n {
		keys[i] = c.cacheKey(batch, i)
	}

	outputs := c.getFromCache(ctx, keys)
	var missIdx []int
	for i, out := range outputs {
		if out != nil {
			c.incCache("hit")
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return domain.EmbeddingResult{Outputs: outputs}, nil
	}

	sub := window.Batch{
		IDs:  make([][]int, len(missIdx)),
		Mask: make([][]int, len(missIdx)),
	}
	for j, i := range missIdx {
		sub.IDs[j] = batch.IDs[i]
		sub.Mask[j] = batch.Mask[i]
	}

	res, err := c.inner.EmbedWindows(ctx, sub)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed cache misses: %w", err)
	}
	if len(res.Outputs) != len(missIdx) {
		return domain.EmbeddingResult{}, fmt.Errorf("inner embedder returned %d outputs for %d windows",
			len(res.Outputs), len(missIdx))
	}

	for j, i := range missIdx {
		outputs[i] = res.Outputs[j]
		c.putToCache(ctx, keys[i], res.Outputs[j])
	}

	return domain.EmbeddingResult{
		Outputs:      outputs,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the model, the padded width and the unpadded tokens of row i.
func (c *CachedEmbedder) cacheKey(batch window.Batch, i int) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(batch.Width()))
	h.Write(buf[:])
	for _, tok := range batch.Tokens(i) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(tok)))
		h.Write(buf[:])
	}
	return c.opts.KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// getFromCache returns one output per key, nil where the key is missing,
// unreadable or the store failed.
func (c *CachedEmbedder) getFromCache(ctx context.Context, keys []string) []domain.WindowOutput {
	outputs := make([]domain.WindowOutput, len(keys))

	values, err := c.store.GetMulti(ctx, keys)
	if err != nil {
		c.logger.Warn("Failed to get cached window outputs", zap.Int("keys", len(keys)), zap.Error(err))
		return outputs
	}
	if len(values) != len(keys) {
		c.logger.Warn("Cache returned misaligned values",
			zap.Int("keys", len(keys)), zap.Int("values", len(values)))
		return outputs
	}

	for i, data := range values {
		if len(data) == 0 {
			continue
		}
		out, err := bytesToOutput(data)
		if err != nil {
			c.logger.Warn("Failed to parse cached window output", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		outputs[i] = out
	}
	return outputs
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, out domain.WindowOutput) {
	data, err := outputToCacheBytes(out)
	if err != nil {
		c.logger.Warn("Skipping cache put", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.opts.TTL); err != nil {
		c.logger.Warn("Failed to cache window output", zap.String("key", key), zap.Error(err))
	}
}

// outputToCacheBytes encodes positions and dims as uint32 headers followed by
// little-endian float32 values. All positions must share one dimension.
func outputToCacheBytes(out domain.WindowOutput) ([]byte, error) {
	dims := 0
	if len(out) > 0 {
		dims = len(out[0])
	}
	buf := make([]byte, 8+len(out)*dims*4)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(out)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(dims))

	off := 8
	for p, vec := range out {
		if len(vec) != dims {
			return nil, fmt.Errorf("position %d has %d dims, expected %d", p, len(vec), dims)
		}
		for _, f := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf, nil
}

func bytesToOutput(data []byte) (domain.WindowOutput, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid window cache data: len=%d (missing header)", len(data))
	}
	positions := int(binary.LittleEndian.Uint32(data[0:]))
	dims := int(binary.LittleEndian.Uint32(data[4:]))
	if positions == 0 || dims == 0 {
		return nil, fmt.Errorf("invalid window cache data: %dx%d output", positions, dims)
	}
	if want := 8 + positions*dims*4; len(data) != want {
		return nil, fmt.Errorf("invalid window cache data: len=%d, expected %d", len(data), want)
	}

	out := make(domain.WindowOutput, positions)
	off := 8
	for p := range out {
		vec := make([]float32, dims)
		for d := range vec {
			vec[d] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		out[p] = vec
	}
	return out, nil
}
