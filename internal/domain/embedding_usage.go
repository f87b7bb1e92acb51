package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding work for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the embedder chain writes after each oracle call; the handler reads it for response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Windows     int
	Used        bool // true if the oracle chain was called, even on a full cache hit
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records consumed tokens and embedded windows.
func (u *EmbeddingUsage) Add(tokens, windows int) {
	if u != nil {
		u.TotalTokens += tokens
		u.Windows += windows
		u.Used = true
	}
}
