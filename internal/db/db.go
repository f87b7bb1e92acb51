package db

import (
	"context"
	"time"
)

// KVStore is the key-value surface the embedding cache needs.
type KVStore interface {
	// GetMulti fetches keys in one round trip. The result is aligned with keys;
	// missing keys are nil.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	// SetWithTTL stores value; a zero ttl means no expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
