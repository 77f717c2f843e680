// Package db is the storage facade shared by repositories. Each repository
// declares the subset it calls; internal/db/redis implements the whole Store.
package db

import (
	"context"
	"time"
)

// Store is what the composition root hands to repositories.
type Store interface {
	Pinger
	HashStore
	BlobStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger is the health ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore holds batch metadata, one hash per record kind.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// BlobStore holds encoded payloads (record batches, cached answers) and
// expiring counters (token budgets).
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}
