package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	HashStore
	Scanner
	Batcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti fetches multiple keys in one round trip. Missing keys yield nil entries.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Scanner provides cursor-paged key iteration. Callers loop until the
// returned cursor is zero.
type Scanner interface {
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
}

// KVItem holds a single key+value pair for batched SET.
type KVItem struct {
	Key   string
	Value []byte
}

// Batcher issues batched writes and deletes in a single round trip.
// The returned slice is positional: result[i] is non-nil when item i failed.
// Individual failures never abort the rest of the batch.
type Batcher interface {
	SetMulti(ctx context.Context, items []KVItem) []error
	DelMulti(ctx context.Context, keys []string) []error
}
