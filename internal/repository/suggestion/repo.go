// Package suggestion persists the prefix suggestion entries. The builder
// owns and mutates them; the lookup handler only reads.
package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/db"
)

// store is the consumer interface for suggestion entries (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
	SetMulti(ctx context.Context, items []db.KVItem) []error
	DelMulti(ctx context.Context, keys []string) []error
}

// Entry is one persisted prefix with its ordered suggestions, highest count
// first.
type Entry struct {
	Prefix      string
	Suggestions []string
}

// Repo implements the suggestion store over the KV store.
type Repo struct {
	store     store
	keyPrefix string
	logger    *zap.Logger
}

// New creates a suggestion repository.
func New(s store, keyPrefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, logger: logger}
}

// Get returns the suggestions stored for a prefix. A missing entry is an
// empty list, not an error.
func (r *Repo) Get(ctx context.Context, prefix string) ([]string, error) {
	raw, err := r.store.Get(ctx, r.key(prefix))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("get suggestions %q: %w", prefix, err)
	}

	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("unmarshal suggestions %q: %w", prefix, err)
	}
	return suggestions, nil
}

// PrefixesByLetter scans every persisted prefix starting with the letter.
// Failure here is fatal for the letter: without the existing set the builder
// cannot prune safely.
func (r *Repo) PrefixesByLetter(ctx context.Context, letter string) ([]string, error) {
	pattern := r.key(letter) + "*"

	var prefixes []string
	var cursor uint64
	for {
		page, next, err := r.store.ScanPage(ctx, cursor, pattern, 500)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion prefixes for %q: %w", letter, err)
		}
		for _, key := range page {
			prefixes = append(prefixes, strings.TrimPrefix(key, r.key("")))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return prefixes, nil
}

// PutBatch upserts entries in one round trip. Individual failures are logged
// and counted; they never abort the rest of the batch.
func (r *Repo) PutBatch(ctx context.Context, entries []Entry) (ok, failed int) {
	items := make([]db.KVItem, 0, len(entries))
	queued := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.Suggestions)
		if err != nil {
			r.logger.Warn("failed to marshal suggestions", zap.String("prefix", e.Prefix), zap.Error(err))
			failed++
			continue
		}
		items = append(items, db.KVItem{Key: r.key(e.Prefix), Value: data})
		queued = append(queued, e.Prefix)
	}

	errs := r.store.SetMulti(ctx, items)
	for i, err := range errs {
		if err != nil {
			r.logger.Warn("failed to update prefix", zap.String("prefix", queued[i]), zap.Error(err))
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}

// DeleteBatch removes obsolete prefixes in one round trip. Individual
// failures are logged and counted; they never abort the rest of the batch.
func (r *Repo) DeleteBatch(ctx context.Context, prefixes []string) (ok, failed int) {
	keys := make([]string, len(prefixes))
	for i, p := range prefixes {
		keys[i] = r.key(p)
	}

	errs := r.store.DelMulti(ctx, keys)
	for i, err := range errs {
		if err != nil {
			r.logger.Warn("failed to delete prefix", zap.String("prefix", prefixes[i]), zap.Error(err))
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}

func (r *Repo) key(prefix string) string {
	return r.keyPrefix + "suggest:" + prefix
}
