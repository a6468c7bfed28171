// Package labelcount reads and maintains the corpus-wide label occurrence
// counts. The suggestion builder only reads them; the labeling pipeline and
// image deletion write them.
package labelcount

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/db"
	"github.com/bluestone/imagetag/internal/domain"
)

const getChunkSize = 200

// store is the consumer interface for label counts (ISP).
type store interface {
	ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Del(ctx context.Context, key string) error
}

// QueryStatus tags the outcome of a per-letter count read.
type QueryStatus int

// Per-letter read outcomes. NoData letters are skipped silently by the
// builder; Fatal aborts the whole run.
const (
	StatusOK QueryStatus = iota
	StatusNoData
	StatusFatal
)

// QueryResult is the tagged result of a per-letter count read.
type QueryResult struct {
	Status QueryStatus
	Labels []domain.LabelCount
	Err    error
}

// Repo implements the count source over the KV store.
type Repo struct {
	store     store
	keyPrefix string
	logger    *zap.Logger
}

// New creates a label count repository.
func New(s store, keyPrefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, logger: logger}
}

// ByLetter returns every label count whose name starts with the letter.
// Transient store trouble (throttling, unreachable) and any unexpected scan
// error map to NoData so a single bad letter never fails the batch; only
// context cancellation is Fatal.
func (r *Repo) ByLetter(ctx context.Context, letter string) QueryResult {
	pattern := r.key(letter) + "*"

	var keys []string
	var cursor uint64
	for {
		page, next, err := r.store.ScanPage(ctx, cursor, pattern, 500)
		if err != nil {
			return r.classifyScanErr(letter, err)
		}
		keys = append(keys, page...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	labels := make([]domain.LabelCount, 0, len(keys))
	for start := 0; start < len(keys); start += getChunkSize {
		end := start + getChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		values, err := r.store.GetMulti(ctx, chunk)
		if err != nil {
			return r.classifyScanErr(letter, err)
		}
		for i, raw := range values {
			if raw == nil {
				// Key expired between SCAN and MGET.
				continue
			}
			count, err := strconv.Atoi(string(raw))
			if err != nil {
				r.logger.Warn("skipping unparsable label count",
					zap.String("key", chunk[i]), zap.String("value", string(raw)))
				continue
			}
			labels = append(labels, domain.LabelCount{
				Name:  strings.TrimPrefix(chunk[i], r.key("")),
				Count: count,
			})
		}
	}

	return QueryResult{Status: StatusOK, Labels: labels}
}

// Incr adjusts a label's count by delta and returns the new value. The key is
// removed once the count drops to zero or below.
func (r *Repo) Incr(ctx context.Context, label string, delta int64) (int64, error) {
	if label == "" {
		return 0, fmt.Errorf("empty label name")
	}
	key := r.key(label)

	n, err := r.store.IncrBy(ctx, key, delta)
	if err != nil {
		return 0, fmt.Errorf("incr label count %s: %w", key, err)
	}
	if n <= 0 {
		if err := r.store.Del(ctx, key); err != nil {
			return n, fmt.Errorf("del drained label count %s: %w", key, err)
		}
	}
	return n, nil
}

func (r *Repo) key(label string) string {
	return r.keyPrefix + "labelcount:" + label
}

func (r *Repo) classifyScanErr(letter string, err error) QueryResult {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return QueryResult{Status: StatusFatal, Err: err}
	case errors.Is(err, db.ErrThrottled):
		r.logger.Warn("count source throttled", zap.String("letter", letter), zap.Error(err))
		return QueryResult{Status: StatusNoData, Err: err}
	case errors.Is(err, db.ErrUnavailable):
		r.logger.Error("count source unavailable", zap.String("letter", letter), zap.Error(err))
		return QueryResult{Status: StatusNoData, Err: err}
	default:
		r.logger.Error("count scan failed", zap.String("letter", letter), zap.Error(err))
		return QueryResult{Status: StatusNoData, Err: err}
	}
}
