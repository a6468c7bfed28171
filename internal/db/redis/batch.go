package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/bluestone/imagetag/internal/db"
)

// SetMulti stores multiple key-value pairs in a single DoMulti round trip.
// Failures are reported positionally and do not stop the remaining items.
func (s *Store) SetMulti(ctx context.Context, items []db.KVItem) []error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmds[i] = s.b().Set().Key(item.Key).Value(string(item.Value)).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	errs := make([]error, len(results))
	for i, res := range results {
		if err := res.Error(); err != nil {
			errs[i] = classify(db.OpSet, err)
		}
	}
	return errs
}

// DelMulti deletes multiple keys in a single DoMulti round trip.
// Failures are reported positionally and do not stop the remaining items.
func (s *Store) DelMulti(ctx context.Context, keys []string) []error {
	if len(keys) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Del().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	errs := make([]error, len(results))
	for i, res := range results {
		if err := res.Error(); err != nil {
			errs[i] = classify(db.OpDel, err)
		}
	}
	return errs
}
