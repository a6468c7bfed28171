package suggestion

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn      func(ctx context.Context, key string) ([]byte, error)
	scanPageFn func(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
	setMultiFn func(ctx context.Context, items []db.KVItem) []error
	delMultiFn func(ctx context.Context, keys []string) []error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	if m.scanPageFn != nil {
		return m.scanPageFn(ctx, cursor, pattern, count)
	}
	return nil, 0, nil
}

func (m *mockStore) SetMulti(ctx context.Context, items []db.KVItem) []error {
	if m.setMultiFn != nil {
		return m.setMultiFn(ctx, items)
	}
	return make([]error, len(items))
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) []error {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return make([]error, len(keys))
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "imagetag:", zap.NewNop()), ms
}
