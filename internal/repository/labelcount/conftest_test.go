package labelcount

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	scanPageFn func(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error)
	getMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
	incrByFn   func(ctx context.Context, key string, val int64) (int64, error)
	delFn      func(ctx context.Context, key string) error
}

func (m *mockStore) ScanPage(ctx context.Context, cursor uint64, pattern string, count int64) ([]string, uint64, error) {
	if m.scanPageFn != nil {
		return m.scanPageFn(ctx, cursor, pattern, count)
	}
	return nil, 0, nil
}

func (m *mockStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.getMultiFn != nil {
		return m.getMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	return 0, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "imagetag:", zap.NewNop()), ms
}
