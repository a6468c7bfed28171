package image

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	putFn    func(ctx context.Context, img domain.Image) error
	getFn    func(ctx context.Context, name string) (domain.Image, error)
	existsFn func(ctx context.Context, name string) (bool, error)
	deleteFn func(ctx context.Context, name string) error
	listFn   func(ctx context.Context, cursor string, limit int) ([]string, string, error)
}

func (m *mockRepo) Put(ctx context.Context, img domain.Image) error {
	if m.putFn != nil {
		return m.putFn(ctx, img)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, name string) (domain.Image, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domain.Image{}, domain.ErrImageNotFound
}

func (m *mockRepo) Exists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockRepo) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, cursor, limit)
	}
	return nil, "", nil
}

type mockLabeling struct {
	labelFn  func(ctx context.Context, img domain.Image) (domain.LabelDocument, error)
	removeFn func(ctx context.Context, name string) error
}

func (m *mockLabeling) Label(ctx context.Context, img domain.Image) (domain.LabelDocument, error) {
	if m.labelFn != nil {
		return m.labelFn(ctx, img)
	}
	return domain.LabelDocument{Image: img.Name}, nil
}

func (m *mockLabeling) Remove(ctx context.Context, name string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, name)
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockLabeling) {
	t.Helper()
	repo := &mockRepo{}
	labeling := &mockLabeling{}
	svc := New(repo, labeling, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return svc, repo, labeling
}
