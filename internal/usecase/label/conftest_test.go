package label

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
)

// --- Mocks ---

type mockDetector struct {
	detectFn func(ctx context.Context, data []byte, contentType string) ([]domain.Label, error)
}

func (m *mockDetector) DetectLabels(ctx context.Context, data []byte, contentType string) ([]domain.Label, error) {
	if m.detectFn != nil {
		return m.detectFn(ctx, data, contentType)
	}
	return nil, nil
}

type mockDocStore struct {
	putFn    func(ctx context.Context, doc domain.LabelDocument) error
	getFn    func(ctx context.Context, name string) (domain.LabelDocument, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockDocStore) PutLabels(ctx context.Context, doc domain.LabelDocument) error {
	if m.putFn != nil {
		return m.putFn(ctx, doc)
	}
	return nil
}

func (m *mockDocStore) GetLabels(ctx context.Context, name string) (domain.LabelDocument, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domain.LabelDocument{}, domain.ErrLabelsNotFound
}

func (m *mockDocStore) DeleteLabels(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

type mockCounter struct {
	incrFn func(ctx context.Context, label string, delta int64) (int64, error)
	calls  []incrCall
}

type incrCall struct {
	label string
	delta int64
}

func (m *mockCounter) Incr(ctx context.Context, label string, delta int64) (int64, error) {
	m.calls = append(m.calls, incrCall{label: label, delta: delta})
	if m.incrFn != nil {
		return m.incrFn(ctx, label, delta)
	}
	return 1, nil
}

func newTestService(t *testing.T) (*Service, *mockDetector, *mockDocStore, *mockCounter) {
	t.Helper()
	det := &mockDetector{}
	docs := &mockDocStore{}
	counts := &mockCounter{}
	svc := New(det, docs, counts, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return svc, det, docs, counts
}
