package suggestbuild

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	"github.com/bluestone/imagetag/internal/repository/labelcount"
	"github.com/bluestone/imagetag/internal/repository/suggestion"
)

// mockCounts implements CountSource from a per-letter map. Letters not in
// the map report OK with no labels.
type mockCounts struct {
	byLetterFn func(ctx context.Context, letter string) labelcount.QueryResult
}

func (m *mockCounts) ByLetter(ctx context.Context, letter string) labelcount.QueryResult {
	if m.byLetterFn != nil {
		return m.byLetterFn(ctx, letter)
	}
	return labelcount.QueryResult{Status: labelcount.StatusOK}
}

func countsFromMap(data map[string][]domain.LabelCount) *mockCounts {
	return &mockCounts{
		byLetterFn: func(_ context.Context, letter string) labelcount.QueryResult {
			return labelcount.QueryResult{Status: labelcount.StatusOK, Labels: data[letter]}
		},
	}
}

// fakeStore is an in-memory SuggestionStore with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]string
	putErrs map[string]error // per-prefix write failures
	listErr map[string]error // per-letter listing failures
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: map[string][]string{},
		putErrs: map[string]error{},
		listErr: map[string]error{},
	}
}

func (f *fakeStore) PrefixesByLetter(_ context.Context, letter string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[letter]; err != nil {
		return nil, err
	}
	var out []string
	for p := range f.entries {
		if strings.HasPrefix(p, letter) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) PutBatch(_ context.Context, entries []suggestion.Entry) (ok, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		if err := f.putErrs[e.Prefix]; err != nil {
			failed++
			continue
		}
		f.entries[e.Prefix] = e.Suggestions
		ok++
	}
	return ok, failed
}

func (f *fakeStore) DeleteBatch(_ context.Context, prefixes []string) (ok, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range prefixes {
		delete(f.entries, p)
		ok++
	}
	return ok, failed
}

func (f *fakeStore) snapshot() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string, len(f.entries))
	for k, v := range f.entries {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func newTestService(t *testing.T, counts CountSource, store SuggestionStore) *Service {
	t.Helper()
	return New(counts, store, 10, 15, zap.NewNop())
}
