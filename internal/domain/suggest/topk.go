// Package suggest holds the prefix suggestion aggregation structures: a
// bounded top-K label container and a per-letter prefix index with
// longest-to-shortest folding.
package suggest

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
)

// Default bounds for the suggestion index.
const (
	DefaultMaxSuggestions  = 10
	DefaultMaxPrefixLength = 15
)

// ErrInvalidLabel signals a malformed label record (empty name or negative count).
var ErrInvalidLabel = errors.New("invalid label")

// CountedLabel is a label name with its corpus-wide occurrence count.
type CountedLabel struct {
	Name  string
	Count int
}

// labelHeap is a min-heap on count; ties order the lexicographically greater
// name first so that eviction is fully deterministic.
type labelHeap []CountedLabel

func (h labelHeap) Len() int { return len(h) }

func (h labelHeap) Less(i, j int) bool {
	if h[i].Count != h[j].Count {
		return h[i].Count < h[j].Count
	}
	return h[i].Name > h[j].Name
}

func (h labelHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *labelHeap) Push(x any) {
	*h = append(*h, x.(CountedLabel))
}

func (h *labelHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK retains the k highest-count labels inserted into it, evicting the
// weakest member on overflow. OverallCount accumulates every inserted count
// regardless of eviction, so it tracks total volume under a prefix rather
// than the retained sample.
type TopK struct {
	k       int
	overall int
	labels  labelHeap
}

// NewTopK creates a bounded container retaining at most k labels.
func NewTopK(k int) *TopK {
	if k <= 0 {
		k = DefaultMaxSuggestions
	}
	return &TopK{k: k, labels: make(labelHeap, 0, k+1)}
}

// Insert adds a label observation. The count is always added to the overall
// total; the label itself is retained only while it ranks in the top k.
func (t *TopK) Insert(name string, count int) error {
	if name == "" {
		return fmt.Errorf("%w: empty label name", ErrInvalidLabel)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative count %d for %q", ErrInvalidLabel, count, name)
	}

	t.overall += count
	heap.Push(&t.labels, CountedLabel{Name: name, Count: count})
	if t.labels.Len() > t.k {
		heap.Pop(&t.labels)
	}
	return nil
}

// Len returns the number of retained labels.
func (t *TopK) Len() int { return t.labels.Len() }

// OverallCount returns the sum of all inserted counts.
func (t *TopK) OverallCount() int { return t.overall }

// Retained returns a copy of the retained labels in internal heap order.
func (t *TopK) Retained() []CountedLabel {
	out := make([]CountedLabel, len(t.labels))
	copy(out, t.labels)
	return out
}

// Clone returns an independent deep copy.
func (t *TopK) Clone() *TopK {
	c := &TopK{k: t.k, overall: t.overall, labels: make(labelHeap, len(t.labels), cap(t.labels))}
	copy(c.labels, t.labels)
	return c
}

// Ranked returns the retained labels ordered by count descending, ties broken
// by name ascending. This is the externally visible suggestion order.
func (t *TopK) Ranked() []CountedLabel {
	out := t.Retained()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns the ranked label names.
func (t *TopK) Names() []string {
	ranked := t.Ranked()
	names := make([]string, len(ranked))
	for i, l := range ranked {
		names[i] = l.Name
	}
	return names
}
