package suggest

import "fmt"

// Index is the per-letter working set: one map per prefix length, keyed by
// prefix string. It is built bottom-up from full labels and then folded so
// that every short prefix aggregates the suggestions of all longer prefixes
// extending it.
type Index struct {
	maxLen int
	k      int
	levels []map[string]*TopK
}

// NewIndex creates an empty index for prefix lengths 1..maxLen with top-k
// containers of capacity k.
func NewIndex(maxLen, k int) *Index {
	if maxLen <= 0 {
		maxLen = DefaultMaxPrefixLength
	}
	if k <= 0 {
		k = DefaultMaxSuggestions
	}
	levels := make([]map[string]*TopK, maxLen)
	for i := range levels {
		levels[i] = make(map[string]*TopK)
	}
	return &Index{maxLen: maxLen, k: k, levels: levels}
}

// MaxPrefixLength returns the maximum indexed prefix length.
func (ix *Index) MaxPrefixLength() int { return ix.maxLen }

// Add inserts a label at the level of its truncated start prefix. The record
// is validated before any node is created, so a rejected label leaves no
// trace in the index.
func (ix *Index) Add(name string, count int) error {
	if name == "" {
		return fmt.Errorf("%w: empty label name", ErrInvalidLabel)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative count %d for %q", ErrInvalidLabel, count, name)
	}

	start := Truncate(name, ix.maxLen)
	level := ix.levels[len(start)-1]
	node, ok := level[start]
	if !ok {
		node = NewTopK(ix.k)
		level[start] = node
	}
	return node.Insert(name, count)
}

// Fold propagates suggestions downward, strictly from the longest level to
// the shortest. Each prefix's retained labels are merged into its
// length-minus-one parent; the parent is deep-copied in when absent. The
// iteration order over lengths is a correctness contract: folding a level
// must see the already-folded contributions of every longer level.
func (ix *Index) Fold() {
	for length := ix.maxLen - 1; length >= 1; length-- {
		longer := ix.levels[length]
		shorter := ix.levels[length-1]

		for prefix, node := range longer {
			if prefix == "" {
				continue
			}
			parent := prefix[:len(prefix)-1]

			existing, ok := shorter[parent]
			if !ok {
				shorter[parent] = node.Clone()
				continue
			}
			for _, l := range node.Retained() {
				// Retained entries were validated on their original insert.
				_ = existing.Insert(l.Name, l.Count)
			}
		}
	}
}

// Level returns the prefix map for the given length (1-based), or nil when
// the length is out of range.
func (ix *Index) Level(length int) map[string]*TopK {
	if length < 1 || length > ix.maxLen {
		return nil
	}
	return ix.levels[length-1]
}

// Contains reports whether the prefix, truncated to the maximum length, is
// present at its level.
func (ix *Index) Contains(prefix string) bool {
	p := Truncate(prefix, ix.maxLen)
	if p == "" {
		return false
	}
	_, ok := ix.levels[len(p)-1][p]
	return ok
}

// Truncate shortens s to at most maxLen bytes. Labels are expected to be
// lowercase ASCII, so byte truncation matches character truncation.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
