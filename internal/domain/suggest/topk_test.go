package suggest

import (
	"errors"
	"fmt"
	"testing"
)

func TestTopK_InsertValidation(t *testing.T) {
	tk := NewTopK(3)

	if err := tk.Insert("", 5); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for empty name, got %v", err)
	}
	if err := tk.Insert("cat", -1); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for negative count, got %v", err)
	}
	if tk.Len() != 0 || tk.OverallCount() != 0 {
		t.Errorf("rejected inserts must not mutate state: len=%d overall=%d", tk.Len(), tk.OverallCount())
	}
}

func TestTopK_SizeBoundAndOverallCount(t *testing.T) {
	tk := NewTopK(3)

	total := 0
	for i := 0; i < 20; i++ {
		count := i * 7 % 13
		total += count
		if err := tk.Insert(fmt.Sprintf("label%02d", i), count); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if tk.Len() > 3 {
			t.Fatalf("retained set exceeded capacity after insert %d: %d", i, tk.Len())
		}
	}
	if tk.OverallCount() != total {
		t.Errorf("overall count = %d, want %d (must include evicted entries)", tk.OverallCount(), total)
	}
}

func TestTopK_EvictsWeakest(t *testing.T) {
	tk := NewTopK(2)
	mustInsert(t, tk, "low", 1)
	mustInsert(t, tk, "mid", 5)
	mustInsert(t, tk, "high", 9)

	for _, l := range tk.Retained() {
		if l.Count < 5 {
			t.Errorf("evicted entry outranks retained entry: %+v", l)
		}
		if l.Name == "low" {
			t.Error("weakest entry should have been evicted")
		}
	}
}

func TestTopK_FullSetRejectsWeakerInsert(t *testing.T) {
	tk := NewTopK(2)
	mustInsert(t, tk, "a", 10)
	mustInsert(t, tk, "b", 8)
	mustInsert(t, tk, "weak", 1)

	names := tk.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected retained set: %v", names)
	}
	if tk.OverallCount() != 19 {
		t.Errorf("overall count = %d, want 19", tk.OverallCount())
	}
}

func TestTopK_DeterministicTieBreak(t *testing.T) {
	// Equal counts: the lexicographically greater name is the weaker member.
	tk := NewTopK(2)
	mustInsert(t, tk, "zebra", 5)
	mustInsert(t, tk, "apple", 5)
	mustInsert(t, tk, "mango", 5)

	names := tk.Names()
	if len(names) != 2 || names[0] != "apple" || names[1] != "mango" {
		t.Errorf("expected [apple mango], got %v", names)
	}
}

func TestTopK_RankedOrder(t *testing.T) {
	tk := NewTopK(10)
	mustInsert(t, tk, "door", 5)
	mustInsert(t, tk, "dog", 10)
	mustInsert(t, tk, "dot", 3)
	mustInsert(t, tk, "dove", 5)

	want := []string{"dog", "door", "dove", "dot"}
	got := tk.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTopK_CloneIsIndependent(t *testing.T) {
	tk := NewTopK(3)
	mustInsert(t, tk, "dog", 10)
	mustInsert(t, tk, "cat", 7)

	c := tk.Clone()
	if c.OverallCount() != tk.OverallCount() {
		t.Errorf("clone overall = %d, want %d", c.OverallCount(), tk.OverallCount())
	}

	mustInsert(t, c, "bird", 20)
	if tk.Len() != 2 {
		t.Errorf("mutating the clone changed the source: len=%d", tk.Len())
	}
	if tk.OverallCount() != 17 {
		t.Errorf("source overall changed: %d", tk.OverallCount())
	}
}

func mustInsert(t *testing.T, tk *TopK, name string, count int) {
	t.Helper()
	if err := tk.Insert(name, count); err != nil {
		t.Fatalf("insert %q: %v", name, err)
	}
}
