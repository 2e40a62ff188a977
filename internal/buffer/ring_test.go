package buffer

import (
	"reflect"
	"testing"
)

func TestNewRing(t *testing.T) {
	r := NewRing[int](100)
	if r.Cap() != 100 {
		t.Errorf("expected capacity 100, got %d", r.Cap())
	}
	if r.Len() != 0 {
		t.Errorf("expected length 0, got %d", r.Len())
	}

	// Zero and negative capacities default to 1
	r = NewRing[int](0)
	if r.Cap() != 1 {
		t.Errorf("expected capacity 1 for zero input, got %d", r.Cap())
	}
	r = NewRing[int](-5)
	if r.Cap() != 1 {
		t.Errorf("expected capacity 1 for negative input, got %d", r.Cap())
	}
}

func TestRing_Append(t *testing.T) {
	r := NewRing[string](3)

	r.Append("a")
	r.Append("b")
	if r.Len() != 2 {
		t.Errorf("expected length 2, got %d", r.Len())
	}

	got := r.Snapshot()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestRing_AppendOverflow(t *testing.T) {
	r := NewRing[string](3)

	// Fill the ring, then push two more; the two oldest entries go
	r.Append("a")
	r.Append("b")
	r.Append("c")
	r.Append("d")
	r.Append("e")

	got := r.Snapshot()
	if !reflect.DeepEqual(got, []string{"c", "d", "e"}) {
		t.Errorf("expected [c d e], got %v", got)
	}
	if r.Len() != 3 {
		t.Errorf("expected length 3, got %d", r.Len())
	}
}

func TestRing_AppendWrapsRepeatedly(t *testing.T) {
	r := NewRing[int](4)

	for i := 0; i < 25; i++ {
		r.Append(i)
	}

	got := r.Snapshot()
	if !reflect.DeepEqual(got, []int{21, 22, 23, 24}) {
		t.Errorf("expected [21 22 23 24], got %v", got)
	}
}

func TestRing_Snapshot(t *testing.T) {
	r := NewRing[string](10)

	// Snapshot of an empty ring
	if got := r.Snapshot(); got != nil {
		t.Errorf("expected nil for empty ring, got %v", got)
	}

	r.Append("x")
	got := r.Snapshot()
	if !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("expected [x], got %v", got)
	}

	// Snapshot returns a copy; mutating it must not affect the ring
	got[0] = "mutated"
	got2 := r.Snapshot()
	if !reflect.DeepEqual(got2, []string{"x"}) {
		t.Errorf("Snapshot should return a copy, got %v", got2)
	}
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](3)
	r.Append(1)
	r.Append(2)
	r.Append(3)
	r.Append(4) // wrapped, head moved

	r.Clear()

	if r.Len() != 0 {
		t.Errorf("expected length 0 after clear, got %d", r.Len())
	}
	if got := r.Snapshot(); got != nil {
		t.Errorf("expected nil after clear, got %v", got)
	}

	// The ring is usable again and ordering restarts from scratch
	r.Append(7)
	r.Append(8)
	got := r.Snapshot()
	if !reflect.DeepEqual(got, []int{7, 8}) {
		t.Errorf("expected [7 8], got %v", got)
	}
}
