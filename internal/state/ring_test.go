package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRingLastIndexIsMostRecentRow(t *testing.T) {
	r := NewRing(4, 3)
	r.Append(Row{1, 1, 1})
	r.Append(Row{2, 2, 2})
	r.Append(Row{3, 3, 3})

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(snap))
	}
	last := snap[len(snap)-1]
	for _, v := range last {
		if v != 3 {
			t.Errorf("expected row R-1 to equal the most recently appended row, got %v", last)
		}
	}
}

func TestRingRetainsLastRAfterOverflow(t *testing.T) {
	r := NewRing(3, 1)
	for i := 1; i <= 5; i++ {
		r.Append(Row{float32(i)})
	}

	snap := r.Snapshot()
	want := []Row{{3}, {4}, {5}}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot after overflow mismatch (-want +got):\n%s", diff)
	}
}

func TestRingNotYetFullReturnsOnlyWrittenRows(t *testing.T) {
	r := NewRing(5, 2)
	r.Append(Row{1, 1})
	r.Append(Row{2, 2})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 rows before the ring fills, got %d", len(snap))
	}
}

func TestRingLatestReflectsMostRecentAppend(t *testing.T) {
	r := NewRing(2, 2)
	if r.Latest() != nil {
		t.Fatal("expected nil latest row on an empty ring")
	}
	r.Append(Row{1, 2})
	r.Append(Row{3, 4})
	latest := r.Latest()
	if latest[0] != 3 || latest[1] != 4 {
		t.Errorf("expected latest row {3,4}, got %v", latest)
	}
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := NewRing(2, 2)
	r.Append(Row{1, 2})
	snap := r.Snapshot()
	snap[0][0] = 999
	if r.Latest()[0] == 999 {
		t.Error("mutating a snapshot row must not affect the ring's internal state")
	}
}
