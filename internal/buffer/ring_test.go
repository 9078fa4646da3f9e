package buffer

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// snapshotN tags a snapshot with a recognizable power value.
func snapshotN(n int) models.Snapshot {
	return models.Snapshot{
		Power:      float64(n),
		CapturedAt: time.Unix(int64(n), 0),
	}
}

func newRing(t *testing.T, capacity int) *Ring {
	t.Helper()
	r, err := New(capacity, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := New(c, zap.NewNop()); err == nil {
			t.Errorf("New(%d) should fail", c)
		}
	}
}

func TestRing_FIFOOrder(t *testing.T) {
	r := newRing(t, 10)
	for i := 0; i < 5; i++ {
		r.Insert(snapshotN(i))
	}

	for i := 0; i < 5; i++ {
		s, err := r.PeekOldest()
		if err != nil {
			t.Fatal(err)
		}
		if s.Power != float64(i) {
			t.Fatalf("peek %d: got snapshot %v, want %d", i, s.Power, i)
		}
		if err := r.Commit(); err != nil {
			t.Fatal(err)
		}
	}

	if r.Len() != 0 {
		t.Errorf("Len = %d after draining, want 0", r.Len())
	}
	if _, err := r.PeekOldest(); !errors.Is(err, ErrEmpty) {
		t.Errorf("PeekOldest on empty: err = %v, want ErrEmpty", err)
	}
	if err := r.Commit(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Commit on empty: err = %v, want ErrEmpty", err)
	}
}

func TestRing_PeekDoesNotMutate(t *testing.T) {
	r := newRing(t, 4)
	r.Insert(snapshotN(1))

	for i := 0; i < 3; i++ {
		if _, err := r.PeekOldest(); err != nil {
			t.Fatal(err)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d after repeated peeks, want 1", r.Len())
	}
}

func TestRing_OverflowDropsOldestKeepsOrder(t *testing.T) {
	const capacity = 100
	r := newRing(t, capacity)

	for i := 0; i < capacity; i++ {
		r.Insert(snapshotN(i))
	}
	if r.Overflowed() {
		t.Fatal("overflow flag raised before any drop")
	}

	// One more insert drops the oldest (#0): the oldest survivor is #1.
	r.Insert(snapshotN(capacity))

	if !r.Overflowed() {
		t.Error("overflow flag should be set")
	}
	if r.Len() != capacity {
		t.Errorf("Len = %d, want %d", r.Len(), capacity)
	}

	s, err := r.PeekOldest()
	if err != nil {
		t.Fatal(err)
	}
	if s.Power != 1 {
		t.Errorf("oldest survivor = %v, want 1", s.Power)
	}

	// Surviving items are exactly the most recent capacity inserts, in
	// original order.
	for want := 1; want <= capacity; want++ {
		s, err := r.PeekOldest()
		if err != nil {
			t.Fatal(err)
		}
		if s.Power != float64(want) {
			t.Fatalf("got snapshot %v, want %d", s.Power, want)
		}
		r.Commit()
	}
}

func TestRing_OverflowFlagPersistsUntilCleared(t *testing.T) {
	r := newRing(t, 2)
	for i := 0; i < 3; i++ {
		r.Insert(snapshotN(i))
	}

	// Draining does not clear the loss signal.
	r.Commit()
	r.Commit()
	if !r.Overflowed() {
		t.Error("overflow flag should persist across drain")
	}

	r.ClearOverflow()
	if r.Overflowed() {
		t.Error("overflow flag should be cleared")
	}
}

func TestRing_Status(t *testing.T) {
	r := newRing(t, 2)
	r.Insert(snapshotN(0))
	if got := r.Status(); got != "Buffer: 1/2" {
		t.Errorf("Status = %q", got)
	}
	r.Insert(snapshotN(1))
	r.Insert(snapshotN(2))
	if got := r.Status(); got != "Buffer: 2/2 (OVERFLOW)" {
		t.Errorf("Status = %q", got)
	}
}
