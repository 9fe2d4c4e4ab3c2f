package failsched

import "testing"

func TestBorrowPushPopMinOrdering(t *testing.T) {
	q := New()
	h1, err := q.Borrow()
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	h2, err := q.Borrow()
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	if err := q.Push(100, h1, Target{ServiceIdx: 1, PathID: 1}); err != nil {
		t.Fatalf("Push h1: %v", err)
	}
	if err := q.Push(50, h2, Target{ServiceIdx: 2, PathID: 2}); err != nil {
		t.Fatalf("Push h2: %v", err)
	}

	h, tick, target, ok := q.PopMin()
	if !ok || h != h2 || tick != 50 || target.ServiceIdx != 2 {
		t.Fatalf("got (%v, %d, %+v, %v), want h2 at tick 50", h, tick, target, ok)
	}
	h, tick, target, ok = q.PopMin()
	if !ok || h != h1 || tick != 100 || target.ServiceIdx != 1 {
		t.Fatalf("got (%v, %d, %+v, %v), want h1 at tick 100", h, tick, target, ok)
	}
	if !q.Empty() {
		t.Fatal("queue should be empty after draining both entries")
	}
}

func TestPeepMinDoesNotRemove(t *testing.T) {
	q := New()
	h, _ := q.Borrow()
	q.Push(10, h, Target{ServiceIdx: 1})

	_, _, _, ok := q.PeepMin()
	if !ok {
		t.Fatal("PeepMin should find the entry")
	}
	if q.Size() != 1 {
		t.Fatalf("Size() after PeepMin = %d, want 1 (PeepMin must not remove)", q.Size())
	}
}

func TestPushBeyondWindowFails(t *testing.T) {
	q := New()
	h, _ := q.Borrow()
	if err := q.Push(numBuckets, h, Target{}); err != ErrBeyondWindow {
		t.Fatalf("Push beyond window = %v, want ErrBeyondWindow", err)
	}
}

func TestUpdateReschedules(t *testing.T) {
	q := New()
	h, _ := q.Borrow()
	q.Push(10, h, Target{ServiceIdx: 1})
	if err := q.Update(20, h, Target{ServiceIdx: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, tick, _, ok := q.PeepMin()
	if !ok || tick != 20 {
		t.Fatalf("got tick %d, want 20 after Update", tick)
	}
}

func TestBorrowFailsWhenArenaExhausted(t *testing.T) {
	q := New()
	for i := 0; i < Capacity; i++ {
		if _, err := q.Borrow(); err != nil {
			t.Fatalf("Borrow #%d: %v", i, err)
		}
	}
	if _, err := q.Borrow(); err != ErrFull {
		t.Fatalf("Borrow past capacity = %v, want ErrFull", err)
	}
}

func TestReturnReleasesHandleForReuse(t *testing.T) {
	q := New()
	h, _ := q.Borrow()
	if err := q.Return(h); err != nil {
		t.Fatalf("Return: %v", err)
	}
	h2, err := q.Borrow()
	if err != nil {
		t.Fatalf("Borrow after Return: %v", err)
	}
	if h2 != h {
		t.Fatalf("expected the freed handle to be reused, got %v want %v", h2, h)
	}
}

func TestPushSameTickTwiceCoalescesCount(t *testing.T) {
	q := New()
	h, _ := q.Borrow()
	q.Push(5, h, Target{ServiceIdx: 1})
	if err := q.Push(5, h, Target{ServiceIdx: 1}); err != nil {
		t.Fatalf("second Push at same tick: %v", err)
	}
	if q.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 after two pushes at the same tick", q.Size())
	}
	_, _, _, ok := q.PopMin()
	if !ok {
		t.Fatal("expected an entry")
	}
	if q.Size() != 1 {
		t.Fatalf("Size() after one PopMin = %d, want 1 (count coalescing keeps the node until drained)", q.Size())
	}
}
