package pathidx

import (
	"fmt"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	idx := New()
	idx.Put("pop-a", 3)
	idx.Put("pop-b", 7)

	if v, ok := idx.Get("pop-a"); !ok || v != 3 {
		t.Fatalf("Get(pop-a) = (%d, %v), want (3, true)", v, ok)
	}
	if v, ok := idx.Get("pop-b"); !ok || v != 7 {
		t.Fatalf("Get(pop-b) = (%d, %v), want (7, true)", v, ok)
	}
	if _, ok := idx.Get("missing"); ok {
		t.Fatal("Get on an absent key should report false")
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	idx := New()
	idx.Put("pop-a", 1)
	idx.Put("pop-a", 2)
	if v, _ := idx.Get("pop-a"); v != 2 {
		t.Fatalf("Get(pop-a) = %d, want 2 after overwrite", v)
	}
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (overwrite should not grow the index)", idx.Size())
	}
}

func TestResetClearsAllEntries(t *testing.T) {
	idx := New()
	idx.Put("pop-a", 1)
	idx.Put("pop-b", 2)
	idx.Reset()
	if idx.Size() != 0 {
		t.Fatalf("Size() after Reset = %d, want 0", idx.Size())
	}
	if _, ok := idx.Get("pop-a"); ok {
		t.Fatal("pop-a should be gone after Reset")
	}
}

func TestHandlesUpToMaxPopsPerService(t *testing.T) {
	idx := New()
	const n = 32 // registry.MaxPopsPerService
	for i := 0; i < n; i++ {
		idx.Put(fmt.Sprintf("pop-%02d", i), uint32(i))
	}
	if idx.Size() != n {
		t.Fatalf("Size() = %d, want %d", idx.Size(), n)
	}
}
