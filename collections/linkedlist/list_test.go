package linkedlist

import (
	"math/rand"
	"testing"

	"github.com/sirgallo/arbor"
)

func TestListInsertFindSortedOrder(t *testing.T) {
	l := New(arbor.NewPortal())
	keys := []uint64{5, 1, 4, 2, 3}
	for _, k := range keys {
		if err := l.Insert(k, k*10); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	all, err := l.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != len(keys) {
		t.Fatalf("All returned %d entries, want %d", len(all), len(keys))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].K >= all[i].K {
			t.Fatalf("All not ascending at %d: %+v", i, all)
		}
	}

	for _, k := range keys {
		v, ok, err := l.Find(k)
		if err != nil || !ok || v != k*10 {
			t.Fatalf("Find(%d) = %d, %v, %v, want %d, true, nil", k, v, ok, err, k*10)
		}
	}
}

func TestListInsertDuplicateKeyOverwrites(t *testing.T) {
	l := New(arbor.NewPortal())
	if err := l.Insert(9, 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := l.Insert(9, 2); err != nil {
		t.Fatalf("Insert (overwrite): %v", err)
	}

	v, ok, err := l.Find(9)
	if err != nil || !ok || v != 2 {
		t.Fatalf("Find(9) = %d, %v, %v, want 2, true, nil", v, ok, err)
	}

	n, err := l.Len()
	if err != nil || n != 1 {
		t.Fatalf("Len = %d, %v, want 1, nil", n, err)
	}
}

func TestListDeleteRemovesEntry(t *testing.T) {
	l := New(arbor.NewPortal())
	for _, k := range []uint64{1, 2, 3} {
		if err := l.Insert(k, k); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	ok, err := l.Delete(2)
	if err != nil || !ok {
		t.Fatalf("Delete(2) = %v, %v, want true, nil", ok, err)
	}
	if _, present, err := l.Find(2); err != nil || present {
		t.Fatalf("Find(2) after delete: present=%v, err=%v, want false, nil", present, err)
	}

	n, err := l.Len()
	if err != nil || n != 2 {
		t.Fatalf("Len after delete = %d, %v, want 2, nil", n, err)
	}
}

func TestListDeleteMissingKey(t *testing.T) {
	l := New(arbor.NewPortal())
	if err := l.Insert(1, 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := l.Delete(42)
	if err != nil || ok {
		t.Fatalf("Delete(42) = %v, %v, want false, nil", ok, err)
	}
}

// TestListMaxKeyShuffledInsert mirrors original_source/tests/max.rs literally:
// shuffle 0..1024, insert every one, and confirm Max reports the greatest
// key regardless of insertion order — a property independent of whether the
// list is kept sorted (this package's Insert keeps sorted order, unlike the
// original's unsorted head-insert list) or not, since Max folds the whole
// tree's MaxKey annotation either way.
func TestListMaxKeyShuffledInsert(t *testing.T) {
	const n = 1024
	keys := rand.New(rand.NewSource(2)).Perm(n)

	l := New(arbor.NewPortal())
	for _, k := range keys {
		if err := l.Insert(uint64(k), uint64(k)); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	max, ok, err := l.Max()
	if err != nil || !ok || max != n-1 {
		t.Fatalf("Max() = %d, %v, %v, want %d, true, nil", max, ok, err, n-1)
	}
}

// TestListNthMatchesAscendingOrder adapts spec.md §8 scenario 3 (Nth over a
// Cardinality-annotated linked list) to this package's sorted-insert
// discipline: original_source/tests/linked_list.rs builds its list by
// unsorted head-insertion, so inserting 0..n in order puts n-1 at the head
// (nth(0) == n-1); this package instead keeps entries in ascending key
// order on every Insert (see DESIGN.md), so the equivalent property is that
// Nth(i) returns the i-th smallest key — the same cardinality-guided Branch
// descent mechanism the original scenario exercises, against a container
// whose ordering invariant is sorted rather than insertion order.
func TestListNthMatchesAscendingOrder(t *testing.T) {
	const n = 1024
	keys := rand.New(rand.NewSource(3)).Perm(n)

	l := New(arbor.NewPortal())
	for _, k := range keys {
		if err := l.Insert(uint64(k), uint64(k)*2); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	for i := uint64(0); i < n; i++ {
		entry, ok, err := l.Nth(i)
		if err != nil || !ok {
			t.Fatalf("Nth(%d): ok=%v, err=%v", i, ok, err)
		}
		if entry.K != i || entry.V != i*2 {
			t.Fatalf("Nth(%d) = %+v, want K=%d", i, entry, i)
		}
	}

	if _, ok, err := l.Nth(n); err != nil || ok {
		t.Fatalf("Nth(n) out of range: ok=%v, err=%v, want false, nil", ok, err)
	}
}

// TestListInsertInvalidatesAncestorCardinality regresses a bug where only
// the link at the final splice point was invalidated on Insert, leaving
// every ancestor on the path to it with a stale cached Cardinality: a
// second Len() after a tail-append kept reporting the pre-insert count.
func TestListInsertInvalidatesAncestorCardinality(t *testing.T) {
	l := New(arbor.NewPortal())
	for _, k := range []uint64{1, 2, 3} {
		if err := l.Insert(k, k); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	if n, err := l.Len(); err != nil || n != 3 {
		t.Fatalf("Len before = %d, %v, want 3, nil", n, err)
	}

	if err := l.Insert(4, 4); err != nil {
		t.Fatalf("Insert(4): %v", err)
	}

	n, err := l.Len()
	if err != nil || n != 4 {
		t.Fatalf("Len after Insert(4) = %d, %v, want 4, nil (a stale ancestor cache wasn't invalidated)", n, err)
	}
	max, ok, err := l.Max()
	if err != nil || !ok || max != 4 {
		t.Fatalf("Max after Insert(4) = %d, %v, %v, want 4, true, nil", max, ok, err)
	}
}

// TestListDeleteInvalidatesAncestorCardinality is Delete's counterpart to
// TestListInsertInvalidatesAncestorCardinality: removing the tail entry
// must be visible in a Len() taken through nodes whose cache was already
// populated by an earlier call.
func TestListDeleteInvalidatesAncestorCardinality(t *testing.T) {
	l := New(arbor.NewPortal())
	for _, k := range []uint64{1, 2, 3, 4} {
		if err := l.Insert(k, k); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	if n, err := l.Len(); err != nil || n != 4 {
		t.Fatalf("Len before = %d, %v, want 4, nil", n, err)
	}

	ok, err := l.Delete(4)
	if err != nil || !ok {
		t.Fatalf("Delete(4) = %v, %v, want true, nil", ok, err)
	}

	n, err := l.Len()
	if err != nil || n != 3 {
		t.Fatalf("Len after Delete(4) = %d, %v, want 3, nil (a stale ancestor cache wasn't invalidated)", n, err)
	}
	max, ok, err := l.Max()
	if err != nil || !ok || max != 3 {
		t.Fatalf("Max after Delete(4) = %d, %v, %v, want 3, true, nil", max, ok, err)
	}
}

// TestListMaxEntryMatchesMax exercises arbor.FindMaxKey (via List.MaxEntry)
// against the same shuffled-insert fixture TestListMaxKeyShuffledInsert
// uses for Max, confirming the walker that actually compares MaxKey
// annotations reaches the same entry the root annotation reports.
func TestListMaxEntryMatchesMax(t *testing.T) {
	const n = 256
	keys := rand.New(rand.NewSource(4)).Perm(n)

	l := New(arbor.NewPortal())
	for _, k := range keys {
		if err := l.Insert(uint64(k), uint64(k)*7); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	entry, ok, err := l.MaxEntry()
	if err != nil || !ok {
		t.Fatalf("MaxEntry: ok=%v, err=%v", ok, err)
	}
	if entry.K != n-1 || entry.V != uint64(n-1)*7 {
		t.Fatalf("MaxEntry = %+v, want K=%d", entry, n-1)
	}

	max, ok, err := l.Max()
	if err != nil || !ok || max != entry.K {
		t.Fatalf("Max() = %d, %v, %v, want %d, true, nil (disagrees with MaxEntry)", max, ok, err, entry.K)
	}
}

func TestListMaxEntryOnEmptyList(t *testing.T) {
	l := New(arbor.NewPortal())
	if _, ok, err := l.MaxEntry(); err != nil || ok {
		t.Fatalf("MaxEntry on empty list: ok=%v, err=%v, want false, nil", ok, err)
	}
}

func TestListLenAndMaxOnEmptyList(t *testing.T) {
	l := New(arbor.NewPortal())
	n, err := l.Len()
	if err != nil || n != 0 {
		t.Fatalf("Len on empty list = %d, %v, want 0, nil", n, err)
	}
	if _, ok, err := l.Max(); err != nil || ok {
		t.Fatalf("Max on empty list: ok=%v, err=%v, want false, nil", ok, err)
	}
	if _, ok, err := l.Find(1); err != nil || ok {
		t.Fatalf("Find on empty list: ok=%v, err=%v, want false, nil", ok, err)
	}
}

func TestListStoreOpenRoundTrip(t *testing.T) {
	p := arbor.NewPortal()
	l := New(p)
	for k := uint64(0); k < 30; k++ {
		if err := l.Insert(k, k+100); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	head, err := l.Store()
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	reopened := Open(p, head)
	for k := uint64(0); k < 30; k++ {
		v, ok, err := reopened.Find(k)
		if err != nil || !ok || v != k+100 {
			t.Fatalf("Find(%d) after reopen = %d, %v, %v, want %d, true, nil", k, v, ok, err, k+100)
		}
	}
	n, err := reopened.Len()
	if err != nil || n != 30 {
		t.Fatalf("Len after reopen = %d, %v, want 30, nil", n, err)
	}
}
