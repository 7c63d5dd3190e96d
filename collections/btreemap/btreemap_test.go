package btreemap

import (
	"math/rand"
	"testing"

	"github.com/sirgallo/arbor"
)

func TestBTreeMapInsertGetReplace(t *testing.T) {
	m := New(arbor.NewPortal())

	if err := m.Insert(5, 50); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if v, ok, err := m.Get(5); err != nil || !ok || v != 50 {
		t.Fatalf("Get(5) = %d, %v, %v, want 50, true, nil", v, ok, err)
	}

	if err := m.Insert(5, 500); err != nil {
		t.Fatalf("Insert (replace): %v", err)
	}
	if v, ok, err := m.Get(5); err != nil || !ok || v != 500 {
		t.Fatalf("Get(5) after replace = %d, %v, %v, want 500, true, nil", v, ok, err)
	}

	n, err := m.Len()
	if err != nil || n != 1 {
		t.Fatalf("Len = %d, %v, want 1, nil", n, err)
	}
}

func TestBTreeMapInsertRemove(t *testing.T) {
	m := New(arbor.NewPortal())

	if err := m.Insert(7, 70); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := m.Remove(7)
	if err != nil || !ok {
		t.Fatalf("Remove(7) = %v, %v, want true, nil", ok, err)
	}
	if _, present, err := m.Get(7); err != nil || present {
		t.Fatalf("Get(7) after remove: present=%v, err=%v, want false, nil", present, err)
	}
}

func TestBTreeMapRemoveMissingKey(t *testing.T) {
	m := New(arbor.NewPortal())
	if err := m.Insert(1, 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := m.Remove(99)
	if err != nil || ok {
		t.Fatalf("Remove(99) = %v, %v, want false, nil", ok, err)
	}
}

func TestBTreeMapMaxKeyShuffledInsert(t *testing.T) {
	const n = 256
	keys := rand.New(rand.NewSource(1)).Perm(n)

	m := New(arbor.NewPortal())
	for _, k := range keys {
		if err := m.Insert(uint64(k), uint64(k)*2); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	max, ok, err := m.Max()
	if err != nil || !ok || max != n-1 {
		t.Fatalf("Max() = %d, %v, %v, want %d, true, nil", max, ok, err, n-1)
	}
}

func TestBTreeMapAllAscendingOrder(t *testing.T) {
	m := New(arbor.NewPortal())
	keys := []uint64{5, 1, 4, 2, 3}
	for _, k := range keys {
		if err := m.Insert(k, k); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	all, err := m.All()
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
}

func TestBTreeMapRange(t *testing.T) {
	m := New(arbor.NewPortal())
	for k := uint64(0); k < 20; k++ {
		if err := m.Insert(k, k*10); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	got, err := m.Range(5, 10)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("Range(5,10) returned %d entries, want 6: %+v", len(got), got)
	}
	for i, p := range got {
		want := uint64(5 + i)
		if p.K != want || p.V != want*10 {
			t.Fatalf("Range(5,10)[%d] = %+v, want K=%d", i, p, want)
		}
	}

	if _, err := m.Range(10, 5); err != arbor.ErrStartAfterEnd {
		t.Fatalf("Range(10,5) err = %v, want ErrStartAfterEnd", err)
	}
}

// leafDepths returns the Depth() of every key currently in m, used to check
// the same-depth invariant every B-tree must hold (spec.md §8).
func leafDepths(t *testing.T, m *BTreeMap) []int {
	t.Helper()
	all, err := m.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	depths := make([]int, len(all))
	for i, p := range all {
		d, err := m.Depth(p.K)
		if err != nil {
			t.Fatalf("Depth(%d): %v", p.K, err)
		}
		depths[i] = d
	}
	return depths
}

func assertSameDepth(t *testing.T, m *BTreeMap, label string) {
	t.Helper()
	depths := leafDepths(t, m)
	for i := 1; i < len(depths); i++ {
		if depths[i] != depths[0] {
			t.Fatalf("%s: leaves at unequal depth: %v", label, depths)
		}
	}
}

// TestBTreeMapSameDepthInvariant mirrors spec.md §8 scenario 5: for every
// o in [4, 256), insert 0..o then remove 0..o; after every single insert and
// every single remove, all leaves must sit at the same depth, and the final
// state must be an empty map.
func TestBTreeMapSameDepthInvariant(t *testing.T) {
	for o := uint64(4); o < 256; o++ {
		m := New(arbor.NewPortal())

		for k := uint64(0); k < o; k++ {
			if err := m.Insert(k, k); err != nil {
				t.Fatalf("o=%d: Insert(%d): %v", o, k, err)
			}
			assertSameDepth(t, m, "after insert")
		}

		for k := uint64(0); k < o; k++ {
			ok, err := m.Remove(k)
			if err != nil || !ok {
				t.Fatalf("o=%d: Remove(%d) = %v, %v, want true, nil", o, k, ok, err)
			}
			assertSameDepth(t, m, "after remove")
		}

		n, err := m.Len()
		if err != nil || n != 0 {
			t.Fatalf("o=%d: Len after full removal = %d, %v, want 0, nil", o, n, err)
		}
		if _, ok, err := m.Max(); err != nil || ok {
			t.Fatalf("o=%d: Max after full removal: ok=%v, err=%v, want false, nil", o, ok, err)
		}
	}
}

func TestBTreeMapStoreOpenRoundTrip(t *testing.T) {
	p := arbor.NewPortal()
	m := New(p)
	for k := uint64(0); k < 40; k++ {
		if err := m.Insert(k, k*3); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	root, err := m.Store()
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	reopened := Open(p, root)
	for k := uint64(0); k < 40; k++ {
		v, ok, err := reopened.Get(k)
		if err != nil || !ok || v != k*3 {
			t.Fatalf("Get(%d) after reopen = %d, %v, %v, want %d, true, nil", k, v, ok, err, k*3)
		}
	}
	n, err := reopened.Len()
	if err != nil || n != 40 {
		t.Fatalf("Len after reopen = %d, %v, want 40, nil", n, err)
	}
}
