package annotation_test

import (
	"testing"

	"github.com/sirgallo/arbor/annotation"
)

type rec struct{ k uint64 }

func (r rec) Key() uint64 { return r.k }

func TestCardinalityAlgebraCountsLeavesAndSumsChildren(t *testing.T) {
	alg := annotation.CardinalityAlgebra[rec]()

	if got := alg.Identity(); got.Count() != 0 {
		t.Fatalf("Identity().Count() = %d, want 0", got.Count())
	}

	leaf := rec{k: 7}
	if got := alg.FromLeaf(&leaf); got.Count() != 1 {
		t.Fatalf("FromLeaf().Count() = %d, want 1", got.Count())
	}

	sum := alg.Combine([]annotation.Cardinality{2, 3, 0, 5})
	if sum.Count() != 10 {
		t.Fatalf("Combine().Count() = %d, want 10", sum.Count())
	}
}

func TestMaxKeyAlgebraTracksGreatestKey(t *testing.T) {
	alg := annotation.MaxKeyAlgebra[uint64, rec]()

	id := alg.Identity()
	if _, ok := id.Max(); ok {
		t.Fatal("Identity().Max() reported a key, want empty")
	}

	leaf := rec{k: 42}
	got := alg.FromLeaf(&leaf)
	if k, ok := got.Max(); !ok || k != 42 {
		t.Fatalf("FromLeaf().Max() = (%d, %v), want (42, true)", k, ok)
	}

	combined := alg.Combine([]annotation.MaxKey[uint64]{
		{Key: 3},
		id,
		{Key: 99},
		{Key: 17},
	})
	if k, ok := combined.Max(); !ok || k != 99 {
		t.Fatalf("Combine().Max() = (%d, %v), want (99, true)", k, ok)
	}

	allEmpty := alg.Combine([]annotation.MaxKey[uint64]{id, id})
	if _, ok := allEmpty.Max(); ok {
		t.Fatal("Combine() of only empty annotations reported a key, want empty")
	}
}

func TestProduct2CombinesBothAlgebrasIndependently(t *testing.T) {
	alg := annotation.Product2[rec, annotation.Cardinality, annotation.MaxKey[uint64]](
		annotation.CardinalityAlgebra[rec](),
		annotation.MaxKeyAlgebra[uint64, rec](),
	)

	leaves := []rec{{k: 5}, {k: 1}, {k: 9}}
	anns := make([]annotation.Pair[annotation.Cardinality, annotation.MaxKey[uint64]], len(leaves))
	for i := range leaves {
		anns[i] = alg.FromLeaf(&leaves[i])
	}

	got := alg.Combine(anns)
	if got.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", got.Count())
	}
	if k, ok := got.Second.Max(); !ok || k != 9 {
		t.Fatalf("Second.Max() = (%d, %v), want (9, true)", k, ok)
	}
}
