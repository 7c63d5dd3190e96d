package arbor

// Counter is satisfied by an annotation that can report how many leaves its
// subtree summarizes (annotation.Cardinality implements it). It lives here,
// not in the annotation package, so the Nth walker can stay in this package
// without an import cycle: annotation imports arbor to build its
// Annotation[L, A] algebra values, so arbor can't import annotation back.
type Counter interface {
	Count() uint64
}

// mustAnnotation computes a link's annotation, panicking on arena I/O
// failure. Every Walker implementation in this file is shaped after
// original_source/src/branch_mut.rs's infallible `FnMut(WalkMut) ->
// StepMut` closure, which never threads an error out of the walk step
// itself — the arena is assumed reachable for the lifetime of a walk, the
// same assumption the original makes by fixing its Store::Error to
// Infallible in every configuration this module draws from.
func mustAnnotation[C Compound[C, L, A], L, A any](lk *Link[C, L, A]) A {
	a, err := lk.Annotation()
	if err != nil {
		panic(err)
	}
	return a
}

// Nth descends to the n-th leaf (0-indexed) in left-to-right order, using
// each link's cached Cardinality annotation to skip whole subtrees without
// visiting their leaves. Grounded on original_source/src/compound.rs's
// blanket Nth<S> impl.
type Nth[C Compound[C, L, A], L any, A Counter] struct {
	N uint64
}

func (w *Nth[C, L, A]) Walk(v WalkView[C, L, A]) Step {
	switch v.Kind {
	case ChildLeaf:
		if w.N == 0 {
			return StepFound
		}
		w.N--
		return StepAdvance
	case ChildLink:
		count := mustAnnotation[C, L, A](v.Link).Count()
		if w.N < count {
			return StepInto
		}
		w.N -= count
		return StepAdvance
	default:
		return StepAdvance
	}
}

// MaxKeyer is satisfied by an annotation that reports the greatest key
// (fixed at uint64, mirroring Counter's fixed uint64 count) among the
// leaves it summarizes. annotation.MaxKey[uint64] implements it directly;
// annotation.Pair forwards to it the same way Pair forwards Count to a
// Counter-implementing half. It lives here, not in the annotation package,
// for the same import-cycle reason Counter does.
type MaxKeyer interface {
	Max() (uint64, bool)
}

// Keyed is satisfied by a leaf type that exposes its own key (fixed at
// uint64). Every leaf type in this module's demonstration containers
// already implements this to satisfy annotation.Keyed[uint64] for
// MaxKeyAlgebra; FindMaxKey reuses the same method to compare a leaf
// directly against its siblings' link annotations.
type Keyed interface {
	Key() uint64
}

// FindMaxKey descends to the leaf holding the overall greatest key,
// reading each candidate's actual MaxKey annotation (a leaf's own key, or a
// link's cached MaxKeyer value) and comparing it against every sibling to
// its right before committing, rather than assuming children are kept in
// sorted order. Grounded on original_source/src/annotation.rs's Max<K> and
// the FindMaxKey::walk sketch in
// original_source/src/annotations/max_key.rs (left as todo!() there),
// which tracks a running maximum across siblings by value rather than by
// position.
type FindMaxKey[C Compound[C, L, A], L Keyed, A MaxKeyer] struct{}

// keyOf returns the key a child slot's content would contribute to MaxKey:
// a leaf's own key, or a link's cached maximum. The second return is false
// for an empty subtree (a link with no leaves) or a non-leaf, non-link
// slot, meaning it never wins a comparison.
func keyOf[C Compound[C, L, A], L Keyed, A MaxKeyer](kind ChildKind, leaf *L, link *Link[C, L, A]) (uint64, bool) {
	switch kind {
	case ChildLeaf:
		return (*leaf).Key(), true
	case ChildLink:
		return mustAnnotation[C, L, A](link).Max()
	default:
		return 0, false
	}
}

func (w FindMaxKey[C, L, A]) Walk(v WalkView[C, L, A]) Step {
	curKey, ok := keyOf[C, L, A](v.Kind, v.Leaf, v.Link)
	if !ok {
		return StepAdvance
	}

	for j := v.Ordinal + 1; ; j++ {
		slot := v.Node.Child(j)
		if slot.Kind == ChildEnd {
			break
		}
		if k, ok := keyOf[C, L, A](slot.Kind, slot.Leaf, slot.Link); ok && k > curKey {
			return StepAdvance
		}
	}

	if v.Kind == ChildLeaf {
		return StepFound
	}
	return StepInto
}

// All unconditionally descends the leftmost path of a tree: Into on every
// link, Found on the first leaf. Used to drive iteration (Branch.Next
// repeatedly advances a branch positioned by All, visiting every leaf in
// order). Grounded on
// original_source/src/collections/btree.rs's use of an unconditional
// descent to implement iteration.
type All[C Compound[C, L, A], L, A any] struct{}

func (w All[C, L, A]) Walk(v WalkView[C, L, A]) Step {
	switch v.Kind {
	case ChildLeaf:
		return StepFound
	case ChildLink:
		return StepInto
	default:
		return StepAdvance
	}
}
