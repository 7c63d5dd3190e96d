package arbor

import (
	"fmt"
	"runtime"
)

// WalkViewMut is WalkView's mutable counterpart: Leaf can be edited in
// place through the returned pointer, Link can be descended into for
// further mutation.
type WalkViewMut[C Compound[C, L, A], L, A any] struct {
	Node    C
	Ordinal int
	Kind    ChildKind
	Leaf    *L
	Link    *Link[C, L, A]
}

// MutWalker is Walker's mutable counterpart, driving a BranchMut descent.
type MutWalker[C Compound[C, L, A], L, A any] interface {
	Walk(v WalkViewMut[C, L, A]) Step
}

// MutWalkerFunc adapts a plain function to the MutWalker interface.
type MutWalkerFunc[C Compound[C, L, A], L, A any] func(v WalkViewMut[C, L, A]) Step

func (f MutWalkerFunc[C, L, A]) Walk(v WalkViewMut[C, L, A]) Step { return f(v) }

// levelMut is one entry of a BranchMut's path: the node at that level
// (reached, for every level but the root, through link), and the ordinal of
// the child slot currently under consideration. C is expected to already be
// a reference type (a pointer to a node struct), so node needs no extra
// indirection to support mutation.
type levelMut[C Compound[C, L, A], L, A any] struct {
	node    C
	link    *Link[C, L, A]
	ordinal int
}

// BranchMut is a mutable handle to a position reached by walking a tree
// with a MutWalker. While open, it holds every link from the root down to
// its current position in an invalidated state (no cached annotation, no
// guaranteed backing offset) since the caller may be mutating through it.
// Close (or the finalizer safety net, if a caller forgets) unwinds the path
// bottom-up, which in this implementation just means every link it touched
// is already left invalidated — the next Annotation()/Store() call on any
// of them recomputes from the now-mutated subtree lazily.
//
// Go has no Drop; original_source/src/branch_mut.rs's
// `impl Drop for PartialBranchMut { fn drop(&mut self) { while let Some(_)
// = self.pop() {} } }` unwinds by writing each popped, possibly-mutated
// node back into its parent's child slot as a fresh, uncached Annotated
// wrapper. In Go, CompoundMut already hands back the same reference the
// Link caches internally, so mutating through it needs no write-back — only
// the cache invalidation Drop's pop() implicitly performs survives as real
// work here, which is what Close/finalize do.
type BranchMut[C Compound[C, L, A], L, A any] struct {
	levels []levelMut[C, L, A]
	closed bool
}

// WalkMut descends root with w, returning a BranchMut positioned at the
// accepted leaf, or (nil, nil) if nothing was found. Callers must call
// Close when done; a finalizer invalidates the path as a safety net if they
// don't, but relying on that for correctness is a bug in the caller.
func WalkMut[C Compound[C, L, A], L, A any](root C, w MutWalker[C, L, A]) (*BranchMut[C, L, A], error) {
	bm := &BranchMut[C, L, A]{levels: []levelMut[C, L, A]{{node: root}}}
	found, err := bm.run(w, stInit)
	if err != nil {
		bm.unwind()
		return nil, err
	}
	if !found {
		bm.unwind()
		return nil, nil
	}
	runtime.SetFinalizer(bm, (*BranchMut[C, L, A]).finalize)
	return bm, nil
}

func (bm *BranchMut[C, L, A]) run(w MutWalker[C, L, A], start walkState) (bool, error) {
	state := start
	var pushNode C
	var pushLink *Link[C, L, A]

	for {
		switch state {
		case stInit:
		case stPush:
			bm.levels = append(bm.levels, levelMut[C, L, A]{node: pushNode, link: pushLink})
		case stPop:
			if len(bm.levels) <= 1 {
				bm.levels = nil
				return false, nil
			}
			popped := bm.levels[len(bm.levels)-1]
			bm.levels = bm.levels[:len(bm.levels)-1]
			if popped.link != nil {
				popped.link.Invalidate()
			}
			bm.levels[len(bm.levels)-1].ordinal++
		case stAdvance:
			bm.levels[len(bm.levels)-1].ordinal++
		}
		state = stInit

		top := &bm.levels[len(bm.levels)-1]
		slot := top.node.ChildMut(top.ordinal)

		if slot.Kind == ChildEnd {
			state = stPop
			continue
		}
		if slot.Kind == ChildEmpty {
			state = stAdvance
			continue
		}

		view := WalkViewMut[C, L, A]{Node: top.node, Ordinal: top.ordinal, Kind: slot.Kind, Leaf: slot.Leaf, Link: slot.Link}

		switch w.Walk(view) {
		case StepFound:
			return true, nil
		case StepAdvance:
			state = stAdvance
		case StepInto:
			if slot.Kind != ChildLink {
				return false, fmt.Errorf("arbor: walker requested Into on a non-link child")
			}
			child, err := slot.Link.CompoundMut()
			if err != nil {
				return false, err
			}
			pushNode = child
			pushLink = slot.Link
			state = stPush
		case StepAbort:
			bm.levels = nil
			return false, nil
		}
	}
}

// LeafMut returns a mutable pointer to the leaf at the branch's current
// position, or nil if positioned on something else.
func (bm *BranchMut[C, L, A]) LeafMut() *L {
	if bm == nil || len(bm.levels) == 0 {
		return nil
	}
	top := bm.levels[len(bm.levels)-1]
	slot := top.node.ChildMut(top.ordinal)
	if slot.Kind == ChildLeaf {
		return slot.Leaf
	}
	return nil
}

// Depth reports how many levels deep the branch's current position is.
func (bm *BranchMut[C, L, A]) Depth() int {
	if bm == nil {
		return 0
	}
	return len(bm.levels)
}

func (bm *BranchMut[C, L, A]) unwind() {
	for i := len(bm.levels) - 1; i >= 1; i-- {
		if bm.levels[i].link != nil {
			bm.levels[i].link.Invalidate()
		}
	}
	bm.levels = nil
}

// Close invalidates every link along the branch's path so their annotations
// and backing offsets are recomputed lazily on next access, reflecting
// whatever mutation happened through LeafMut/CompoundMut while the branch
// was open. Idempotent.
func (bm *BranchMut[C, L, A]) Close() error {
	if bm.closed {
		return nil
	}
	bm.closed = true
	runtime.SetFinalizer(bm, nil)
	bm.unwind()
	return nil
}

func (bm *BranchMut[C, L, A]) finalize() {
	if bm.closed {
		return
	}
	bm.closed = true
	bm.unwind()
}
