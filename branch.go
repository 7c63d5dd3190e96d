package arbor

import "fmt"

// Step is what a Walker decides to do at the child slot it was just shown
// (spec.md §3/§4.F "Step"). Grounded on
// original_source/src/branch_mut.rs's StepMut, with Abort added per spec.md
// for a walker that wants to stop the search outright rather than exhaust
// every sibling first.
type Step int

const (
	// StepFound accepts the current leaf: the walk ends here.
	StepFound Step = iota
	// StepInto descends into the current link's subtree.
	StepInto
	// StepAdvance moves to the next sibling slot at the current level.
	StepAdvance
	// StepAbort ends the walk immediately with no match.
	StepAbort
)

// WalkView is what a Walker sees at one child slot during a traversal: the
// owning node, the slot's ordinal within it, and the slot's contents. Nth
// only needs Kind/Leaf/Link; FindMaxKey additionally reads Node/Ordinal to
// compare this slot's key against every sibling to its right.
type WalkView[C Compound[C, L, A], L, A any] struct {
	Node    C
	Ordinal int
	Kind    ChildKind
	Leaf    *L
	Link    *Link[C, L, A]
}

// Walker decides, slot by slot, how a Branch or BranchMut descends through a
// tree. Grounded on original_source/src/branch_mut.rs's
// `FnMut(WalkMut<C, S>) -> StepMut<C, S>` closure parameter to
// PartialBranchMut::walk, reshaped as a named interface (this module's
// standard walkers — Nth, FindMaxKey, All — are reusable values, not
// one-shot closures).
type Walker[C Compound[C, L, A], L, A any] interface {
	Walk(v WalkView[C, L, A]) Step
}

// WalkerFunc adapts a plain function to the Walker interface.
type WalkerFunc[C Compound[C, L, A], L, A any] func(v WalkView[C, L, A]) Step

func (f WalkerFunc[C, L, A]) Walk(v WalkView[C, L, A]) Step { return f(v) }

// level is one entry of a Branch's path from the root to its current
// position: the node occupying that level and the ordinal of the child
// slot currently under consideration.
type level[C Compound[C, L, A], L, A any] struct {
	node    C
	ordinal int
}

// walkState drives the explicit, non-recursive state machine shared by
// Branch and BranchMut, mirroring original_source/src/branch_mut.rs's
// State::{Init,Push,Pop,Advance}.
type walkState int

const (
	stInit walkState = iota
	stPush
	stPop
	stAdvance
)

// Branch is a read-only handle to a position reached by walking a tree with
// a Walker: either the leaf the walker accepted (Found), or nothing, if the
// walker exhausted the tree or requested Abort. Grounded on
// original_source/src/branch_mut.rs's PartialBranchMut/LevelsMut, read-only.
type Branch[C Compound[C, L, A], L, A any] struct {
	levels []level[C, L, A]
}

// Walk descends root with w, returning the Branch positioned at the
// accepted leaf, or (nil, nil) if nothing was found.
func Walk[C Compound[C, L, A], L, A any](root C, w Walker[C, L, A]) (*Branch[C, L, A], error) {
	b := &Branch[C, L, A]{levels: []level[C, L, A]{{node: root}}}
	found, err := b.run(w, stInit)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return b, nil
}

// Depth reports how many levels deep the branch's current position is; two
// branches reaching leaves at different depths violate a balanced tree's
// same-depth invariant.
func (b *Branch[C, L, A]) Depth() int {
	if b == nil {
		return 0
	}
	return len(b.levels)
}

// Leaf returns the leaf at the branch's current position, or nil if the
// branch is positioned on a link (shouldn't happen for a Branch returned by
// Walk/Next, which only ever stop on leaves, but Leaf is nil-safe for a
// caller that walked off the end).
func (b *Branch[C, L, A]) Leaf() *L {
	if b == nil || len(b.levels) == 0 {
		return nil
	}
	top := b.levels[len(b.levels)-1]
	slot := top.node.Child(top.ordinal)
	if slot.Kind == ChildLeaf {
		return slot.Leaf
	}
	return nil
}

// Next advances the branch to the next leaf w accepts, reusing the current
// position's path instead of restarting from the root. Used for iteration:
// callers drive it with the All walker to visit leaves in order. It reports
// false once the walk is exhausted.
func (b *Branch[C, L, A]) Next(w Walker[C, L, A]) (bool, error) {
	if b == nil || len(b.levels) == 0 {
		return false, nil
	}
	return b.run(w, stAdvance)
}

// run is the explicit state machine both Walk and Next drive. It never
// recurses: a descent is a push onto b.levels, a dead end is a pop with the
// parent's ordinal advanced past the child that led nowhere.
func (b *Branch[C, L, A]) run(w Walker[C, L, A], start walkState) (bool, error) {
	state := start
	var pushNode C

	for {
		switch state {
		case stInit:
		case stPush:
			b.levels = append(b.levels, level[C, L, A]{node: pushNode})
		case stPop:
			if len(b.levels) <= 1 {
				b.levels = nil
				return false, nil
			}
			b.levels = b.levels[:len(b.levels)-1]
			b.levels[len(b.levels)-1].ordinal++
		case stAdvance:
			b.levels[len(b.levels)-1].ordinal++
		}
		state = stInit

		top := &b.levels[len(b.levels)-1]
		slot := top.node.Child(top.ordinal)

		if slot.Kind == ChildEnd {
			state = stPop
			continue
		}
		if slot.Kind == ChildEmpty {
			state = stAdvance
			continue
		}

		view := WalkView[C, L, A]{Node: top.node, Ordinal: top.ordinal, Kind: slot.Kind, Leaf: slot.Leaf, Link: slot.Link}

		switch w.Walk(view) {
		case StepFound:
			return true, nil
		case StepAdvance:
			state = stAdvance
		case StepInto:
			if slot.Kind != ChildLink {
				return false, fmt.Errorf("arbor: walker requested Into on a non-link child")
			}
			child, err := slot.Link.Compound()
			if err != nil {
				return false, err
			}
			pushNode = child
			state = stPush
		case StepAbort:
			b.levels = nil
			return false, nil
		}
	}
}
