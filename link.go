package arbor

import (
	"fmt"
	"sync"
)

// linkState is Link's internal state tag, spec.md §3's four-state table.
type linkState int

const (
	// stateInMem holds a child built or mutated in memory, with no cached
	// annotation and no backing offset.
	stateInMem linkState = iota
	// stateInMemAnn holds an in-memory child with a cached annotation, but
	// still no backing offset (not yet stored).
	stateInMemAnn
	// stateStored holds an offset and codec, plus the annotation when it was
	// decoded alongside the offset (NewStoredLinkAnnotated); the child hasn't
	// been materialized into memory yet.
	stateStored
	// stateBoth holds a materialized child and a valid backing offset. The
	// annotation is cached only if it was decoded or computed earlier: a
	// link that reached this state through Store, or by materializing a
	// NewStoredLink, computes it on its first Annotation call.
	stateBoth
)

// Codec is the (record, marshal, validate) triple a Link needs to persist
// and reload its child. Concrete container types build one of these once,
// per node type, and share it across every Link they create. Record is the
// Primitive describing the archived form's fixed size and alignment
// (spec.md §4.A); every container in this module builds it as a FixedRecord
// from a hand-computed constant, since there's no derive facility to
// compute one automatically.
type Codec[C any] struct {
	Record   Primitive
	Marshal  Marshaler[C]
	Validate Validator[C]
}

// Link is a lazy, optionally-archived handle to a child subtree (spec.md §3
// "Link"). It caches the child's annotation once computed and its archived
// offset once stored; mutating the child through CompoundMut invalidates
// both, matching the rule that edits always invalidate the archived copy
// rather than attempting to patch bytes already written to the arena.
//
// C appears as its own type parameter so ChildSlot's Link field and
// Compound's Child/ChildMut methods can all agree on one concrete node type
// without the package needing to know it in advance. The type itself leaves
// C unconstrained (ChildSlot, declared over any C, names Link[C, L, A]); the
// constructors only accept a C that implements Compound[C, L, A].
//
// Grounded on original_source/src/link.rs's LinkInner<C, A> enum
// (Placeholder/C/Ca/Ia/Ica collapse onto stateInMem/stateInMemAnn/
// stateStored/stateBoth here — Go's GC means there's no Placeholder state to
// model, since Link is never left logically empty mid-replace) and on the
// teacher's StartOffset/Leaf fields on MariINode for the "does this node
// have a backing offset yet" distinction.
type Link[C any, L, A any] struct {
	mu sync.Mutex

	state  linkState
	child  *C
	ann    *A
	offset Offset

	portal  *Portal
	codec   Codec[C]
	algebra Annotation[L, A]
}

// NewLink wraps an in-memory child with no backing offset.
func NewLink[C Compound[C, L, A], L, A any](child C, algebra Annotation[L, A], codec Codec[C]) *Link[C, L, A] {
	return &Link[C, L, A]{state: stateInMem, child: &child, algebra: algebra, codec: codec}
}

// NewStoredLink wraps an offset previously returned by Link.Store, without
// loading the child yet. The returned link starts with no cached
// annotation: its first Annotation() call must materialize the child to
// compute one. Container codecs that archive only a bare offset (not the
// spec's {offset, annotation} record shape) construct their Stored links
// this way; prefer NewStoredLinkAnnotated when the archived record carries
// an annotation alongside the offset, per spec.md §6.
func NewStoredLink[C Compound[C, L, A], L, A any](portal *Portal, offset Offset, algebra Annotation[L, A], codec Codec[C]) *Link[C, L, A] {
	return &Link[C, L, A]{state: stateStored, offset: offset, portal: portal, algebra: algebra, codec: codec}
}

// NewStoredLinkAnnotated wraps an offset and its precomputed annotation,
// both previously decoded from an archived link record ({offset,
// annotation}, spec.md §6). Unlike NewStoredLink, the returned link already
// satisfies invariant (i) ("a Stored or Both link has an annotation")
// without materializing the child: Annotation() answers from the cache in
// O(1), the zero-copy descent spec.md §4.D calls for. Every container in
// this module builds its archived link records this way and reconstructs
// links through this constructor on restore.
func NewStoredLinkAnnotated[C Compound[C, L, A], L, A any](portal *Portal, offset Offset, ann A, algebra Annotation[L, A], codec Codec[C]) *Link[C, L, A] {
	return &Link[C, L, A]{state: stateStored, offset: offset, ann: &ann, portal: portal, algebra: algebra, codec: codec}
}

// Attach associates an arena with an in-memory link so it can later be
// stored. Links built by NewStoredLink are already attached.
func (lk *Link[C, L, A]) Attach(p *Portal) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	lk.portal = p
}

// materializeLocked loads the child from the arena if only an offset is
// known. Caller must hold lk.mu.
func (lk *Link[C, L, A]) materializeLocked() error {
	if lk.child != nil {
		return nil
	}
	if lk.portal == nil {
		return fmt.Errorf("arbor: stored link has no portal attached")
	}
	v, err := GetT(lk.portal, NewIdent[C](lk.offset), lk.codec.Record.Size(), lk.codec.Validate)
	if err != nil {
		return err
	}
	lk.child = &v
	if lk.state == stateStored {
		lk.state = stateBoth
	}
	return nil
}

// Compound returns the child subtree, loading it from the arena on first
// access if the link is Stored.
func (lk *Link[C, L, A]) Compound() (C, error) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	var zero C
	if err := lk.materializeLocked(); err != nil {
		return zero, err
	}
	return *lk.child, nil
}

// CompoundMut returns the child subtree for mutation, invalidating the
// cached annotation and dropping the backing offset: the next Store call
// will write a fresh archived copy rather than reuse the old one. C is
// expected to be a reference type (a pointer to a node struct, as every
// Compound implementation in this module is) so mutating through the
// returned value reaches the same subtree Compound/Annotation/Store see.
func (lk *Link[C, L, A]) CompoundMut() (C, error) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	var zero C
	if err := lk.materializeLocked(); err != nil {
		return zero, err
	}
	lk.ann = nil
	lk.state = stateInMem
	return *lk.child, nil
}

// Annotation returns the child's annotation, computing and caching it on
// first access (or after a mutation invalidated the cache).
func (lk *Link[C, L, A]) Annotation() (A, error) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	var zero A
	if lk.ann != nil {
		return *lk.ann, nil
	}
	if err := lk.materializeLocked(); err != nil {
		return zero, err
	}
	a, err := Annotate[C, L, A](*lk.child, lk.algebra)
	if err != nil {
		return zero, err
	}
	lk.ann = &a
	if lk.state == stateInMem {
		lk.state = stateInMemAnn
	}
	return a, nil
}

// Store writes the child to the link's attached arena if it hasn't been
// written already (or was invalidated by a mutation since), returning its
// offset. A link already in stateStored or stateBoth returns its existing
// offset without writing again.
func (lk *Link[C, L, A]) Store() (Offset, error) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	if lk.state == stateStored || lk.state == stateBoth {
		return lk.offset, nil
	}
	if lk.portal == nil {
		return 0, fmt.Errorf("arbor: link has no portal attached")
	}

	off := PutT(lk.portal, *lk.child, lk.codec.Marshal)
	lk.offset = off.Off
	lk.state = stateBoth
	return lk.offset, nil
}

// Invalidate drops the link's cached annotation and, if the child is
// materialized, its backing offset, without touching the materialized
// child. A Stored link that was never materialized keeps its offset. Used by
// BranchMut when unwinding past a link it may have mutated through.
func (lk *Link[C, L, A]) Invalidate() {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	lk.ann = nil
	if lk.state == stateBoth || lk.state == stateInMemAnn {
		lk.state = stateInMem
	}
}

// IsStored reports whether the link currently has a valid backing offset.
func (lk *Link[C, L, A]) IsStored() bool {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	return lk.state == stateStored || lk.state == stateBoth
}
