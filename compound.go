package arbor

// ChildKind tags what occupies a Compound's child slot at a given ordinal.
type ChildKind int

const (
	// ChildLeaf holds a leaf value directly, inline in the parent node.
	ChildLeaf ChildKind = iota
	// ChildLink holds a link to a child subtree.
	ChildLink
	// ChildEmpty marks a present-but-unoccupied slot (a deleted entry that
	// hasn't been compacted out of a fixed-capacity node, for instance).
	ChildEmpty
	// ChildEnd marks the end of a node's children; ordinals at or past it
	// are out of range.
	ChildEnd
)

// ChildSlot is the tagged union a Compound's Child returns for a given
// ordinal (spec.md §3 "Compound"). Grounded on
// original_source/src/compound.rs's Child<'a, C, A> enum.
type ChildSlot[C any, L any, A any] struct {
	Kind ChildKind
	Leaf *L
	Link *Link[C, L, A]
}

// Leaf builds a ChildSlot occupied by a leaf.
func Leaf[C, L, A any](l *L) ChildSlot[C, L, A] {
	return ChildSlot[C, L, A]{Kind: ChildLeaf, Leaf: l}
}

// LinkSlot builds a ChildSlot occupied by a link to a child subtree.
func LinkSlot[C, L, A any](link *Link[C, L, A]) ChildSlot[C, L, A] {
	return ChildSlot[C, L, A]{Kind: ChildLink, Link: link}
}

// EmptySlot builds an occupied-but-empty ChildSlot.
func EmptySlot[C, L, A any]() ChildSlot[C, L, A] {
	return ChildSlot[C, L, A]{Kind: ChildEmpty}
}

// EndSlot builds the end-of-children marker ChildSlot.
func EndSlot[C, L, A any]() ChildSlot[C, L, A] {
	return ChildSlot[C, L, A]{Kind: ChildEnd}
}

// Compound is the contract a recursive tree node satisfies (spec.md §3
// "Compound"). C is the concrete node type itself (a BTreeMap leaf/interior
// node, a linked list node): it appears as its own type parameter so
// ChildSlot's Link field can name Link[C, L, A] without the package needing
// to know the concrete node type in advance — the same F-bounded pattern
// Go's container packages use when a node type must refer to itself.
//
// Grounded on original_source/src/compound.rs's Compound<S> trait.
type Compound[C any, L any, A any] interface {
	// Child returns the ordinal-th child slot, or an EndSlot if ordinal is
	// at or past the node's child count.
	Child(ordinal int) ChildSlot[C, L, A]

	// ChildMut returns a mutable view of the ordinal-th child slot for
	// BranchMut's walk, or an EndSlot.
	ChildMut(ordinal int) ChildSlotMut[C, L, A]
}

// ChildSlotMut is ChildSlot's mutable counterpart: a leaf can be edited in
// place and a link's subtree can be mutated through it, but it is a copy, so
// assigning a different Link to it does not change the node, and a new
// child cannot be inserted through it — that's the owning Compound's job
// (Insert/Remove on the concrete container), not the walker's.
type ChildSlotMut[C any, L any, A any] struct {
	Kind ChildKind
	Leaf *L
	Link *Link[C, L, A]
}

// Annotate folds a Compound's children annotations using ann, stopping at
// the first ChildEnd. It's the default annotation computation every
// Compound implementation can reuse from Link.Annotation, mirroring
// original_source/src/compound.rs's default Compound::annotation. node must
// implement Compound[C, L, A]; it is asserted at run time so that Link, whose
// C is unconstrained, can call it.
func Annotate[C any, L, A any](node C, ann Annotation[L, A]) (A, error) {
	cn := any(node).(Compound[C, L, A])
	var kids []A
	for i := 0; ; i++ {
		slot := cn.Child(i)
		switch slot.Kind {
		case ChildEnd:
			return ann.Combine(kids), nil
		case ChildEmpty:
			continue
		case ChildLeaf:
			kids = append(kids, ann.FromLeaf(slot.Leaf))
		case ChildLink:
			a, err := slot.Link.Annotation()
			if err != nil {
				var zero A
				return zero, err
			}
			kids = append(kids, a)
		}
	}
}
