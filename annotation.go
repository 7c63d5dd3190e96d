package arbor

// Annotation bundles the summary algebra over leaves of type L that
// produces a value of type A (spec.md §3/§4.C "Annotation"): an identity
// element, a way to summarize a single leaf, and an associative fold that
// combines the annotations of a node's children into the node's own
// annotation.
//
// Rust expresses this as a trait with associated (static) functions
// (identity, from_leaf) alongside an instance method (op). Go generics have
// no equivalent of a static trait method reachable purely from a type
// parameter, so the three operations travel together as a value instead —
// the same shape Go's sort/slices packages use for an explicit "less"
// function where Rust would use Ord. Compound implementations hold the
// Annotation[L, A] they were built with and pass it to Link/Branch
// operations that need to fold child annotations.
//
// Grounded on original_source/src/annotation.rs's Annotation<L> trait and
// its Cardinality/Max<K> implementations (concrete instances live in the
// annotation package).
type Annotation[L, A any] struct {
	// Identity returns the annotation of an empty subtree.
	Identity func() A

	// FromLeaf returns the annotation of a single leaf.
	FromLeaf func(leaf *L) A

	// Combine folds a node's children's annotations, left to right, into
	// that node's own annotation. Called with the identity alone folds to
	// the identity.
	Combine func(children []A) A
}
