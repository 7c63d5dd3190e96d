// Package annotation holds concrete annotation algebras usable with
// arbor.Link/arbor.Compound/arbor.Branch, grounded on
// original_source/src/annotation.rs's Cardinality and Max<K>
// implementations.
package annotation

import "github.com/sirgallo/arbor"

// Cardinality counts the leaves of a subtree. It implements arbor.Counter,
// so arbor.Nth can use it directly without this package importing arbor's
// walker types (and arbor never imports this package back).
type Cardinality uint64

// Count returns the number of leaves this Cardinality summarizes.
func (c Cardinality) Count() uint64 { return uint64(c) }

// CardinalityAlgebra builds the Cardinality algebra for leaves of type L:
// identity is zero, every leaf counts as one, and a node's count is the sum
// of its children's.
func CardinalityAlgebra[L any]() arbor.Annotation[L, Cardinality] {
	return arbor.Annotation[L, Cardinality]{
		Identity: func() Cardinality { return 0 },
		FromLeaf: func(_ *L) Cardinality { return 1 },
		Combine: func(children []Cardinality) Cardinality {
			var sum Cardinality
			for _, c := range children {
				sum += c
			}
			return sum
		},
	}
}
