package annotation

import "github.com/sirgallo/arbor"

// Pair is the annotation produced by Product2: two independently-folded
// summaries of the same subtree, kept side by side.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Count forwards to First's Count method when First implements
// arbor.Counter, letting a Pair built over Cardinality satisfy Counter
// itself so arbor.Nth can walk a tree annotated with Pair[Cardinality, X]
// directly.
func (p Pair[A, B]) Count() uint64 {
	if c, ok := any(p.First).(arbor.Counter); ok {
		return c.Count()
	}
	return 0
}

// Max forwards to Second's Max method when Second implements arbor.MaxKeyer,
// the same way Count forwards to First — letting a Pair built over
// MaxKey[uint64] satisfy MaxKeyer itself so arbor.FindMaxKey can walk a tree
// annotated with Pair[X, MaxKey[uint64]] directly, without its own Combine
// needing to know about Pair at all.
func (p Pair[A, B]) Max() (uint64, bool) {
	if m, ok := any(p.Second).(arbor.MaxKeyer); ok {
		return m.Max()
	}
	return 0, false
}

// Product2 combines two annotation algebras over the same leaf type into
// one algebra producing Pair[A, B], folding each side independently. Lets a
// container track, say, Cardinality and MaxKey at once without hand-writing
// a combined algebra.
func Product2[L, A, B any](a arbor.Annotation[L, A], b arbor.Annotation[L, B]) arbor.Annotation[L, Pair[A, B]] {
	return arbor.Annotation[L, Pair[A, B]]{
		Identity: func() Pair[A, B] {
			return Pair[A, B]{First: a.Identity(), Second: b.Identity()}
		},
		FromLeaf: func(leaf *L) Pair[A, B] {
			return Pair[A, B]{First: a.FromLeaf(leaf), Second: b.FromLeaf(leaf)}
		},
		Combine: func(children []Pair[A, B]) Pair[A, B] {
			firsts := make([]A, len(children))
			seconds := make([]B, len(children))
			for i, c := range children {
				firsts[i] = c.First
				seconds[i] = c.Second
			}
			return Pair[A, B]{First: a.Combine(firsts), Second: b.Combine(seconds)}
		},
	}
}
