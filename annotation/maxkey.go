package annotation

import (
	"cmp"

	"github.com/sirgallo/arbor"
)

// Keyed is satisfied by a leaf type that exposes an ordering key, the way
// collections/btreemap's Pair and collections/linkedlist's Entry both do.
type Keyed[K any] interface {
	Key() K
}

// MaxKey summarizes the greatest key across a subtree's leaves. Empty is
// set on the identity element (an empty subtree has no maximum).
type MaxKey[K cmp.Ordered] struct {
	Key   K
	Empty bool
}

// Max returns the summarized key and whether one is actually present.
func (m MaxKey[K]) Max() (K, bool) { return m.Key, !m.Empty }

// MaxKeyAlgebra builds the MaxKey algebra for a leaf type L that knows its
// own key: identity is the empty marker, a leaf's annotation is its own
// key, and a node's annotation is the greatest key among its children
// (skipping the identity element, so an all-empty combine stays empty).
func MaxKeyAlgebra[K cmp.Ordered, L Keyed[K]]() arbor.Annotation[L, MaxKey[K]] {
	return arbor.Annotation[L, MaxKey[K]]{
		Identity: func() MaxKey[K] { return MaxKey[K]{Empty: true} },
		FromLeaf: func(leaf *L) MaxKey[K] { return MaxKey[K]{Key: (*leaf).Key()} },
		Combine: func(children []MaxKey[K]) MaxKey[K] {
			best := MaxKey[K]{Empty: true}
			for _, c := range children {
				if c.Empty {
					continue
				}
				if best.Empty || c.Key > best.Key {
					best = c
				}
			}
			return best
		},
	}
}
