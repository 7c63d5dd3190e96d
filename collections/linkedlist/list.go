package linkedlist

import (
	"github.com/sirgallo/arbor"
)

// List is a sorted singly linked list of uint64 key/value entries, kept in
// ascending key order by Insert. Head is nil for an empty list.
type List struct {
	portal *arbor.Portal
	head   *arbor.Link[*Node, Entry, Ann]
}

// New returns an empty list backed by p.
func New(p *arbor.Portal) *List {
	return &List{portal: p}
}

// Open reattaches a list previously stored at headOffset in p, without
// loading any of its nodes yet.
func Open(p *arbor.Portal, headOffset arbor.Offset) *List {
	return &List{portal: p, head: arbor.NewStoredLink[*Node, Entry, Ann](p, headOffset, listAlgebra, nodeCodec)}
}

func newLink(n *Node, p *arbor.Portal) *arbor.Link[*Node, Entry, Ann] {
	lk := arbor.NewLink[*Node, Entry, Ann](n, listAlgebra, nodeCodec)
	lk.Attach(p)
	return lk
}

// Len returns the number of entries in the list.
func (l *List) Len() (uint64, error) {
	if l.head == nil {
		return 0, nil
	}
	ann, err := l.head.Annotation()
	if err != nil {
		return 0, err
	}
	return ann.First.Count(), nil
}

// Max returns the greatest key in the list, and false if the list is empty.
func (l *List) Max() (uint64, bool, error) {
	if l.head == nil {
		return 0, false, nil
	}
	ann, err := l.head.Annotation()
	if err != nil {
		return 0, false, err
	}
	k, ok := ann.Second.Max()
	return k, ok, nil
}

// MaxEntry returns the entry holding the greatest key, and false if the
// list is empty. Unlike Max, which reads the root's annotation directly,
// this descends with arbor.FindMaxKey to reach the entry itself.
func (l *List) MaxEntry() (Entry, bool, error) {
	if l.head == nil {
		return Entry{}, false, nil
	}
	root, err := l.head.Compound()
	if err != nil {
		return Entry{}, false, err
	}
	branch, err := arbor.Walk[*Node, Entry, Ann](root, arbor.FindMaxKey[*Node, Entry, Ann]{})
	if err != nil {
		return Entry{}, false, err
	}
	if branch == nil {
		return Entry{}, false, nil
	}
	leaf := branch.Leaf()
	if leaf == nil {
		return Entry{}, false, nil
	}
	return *leaf, true, nil
}

// overwriteWalker positions a BranchMut at the leaf matching key, aborting
// early once sorted order rules a match out — the same short-circuit Find
// uses, but driving a mutable BranchMut so Insert's fast path can overwrite
// the leaf's value in place through LeafMut.
type overwriteWalker struct{ key uint64 }

func (w overwriteWalker) Walk(v arbor.WalkViewMut[*Node, Entry, Ann]) arbor.Step {
	switch v.Kind {
	case arbor.ChildLeaf:
		switch {
		case v.Leaf.K == w.key:
			return arbor.StepFound
		case v.Leaf.K > w.key:
			return arbor.StepAbort
		default:
			return arbor.StepAdvance
		}
	case arbor.ChildLink:
		return arbor.StepInto
	default:
		return arbor.StepAdvance
	}
}

// Insert adds key/val in sorted position, or overwrites val if key is
// already present. An existing key is handled by walking to it with
// arbor.WalkMut/BranchMut, which invalidates every link on the path as it
// descends and recomputes their annotations on Close — the same unwind
// discipline spec.md §4.F describes for BranchMut. A new key instead walks
// to its splice point by hand, since redirecting a predecessor's Next link
// to a brand new node is a structural change BranchMut's Found/Into
// vocabulary has no way to express; CompoundMut (not Compound) on every cur
// along that path keeps each link actually traversed invalidated too, so
// every ancestor's cached cardinality/max-key gets recomputed rather than
// only the one link the splice itself touches.
func (l *List) Insert(key, val uint64) error {
	if l.head == nil {
		l.head = newLink(&Node{Leaf: Entry{K: key, V: val}}, l.portal)
		return nil
	}

	root, err := l.head.CompoundMut()
	if err != nil {
		return err
	}
	branch, err := arbor.WalkMut[*Node, Entry, Ann](root, overwriteWalker{key: key})
	if err != nil {
		return err
	}
	if branch != nil {
		branch.LeafMut().V = val
		return branch.Close()
	}

	var prev *arbor.Link[*Node, Entry, Ann]
	cur := l.head

	for {
		node, err := cur.CompoundMut()
		if err != nil {
			return err
		}

		switch {
		case node.Leaf.K > key:
			newNode := &Node{Leaf: Entry{K: key, V: val}, Next: cur}
			newLk := newLink(newNode, l.portal)
			if prev == nil {
				l.head = newLk
			} else {
				prevNode, err := prev.CompoundMut()
				if err != nil {
					return err
				}
				prevNode.Next = newLk
			}
			return nil

		case node.Next == nil:
			newLk := newLink(&Node{Leaf: Entry{K: key, V: val}}, l.portal)
			node.Next = newLk
			return nil

		default:
			prev = cur
			cur = node.Next
		}
	}
}

// Delete removes key from the list, reporting whether it was present.
// CompoundMut (not Compound) on every prev visited while scanning keeps
// every node on the path to the removed entry invalidated, not only the
// one whose Next field is spliced: each of them summarizes itself plus
// everything after it, so removing anything downstream changes all of
// their cached cardinality and max-key too.
func (l *List) Delete(key uint64) (bool, error) {
	if l.head == nil {
		return false, nil
	}

	headNode, err := l.head.Compound()
	if err != nil {
		return false, err
	}
	if headNode.Leaf.K == key {
		l.head = headNode.Next
		return true, nil
	}

	prev := l.head
	for {
		prevNode, err := prev.CompoundMut()
		if err != nil {
			return false, err
		}
		if prevNode.Next == nil {
			return false, nil
		}

		curNode, err := prevNode.Next.Compound()
		if err != nil {
			return false, err
		}
		if curNode.Leaf.K == key {
			prevNode.Next = curNode.Next
			return true, nil
		}
		prev = prevNode.Next
	}
}

// Find returns the value stored for key, and false if it isn't present.
func (l *List) Find(key uint64) (uint64, bool, error) {
	cur := l.head
	for cur != nil {
		node, err := cur.Compound()
		if err != nil {
			return 0, false, err
		}
		if node.Leaf.K == key {
			return node.Leaf.V, true, nil
		}
		if node.Leaf.K > key {
			return 0, false, nil
		}
		cur = node.Next
	}
	return 0, false, nil
}

// Nth returns the entry at the given 0-indexed position using
// arbor.Nth/arbor.Branch, descending by cardinality rather than walking
// every preceding node by hand.
func (l *List) Nth(n uint64) (Entry, bool, error) {
	if l.head == nil {
		return Entry{}, false, nil
	}
	root, err := l.head.Compound()
	if err != nil {
		return Entry{}, false, err
	}
	w := &arbor.Nth[*Node, Entry, Ann]{N: n}
	branch, err := arbor.Walk[*Node, Entry, Ann](root, w)
	if err != nil {
		return Entry{}, false, err
	}
	if branch == nil {
		return Entry{}, false, nil
	}
	leaf := branch.Leaf()
	if leaf == nil {
		return Entry{}, false, nil
	}
	return *leaf, true, nil
}

// All returns every entry in ascending order, driving a Branch positioned
// by arbor.All across the whole list.
func (l *List) All() ([]Entry, error) {
	var out []Entry
	if l.head == nil {
		return out, nil
	}
	root, err := l.head.Compound()
	if err != nil {
		return nil, err
	}

	w := arbor.All[*Node, Entry, Ann]{}
	branch, err := arbor.Walk[*Node, Entry, Ann](root, w)
	if err != nil {
		return nil, err
	}
	for branch != nil {
		if leaf := branch.Leaf(); leaf != nil {
			out = append(out, *leaf)
		}
		ok, err := branch.Next(w)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	return out, nil
}

// Store persists the list's head (and transitively every node) to the
// list's portal, returning the head's offset for a later Open.
func (l *List) Store() (arbor.Offset, error) {
	if l.head == nil {
		return 0, nil
	}
	return l.head.Store()
}
