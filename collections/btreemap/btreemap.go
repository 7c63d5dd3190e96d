package btreemap

import "github.com/sirgallo/arbor"

// insertResult reports what Node.insert did, mirroring
// original_source/src/collections/btree/btreemap.rs's Insert<V, S> enum
// (Ok | Replaced | Split), minus the Split variant's separator payload:
// this package's parent routes purely off each child link's own MaxKey
// annotation (childForKey), so propagating a separator key upward serves
// no purpose here.
type insertResult int

const (
	insertOK insertResult = iota
	insertReplaced
	insertSplit
)

// insert adds key/val into the subtree rooted at n, splitting n in two
// (returning insertSplit and the new right sibling) if the insertion pushes
// n past its capacity.
func (n *Node) insert(key, val uint64, portal *arbor.Portal) (insertResult, *Node, error) {
	if n.leaf {
		idx := 0
		for idx < len(n.leaves) && n.leaves[idx].K < key {
			idx++
		}
		if idx < len(n.leaves) && n.leaves[idx].K == key {
			n.leaves[idx].V = val
			return insertReplaced, nil, nil
		}

		n.leaves = append(n.leaves, Pair{})
		copy(n.leaves[idx+1:], n.leaves[idx:len(n.leaves)-1])
		n.leaves[idx] = Pair{K: key, V: val}

		if len(n.leaves) <= leafCap {
			return insertOK, nil, nil
		}
		mid := len(n.leaves) / 2
		right := &Node{leaf: true, leaves: append([]Pair{}, n.leaves[mid:]...)}
		n.leaves = n.leaves[:mid]
		return insertSplit, right, nil
	}

	idx, err := n.childForKey(key)
	if err != nil {
		return insertOK, nil, err
	}
	childLink := n.links[idx]
	childNode, err := childLink.CompoundMut()
	if err != nil {
		return insertOK, nil, err
	}
	res, splitRight, err := childNode.insert(key, val, portal)
	if err != nil {
		return insertOK, nil, err
	}

	switch res {
	case insertReplaced:
		return insertReplaced, nil, nil
	case insertOK:
		return insertOK, nil, nil
	default: // insertSplit
		newLk := newNodeLink(splitRight, portal)
		n.links = append(n.links, nil)
		copy(n.links[idx+2:], n.links[idx+1:len(n.links)-1])
		n.links[idx+1] = newLk

		if len(n.links) <= linkCap {
			return insertOK, nil, nil
		}
		mid := len(n.links) / 2
		right := &Node{leaf: false, links: append([]*arbor.Link[*Node, Pair, Ann]{}, n.links[mid:]...)}
		n.links = n.links[:mid]
		return insertSplit, right, nil
	}
}

// removeResult reports what Node.remove did, mirroring the original's
// Remove<S> enum.
type removeResult int

const (
	removeNotFound removeResult = iota
	removeOK
	removeUnderflow
)

// remove deletes key from the subtree rooted at n, reporting
// removeUnderflow if doing so drops n below its minimum occupancy so the
// caller can rebalance it against a sibling.
func (n *Node) remove(key uint64, portal *arbor.Portal) (removeResult, error) {
	if n.leaf {
		idx := -1
		for i, p := range n.leaves {
			if p.K == key {
				idx = i
				break
			}
		}
		if idx == -1 {
			return removeNotFound, nil
		}
		n.leaves = append(n.leaves[:idx], n.leaves[idx+1:]...)
		if len(n.leaves) < leafMin {
			return removeUnderflow, nil
		}
		return removeOK, nil
	}

	idx, err := n.childForKey(key)
	if err != nil {
		return removeNotFound, err
	}
	childNode, err := n.links[idx].CompoundMut()
	if err != nil {
		return removeNotFound, err
	}
	res, err := childNode.remove(key, portal)
	if err != nil {
		return removeNotFound, err
	}

	switch res {
	case removeNotFound:
		return removeNotFound, nil
	case removeOK:
		return removeOK, nil
	default: // removeUnderflow
		if err := n.rebalanceChild(idx, portal); err != nil {
			return removeNotFound, err
		}
		if len(n.links) < linkMin {
			return removeUnderflow, nil
		}
		return removeOK, nil
	}
}

// rebalanceChild merges the underflowing child at idx into a sibling:
// prefer the left sibling if one exists, else the right one. If the merge
// leaves the combined node over capacity, splitAfterMerge divides it back
// in two, matching original_source's merge-then-split-redistribute
// fallback rather than a separate key-redistribution path.
func (n *Node) rebalanceChild(idx int, portal *arbor.Portal) error {
	underNode, err := n.links[idx].CompoundMut()
	if err != nil {
		return err
	}

	if idx > 0 {
		leftNode, err := n.links[idx-1].CompoundMut()
		if err != nil {
			return err
		}
		if underNode.leaf {
			leftNode.leaves = append(leftNode.leaves, underNode.leaves...)
		} else {
			leftNode.links = append(leftNode.links, underNode.links...)
		}
		n.links = append(n.links[:idx], n.links[idx+1:]...)

		if leftNode.leaf && len(leftNode.leaves) > leafCap {
			return n.splitAfterMerge(idx-1, leftNode, portal)
		}
		if !leftNode.leaf && len(leftNode.links) > linkCap {
			return n.splitAfterMerge(idx-1, leftNode, portal)
		}
		return nil
	}

	rightNode, err := n.links[idx+1].CompoundMut()
	if err != nil {
		return err
	}
	if underNode.leaf {
		rightNode.leaves = append(append([]Pair{}, underNode.leaves...), rightNode.leaves...)
	} else {
		rightNode.links = append(append([]*arbor.Link[*Node, Pair, Ann]{}, underNode.links...), rightNode.links...)
	}
	n.links = append(n.links[:idx], n.links[idx+1:]...)

	if rightNode.leaf && len(rightNode.leaves) > leafCap {
		return n.splitAfterMerge(idx, rightNode, portal)
	}
	if !rightNode.leaf && len(rightNode.links) > linkCap {
		return n.splitAfterMerge(idx, rightNode, portal)
	}
	return nil
}

// splitAfterMerge splits merged (already installed at n.links[pos]) back
// into two nodes when a sibling merge left it over capacity, inserting the
// new right half as a fresh link at pos+1.
func (n *Node) splitAfterMerge(pos int, merged *Node, portal *arbor.Portal) error {
	var right *Node
	if merged.leaf {
		mid := len(merged.leaves) / 2
		right = &Node{leaf: true, leaves: append([]Pair{}, merged.leaves[mid:]...)}
		merged.leaves = merged.leaves[:mid]
	} else {
		mid := len(merged.links) / 2
		right = &Node{leaf: false, links: append([]*arbor.Link[*Node, Pair, Ann]{}, merged.links[mid:]...)}
		merged.links = merged.links[:mid]
	}
	newLk := newNodeLink(right, portal)
	n.links = append(n.links, nil)
	copy(n.links[pos+2:], n.links[pos+1:len(n.links)-1])
	n.links[pos+1] = newLk
	return nil
}

// BTreeMap is an ordered map from uint64 keys to uint64 values. The zero
// value is not usable; construct with New or Open.
type BTreeMap struct {
	portal *arbor.Portal
	root   *arbor.Link[*Node, Pair, Ann]
}

// New returns an empty map backed by p.
func New(p *arbor.Portal) *BTreeMap {
	return &BTreeMap{portal: p}
}

// Open reattaches a map previously stored at rootOffset in p.
func Open(p *arbor.Portal, rootOffset arbor.Offset) *BTreeMap {
	return &BTreeMap{portal: p, root: arbor.NewStoredLink[*Node, Pair, Ann](p, rootOffset, treeAlgebra, nodeCodec)}
}

// Len returns the number of entries in the map.
func (m *BTreeMap) Len() (uint64, error) {
	if m.root == nil {
		return 0, nil
	}
	ann, err := m.root.Annotation()
	if err != nil {
		return 0, err
	}
	return ann.First.Count(), nil
}

// Max returns the greatest key in the map, and false if the map is empty.
func (m *BTreeMap) Max() (uint64, bool, error) {
	if m.root == nil {
		return 0, false, nil
	}
	ann, err := m.root.Annotation()
	if err != nil {
		return 0, false, err
	}
	k, ok := ann.Second.Max()
	return k, ok, nil
}

// Get returns the value stored for key, and false if it isn't present.
func (m *BTreeMap) Get(key uint64) (uint64, bool, error) {
	if m.root == nil {
		return 0, false, nil
	}
	cur, err := m.root.Compound()
	if err != nil {
		return 0, false, err
	}
	for {
		if cur.leaf {
			for _, p := range cur.leaves {
				if p.K == key {
					return p.V, true, nil
				}
			}
			return 0, false, nil
		}
		idx, err := cur.childForKey(key)
		if err != nil {
			return 0, false, err
		}
		cur, err = cur.links[idx].Compound()
		if err != nil {
			return 0, false, err
		}
	}
}

// Insert adds key/val to the map, or overwrites val if key is already
// present. A root split grows the tree by one level, wrapping the old root
// and the new sibling in a fresh interior root — the only place tree depth
// grows.
func (m *BTreeMap) Insert(key, val uint64) error {
	if m.root == nil {
		m.root = newNodeLink(&Node{leaf: true, leaves: []Pair{{K: key, V: val}}}, m.portal)
		return nil
	}

	rootNode, err := m.root.CompoundMut()
	if err != nil {
		return err
	}
	res, splitRight, err := rootNode.insert(key, val, m.portal)
	if err != nil {
		return err
	}
	if res == insertSplit {
		newRoot := &Node{leaf: false, links: []*arbor.Link[*Node, Pair, Ann]{m.root, newNodeLink(splitRight, m.portal)}}
		m.root = newNodeLink(newRoot, m.portal)
	}
	return nil
}

// Remove deletes key from the map, reporting whether it was present. An
// interior root left with a single child collapses to that child, and a
// leaf root left empty resets the map to empty — the only places tree
// depth shrinks.
func (m *BTreeMap) Remove(key uint64) (bool, error) {
	if m.root == nil {
		return false, nil
	}
	rootNode, err := m.root.CompoundMut()
	if err != nil {
		return false, err
	}
	res, err := rootNode.remove(key, m.portal)
	if err != nil {
		return false, err
	}
	if res == removeNotFound {
		return false, nil
	}

	if !rootNode.leaf && len(rootNode.links) == 1 {
		m.root = rootNode.links[0]
	} else if rootNode.leaf && len(rootNode.leaves) == 0 {
		m.root = nil
	}
	return true, nil
}

// All returns every entry in ascending key order.
func (m *BTreeMap) All() ([]Pair, error) {
	var out []Pair
	if m.root == nil {
		return out, nil
	}
	root, err := m.root.Compound()
	if err != nil {
		return nil, err
	}

	w := arbor.All[*Node, Pair, Ann]{}
	branch, err := arbor.Walk[*Node, Pair, Ann](root, w)
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

// findKeyWalker descends toward the leaf holding an exact key, using each
// link's own MaxKey annotation to decide which child to enter.
type findKeyWalker struct{ key uint64 }

func (w findKeyWalker) Walk(v arbor.WalkView[*Node, Pair, Ann]) arbor.Step {
	switch v.Kind {
	case arbor.ChildLeaf:
		if v.Leaf.K == w.key {
			return arbor.StepFound
		}
		return arbor.StepAdvance
	case arbor.ChildLink:
		ann, err := v.Link.Annotation()
		if err != nil {
			// Walker.Walk has no error return; see arbor's own walkers.go
			// for the same tradeoff.
			panic(err)
		}
		if mk, ok := ann.Second.Max(); ok && w.key <= mk {
			return arbor.StepInto
		}
		return arbor.StepAdvance
	default:
		return arbor.StepAdvance
	}
}

// Depth reports how many levels deep key's leaf sits, or 0 if key isn't
// present. Used to confirm every leaf in the tree sits at the same depth.
func (m *BTreeMap) Depth(key uint64) (int, error) {
	if m.root == nil {
		return 0, nil
	}
	root, err := m.root.Compound()
	if err != nil {
		return 0, err
	}
	branch, err := arbor.Walk[*Node, Pair, Ann](root, findKeyWalker{key: key})
	if err != nil {
		return 0, err
	}
	return branch.Depth(), nil
}

// Range returns every entry with a key in [startKey, endKey], in ascending
// order. Grounded on the teacher's Mari.Range, which rejects a start key
// sorting after the end key with the same error this returns
// (arbor.ErrStartAfterEnd), adapted from the teacher's byte-slice
// bytes.Compare guard to a plain uint64 comparison.
func (m *BTreeMap) Range(startKey, endKey uint64) ([]Pair, error) {
	if startKey > endKey {
		return nil, arbor.ErrStartAfterEnd
	}

	all, err := m.All()
	if err != nil {
		return nil, err
	}

	var out []Pair
	for _, p := range all {
		if p.K < startKey {
			continue
		}
		if p.K > endKey {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

// Store persists the map's root (and transitively every node) to the map's
// portal, returning the root's offset for a later Open.
func (m *BTreeMap) Store() (arbor.Offset, error) {
	if m.root == nil {
		return 0, nil
	}
	return m.root.Store()
}
