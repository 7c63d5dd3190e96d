// Package btreemap is an ordered B-tree map over uint64 keys built on
// arbor.Link/arbor.Compound/arbor.Branch, annotated with cardinality and
// the running maximum key so routing decisions read a child's own
// annotation rather than a separately-maintained separator key.
//
// Grounded on original_source/src/collections/btree/btreemap.rs's
// BTreeMap<K, V, A, LE, LI>(LeafNode | LinkNode), with LE = LI = 3 fixed
// concretely (this module carries no const-generic capacity parameter) and
// with the split/underflow branches that source leaves as todo!() fully
// implemented — see node.go's insert/remove and DESIGN.md.
package btreemap

import (
	"encoding/binary"
	"fmt"

	"github.com/sirgallo/arbor"
	"github.com/sirgallo/arbor/annotation"
)

// leafCap and linkCap are this package's fixed node capacities (LE and LI
// in original_source's const-generic BTreeMap). leafMin/linkMin are the
// minimum occupancy a non-root node must keep; falling below it triggers
// the parent's rebalanceChild.
const (
	leafCap = 3
	linkCap = 3
	leafMin = 2
	linkMin = 2
)

// Pair is the leaf type: one key/value entry.
type Pair struct {
	K uint64
	V uint64
}

// Key returns the entry's ordering key, satisfying annotation.Keyed[uint64].
func (p Pair) Key() uint64 { return p.K }

// Ann is the annotation every node carries: how many entries its subtree
// holds, and the greatest key among them. Interior routing (childForKey)
// reads only the max-key half; Len reads only the cardinality half.
type Ann = annotation.Pair[annotation.Cardinality, annotation.MaxKey[uint64]]

var treeAlgebra = annotation.Product2[Pair, annotation.Cardinality, annotation.MaxKey[uint64]](
	annotation.CardinalityAlgebra[Pair](),
	annotation.MaxKeyAlgebra[uint64, Pair](),
)

// Node is a single B-tree node: a leaf node holding up to leafCap entries
// directly, or an interior node holding up to linkCap links to child
// nodes. One Go type models both of original_source's LeafNode/LinkNode
// variants, tagged by leaf, the way a Rust enum's two variants collapse
// onto one struct with a discriminant in idiomatic Go.
type Node struct {
	leaf   bool
	leaves []Pair
	links  []*arbor.Link[*Node, Pair, Ann]
}

// Child implements arbor.Compound.
func (n *Node) Child(ordinal int) arbor.ChildSlot[*Node, Pair, Ann] {
	if n.leaf {
		if ordinal < len(n.leaves) {
			return arbor.Leaf[*Node, Pair, Ann](&n.leaves[ordinal])
		}
		return arbor.EndSlot[*Node, Pair, Ann]()
	}
	if ordinal < len(n.links) {
		return arbor.LinkSlot[*Node, Pair, Ann](n.links[ordinal])
	}
	return arbor.EndSlot[*Node, Pair, Ann]()
}

// ChildMut implements arbor.Compound.
func (n *Node) ChildMut(ordinal int) arbor.ChildSlotMut[*Node, Pair, Ann] {
	if n.leaf {
		if ordinal < len(n.leaves) {
			return arbor.ChildSlotMut[*Node, Pair, Ann]{Kind: arbor.ChildLeaf, Leaf: &n.leaves[ordinal]}
		}
		return arbor.ChildSlotMut[*Node, Pair, Ann]{Kind: arbor.ChildEnd}
	}
	if ordinal < len(n.links) {
		return arbor.ChildSlotMut[*Node, Pair, Ann]{Kind: arbor.ChildLink, Link: n.links[ordinal]}
	}
	return arbor.ChildSlotMut[*Node, Pair, Ann]{Kind: arbor.ChildEnd}
}

// childForKey returns the index of the child key should descend into: the
// first link whose own max-key annotation is >= key, or the last link if
// key is greater than everything seen so far (an append past the current
// maximum always belongs in the rightmost subtree).
func (n *Node) childForKey(key uint64) (int, error) {
	for i, lk := range n.links {
		ann, err := lk.Annotation()
		if err != nil {
			return 0, err
		}
		if mk, ok := ann.Second.Max(); !ok || key <= mk {
			return i, nil
		}
	}
	return len(n.links) - 1, nil
}

// annSize is Ann's archived form: Cardinality (8) + MaxKey[uint64].Key (8) +
// MaxKey[uint64].Empty (1), the same layout linkedlist uses for its Ann.
const annSize = 8 + 8 + 1

// linkRecordSize is one interior child's archived link record, per spec.md
// §6's {offset, annotation} shape: an 8-byte offset plus its annotation, so
// validateNode can reconstruct each child link already satisfying invariant
// (i) without materializing it.
const linkRecordSize = 8 + annSize

// nodeRecordSize is the fixed archived size for every node, leaf or
// interior: a tag byte, a count byte, and a payload sized for the larger of
// the two shapes. A leaf node's payload (leafCap 16-byte pairs) is smaller
// than an interior node's (linkCap linkRecordSize-byte child records, each
// carrying an annotation alongside its offset), so the interior shape sets
// the record size and the leaf shape zero-pads the rest — a deliberate
// simplification so one fixed Size() covers both node shapes without a
// derive/codegen facility computing a tighter one per variant.
const nodeRecordSize = 1 + 1 + linkCap*linkRecordSize

func marshalAnn(b []byte, a Ann) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(a.First))
	binary.LittleEndian.PutUint64(b[8:16], a.Second.Key)
	if a.Second.Empty {
		b[16] = 1
	}
}

func unmarshalAnn(b []byte) Ann {
	return Ann{
		First: annotation.Cardinality(binary.LittleEndian.Uint64(b[0:8])),
		Second: annotation.MaxKey[uint64]{
			Key:   binary.LittleEndian.Uint64(b[8:16]),
			Empty: b[16] != 0,
		},
	}
}

var nodeCodec arbor.Codec[*Node]

func init() {
	nodeCodec = arbor.Codec[*Node]{
		Record:   arbor.FixedRecord{RecordSize: nodeRecordSize, RecordAlign: 8},
		Marshal:  marshalNode,
		Validate: validateNode,
	}
}

func newNodeLink(n *Node, p *arbor.Portal) *arbor.Link[*Node, Pair, Ann] {
	lk := arbor.NewLink[*Node, Pair, Ann](n, treeAlgebra, nodeCodec)
	lk.Attach(p)
	return lk
}

func marshalNode(n *Node, p *arbor.Portal) []byte {
	b := make([]byte, nodeRecordSize)
	if n.leaf {
		b[0] = 1
		b[1] = byte(len(n.leaves))
		for i, pair := range n.leaves {
			off := 2 + i*16
			binary.LittleEndian.PutUint64(b[off:off+8], pair.K)
			binary.LittleEndian.PutUint64(b[off+8:off+16], pair.V)
		}
		return b
	}

	b[0] = 0
	b[1] = byte(len(n.links))
	for i, lk := range n.links {
		off := 2 + i*linkRecordSize
		linkOff, err := lk.Store()
		if err != nil {
			// See linkedlist's marshalNode: Marshaler is infallible by
			// contract, and every link reaching here is either already
			// stored or attached to the same portal it's being persisted
			// through.
			panic(fmt.Errorf("btreemap: store child node: %w", err))
		}
		ann, err := lk.Annotation()
		if err != nil {
			panic(fmt.Errorf("btreemap: annotate child node: %w", err))
		}
		binary.LittleEndian.PutUint64(b[off:off+8], uint64(linkOff))
		marshalAnn(b[off+8:off+linkRecordSize], ann)
	}
	return b
}

func validateNode(b []byte, p *arbor.Portal) (*Node, error) {
	if len(b) != nodeRecordSize {
		return nil, fmt.Errorf("btreemap: record size %d, want %d: %w", len(b), nodeRecordSize, arbor.ErrInvalid)
	}
	count := int(b[1])
	if count > leafCap {
		return nil, fmt.Errorf("btreemap: record count %d exceeds capacity: %w", count, arbor.ErrInvalid)
	}

	switch b[0] {
	case 1:
		leaves := make([]Pair, count)
		for i := 0; i < count; i++ {
			off := 2 + i*16
			leaves[i] = Pair{
				K: binary.LittleEndian.Uint64(b[off : off+8]),
				V: binary.LittleEndian.Uint64(b[off+8 : off+16]),
			}
		}
		return &Node{leaf: true, leaves: leaves}, nil
	case 0:
		links := make([]*arbor.Link[*Node, Pair, Ann], count)
		for i := 0; i < count; i++ {
			off := 2 + i*linkRecordSize
			linkOff := arbor.Offset(binary.LittleEndian.Uint64(b[off : off+8]))
			ann := unmarshalAnn(b[off+8 : off+linkRecordSize])
			links[i] = arbor.NewStoredLinkAnnotated[*Node, Pair, Ann](p, linkOff, ann, treeAlgebra, nodeCodec)
		}
		return &Node{leaf: false, links: links}, nil
	default:
		return nil, fmt.Errorf("btreemap: bad node tag %d: %w", b[0], arbor.ErrInvalid)
	}
}
