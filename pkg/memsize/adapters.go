package memsize

import (
	"reflect"
	"unsafe"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/genc-murat/memscope/internal/layout"
)

// Ordered tree containers are sized by a node formula, never by walking
// the tree: per-node storage times element count. Like the map formula
// this is a documented approximation. The per-node cost covers the node
// itself including its key and value headers; payloads boxed behind those
// headers are not charged, since reaching them would require the walk the
// formula exists to avoid.

var (
	rbTreeType    = reflect.TypeOf(redblacktree.Tree{})
	rbTreePtrType = reflect.TypeOf((*redblacktree.Tree)(nil))
)

// rbNode is a structural replica of redblacktree.Node. The real node
// layout is package-private to gods, so it is mirrored here and pinned by
// a test; if gods changes its node layout the replica must follow.
type rbNode struct {
	key    any
	value  any
	color  bool
	left   unsafe.Pointer
	right  unsafe.Pointer
	parent unsafe.Pointer
}

// RBTreeNodeSize is the per-node storage cost used by the ordered-tree
// size formula.
const RBTreeNodeSize = unsafe.Sizeof(rbNode{})

// redBlackTreeHeap computes the node storage owned by a redblacktree.Tree
// value in O(1) from its element count.
func redBlackTreeHeap(rv reflect.Value) uintptr {
	count := rv.FieldByName("size").Int()
	if count <= 0 {
		return 0
	}
	return uintptr(count) * RBTreeNodeSize
}

// OfRedBlackTree returns the approximate total footprint of a gods
// red-black tree: the handle word, the tree header and the node storage.
func OfRedBlackTree(t *redblacktree.Tree) uintptr {
	if t == nil {
		return layout.PointerSize
	}
	return Of(t, 0)
}
