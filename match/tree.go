package match

import "github.com/grailbio/bio/tsmodel"

// quinTree is the matcher's scratch structure: a marginal tree over
// [0, numNodes) represented the way a sparse tree sequence usually is,
// with explicit sibling links so a subtree can be cut from its parent
// in O(1) without rescanning the parent's child list.
//
// parent[n] == tsmodel.NullNode means n currently hangs directly off
// the virtual root (node 0) by convention, not that it's unattached.
type quinTree struct {
	parent     []tsmodel.NodeID
	leftChild  []tsmodel.NodeID
	rightChild []tsmodel.NodeID
	leftSib    []tsmodel.NodeID
	rightSib   []tsmodel.NodeID

	// numRootChildren is the number of nodes explicitly attached under
	// node 0 right now — the tree-derived count of extant lineages
	// below the virtual root, kept current by insertChild/removeChild
	// rather than recomputed by scanning the child list on every site.
	numRootChildren int
}

func newQuinTree(numNodes int) *quinTree {
	t := &quinTree{
		parent:     make([]tsmodel.NodeID, numNodes),
		leftChild:  make([]tsmodel.NodeID, numNodes),
		rightChild: make([]tsmodel.NodeID, numNodes),
		leftSib:    make([]tsmodel.NodeID, numNodes),
		rightSib:   make([]tsmodel.NodeID, numNodes),
	}
	for i := range t.parent {
		t.parent[i] = tsmodel.NullNode
		t.leftChild[i] = tsmodel.NullNode
		t.rightChild[i] = tsmodel.NullNode
		t.leftSib[i] = tsmodel.NullNode
		t.rightSib[i] = tsmodel.NullNode
	}
	return t
}

// effectiveParent returns child's parent for tree-walking purposes,
// mapping the "hangs off the virtual root" sentinel to node 0 itself.
func (t *quinTree) effectiveParent(child tsmodel.NodeID) tsmodel.NodeID {
	if child == 0 {
		return tsmodel.NullNode
	}
	if p := t.parent[child]; p != tsmodel.NullNode {
		return p
	}
	return 0
}

// removeChild detaches child from its current parent, fixing up the
// sibling list, per spec's "cut child-subtree off parent via sib
// links; fix linkage". A no-op if child already hangs off the virtual
// root implicitly.
func (t *quinTree) removeChild(child tsmodel.NodeID) {
	p := t.parent[child]
	if p == tsmodel.NullNode {
		return
	}
	ls, rs := t.leftSib[child], t.rightSib[child]
	if ls != tsmodel.NullNode {
		t.rightSib[ls] = rs
	} else {
		t.leftChild[p] = rs
	}
	if rs != tsmodel.NullNode {
		t.leftSib[rs] = ls
	} else {
		t.rightChild[p] = ls
	}
	t.parent[child] = tsmodel.NullNode
	t.leftSib[child] = tsmodel.NullNode
	t.rightSib[child] = tsmodel.NullNode
	if p == 0 {
		t.numRootChildren--
	}
}

// insertChild attaches child under parent, prepending it to parent's
// child list, per spec's "attach child under parent; prepend to
// parent's child list".
func (t *quinTree) insertChild(parent, child tsmodel.NodeID) {
	old := t.leftChild[parent]
	t.rightSib[child] = old
	t.leftSib[child] = tsmodel.NullNode
	if old != tsmodel.NullNode {
		t.leftSib[old] = child
	} else {
		t.rightChild[parent] = child
	}
	t.leftChild[parent] = child
	t.parent[child] = parent
	if parent == 0 {
		t.numRootChildren++
	}
}
