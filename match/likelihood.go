package match

import "github.com/grailbio/bio/tsmodel"

// likelihoodState is the sparse, compressed likelihood map the
// forward pass maintains: only nodes whose likelihood differs from
// their nearest explicit ancestor carry an entry; everyone else
// inherits.
type likelihoodState map[tsmodel.NodeID]float64

// effective returns node's current likelihood, climbing the tree via
// t.effectiveParent until an explicit entry is found. The virtual root
// (node 0) always carries one, so this always terminates.
func (l likelihoodState) effective(t *quinTree, node tsmodel.NodeID) float64 {
	cur := node
	for {
		if v, ok := l[cur]; ok {
			return v
		}
		cur = t.effectiveParent(cur)
	}
}

// preserve makes child's current effective likelihood explicit, if it
// isn't already, so that relinking child to a different parent (tree
// update at a site boundary) doesn't silently change the value it
// inherits. Must be called before the parent pointer is changed.
func (l likelihoodState) preserve(t *quinTree, child tsmodel.NodeID) {
	if _, ok := l[child]; ok {
		return
	}
	l[child] = l.effective(t, child)
}

// compress drops every explicit entry (other than the virtual root's)
// whose value equals its parent's effective likelihood, restoring the
// invariant that no node's explicit likelihood equals its parent's.
func (l likelihoodState) compress(t *quinTree) {
	for node, v := range l {
		if node == 0 {
			continue
		}
		if v == l.effective(t, t.effectiveParent(node)) {
			delete(l, node)
		}
	}
}
