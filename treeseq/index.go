package treeseq

import (
	"github.com/biogo/store/llrb"

	"github.com/grailbio/bio/tsmodel"
)

// leftKey orders edges by (left, parent time, child), breaking final
// ties on edge id so that two edges with an identical sort prefix still
// compare unequal (llrb requires a strict order).
type leftKey struct {
	left       tsmodel.Site
	parentTime tsmodel.Time
	child      tsmodel.NodeID
	edgeID     int32
}

func (k leftKey) Compare(c llrb.Comparable) int {
	o := c.(leftKey)
	if d := cmpSite(k.left, o.left); d != 0 {
		return d
	}
	if d := cmpTime(k.parentTime, o.parentTime); d != 0 {
		return d
	}
	if d := cmpNode(k.child, o.child); d != 0 {
		return d
	}
	return cmpInt32(k.edgeID, o.edgeID)
}

// rightKey orders edges by (right, -parent time, child), i.e. older
// parents sort first among edges closing at the same site. This is the
// order the matcher's forward pass wants when cutting edges whose
// right endpoint is the current site.
type rightKey struct {
	right      tsmodel.Site
	parentTime tsmodel.Time
	child      tsmodel.NodeID
	edgeID     int32
}

func (k rightKey) Compare(c llrb.Comparable) int {
	o := c.(rightKey)
	if d := cmpSite(k.right, o.right); d != 0 {
		return d
	}
	if d := cmpTime(o.parentTime, k.parentTime); d != 0 { // descending
		return d
	}
	if d := cmpNode(k.child, o.child); d != 0 {
		return d
	}
	return cmpInt32(k.edgeID, o.edgeID)
}

// pathKey orders edges by (parent, child, left), used to walk a given
// child's path in left-to-right order and to probe for shared
// recombination breakpoints across children.
type pathKey struct {
	parent tsmodel.NodeID
	child  tsmodel.NodeID
	left   tsmodel.Site
	edgeID int32
}

func (k pathKey) Compare(c llrb.Comparable) int {
	o := c.(pathKey)
	if d := cmpNode(k.parent, o.parent); d != 0 {
		return d
	}
	if d := cmpNode(k.child, o.child); d != 0 {
		return d
	}
	if d := cmpSite(k.left, o.left); d != 0 {
		return d
	}
	return cmpInt32(k.edgeID, o.edgeID)
}

func cmpSite(a, b tsmodel.Site) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpNode(a, b tsmodel.NodeID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpTime(a, b tsmodel.Time) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
