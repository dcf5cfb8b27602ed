package tsmodel

import "math"

// Site identifies a variable genomic position by its index into the
// site table, not by physical coordinate.
type Site int32

// NullSite is returned by lookups that found nothing.
const NullSite Site = -1

// NodeID identifies a node (sample or ancestor) in the genealogy.
// Node 0 is reserved for the virtual root; real nodes are allocated
// starting from 1.
type NodeID int32

// VirtualRoot is the id of the tree's virtual root. It has no parent and
// an infinite time; every other node's ancestry eventually attaches to
// it (directly or transitively) once enough edges have been inserted.
const VirtualRoot NodeID = 0

// NullNode is the sentinel for "no node" in parent/child/sib arrays.
const NullNode NodeID = -1

// Time is a node's age. Larger is older; the virtual root's time is
// +Inf. Sample nodes conventionally have time 0.
type Time float64

// InfTime is the virtual root's time.
var InfTime = Time(math.Inf(1))

// NodeFlags is a bitset of node properties.
type NodeFlags uint32

// NodeIsSample marks a node as an input sample rather than a synthesized
// ancestor or recombination node.
const NodeIsSample NodeFlags = 1 << 0

// Allele is a small integer encoding a variant at a site.
type Allele int8

const (
	// AlleleAncestral is the ancestral (reference) state.
	AlleleAncestral Allele = 0
	// AlleleDerived is the derived (non-reference) state.
	AlleleDerived Allele = 1
	// AlleleUnknown marks a missing genotype call.
	AlleleUnknown Allele = -1
)

// Edge attaches child to parent over the half-open site interval
// [Left, Right). ParentTime is denormalized from the node table so
// index comparators never need to dereference a node.
type Edge struct {
	Left, Right Site
	Parent      NodeID
	Child       NodeID
	ParentTime  Time
}

// MutationID identifies a mutation record. -1 means "no parent
// mutation" (the mutation is the first at its site on the path from the
// root).
type MutationID int32

// NullMutation is the sentinel for "no preceding mutation on this path".
const NullMutation MutationID = -1

// Mutation records a single derived-state change at a site on a node.
// Parent is the id of the nearest preceding mutation at the same site
// on an ancestor of Node, or NullMutation.
type Mutation struct {
	Site    Site
	Node    NodeID
	Derived Allele
	Parent  MutationID
}
