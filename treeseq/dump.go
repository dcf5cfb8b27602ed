package treeseq

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"

	"github.com/grailbio/bio/internal/arena"
	"github.com/grailbio/bio/tsmodel"
)

// DumpNodes exports the node table as parallel arrays, including node
// 0 (the virtual root), so RestoreNodes is its exact inverse.
func (b *Builder) DumpNodes() (flags []tsmodel.NodeFlags, time []tsmodel.Time) {
	flags = make([]tsmodel.NodeFlags, len(b.nodes))
	time = make([]tsmodel.Time, len(b.nodes))
	for i, n := range b.nodes {
		flags[i] = n.flags
		time[i] = n.time
	}
	return
}

// DumpEdges exports the live edge set as parallel arrays in insertion
// order, suitable for RestoreEdges.
func (b *Builder) DumpEdges() (left, right []tsmodel.Site, parent, child []tsmodel.NodeID) {
	n := len(b.edgeOrder)
	left = make([]tsmodel.Site, n)
	right = make([]tsmodel.Site, n)
	parent = make([]tsmodel.NodeID, n)
	child = make([]tsmodel.NodeID, n)
	for i, id := range b.edgeOrder {
		e := b.edges.At(id)
		left[i], right[i], parent[i], child[i] = e.Left, e.Right, e.Parent, e.Child
	}
	return
}

// DumpMutations exports the mutation table as parallel arrays in
// insertion order.
func (b *Builder) DumpMutations() (site []tsmodel.Site, node []tsmodel.NodeID, derived []tsmodel.Allele, parentMutation []tsmodel.MutationID) {
	n := len(b.mutOrder)
	site = make([]tsmodel.Site, n)
	node = make([]tsmodel.NodeID, n)
	derived = make([]tsmodel.Allele, n)
	parentMutation = make([]tsmodel.MutationID, n)
	for i, id := range b.mutOrder {
		m := b.mutations.At(id)
		site[i], node[i], derived[i], parentMutation[i] = m.Site, m.Node, m.Derived, m.Parent
	}
	return
}

// RestoreNodes replaces the node table. flags[0]/time[0] must describe
// the virtual root, mirroring DumpNodes's output.
func (b *Builder) RestoreNodes(flags []tsmodel.NodeFlags, time []tsmodel.Time) error {
	if len(flags) != len(time) {
		return errors.E(errors.Invalid, "restore_nodes: flags and time length mismatch")
	}
	if len(flags) == 0 {
		return errors.E(errors.Invalid, "restore_nodes: missing virtual root")
	}
	b.nodes = make([]nodeRecord, len(flags))
	for i := range flags {
		b.nodes[i] = nodeRecord{time: time[i], flags: flags[i]}
	}
	return nil
}

// RestoreEdges rebuilds the edge set and all three interval indices
// from dumped arrays, inverting DumpEdges.
func (b *Builder) RestoreEdges(left, right []tsmodel.Site, parent, child []tsmodel.NodeID) error {
	n := len(left)
	if len(right) != n || len(parent) != n || len(child) != n {
		return errors.E(errors.Invalid, "restore_edges: array length mismatch")
	}
	b.edges = arena.Heap[tsmodel.Edge]{}
	b.leftIndex, b.rightIndex, b.pathIndex = llrb.Tree{}, llrb.Tree{}, llrb.Tree{}
	b.paths = make(map[tsmodel.NodeID][]int32)
	b.patterns = make(map[uint64][]*sharedRecomb)
	b.edgeOrder = b.edgeOrder[:0]

	for i := 0; i < n; i++ {
		if !b.validNode(parent[i]) || !b.validNode(child[i]) {
			return errors.E(errors.Invalid, fmt.Sprintf("restore_edges: edge %d references an unknown node", i))
		}
		e := tsmodel.Edge{Left: left[i], Right: right[i], Parent: parent[i], Child: child[i], ParentTime: b.nodes[parent[i]].time}
		id, err := b.insertEdge(e)
		if err != nil {
			return err
		}
		b.paths[child[i]] = append(b.paths[child[i]], id)
		b.edgeOrder = append(b.edgeOrder, id)
	}
	return nil
}

// RestoreMutations rebuilds the mutation table from dumped arrays,
// preserving the supplied parentMutation ids verbatim (they already
// encode nearest-ancestor relationships computed at original insertion
// time).
func (b *Builder) RestoreMutations(site []tsmodel.Site, node []tsmodel.NodeID, derived []tsmodel.Allele, parentMutation []tsmodel.MutationID) error {
	n := len(site)
	if len(node) != n || len(derived) != n || len(parentMutation) != n {
		return errors.E(errors.Invalid, "restore_mutations: array length mismatch")
	}
	b.mutations = arena.Heap[tsmodel.Mutation]{}
	b.mutOrder = b.mutOrder[:0]
	b.mutNext = b.mutNext[:0]
	b.siteMutHead = make(map[tsmodel.Site]tsmodel.MutationID)
	b.siteNodeMutation = make(map[tsmodel.Site]map[tsmodel.NodeID]tsmodel.MutationID)

	for i := 0; i < n; i++ {
		id, rec := b.mutations.Alloc()
		*rec = tsmodel.Mutation{Site: site[i], Node: node[i], Derived: derived[i], Parent: parentMutation[i]}
		for int32(len(b.mutNext)) <= id {
			b.mutNext = append(b.mutNext, tsmodel.NullMutation)
		}
		b.mutNext[id] = b.siteMutHead[site[i]]
		b.siteMutHead[site[i]] = tsmodel.MutationID(id)
		if b.siteNodeMutation[site[i]] == nil {
			b.siteNodeMutation[site[i]] = make(map[tsmodel.NodeID]tsmodel.MutationID)
		}
		b.siteNodeMutation[site[i]][node[i]] = tsmodel.MutationID(id)
		b.mutOrder = append(b.mutOrder, id)
	}
	return nil
}

// Snapshot is a read-only view of a Builder shared across concurrently
// matching haplotypes: callers must not mutate the underlying Builder
// while a Snapshot derived from it is in use.
type Snapshot struct {
	b *Builder
}

// Snapshot returns a read-only view of b's current state.
func (b *Builder) Snapshot() *Snapshot { return &Snapshot{b: b} }

// NumNodes returns the number of nodes, including the virtual root.
func (s *Snapshot) NumNodes() int { return s.b.NumNodes() }

// NodeTime returns n's time.
func (s *Snapshot) NodeTime(n tsmodel.NodeID) tsmodel.Time { return s.b.NodeTime(n) }

// NodeFlags returns n's flags.
func (s *Snapshot) NodeFlags(n tsmodel.NodeID) tsmodel.NodeFlags { return s.b.NodeFlags(n) }

// EdgesStartingAt invokes fn for every edge whose Left equals site.
func (s *Snapshot) EdgesStartingAt(site tsmodel.Site, fn func(tsmodel.Edge) bool) {
	s.b.EdgesStartingAt(site, fn)
}

// EdgesEndingAt invokes fn for every edge whose Right equals site.
func (s *Snapshot) EdgesEndingAt(site tsmodel.Site, fn func(tsmodel.Edge) bool) {
	s.b.EdgesEndingAt(site, fn)
}

// MutationAt returns the derived allele explicitly recorded for node
// at site, if any.
func (s *Snapshot) MutationAt(site tsmodel.Site, node tsmodel.NodeID) (tsmodel.Allele, bool) {
	return s.b.MutationAt(site, node)
}
