package treeseq

import (
	"fmt"
	"io"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"

	"github.com/grailbio/bio/internal/arena"
	"github.com/grailbio/bio/tsmodel"
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// ResolveSharedRecombs collapses paths that share an identical
	// recombination breakpoint pattern into a synthesized internal
	// node.
	ResolveSharedRecombs bool
	// NumSites bounds edge intervals to [0, NumSites) when positive.
	// Zero means unchecked.
	NumSites tsmodel.Site
	// MaxEdges caps the number of live edges the builder will hold,
	// purely so that the OutOfMemory + rollback path is deterministically
	// testable; zero means unlimited.
	MaxEdges int
}

// PathEdge is a single (left, right, parent) segment supplied to
// AddPath. Child is implicit (the AddPath argument).
type PathEdge struct {
	Left, Right tsmodel.Site
	Parent      tsmodel.NodeID
}

type nodeRecord struct {
	time  tsmodel.Time
	flags tsmodel.NodeFlags
}

// Builder is the incremental edge database driving the tree-sequence
// builder step of ancestor-matching inference. It owns only
// arena-backed memory; freeing a Builder (letting it become garbage)
// releases everything at once.
type Builder struct {
	opts BuilderOptions

	nodes []nodeRecord

	edges     arena.Heap[tsmodel.Edge]
	edgeOrder []int32

	leftIndex, rightIndex, pathIndex llrb.Tree

	// paths[child] holds the live edge ids for that child, sorted by
	// Left and contiguous, forming a single "path" without the
	// pointer-chasing of a literal linked list.
	paths map[tsmodel.NodeID][]int32

	// patterns buckets sharedRecomb records by recombPattern's hash;
	// each bucket can hold more than one entry since the hash alone
	// doesn't prove the edges match (see edgesEqual).
	patterns map[uint64][]*sharedRecomb

	mutations        arena.Heap[tsmodel.Mutation]
	mutOrder         []int32
	mutNext          []tsmodel.MutationID
	siteMutHead      map[tsmodel.Site]tsmodel.MutationID
	siteNodeMutation map[tsmodel.Site]map[tsmodel.NodeID]tsmodel.MutationID
}

// NewBuilder returns an empty Builder. Node 0, the virtual root, is
// pre-allocated with infinite time.
func NewBuilder(opts BuilderOptions) *Builder {
	b := &Builder{
		opts:             opts,
		paths:            make(map[tsmodel.NodeID][]int32),
		patterns:         make(map[uint64][]*sharedRecomb),
		siteMutHead:      make(map[tsmodel.Site]tsmodel.MutationID),
		siteNodeMutation: make(map[tsmodel.Site]map[tsmodel.NodeID]tsmodel.MutationID),
	}
	b.nodes = append(b.nodes, nodeRecord{time: tsmodel.InfTime})
	return b
}

// AddNode appends a node and returns its id. Callers are responsible
// for supplying times in the order their topology needs; the builder
// only enforces time[parent] > time[child] when an edge is actually
// inserted.
func (b *Builder) AddNode(t tsmodel.Time, isSample bool) tsmodel.NodeID {
	var flags tsmodel.NodeFlags
	if isSample {
		flags = tsmodel.NodeIsSample
	}
	b.nodes = append(b.nodes, nodeRecord{time: t, flags: flags})
	return tsmodel.NodeID(len(b.nodes) - 1)
}

// NumNodes returns the number of nodes, including the virtual root.
func (b *Builder) NumNodes() int { return len(b.nodes) }

// NodeTime returns n's time.
func (b *Builder) NodeTime(n tsmodel.NodeID) tsmodel.Time { return b.nodes[n].time }

// NodeFlags returns n's flags.
func (b *Builder) NodeFlags(n tsmodel.NodeID) tsmodel.NodeFlags { return b.nodes[n].flags }

func (b *Builder) validNode(n tsmodel.NodeID) bool {
	return n >= 0 && int(n) < len(b.nodes)
}

// AddPath inserts child's edge list. edges must be sorted by Left
// ascending, pairwise non-overlapping, and contiguous (edges[i].Right
// == edges[i+1].Left). When opts.ResolveSharedRecombs is set and the
// resulting pattern exactly matches a pattern already held by another
// child, the two paths are collapsed onto a newly synthesized internal
// node; this happens atomically with respect to the
// caller: on any validation or capacity failure, nothing is inserted.
func (b *Builder) AddPath(child tsmodel.NodeID, edges []PathEdge) error {
	if !b.validNode(child) {
		return errors.E(errors.Invalid, fmt.Sprintf("add_path: child %d out of range", child))
	}
	if len(edges) == 0 {
		return errors.E(errors.Invalid, "add_path: empty edge list")
	}
	if _, ok := b.paths[child]; ok {
		return errors.E(errors.Invalid, fmt.Sprintf("add_path: child %d already has a path", child))
	}
	if err := b.validateEdges(child, edges); err != nil {
		return err
	}

	if !b.opts.ResolveSharedRecombs {
		return b.insertPathPlain(child, edges)
	}
	return b.insertPathResolving(child, edges)
}

func (b *Builder) validateEdges(child tsmodel.NodeID, edges []PathEdge) error {
	childTime := b.nodes[child].time
	for i, e := range edges {
		if e.Left < 0 || e.Left >= e.Right {
			return errors.E(errors.Invalid, fmt.Sprintf("add_path: edge %d has non-positive interval [%d,%d)", i, e.Left, e.Right))
		}
		if b.opts.NumSites > 0 && e.Right > b.opts.NumSites {
			return errors.E(errors.Invalid, fmt.Sprintf("add_path: edge %d right endpoint %d exceeds num sites %d", i, e.Right, b.opts.NumSites))
		}
		if !b.validNode(e.Parent) {
			return errors.E(errors.Invalid, fmt.Sprintf("add_path: edge %d parent %d out of range", i, e.Parent))
		}
		if b.nodes[e.Parent].time <= childTime {
			return errors.E(errors.Invalid, fmt.Sprintf("add_path: parent %d time %v must exceed child %d time %v", e.Parent, b.nodes[e.Parent].time, child, childTime))
		}
		if i > 0 && edges[i-1].Right != e.Left {
			return errors.E(errors.Invalid, fmt.Sprintf("add_path: edges %d and %d are not contiguous ([%d,%d) then [%d,%d))", i-1, i, edges[i-1].Left, edges[i-1].Right, e.Left, e.Right))
		}
	}
	return nil
}

// insertEdge allocates one edge in every index, returning its id. It
// does not touch b.paths or b.patterns; callers commit those once the
// whole operation is known to succeed.
func (b *Builder) insertEdge(e tsmodel.Edge) (int32, error) {
	if b.opts.MaxEdges > 0 && b.edges.Len()+1 > b.opts.MaxEdges {
		return 0, errors.E(errors.ResourceExhausted, fmt.Sprintf("add_path: edge capacity %d exceeded", b.opts.MaxEdges))
	}
	id, rec := b.edges.Alloc()
	*rec = e
	b.leftIndex.Insert(leftKey{left: e.Left, parentTime: e.ParentTime, child: e.Child, edgeID: id})
	b.rightIndex.Insert(rightKey{right: e.Right, parentTime: e.ParentTime, child: e.Child, edgeID: id})
	b.pathIndex.Insert(pathKey{parent: e.Parent, child: e.Child, left: e.Left, edgeID: id})
	return id, nil
}

func (b *Builder) removeEdge(id int32) {
	e := *b.edges.At(id)
	b.leftIndex.Delete(leftKey{left: e.Left, parentTime: e.ParentTime, child: e.Child, edgeID: id})
	b.rightIndex.Delete(rightKey{right: e.Right, parentTime: e.ParentTime, child: e.Child, edgeID: id})
	b.pathIndex.Delete(pathKey{parent: e.Parent, child: e.Child, left: e.Left, edgeID: id})
	b.edges.Free(id)
}

func (b *Builder) insertPathPlain(child tsmodel.NodeID, edges []PathEdge) error {
	ids := make([]int32, 0, len(edges))
	for _, pe := range edges {
		id, err := b.insertEdge(tsmodel.Edge{
			Left: pe.Left, Right: pe.Right, Parent: pe.Parent, Child: child,
			ParentTime: b.nodes[pe.Parent].time,
		})
		if err != nil {
			for _, done := range ids {
				b.removeEdge(done)
			}
			return err
		}
		ids = append(ids, id)
	}
	b.paths[child] = ids
	b.edgeOrder = append(b.edgeOrder, ids...)
	return nil
}

// insertPathResolving implements the shared-recombination collapse on
// top of insertPathPlain.
func (b *Builder) insertPathResolving(child tsmodel.NodeID, edges []PathEdge) error {
	pattern := recombPattern(edges)
	bucket := b.patterns[pattern]

	var sr *sharedRecomb
	for _, cand := range bucket {
		if edgesEqual(cand.edges, edges) {
			sr = cand
			break
		}
	}

	if sr != nil && sr.collapsedTo != tsmodel.NullNode {
		// A synthesized node already exists for this exact pattern;
		// just attach the new child below it.
		overall := PathEdge{Left: edges[0].Left, Right: edges[len(edges)-1].Right, Parent: sr.collapsedTo}
		return b.insertPathPlain(child, []PathEdge{overall})
	}

	if sr == nil {
		if err := b.insertPathPlain(child, edges); err != nil {
			return err
		}
		edgesCopy := append([]PathEdge(nil), edges...)
		b.patterns[pattern] = append(bucket, &sharedRecomb{edges: edgesCopy, single: child, collapsedTo: tsmodel.NullNode})
		return nil
	}

	// sr.single holds another child with exactly this pattern: collapse
	// both onto a freshly synthesized node.
	other := sr.single
	otherIDs := b.paths[other]

	minParentTime := b.nodes[edges[0].Parent].time
	for _, e := range edges[1:] {
		if t := b.nodes[e.Parent].time; t < minParentTime {
			minParentTime = t
		}
	}
	maxChildTime := b.nodes[child].time
	if t := b.nodes[other].time; t > maxChildTime {
		maxChildTime = t
	}
	newTime := (minParentTime + maxChildTime) / 2
	if newTime <= maxChildTime || newTime >= minParentTime {
		// Degenerate (equal-time) inputs: nudge by a fraction so the
		// strict time[parent] > time[child] invariant still holds.
		newTime = maxChildTime + (minParentTime-maxChildTime)/1e6
	}

	x := b.AddNode(newTime, false)

	patternIDs := make([]int32, 0, len(edges))
	for _, e := range edges {
		id, err := b.insertEdge(tsmodel.Edge{Left: e.Left, Right: e.Right, Parent: e.Parent, Child: x, ParentTime: b.nodes[e.Parent].time})
		if err != nil {
			for _, done := range patternIDs {
				b.removeEdge(done)
			}
			b.nodes = b.nodes[:x]
			return err
		}
		patternIDs = append(patternIDs, id)
	}

	overallLeft, overallRight := edges[0].Left, edges[len(edges)-1].Right
	otherEdge := tsmodel.Edge{Left: overallLeft, Right: overallRight, Parent: x, Child: other, ParentTime: newTime}
	otherNewID, err := b.insertEdge(otherEdge)
	if err != nil {
		for _, done := range patternIDs {
			b.removeEdge(done)
		}
		b.nodes = b.nodes[:x]
		return err
	}
	childEdge := tsmodel.Edge{Left: overallLeft, Right: overallRight, Parent: x, Child: child, ParentTime: newTime}
	childNewID, err := b.insertEdge(childEdge)
	if err != nil {
		b.removeEdge(otherNewID)
		for _, done := range patternIDs {
			b.removeEdge(done)
		}
		b.nodes = b.nodes[:x]
		return err
	}

	for _, id := range otherIDs {
		b.removeEdge(id)
	}
	b.paths[other] = []int32{otherNewID}
	b.paths[child] = []int32{childNewID}
	b.edgeOrder = appendLiveOrder(b.edgeOrder, otherIDs, patternIDs, otherNewID, childNewID)

	sr.single, sr.collapsedTo = tsmodel.NullNode, x
	return nil
}

// appendLiveOrder removes the now-dead removedIDs from order and
// appends the newly committed ones, preserving dump-order determinism
// across a shared-recombination collapse.
func appendLiveOrder(order []int32, removedIDs, newIDs []int32, more ...int32) []int32 {
	dead := make(map[int32]struct{}, len(removedIDs))
	for _, id := range removedIDs {
		dead[id] = struct{}{}
	}
	out := order[:0:0]
	for _, id := range order {
		if _, gone := dead[id]; !gone {
			out = append(out, id)
		}
	}
	out = append(out, newIDs...)
	out = append(out, more...)
	return out
}

// AddMutations prepends one mutation per (site, derived) pair on node.
// Parent is resolved to the nearest ancestor of node, at that site,
// that already carries an explicit mutation there, or NullMutation.
func (b *Builder) AddMutations(node tsmodel.NodeID, sites []tsmodel.Site, derived []tsmodel.Allele) error {
	if !b.validNode(node) {
		return errors.E(errors.Invalid, fmt.Sprintf("add_mutations: node %d out of range", node))
	}
	if len(sites) != len(derived) {
		return errors.E(errors.Invalid, "add_mutations: sites and derived_state length mismatch")
	}
	for i, s := range sites {
		parentMut := b.nearestAncestorMutation(s, node)
		id, rec := b.mutations.Alloc()
		*rec = tsmodel.Mutation{Site: s, Node: node, Derived: derived[i], Parent: parentMut}
		for int32(len(b.mutNext)) <= id {
			b.mutNext = append(b.mutNext, tsmodel.NullMutation)
		}
		b.mutNext[id] = b.siteMutHead[s]
		b.siteMutHead[s] = tsmodel.MutationID(id)
		if b.siteNodeMutation[s] == nil {
			b.siteNodeMutation[s] = make(map[tsmodel.NodeID]tsmodel.MutationID)
		}
		b.siteNodeMutation[s][node] = tsmodel.MutationID(id)
		b.mutOrder = append(b.mutOrder, id)
	}
	return nil
}

// ParentAt returns the parent of child at site, resolved by binary
// search over child's path, matching the half-open interval it's
// valid for.
func (b *Builder) ParentAt(child tsmodel.NodeID, site tsmodel.Site) (tsmodel.NodeID, bool) {
	ids, ok := b.paths[child]
	if !ok || len(ids) == 0 {
		return tsmodel.NullNode, false
	}
	i := sort.Search(len(ids), func(i int) bool { return b.edges.At(ids[i]).Right > site })
	if i == len(ids) {
		return tsmodel.NullNode, false
	}
	e := b.edges.At(ids[i])
	if site < e.Left || site >= e.Right {
		return tsmodel.NullNode, false
	}
	return e.Parent, true
}

// MutationAt returns the derived allele explicitly recorded for node
// at site, if any.
func (b *Builder) MutationAt(site tsmodel.Site, node tsmodel.NodeID) (tsmodel.Allele, bool) {
	m, ok := b.siteNodeMutation[site]
	if !ok {
		return 0, false
	}
	id, ok := m[node]
	if !ok {
		return 0, false
	}
	return b.mutations.At(int32(id)).Derived, true
}

func (b *Builder) nearestAncestorMutation(site tsmodel.Site, node tsmodel.NodeID) tsmodel.MutationID {
	cur := node
	for depth := 0; depth < len(b.nodes); depth++ {
		parent, ok := b.ParentAt(cur, site)
		if !ok {
			return tsmodel.NullMutation
		}
		if id, found := b.siteNodeMutation[site][parent]; found {
			return id
		}
		cur = parent
	}
	return tsmodel.NullMutation
}

// EdgesStartingAt invokes fn for every live edge whose Left equals
// site, in leftIndex order. fn returning false stops the scan early.
func (b *Builder) EdgesStartingAt(site tsmodel.Site, fn func(tsmodel.Edge) bool) {
	lo := leftKey{left: site, parentTime: tsmodel.Time(0), child: tsmodel.NullNode, edgeID: -1 << 31}
	hi := leftKey{left: site, parentTime: tsmodel.InfTime + 1, child: tsmodel.NodeID(1<<31 - 1), edgeID: 1<<31 - 1}
	b.leftIndex.DoRange(func(c llrb.Comparable) bool {
		k := c.(leftKey)
		if k.left != site {
			return true
		}
		return !fn(*b.edges.At(k.edgeID))
	}, lo, hi)
}

// EdgesEndingAt invokes fn for every live edge whose Right equals
// site, in rightIndex order.
func (b *Builder) EdgesEndingAt(site tsmodel.Site, fn func(tsmodel.Edge) bool) {
	lo := rightKey{right: site, parentTime: tsmodel.InfTime + 1, child: tsmodel.NullNode, edgeID: -1 << 31}
	hi := rightKey{right: site, parentTime: tsmodel.Time(0), child: tsmodel.NodeID(1<<31 - 1), edgeID: 1<<31 - 1}
	b.rightIndex.DoRange(func(c llrb.Comparable) bool {
		k := c.(rightKey)
		if k.right != site {
			return true
		}
		return !fn(*b.edges.At(k.edgeID))
	}, lo, hi)
}

// NumEdges returns the number of currently live edges.
func (b *Builder) NumEdges() int { return len(b.edgeOrder) }

// NumRecombinations returns the number of children whose path has more
// than one edge.
func (b *Builder) NumRecombinations() int {
	n := 0
	for _, ids := range b.paths {
		if len(ids) > 1 {
			n++
		}
	}
	return n
}

// PrintState writes a plain-text diagnostic summary, satisfying
// a print_state introspection requirement.
func (b *Builder) PrintState(w io.Writer) {
	fmt.Fprintf(w, "treeseq.Builder: %d nodes, %d edges, %d mutations, %d recombinations\n",
		len(b.nodes), len(b.edgeOrder), len(b.mutOrder), b.NumRecombinations())
}
