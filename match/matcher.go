package match

import (
	"fmt"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/bio/treeseq"
	"github.com/grailbio/bio/tsmodel"
)

// Params are the Li-Stephens model parameters: a per-site
// recombination probability and a single genome-wide mismatch
// (observation error) rate.
type Params struct {
	RecombRate   []float64
	MismatchRate float64
}

// Result is the outcome of one FindPath call: the maximum-likelihood
// copying path (edges with Child left unset — the caller supplies the
// child node once it commits the path via treeseq.Builder.AddPath),
// the allele the path implies at every site in [start, end), and the
// sites where that differs from the input haplotype.
type Result struct {
	MatchedHaplotype []tsmodel.Allele
	Edges            []tsmodel.Edge
	Mismatches       []tsmodel.Site
}

// Matcher runs the ancestor-matching HMM against a fixed, read-only
// view of a tree sequence. Callers achieve parallelism
// by sharding haplotypes across independent Matchers that share one
// Snapshot; a Matcher itself is not safe for concurrent FindPath calls
// because it reuses its own traceback arena across calls.
type Matcher struct {
	snap   *treeseq.Snapshot
	params Params
	tb     traceback
}

// NewMatcher returns a Matcher that copies haplotypes against snap.
func NewMatcher(snap *treeseq.Snapshot, params Params) *Matcher {
	return &Matcher{snap: snap, params: params}
}

// FindPath threads haplotype[0:end-start] (representing sites
// [start, end)) through the tree sequence and returns the
// maximum-likelihood copying path, matching the classic
// find_path(start, end, haplotype) operation.
func (m *Matcher) FindPath(start, end tsmodel.Site, haplotype []tsmodel.Allele) (Result, error) {
	if end <= start {
		return Result{}, errors.E(errors.Invalid, fmt.Sprintf("find_path: empty range [%d,%d)", start, end))
	}
	if len(haplotype) != int(end-start) {
		return Result{}, errors.E(errors.Invalid, fmt.Sprintf("find_path: haplotype length %d does not match range [%d,%d)", len(haplotype), start, end))
	}
	if len(m.params.RecombRate) < int(end) {
		return Result{}, errors.E(errors.Invalid, fmt.Sprintf("find_path: recomb_rate only covers %d sites, need %d", len(m.params.RecombRate), end))
	}

	m.tb.reset()
	t := newQuinTree(m.snap.NumNodes())
	L := likelihoodState{0: 1.0}

	for s := tsmodel.Site(0); s < end; s++ {
		m.treeUpdate(t, L, s)
		if s >= start {
			m.forwardStep(t, L, s, haplotype[s-start])
		}
	}

	return m.backward(start, end, haplotype), nil
}

// treeUpdate applies every edge event at site s: edges ending at s are
// removed first, then edges starting at s are inserted. Before each
// relink, the child's current effective likelihood is made explicit
// so the relink can't silently change what it inherits.
func (m *Matcher) treeUpdate(t *quinTree, L likelihoodState, s tsmodel.Site) {
	m.snap.EdgesEndingAt(s, func(e tsmodel.Edge) bool {
		L.preserve(t, e.Child)
		t.removeChild(e.Child)
		return true
	})
	m.snap.EdgesStartingAt(s, func(e tsmodel.Edge) bool {
		L.preserve(t, e.Child)
		t.removeChild(e.Child) // in case a stale link from elsewhere exists
		t.insertChild(e.Parent, e.Child)
		return true
	})
}

// forwardStep performs the transition, emission, normalization and
// compression steps of the forward algorithm for a single site.
func (m *Matcher) forwardStep(t *quinTree, L likelihoodState, s tsmodel.Site, hs tsmodel.Allele) {
	rho := m.params.RecombRate[s]
	mu := m.params.MismatchRate

	// n_e: the number of extant lineages below the virtual root, per
	// the tree's actual topology — not len(L), which counts explicit
	// likelihood entries and can exceed the lineage count whenever two
	// samples under the same un-recombined root lineage carry different
	// mismatch histories and so both stay explicit after compression.
	numLineages := t.numRootChildren
	if numLineages == 0 {
		numLineages = 1
	}

	// A node carrying a mutation at s can emit differently from the
	// ancestor it would otherwise inherit from, so it gets an explicit
	// likelihood before the update below.
	for n := range t.parent {
		if _, ok := m.snap.MutationAt(s, tsmodel.NodeID(n)); ok {
			L.preserve(t, tsmodel.NodeID(n))
		}
	}

	recomb := make(map[tsmodel.NodeID]bool, len(L))
	newL := make(likelihoodState, len(L))
	maxLikelihood := -1.0
	maxNode := tsmodel.NullNode

	for node, lu := range L {
		noRecomb := lu * (1 - rho)
		recombProb := rho / float64(numLineages)
		best := noRecomb
		required := false
		if recombProb > noRecomb {
			best = recombProb
			required = true
		}
		v := best * m.emission(t, node, s, hs, mu)
		newL[node] = v
		recomb[node] = required
		if v > maxLikelihood || (v == maxLikelihood && node < maxNode) {
			maxLikelihood = v
			maxNode = node
		}
	}

	if maxLikelihood > 0 {
		for node, v := range newL {
			newL[node] = v / maxLikelihood
		}
	}

	parentSnapshot := make([]tsmodel.NodeID, len(t.parent))
	copy(parentSnapshot, t.parent)
	m.tb.append(s, parentSnapshot, recomb, maxNode)

	for k := range L {
		delete(L, k)
	}
	for k, v := range newL {
		L[k] = v
	}
	L.compress(t)
}

// emission returns the observation probability of hs at node at site
// s: 1-mu if node's allele under the current marginal tree matches hs,
// mu otherwise. An unknown input allele always matches (probability
// 1), the convention attached to the unknown sentinel.
func (m *Matcher) emission(t *quinTree, node tsmodel.NodeID, s tsmodel.Site, hs tsmodel.Allele, mu float64) float64 {
	if hs == tsmodel.AlleleUnknown {
		return 1
	}
	if m.alleleAt(t.parent, node, s) == hs {
		return 1 - mu
	}
	return mu
}

// alleleAt walks up from node looking for the nearest mutation record
// at site s, defaulting to ancestral if none is found before the
// virtual root. Shared by emission and the backward pass, since both
// need "what does node carry at s".
func (m *Matcher) alleleAt(parent []tsmodel.NodeID, node tsmodel.NodeID, s tsmodel.Site) tsmodel.Allele {
	cur := node
	for {
		if a, ok := m.snap.MutationAt(s, cur); ok {
			return a
		}
		if cur == 0 {
			return tsmodel.AlleleAncestral
		}
		if p := parent[cur]; p != tsmodel.NullNode {
			cur = p
		} else {
			cur = 0
		}
	}
}

// backward replays the traceback right-to-left, recovering the
// maximum-likelihood path and the allele it implies at every site.
func (m *Matcher) backward(start, end tsmodel.Site, haplotype []tsmodel.Allele) Result {
	n := len(m.tb.bySite)
	u := m.tb.bySite[n-1].maxLikelihoodNode
	rightOpen := end

	matched := make([]tsmodel.Allele, n)
	var mismatches []tsmodel.Site
	var edges []tsmodel.Edge

	for i := n - 1; i >= 0; i-- {
		rec := m.tb.bySite[i]
		s := rec.site

		matched[i] = m.alleleAt(rec.parent, u, s)
		if matched[i] != haplotype[i] {
			mismatches = append(mismatches, s)
		}

		required := m.resolveRecombRequired(rec, u)
		if required && s > start {
			edges = append(edges, tsmodel.Edge{Left: s, Right: rightOpen, Parent: u, Child: tsmodel.NullNode})
			rightOpen = s
			u = m.tb.bySite[i-1].maxLikelihoodNode
		}
	}
	edges = append(edges, tsmodel.Edge{Left: start, Right: rightOpen, Parent: u, Child: tsmodel.NullNode})

	for l, r := 0, len(edges)-1; l < r; l, r = l+1, r-1 {
		edges[l], edges[r] = edges[r], edges[l]
	}

	return Result{MatchedHaplotype: matched, Edges: edges, Mismatches: mismatches}
}

// resolveRecombRequired climbs rec's frozen parent links from node
// until it finds an explicit recombination-required bit recorded in
// that site's traceback.
func (m *Matcher) resolveRecombRequired(rec *siteRecord, node tsmodel.NodeID) bool {
	cur := node
	for {
		if req, ok := rec.recombRequired[cur]; ok {
			return req
		}
		if cur == 0 {
			return false
		}
		if p := rec.parent[cur]; p != tsmodel.NullNode {
			cur = p
		} else {
			cur = 0
		}
	}
}
