package match

import (
	"github.com/grailbio/bio/internal/arena"
	"github.com/grailbio/bio/tsmodel"
)

// siteRecord is one site's worth of forward-pass traceback: which
// nodes were explicit going into that site's transition step, whether
// each required a recombination, the tree's parent links at that site
// (needed by the backward pass to climb to the nearest explicit
// ancestor of whatever node it's currently following), and the site's
// maximum-likelihood node.
type siteRecord struct {
	site              tsmodel.Site
	parent            []tsmodel.NodeID
	recombRequired    map[tsmodel.NodeID]bool
	maxLikelihoodNode tsmodel.NodeID
}

// traceback is the scoped arena backing one FindPath call: reset, not freed,
// at the start of every FindPath call.
type traceback struct {
	records arena.Blocks[siteRecord]
	bySite  []*siteRecord
}

func (tb *traceback) reset() {
	tb.records.Reset()
	tb.bySite = tb.bySite[:0]
}

func (tb *traceback) append(site tsmodel.Site, parent []tsmodel.NodeID, recomb map[tsmodel.NodeID]bool, maxNode tsmodel.NodeID) {
	r := tb.records.Alloc()
	r.site = site
	r.parent = parent
	r.recombRequired = recomb
	r.maxLikelihoodNode = maxNode
	tb.bySite = append(tb.bySite, r)
}
