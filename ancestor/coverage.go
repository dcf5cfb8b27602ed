package ancestor

import (
	"sort"

	"github.com/grailbio/bio/interval"
	"github.com/grailbio/bio/tsmodel"
)

// coverage tracks the union of site ranges spanned by every ancestor
// MakeAncestor has produced so far, as a sorted list of interval
// endpoints (the representation interval.UnionScanner expects).
type coverage struct {
	endpoints []interval.PosType
}

// add merges [start, end) into the union.
func (c *coverage) add(start, end tsmodel.Site) {
	lo := interval.PosType(start)
	hi := interval.PosType(end)

	merged := make([]interval.PosType, 0, len(c.endpoints)+2)
	inserted := false
	i := 0
	for i < len(c.endpoints) {
		eStart, eEnd := c.endpoints[i], c.endpoints[i+1]
		if hi < eStart {
			merged = append(merged, lo, hi)
			inserted = true
			break
		}
		if lo > eEnd {
			merged = append(merged, eStart, eEnd)
			i += 2
			continue
		}
		// Overlaps or touches; absorb it and keep scanning for further overlaps.
		if eStart < lo {
			lo = eStart
		}
		if eEnd > hi {
			hi = eEnd
		}
		i += 2
	}
	if !inserted {
		merged = append(merged, lo, hi)
	}
	merged = append(merged, c.endpoints[i:]...)
	c.endpoints = merged
}

// totalSites returns the number of distinct sites covered by at least
// one ancestor, walking the union with interval.NewUnionScanner the
// way interval's doc comment demonstrates.
func (c *coverage) totalSites() int {
	us := interval.NewUnionScanner(c.endpoints)
	var start, end interval.PosType
	total := 0
	for us.Scan(&start, &end, interval.PosTypeMax) {
		total += int(end - start)
	}
	return total
}

// ranges returns the merged [start, end) ranges in ascending order.
func (c *coverage) ranges() [][2]tsmodel.Site {
	out := make([][2]tsmodel.Site, 0, len(c.endpoints)/2)
	for i := 0; i < len(c.endpoints); i += 2 {
		out = append(out, [2]tsmodel.Site{tsmodel.Site(c.endpoints[i]), tsmodel.Site(c.endpoints[i+1])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// CoveredSiteRanges returns the merged, non-overlapping site ranges
// spanned by every ancestor built so far via MakeAncestor.
func (b *Builder) CoveredSiteRanges() [][2]tsmodel.Site {
	return b.coverage.ranges()
}

// TotalCoveredSites returns the number of distinct sites spanned by at
// least one ancestor built so far via MakeAncestor.
func (b *Builder) TotalCoveredSites() int {
	return b.coverage.totalSites()
}
