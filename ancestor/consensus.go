package ancestor

import (
	"bytes"
	"fmt"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/bio/tsmodel"
)

// MakeAncestor synthesizes the ancestral haplotype for one focal-site
// group. focalSites must be a non-empty set of sites
// previously grouped together by AddSite (typically obtained from
// FocalSites); all must share the same genotype pattern and frequency,
// which MakeAncestor verifies from the stored genotype columns rather
// than trusting the caller.
func (b *Builder) MakeAncestor(focalSites []tsmodel.Site) (Ancestor, error) {
	if len(focalSites) == 0 {
		return Ancestor{}, errors.E(errors.Invalid, "make_ancestor: empty focal site list")
	}
	minSite, maxSite := focalSites[0], focalSites[0]
	var pattern []byte
	for _, s := range focalSites {
		col, ok := b.genotypes[s]
		if !ok {
			return Ancestor{}, errors.E(errors.Invalid, fmt.Sprintf("make_ancestor: unknown site %d", s))
		}
		if p := encodePattern(col); pattern == nil {
			pattern = p
		} else if !bytes.Equal(p, pattern) {
			return Ancestor{}, errors.E(errors.Invalid, fmt.Sprintf("make_ancestor: site %d does not share the focal group's genotype pattern", s))
		}
		if s < minSite {
			minSite = s
		}
		if s > maxSite {
			maxSite = s
		}
	}

	representative := b.genotypes[focalSites[0]]
	carriers := carrierSamples(representative)
	if len(carriers) == 0 {
		return Ancestor{}, errors.E(errors.Invalid, "make_ancestor: focal site has no derived-allele carriers")
	}

	focalSet := make(map[tsmodel.Site]bool, len(focalSites))
	for _, s := range focalSites {
		focalSet[s] = true
	}

	hap := make(map[tsmodel.Site]tsmodel.Allele, int(maxSite-minSite)+1)
	for s := minSite; s <= maxSite; s++ {
		if focalSet[s] {
			hap[s] = tsmodel.AlleleDerived
			continue
		}
		col, ok := b.genotypes[s]
		if !ok {
			continue
		}
		allele, ok := majority(col, carriers)
		if !ok {
			allele = tsmodel.AlleleAncestral
		}
		hap[s] = allele
	}

	start, end := minSite, maxSite+1

	if s, ok := b.extend(minSite-1, -1, carriers, hap); ok {
		start = s
	}
	if s, ok := b.extend(maxSite+1, 1, carriers, hap); ok {
		end = s + 1
	}

	out := make([]tsmodel.Allele, int(end-start))
	for s := start; s < end; s++ {
		a, ok := hap[s]
		if !ok {
			a = tsmodel.AlleleUnknown
		}
		out[s-start] = a
	}

	b.coverage.add(start, end)
	return Ancestor{Start: start, End: end, Haplotype: out, FocalSites: focalSites}, nil
}

// extend walks outward from start in the given direction (-1 or +1),
// tallying per-sample disagreements against the running consensus and
// dropping any sample whose cumulative disagreement count exceeds
// opts.DropoutTolerance. It stops at the sequence boundary, when the
// active carrier set drops to one or zero samples, or when consensus
// at the next site is undefined (every active sample has an unknown
// call there). It writes the consensus allele for every site it
// accepts into hap and returns the furthest accepted site.
func (b *Builder) extend(start tsmodel.Site, dir tsmodel.Site, carriers []int, hap map[tsmodel.Site]tsmodel.Allele) (tsmodel.Site, bool) {
	active := append([]int(nil), carriers...)
	mismatches := make(map[int]int, len(active))
	last := start - dir
	ok := false
	for s := start; s >= 0 && s < b.numSites && len(active) > 1; s += dir {
		col, have := b.genotypes[s]
		if !have {
			break
		}
		consensus, defined := majority(col, active)
		if !defined {
			break
		}
		hap[s] = consensus
		last, ok = s, true

		kept := active[:0:0]
		for _, sample := range active {
			if col[sample] != consensus {
				mismatches[sample]++
				if mismatches[sample] > b.opts.DropoutTolerance {
					continue
				}
			}
			kept = append(kept, sample)
		}
		active = kept
	}
	return last, ok
}

// carrierSamples returns the sample indices carrying the derived
// allele in genotypes.
func carrierSamples(genotypes []tsmodel.Allele) []int {
	var carriers []int
	for i, a := range genotypes {
		if a == tsmodel.AlleleDerived {
			carriers = append(carriers, i)
		}
	}
	return carriers
}

// majority returns the majority allele among samples' calls in col,
// ties and all-unknown columns resolved as follows: ties break
// ancestral, and an all-unknown column reports undefined.
func majority(col []tsmodel.Allele, samples []int) (tsmodel.Allele, bool) {
	var derived, ancestral int
	for _, idx := range samples {
		switch col[idx] {
		case tsmodel.AlleleDerived:
			derived++
		case tsmodel.AlleleAncestral:
			ancestral++
		}
	}
	if derived == 0 && ancestral == 0 {
		return 0, false
	}
	if derived > ancestral {
		return tsmodel.AlleleDerived, true
	}
	return tsmodel.AlleleAncestral, true
}
