package ancestor

import (
	"fmt"
	"io"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"

	"github.com/grailbio/bio/biosimd"
	"github.com/grailbio/bio/tsmodel"
)

var derivedTable = biosimd.NewAlleleTable(tsmodel.AlleleDerived)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// DropoutTolerance is the number of consensus disagreements a
	// sample may accumulate during leftward/rightward extension before
	// it is dropped from the carrier set. Zero means "drop on first
	// disagreement".
	DropoutTolerance int
}

// Ancestor is one synthesized haplotype: the half-open site interval
// it covers and its allele at every site in that interval.
type Ancestor struct {
	Start, End tsmodel.Site
	Haplotype  []tsmodel.Allele
	FocalSites []tsmodel.Site
}

// Builder accumulates genotype columns site by site and groups them by
// (frequency, genotype-pattern), the classic tsinfer ancestor-builder step.
type Builder struct {
	opts       BuilderOptions
	numSamples int

	lastSite  tsmodel.Site
	haveSite  bool
	numSites  tsmodel.Site
	genotypes map[tsmodel.Site][]tsmodel.Allele
	singleton map[tsmodel.Site]bool

	freqTrees map[int]*llrb.Tree
	groups    []*group // first-seen order, across all frequencies
	coverage  coverage
}

// NewBuilder returns an empty Builder for a panel of numSamples
// samples.
func NewBuilder(numSamples int, opts BuilderOptions) *Builder {
	return &Builder{
		opts:       opts,
		numSamples: numSamples,
		genotypes:  make(map[tsmodel.Site][]tsmodel.Allele),
		singleton:  make(map[tsmodel.Site]bool),
		freqTrees:  make(map[int]*llrb.Tree),
	}
}

// AddSite records one site. Sites must arrive in ascending site-id
// order. Sites with frequency < 2 are recorded (so
// they remain visible to MakeAncestor's extension walk and to future
// mutation bookkeeping) but never seed a group.
func (b *Builder) AddSite(site tsmodel.Site, frequency int, genotypes []tsmodel.Allele) error {
	if len(genotypes) != b.numSamples {
		return errors.E(errors.Invalid, fmt.Sprintf("add_site: expected %d genotypes, got %d", b.numSamples, len(genotypes)))
	}
	if b.haveSite && site <= b.lastSite {
		return errors.E(errors.Invalid, fmt.Sprintf("add_site: site %d did not increase past %d", site, b.lastSite))
	}
	b.lastSite, b.haveSite = site, true
	if site+1 > b.numSites {
		b.numSites = site + 1
	}

	cp := make([]tsmodel.Allele, len(genotypes))
	copy(cp, genotypes)
	b.genotypes[site] = cp

	if got := biosimd.Count(cp, derivedTable, 0, len(cp)); got != frequency {
		return errors.E(errors.Invalid, fmt.Sprintf("add_site: declared frequency %d does not match %d derived calls at site %d", frequency, got, site))
	}

	if frequency < 2 {
		b.singleton[site] = true
		return nil
	}

	tree := b.freqTrees[frequency]
	if tree == nil {
		tree = &llrb.Tree{}
		b.freqTrees[frequency] = tree
	}
	g := findOrCreateGroup(tree, encodePattern(cp))
	if len(g.sites) == 0 {
		b.groups = append(b.groups, g)
	}
	g.sites = append([]tsmodel.Site{site}, g.sites...) // prepend, newest focal site first
	return nil
}

// NumAncestors returns the number of distinct (frequency,
// genotype-pattern) groups seen so far, i.e. the number of ancestors
// that can be generated on demand.
func (b *Builder) NumAncestors() int { return len(b.groups) }

// FocalSites returns the site list for the i'th group, most-recently
// added first.
func (b *Builder) FocalSites(i int) []tsmodel.Site {
	return b.groups[i].sites
}

// Frequencies returns the distinct frequency buckets currently
// populated, ascending. An outer epoch driver (out of scope for this
// library) typically walks ancestors highest-frequency-first; exposing
// the set is in scope even though sequencing epochs is not.
func (b *Builder) Frequencies() []int {
	freqs := make([]int, 0, len(b.freqTrees))
	for f := range b.freqTrees {
		freqs = append(freqs, f)
	}
	sort.Ints(freqs)
	return freqs
}

// PrintState writes a plain-text diagnostic summary, satisfying
// a print_state introspection requirement.
func (b *Builder) PrintState(w io.Writer) {
	fmt.Fprintf(w, "ancestor.Builder: %d sites, %d singletons, %d ancestor groups across %d frequencies\n",
		len(b.genotypes), len(b.singleton), len(b.groups), len(b.freqTrees))
}
