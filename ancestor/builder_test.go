package ancestor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/tsmodel"
)

func gt(col ...tsmodel.Allele) []tsmodel.Allele { return col }

func TestAddSiteRejectsOutOfOrderSites(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	require.NoError(t, b.AddSite(3, 2, gt(1, 1, 0, 0)))
	err := b.AddSite(2, 2, gt(1, 1, 0, 0))
	assert.Error(t, err)
}

func TestAddSiteRejectsFrequencyMismatch(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	err := b.AddSite(0, 1, gt(1, 1, 0, 0))
	assert.Error(t, err)
}

// Scenario 3: a monomorphic site (all ancestral) never seeds an
// ancestor group.
func TestMonomorphicSiteNeverSeedsAncestor(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	require.NoError(t, b.AddSite(0, 0, gt(0, 0, 0, 0)))
	assert.Equal(t, 0, b.NumAncestors())
}

func TestFrequencyBelowTwoIsSingleton(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	require.NoError(t, b.AddSite(0, 1, gt(1, 0, 0, 0)))
	assert.Equal(t, 0, b.NumAncestors(), "frequency-1 site should not seed a group")
	assert.True(t, b.singleton[0])
}

func TestIdenticalPatternsAtSameFrequencyCoalesce(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	require.NoError(t, b.AddSite(0, 2, gt(1, 1, 0, 0)))
	require.NoError(t, b.AddSite(1, 2, gt(0, 0, 1, 1))) // different pattern, same frequency
	require.NoError(t, b.AddSite(2, 2, gt(1, 1, 0, 0))) // same pattern as site 0
	require.Equal(t, 2, b.NumAncestors())

	// The group sharing site 0's pattern should now also contain site 2,
	// prepended (most recent first).
	var found []tsmodel.Site
	for i := 0; i < b.NumAncestors(); i++ {
		fs := b.FocalSites(i)
		if len(fs) == 2 {
			found = fs
		}
	}
	require.Len(t, found, 2)
	assert.Equal(t, tsmodel.Site(2), found[0])
	assert.Equal(t, tsmodel.Site(0), found[1])
}

// Scenario-adjacent: MakeAncestor emits derived at every focal site and
// extends outward using majority consensus with ancestral tie-break.
func TestMakeAncestorCoreAndTieBreak(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	// site 0: flanking site, 2 derived / 2 ancestral among all 4 samples but
	// only carriers {0,1} matter.
	require.NoError(t, b.AddSite(0, 2, gt(1, 0, 1, 0)))
	require.NoError(t, b.AddSite(1, 2, gt(1, 1, 0, 0))) // focal site, carriers = {0,1}
	require.NoError(t, b.AddSite(2, 2, gt(1, 0, 0, 1))) // flanking site

	result, err := b.MakeAncestor([]tsmodel.Site{1})
	require.NoError(t, err)
	assert.Equal(t, tsmodel.Site(0), result.Start)
	assert.Equal(t, tsmodel.Site(3), result.End)
	// Focal site always derived.
	assert.Equal(t, tsmodel.AlleleDerived, result.Haplotype[1])
	// Site 0: among carriers {0,1}, genotypes are (1,0) -> tie -> ancestral.
	assert.Equal(t, tsmodel.AlleleAncestral, result.Haplotype[0])
	// Site 2: among carriers {0,1}, genotypes are (1,0) -> tie -> ancestral.
	assert.Equal(t, tsmodel.AlleleAncestral, result.Haplotype[2])
}

func TestMakeAncestorStopsWhenCarrierSetShrinksToOne(t *testing.T) {
	b := NewBuilder(3, BuilderOptions{DropoutTolerance: 0})
	// Focal site: carriers {0,1}.
	require.NoError(t, b.AddSite(0, 2, gt(1, 1, 0)))
	// Flank site where the carriers split 1/1; the tie breaks ancestral,
	// so with zero tolerance sample 0 drops immediately, leaving only one
	// active carrier, so extension must stop at this site without going
	// further.
	require.NoError(t, b.AddSite(1, 1, gt(1, 0, 0)))
	require.NoError(t, b.AddSite(2, 1, gt(0, 0, 1)))

	result, err := b.MakeAncestor([]tsmodel.Site{0})
	require.NoError(t, err)
	assert.Equal(t, tsmodel.Site(0), result.Start)
	assert.Equal(t, tsmodel.Site(2), result.End)
}

func TestMakeAncestorRejectsEmptyFocalSites(t *testing.T) {
	b := NewBuilder(2, BuilderOptions{})
	_, err := b.MakeAncestor(nil)
	assert.Error(t, err)
}

func TestFrequenciesSortedAscending(t *testing.T) {
	b := NewBuilder(5, BuilderOptions{})
	require.NoError(t, b.AddSite(0, 3, gt(1, 1, 1, 0, 0)))
	require.NoError(t, b.AddSite(1, 2, gt(1, 1, 0, 0, 0)))
	assert.Equal(t, []int{2, 3}, b.Frequencies())
}
