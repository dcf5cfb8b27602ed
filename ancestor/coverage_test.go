package ancestor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/tsmodel"
)

func TestCoverageMergesAdjacentAndOverlappingRanges(t *testing.T) {
	var c coverage
	c.add(0, 3)
	c.add(5, 8)
	assert.Equal(t, [][2]tsmodel.Site{{0, 3}, {5, 8}}, c.ranges())
	assert.Equal(t, 6, c.totalSites())

	// Overlaps the first range and touches the second: all three merge
	// into one [0, 8) span.
	c.add(2, 5)
	assert.Equal(t, [][2]tsmodel.Site{{0, 8}}, c.ranges())
	assert.Equal(t, 8, c.totalSites())
}

func TestCoverageDisjointRangeInsertedBetweenExisting(t *testing.T) {
	var c coverage
	c.add(10, 12)
	c.add(0, 2)
	c.add(5, 6)
	assert.Equal(t, [][2]tsmodel.Site{{0, 2}, {5, 6}, {10, 12}}, c.ranges())
	assert.Equal(t, 5, c.totalSites())
}

// Exercises Builder.CoveredSiteRanges/TotalCoveredSites end to end
// through MakeAncestor, rather than poking the coverage type directly.
func TestBuilderTracksCoverageAcrossAncestors(t *testing.T) {
	b := NewBuilder(4, BuilderOptions{})
	require.NoError(t, b.AddSite(0, 2, gt(1, 1, 0, 0)))
	require.NoError(t, b.AddSite(1, 0, gt(0, 0, 0, 0)))
	require.NoError(t, b.AddSite(2, 2, gt(0, 0, 1, 1)))
	require.Equal(t, 2, b.NumAncestors())

	for i := 0; i < b.NumAncestors(); i++ {
		_, err := b.MakeAncestor(b.FocalSites(i))
		require.NoError(t, err)
	}

	assert.Greater(t, b.TotalCoveredSites(), 0)
	ranges := b.CoveredSiteRanges()
	require.NotEmpty(t, ranges)
	for _, r := range ranges {
		assert.Less(t, r[0], r[1])
	}
}
