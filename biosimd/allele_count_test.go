package biosimd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/bio/tsmodel"
)

func TestCount(t *testing.T) {
	col := []tsmodel.Allele{1, 0, 1, 1, -1, 0}
	derived := NewAlleleTable(tsmodel.AlleleDerived)
	assert.Equal(t, 3, Count(col, derived, 0, len(col)))
	assert.Equal(t, 2, Count(col, derived, 0, 3))
	assert.Equal(t, 0, Count(col, derived, 2, 2))
}

func TestCountTwo(t *testing.T) {
	col := []tsmodel.Allele{1, 0, 1, 1, -1, 0}
	derived := NewAlleleTable(tsmodel.AlleleDerived)
	ancestral := NewAlleleTable(tsmodel.AlleleAncestral)
	d, a := CountTwo(col, derived, ancestral, 0, len(col))
	assert.Equal(t, 3, d)
	assert.Equal(t, 2, a)
}
