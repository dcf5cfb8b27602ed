package ancestor

import (
	"bytes"

	"github.com/biogo/store/llrb"
	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/bio/tsmodel"
)

// group is one (frequency, genotype-pattern) bucket: every site whose
// genotype column hashes to the same pattern at the same frequency
// lands in the same group, and all of them are generated as a single
// ancestor.
type group struct {
	pattern []byte
	sites   []tsmodel.Site // most-recently-added site first (prepend order)
}

// patternKey is the llrb.Comparable stored in a frequency bucket's
// tree. hash is compared before pattern so that the common case (no
// collision) never pays for a full byte-string comparison.
type patternKey struct {
	hash    uint64
	pattern []byte
	g       *group
}

func (k patternKey) Compare(c llrb.Comparable) int {
	o := c.(patternKey)
	if k.hash < o.hash {
		return -1
	}
	if k.hash > o.hash {
		return 1
	}
	return bytes.Compare(k.pattern, o.pattern)
}

// encodePattern renders a genotype column as a byte string suitable
// for use as a frequency_map key: ancestral, derived, and unknown each
// get a distinct byte so a site with missing calls never collides with
// one that has none.
func encodePattern(genotypes []tsmodel.Allele) []byte {
	pat := make([]byte, len(genotypes))
	for i, a := range genotypes {
		pat[i] = byte(a + 1) // unknown(-1)->0, ancestral(0)->1, derived(1)->2
	}
	return pat
}

// findOrCreateGroup returns the existing group for pattern in tree, or
// inserts and returns a new one.
func findOrCreateGroup(tree *llrb.Tree, pattern []byte) *group {
	hash := farm.Hash64(pattern)
	probe := patternKey{hash: hash, pattern: pattern}
	if found := tree.Get(probe); found != nil {
		return found.(patternKey).g
	}
	g := &group{pattern: pattern}
	tree.Insert(patternKey{hash: hash, pattern: pattern, g: g})
	return g
}
