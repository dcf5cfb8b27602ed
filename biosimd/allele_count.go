// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

import "github.com/grailbio/bio/tsmodel"

// AlleleTable is a lookup table over the three encoded allele values
// (unknown, ancestral, derived), indexed by allele+1 so it's always a
// valid non-negative array index. It plays the same role
// PackedSeqCount's 16-entry NibbleLookupTable played for .bam base
// codes: precompute once, then sum table lookups over a range instead
// of branching per element.
type AlleleTable [3]byte

// NewAlleleTable builds a table that's 1 at want's slot and 0
// elsewhere.
func NewAlleleTable(want tsmodel.Allele) AlleleTable {
	var t AlleleTable
	t[want+1] = 1
	return t
}

// Count sums table[col[i]+1] for i in [startPos, endPos). Unlike the
// .bam seq4 kernel this adapts, col is one allele per byte rather than
// two 4-bit codes per byte: genotype columns aren't a packed format,
// so there's no nibble-unpacking step, but the "precompute a table,
// then linear-scan and accumulate" shape is the same.
func Count(col []tsmodel.Allele, table AlleleTable, startPos, endPos int) int {
	if endPos <= startPos {
		return 0
	}
	cnt := 0
	for _, a := range col[startPos:endPos] {
		cnt += int(table[a+1])
	}
	return cnt
}

// CountTwo sums two tables over the same range in one pass, the way
// PackedSeqCountTwo counts two base-code sets together instead of
// scanning the column twice.
func CountTwo(col []tsmodel.Allele, table1, table2 AlleleTable, startPos, endPos int) (int, int) {
	if endPos <= startPos {
		return 0, 0
	}
	cnt1, cnt2 := 0, 0
	for _, a := range col[startPos:endPos] {
		idx := a + 1
		cnt1 += int(table1[idx])
		cnt2 += int(table2[idx])
	}
	return cnt1, cnt2
}
