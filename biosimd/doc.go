// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides lookup-table-driven counting kernels over
// genotype columns, adapted from github.com/grailbio/bio's original
// .bam/.fa base-counting kernels (PackedSeqCount/PackedSeqCountTwo):
// precompute a small table once, then sum table lookups over a range
// instead of branching per element. The original package's bit-packed
// 4-bit .bam seq format and assembly fast paths don't apply to
// one-allele-per-byte genotype columns, so only the table-lookup shape
// survives here; see allele_count.go.
package biosimd
