// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package ancestor implements the "Ancestor Builder": it bins sites by
(frequency, genotype-pattern) as they arrive, then synthesizes a
putative ancestral haplotype for a focal-site group on demand by
majority-vote consensus across the samples carrying the derived allele
at that group, extending outward from the focal sites with a
tolerance-bounded dropout rule (see MakeAncestor).

Pattern grouping uses a hash-then-compare idiom: genotype-pattern byte
strings are bucketed by a fast 64-bit hash (github.com/dgryski/go-farm)
before falling back to an exact byte-by-byte comparison. Each
frequency's patterns sit in an llrb tree, so a lookup takes a
logarithmic number of comparisons in the number of distinct patterns,
and most of those comparisons only compare hashes.
*/
package ancestor
