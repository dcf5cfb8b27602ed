// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package match implements the Li-Stephens hidden Markov model copier
// that threads one haplotype through a tree sequence, producing the
// maximum-likelihood copying path plus the sites where the path
// disagrees with the input.
//
// The forward pass keeps a sparse, compressed likelihood map and a
// quintuply linked scratch tree (parent/left_child/right_child/
// left_sib/right_sib) that it updates incrementally as the interval
// index reports edges starting and ending at each site, the same
// remove-then-insert update shard_info.go uses for its own interval
// sweep. The backward pass replays a per-site traceback, recorded in a
// scoped arena and reset on every FindPath call.
package match
