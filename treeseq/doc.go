// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package treeseq implements the incremental edge database described as
the "Tree Sequence Builder": nodes and edges accumulate, except that a
shared-recombination collapse replaces the edges of the child it
reroutes through the synthesized node. Edges are indexed by three
balanced trees keyed on (left, parent time, child),
(right, -parent time, child), and (parent, child, left) respectively.

The balanced-tree role is filled directly by github.com/biogo/store/llrb.
Edges themselves live in an arena-backed object heap (internal/arena)
and are referenced from the llrb trees by int32 id rather than by
pointer, so a dump/restore round trip never has to chase pointers.
*/
package treeseq
