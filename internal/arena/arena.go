// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package arena provides the two coarse-grained allocation primitives
// the tree sequence builder and ancestor matcher are built on: a bump
// allocator over fixed-size blocks, freed all at once, and a typed
// object heap with an explicit free list on top of it. Neither type is
// safe for concurrent use; callers own one instance per engine.
package arena

// blockSize is the number of elements per underlying block. It's a
// compromise between allocation-call overhead (favoring bigger blocks)
// and wasted tail space when an engine is freed early (favoring
// smaller ones).
const blockSize = 1024

// Blocks is a bump allocator over []T blocks. Alloc never moves
// previously-returned pointers, which is what lets Heap hand out
// indices instead of pointers and still keep them valid across
// growth.
type Blocks[T any] struct {
	blocks []*[blockSize]T
	used   int // elements used in the last block
}

// Alloc returns a pointer to a newly zeroed T, allocating a fresh block
// if the current one is full.
func (b *Blocks[T]) Alloc() *T {
	if len(b.blocks) == 0 || b.used == blockSize {
		b.blocks = append(b.blocks, new([blockSize]T))
		b.used = 0
	}
	block := b.blocks[len(b.blocks)-1]
	p := &block[b.used]
	*p = *new(T)
	b.used++
	return p
}

// Len returns the number of elements allocated since the last FreeAll
// or Reset.
func (b *Blocks[T]) Len() int {
	if len(b.blocks) == 0 {
		return 0
	}
	return (len(b.blocks)-1)*blockSize + b.used
}

// FreeAll releases every block. Any pointers previously returned by
// Alloc must not be used afterward.
func (b *Blocks[T]) FreeAll() {
	b.blocks = nil
	b.used = 0
}

// Reset logically empties the arena for reuse, keeping the first
// underlying block and dropping the rest, so a caller that resets on
// every call (the matcher's per-haplotype traceback, for instance)
// doesn't pay allocation cost while it stays within one block; blocks
// beyond the first are allocated afresh as the arena grows again.
func (b *Blocks[T]) Reset() {
	b.used = 0
	if len(b.blocks) > 1 {
		b.blocks = b.blocks[:1]
	}
}

// Heap is a Blocks[T] plus an explicit free list, giving O(1)
// alloc/free of individual records the way spec's "object heap"
// primitive is described: fixed record size, O(1) alloc/free, all-free
// on destroy. Records are addressed by int32 index rather than
// pointer so that owners (e.g. the edge table) can store ids in the
// balanced-tree indices instead of raw pointers.
type Heap[T any] struct {
	blocks Blocks[T]
	slots  []*T
	free   []int32
}

// Alloc returns a fresh or recycled slot and its id.
func (h *Heap[T]) Alloc() (int32, *T) {
	if n := len(h.free); n > 0 {
		id := h.free[n-1]
		h.free = h.free[:n-1]
		p := h.slots[id]
		*p = *new(T)
		return id, p
	}
	p := h.blocks.Alloc()
	id := int32(len(h.slots))
	h.slots = append(h.slots, p)
	return id, p
}

// At returns the record for id. It panics if id was never allocated;
// that is a programming bug, per spec's "invariant violations abort"
// error design.
func (h *Heap[T]) At(id int32) *T {
	return h.slots[id]
}

// Free returns id's slot to the free list for reuse by a later Alloc.
func (h *Heap[T]) Free(id int32) {
	h.free = append(h.free, id)
}

// Len returns the number of live (non-freed) records.
func (h *Heap[T]) Len() int {
	return len(h.slots) - len(h.free)
}

// Reset empties the heap, including its free list, keeping only the
// first underlying block for reuse (see Blocks.Reset).
func (h *Heap[T]) Reset() {
	h.blocks.Reset()
	h.slots = h.slots[:0]
	h.free = h.free[:0]
}
