package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksAllocGrowsAcrossBlocks(t *testing.T) {
	var b Blocks[int]
	const n = blockSize*2 + 7
	ptrs := make([]*int, n)
	for i := 0; i < n; i++ {
		p := b.Alloc()
		*p = i
		ptrs[i] = p
	}
	require.Equal(t, n, b.Len())
	for i := 0; i < n; i++ {
		assert.Equal(t, i, *ptrs[i])
	}
}

func TestBlocksFreeAll(t *testing.T) {
	var b Blocks[int]
	b.Alloc()
	b.Alloc()
	b.FreeAll()
	assert.Equal(t, 0, b.Len())
}

func TestBlocksReset(t *testing.T) {
	var b Blocks[int]
	for i := 0; i < blockSize+3; i++ {
		b.Alloc()
	}
	b.Reset()
	assert.Equal(t, 0, b.Len())
	p := b.Alloc()
	*p = 42
	assert.Equal(t, 42, *p)
}

func TestHeapAllocFreeReuse(t *testing.T) {
	var h Heap[string]
	id1, p1 := h.Alloc()
	*p1 = "first"
	id2, p2 := h.Alloc()
	*p2 = "second"
	require.Equal(t, 2, h.Len())

	h.Free(id1)
	assert.Equal(t, 1, h.Len())

	id3, p3 := h.Alloc()
	assert.Equal(t, id1, id3, "freed slot should be recycled before a new one is carved")
	assert.Equal(t, "", *p3, "recycled slot must be zeroed")

	assert.Equal(t, "second", *h.At(id2))
}

func TestHeapReset(t *testing.T) {
	var h Heap[int]
	h.Alloc()
	h.Alloc()
	h.Reset()
	assert.Equal(t, 0, h.Len())
	id, p := h.Alloc()
	assert.Equal(t, int32(0), id)
	*p = 7
	assert.Equal(t, 7, *h.At(0))
}
