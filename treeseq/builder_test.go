package treeseq

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio/tsmodel"
)

func TestAddPathRejectsNonContiguousEdges(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	parent := b.AddNode(10, false)
	child := b.AddNode(0, true)
	err := b.AddPath(child, []PathEdge{{Left: 0, Right: 4, Parent: parent}, {Left: 5, Right: 10, Parent: parent}})
	assert.Error(t, err)
}

func TestAddPathRejectsChildOlderThanParent(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	parent := b.AddNode(1, false)
	child := b.AddNode(5, true)
	err := b.AddPath(child, []PathEdge{{Left: 0, Right: 10, Parent: parent}})
	assert.Error(t, err)
}

func TestAddPathRejectsSecondPathForSameChild(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	parent := b.AddNode(10, false)
	child := b.AddNode(0, true)
	require.NoError(t, b.AddPath(child, []PathEdge{{Left: 0, Right: 10, Parent: parent}}))
	err := b.AddPath(child, []PathEdge{{Left: 0, Right: 10, Parent: parent}})
	assert.Error(t, err)
}

func TestParentAtResolvesContiguousPath(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	p1 := b.AddNode(10, false)
	p2 := b.AddNode(20, false)
	child := b.AddNode(0, true)
	require.NoError(t, b.AddPath(child, []PathEdge{
		{Left: 0, Right: 4, Parent: p1},
		{Left: 4, Right: 10, Parent: p2},
	}))

	p, ok := b.ParentAt(child, 0)
	require.True(t, ok)
	assert.Equal(t, p1, p)

	p, ok = b.ParentAt(child, 3)
	require.True(t, ok)
	assert.Equal(t, p1, p)

	p, ok = b.ParentAt(child, 4)
	require.True(t, ok)
	assert.Equal(t, p2, p)

	p, ok = b.ParentAt(child, 9)
	require.True(t, ok)
	assert.Equal(t, p2, p)

	_, ok = b.ParentAt(child, 10)
	assert.False(t, ok)
}

// Scenario 2: shared recombination collapse. Two children both with
// edges [(0,5,A),(5,10,B)]; the second add_path call must detect the
// shared breakpoint and introduce one new node X between A,B and the
// children; final edge count is 4.
func TestAddPathCollapsesSharedRecombination(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10, ResolveSharedRecombs: true})
	a := b.AddNode(100, false)
	bNode := b.AddNode(100, false)
	child1 := b.AddNode(0, true)
	child2 := b.AddNode(0, true)

	require.NoError(t, b.AddPath(child1, []PathEdge{{Left: 0, Right: 5, Parent: a}, {Left: 5, Right: 10, Parent: bNode}}))
	require.NoError(t, b.AddPath(child2, []PathEdge{{Left: 0, Right: 5, Parent: a}, {Left: 5, Right: 10, Parent: bNode}}))

	assert.Equal(t, 4, b.NumEdges())

	p1, ok := b.ParentAt(child1, 0)
	require.True(t, ok)
	p2, ok := b.ParentAt(child2, 0)
	require.True(t, ok)
	assert.Equal(t, p1, p2, "both children should route through the same synthesized node")
	assert.NotEqual(t, a, p1)
	assert.NotEqual(t, bNode, p1)

	// A third child with the same pattern attaches directly to the
	// already-synthesized node, without creating a second one.
	child3 := b.AddNode(0, true)
	require.NoError(t, b.AddPath(child3, []PathEdge{{Left: 0, Right: 5, Parent: a}, {Left: 5, Right: 10, Parent: bNode}}))
	assert.Equal(t, 5, b.NumEdges())
	p3, ok := b.ParentAt(child3, 0)
	require.True(t, ok)
	assert.Equal(t, p1, p3)
}

func TestAddPathRollsBackOnCapacityExceeded(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10, MaxEdges: 1})
	parent := b.AddNode(10, false)
	child := b.AddNode(0, true)
	err := b.AddPath(child, []PathEdge{{Left: 0, Right: 4, Parent: parent}, {Left: 4, Right: 10, Parent: parent}})
	require.Error(t, err)
	assert.Equal(t, 0, b.NumEdges(), "a failed add_path must leave no partial edges behind")
	_, ok := b.ParentAt(child, 0)
	assert.False(t, ok)
}

func TestMutationParentResolvesNearestAncestor(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	grandparent := b.AddNode(30, false)
	parent := b.AddNode(20, false)
	child := b.AddNode(0, true)
	require.NoError(t, b.AddPath(parent, []PathEdge{{Left: 0, Right: 10, Parent: grandparent}}))
	require.NoError(t, b.AddPath(child, []PathEdge{{Left: 0, Right: 10, Parent: parent}}))

	require.NoError(t, b.AddMutations(grandparent, []tsmodel.Site{3}, []tsmodel.Allele{tsmodel.AlleleDerived}))
	require.NoError(t, b.AddMutations(child, []tsmodel.Site{3}, []tsmodel.Allele{tsmodel.AlleleAncestral}))

	site, node, derived, parentMut := b.DumpMutations()
	require.Len(t, site, 2)
	// Insertion order: the grandparent's mutation first, then the
	// child's back-mutation.
	assert.Equal(t, tsmodel.Site(3), site[0])
	assert.Equal(t, grandparent, node[0])
	assert.Equal(t, tsmodel.AlleleDerived, derived[0])
	assert.Equal(t, tsmodel.NullMutation, parentMut[0])

	assert.Equal(t, child, node[1])
	assert.Equal(t, tsmodel.AlleleAncestral, derived[1])
	assert.NotEqual(t, tsmodel.NullMutation, parentMut[1], "child's mutation should resolve to the grandparent's as its parent")
}

// Scenario 6: dump/restore round-trip. Build a sequence of random
// nodes and random valid paths, dump, restore into a fresh instance,
// dump again; the two dumps must be byte-equal (field-equal, since Go
// has no literal byte view of these structs).
func TestDumpRestoreRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const numSites = 20

	b := NewBuilder(BuilderOptions{NumSites: numSites})
	times := make([]tsmodel.Time, 1, 101)
	times[0] = tsmodel.InfTime
	for i := 0; i < 100; i++ {
		isSample := i < 20
		tm := tsmodel.Time(100 - i)
		id := b.AddNode(tm, isSample)
		require.Equal(t, tsmodel.NodeID(i+1), id)
		times = append(times, tm)
	}

	pathsAdded := 0
	for i := 0; i < 500 && pathsAdded < 300; i++ {
		child := tsmodel.NodeID(1 + rng.Intn(100))
		if _, ok := b.paths[child]; ok {
			continue
		}
		parent := tsmodel.NodeID(1 + rng.Intn(100))
		if times[parent] <= times[child] {
			continue
		}
		left := tsmodel.Site(rng.Intn(numSites - 1))
		right := left + 1 + tsmodel.Site(rng.Intn(int(numSites-left-1)+1))
		if right > numSites {
			right = numSites
		}
		if err := b.AddPath(child, []PathEdge{{Left: left, Right: right, Parent: parent}}); err == nil {
			pathsAdded++
		}
	}
	require.Greater(t, pathsAdded, 0)

	flags1, time1 := b.DumpNodes()
	left1, right1, parent1, child1 := b.DumpEdges()

	restored := NewBuilder(BuilderOptions{NumSites: numSites})
	require.NoError(t, restored.RestoreNodes(flags1, time1))
	require.NoError(t, restored.RestoreEdges(left1, right1, parent1, child1))

	flags2, time2 := restored.DumpNodes()
	left2, right2, parent2, child2 := restored.DumpEdges()

	assert.True(t, reflect.DeepEqual(flags1, flags2))
	assert.True(t, reflect.DeepEqual(time1, time2))
	assert.True(t, reflect.DeepEqual(left1, left2))
	assert.True(t, reflect.DeepEqual(right1, right2))
	assert.True(t, reflect.DeepEqual(parent1, parent2))
	assert.True(t, reflect.DeepEqual(child1, child2))
}

func TestNumRecombinationsCountsMultiEdgePaths(t *testing.T) {
	b := NewBuilder(BuilderOptions{NumSites: 10})
	parent := b.AddNode(10, false)
	single := b.AddNode(0, true)
	recombinant := b.AddNode(0, true)
	require.NoError(t, b.AddPath(single, []PathEdge{{Left: 0, Right: 10, Parent: parent}}))
	require.NoError(t, b.AddPath(recombinant, []PathEdge{{Left: 0, Right: 5, Parent: parent}, {Left: 5, Right: 10, Parent: parent}}))
	assert.Equal(t, 1, b.NumRecombinations())
}
