package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxgraph/model"
	"github.com/hupe1980/proxgraph/testutil"
)

// assertTree checks that every node's parent chain ends at the entry point
// over existing layer-0 edges, and that the child counters add up.
func assertTree(t *testing.T, g *Graph) {
	t.Helper()

	require.Equal(t, model.InvalidNodeID, g.parent[g.entry], "entry point has no parent")

	children := make([]int32, len(g.nodes))
	for i := range g.nodes {
		id := model.NodeID(i)
		if id == g.entry {
			continue
		}
		p := g.parent[id]
		require.NotEqual(t, model.InvalidNodeID, p, "node %d has no parent", id)
		assert.Contains(t, g.Neighbors(p, 0), id)
		children[p]++

		x, steps := id, 0
		for x != g.entry {
			x = g.parent[x]
			steps++
			require.NotEqual(t, model.InvalidNodeID, x, "chain of %d is cut", id)
			require.LessOrEqual(t, steps, len(g.nodes), "chain of %d cycles", id)
		}
	}
	assert.Equal(t, children, g.children)
}

func TestSpanningTree(t *testing.T) {
	rng := testutil.NewRNG(17)
	datasets := map[string][][]float32{
		"uniform":    rng.UniformVectors(500, 8),
		"duplicates": rng.DuplicateVectors(500, 8, 12),
	}

	for dname, data := range datasets {
		for pname, policy := range policies() {
			t.Run(dname+"/"+pname, func(t *testing.T) {
				g := newTestGraph(t, 8, policy(), func(o *Options) { o.EFConstruction = 32 })
				insertAll(t, g, data)
				assertTree(t, g)

				require.NoError(t, g.Refine(t.Context()))
				assertTree(t, g)
			})
		}
	}
}

func TestReroot(t *testing.T) {
	data := testutil.NewRNG(18).UniformVectors(200, 4)
	g := newTestGraph(t, 4, NewFlat(4, 1))
	insertAll(t, g, data)

	old := g.entry
	next := model.NodeID(len(data) - 1)
	g.entry = next
	g.reroot(old, next)

	assert.Equal(t, next, g.parent[old])
	assertTree(t, g)
	assert.True(t, g.Check().OK())
}

func TestSafeParent(t *testing.T) {
	data := testutil.NewRNG(19).UniformVectors(100, 4)
	g := newTestGraph(t, 4, NewFlat(4, 1))
	insertAll(t, g, data)

	for i := range g.nodes {
		id := model.NodeID(i)
		assert.False(t, g.safeParent(id, id))

		p := g.parent[id]
		if p == model.InvalidNodeID {
			continue
		}
		// A node can never become the parent of its own ancestor.
		assert.False(t, g.safeParent(id, p), "node %d", id)

		if g.children[id] == 0 {
			assert.True(t, g.safeParent(g.entry, id), "leaf %d", id)
		}
	}
}
