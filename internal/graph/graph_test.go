package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func lineGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddVertex(id)
	}
	require.NoError(t, g.AddEdge(Edge{From: "a", To: "b", Kind: Fixed}))
	require.NoError(t, g.AddEdge(Edge{From: "b", To: "c", Kind: Conditional, Gate: "SURF"}))
	require.NoError(t, g.AddEdge(Edge{From: "c", To: "d", Kind: Warp}))
	return g
}

func TestAddEdge_MissingVertex(t *testing.T) {
	g := New()
	g.AddVertex("a")
	err := g.AddEdge(Edge{From: "a", To: "zz", Kind: Fixed})
	assert.True(t, errors.Is(err, ErrVertexNotFound))
	err = g.AddEdge(Edge{From: "zz", To: "a", Kind: Fixed})
	assert.True(t, errors.Is(err, ErrVertexNotFound))
}

func TestAddEdge_Duplicate(t *testing.T) {
	g := lineGraph(t)
	err := g.AddEdge(Edge{From: "a", To: "b", Kind: Fixed})
	assert.True(t, errors.Is(err, ErrDuplicateEdge))

	// Same endpoints with another kind is a distinct edge.
	assert.NoError(t, g.AddEdge(Edge{From: "a", To: "b", Kind: Warp}))
	assert.Equal(t, 2, g.Degree("a", nil))
}

func TestReachable_Filters(t *testing.T) {
	g := lineGraph(t)

	all := g.Reachable("a", nil)
	assert.Equal(t, []string{"a", "b", "c", "d"}, Sorted(all))

	noCond := g.Reachable("a", Without(Conditional))
	assert.Equal(t, []string{"a", "b"}, Sorted(noCond))

	noSurf := g.Reachable("a", WithoutGates("SURF"))
	assert.Equal(t, []string{"a", "b"}, Sorted(noSurf))

	assert.Equal(t, 0, g.Reachable("missing", nil).Size())
}

func TestDistancesAndHasPath(t *testing.T) {
	g := lineGraph(t)
	dist := g.Distances("a", nil)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}, dist)
	assert.True(t, g.HasPath("a", "d", nil))
	assert.False(t, g.HasPath("d", "a", nil))
	assert.False(t, g.HasPath("a", "d", WithoutGates("SURF")))
}

func TestConnectedComponents(t *testing.T) {
	g := lineGraph(t)
	g.AddVertex("e")
	comps := g.ConnectedComponents(Without(Conditional))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, comps)

	comps = g.ConnectedComponents(nil)
	assert.Equal(t, [][]string{{"a", "b", "c", "d"}, {"e"}}, comps)
}

func TestEdges_DeterministicOrder(t *testing.T) {
	g := lineGraph(t)
	edges := g.Edges(nil)
	require.Len(t, edges, 3)
	assert.Equal(t, "a", edges[0].From)
	assert.Equal(t, "b", edges[1].From)
	assert.Equal(t, "c", edges[2].From)
	assert.Len(t, g.Edges(func(e Edge) bool { return e.Kind == Warp }), 1)
}

func TestEdgeKind_String(t *testing.T) {
	assert.Equal(t, "FIXED", Fixed.String())
	assert.Equal(t, "CONDITIONAL", Conditional.String())
	assert.Equal(t, "WARP", Warp.String())
}

// Property: every vertex returned by Reachable has a finite distance and
// components partition the vertex set.
func TestPropertyReachableMatchesDistances(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		g := New()
		for i := 0; i < n; i++ {
			g.AddVertex(fmt.Sprintf("v%02d", i))
		}
		edges := rapid.IntRange(0, n*2).Draw(rt, "edges")
		for i := 0; i < edges; i++ {
			from := rapid.IntRange(0, n-1).Draw(rt, "from")
			to := rapid.IntRange(0, n-1).Draw(rt, "to")
			_ = g.AddEdge(Edge{From: fmt.Sprintf("v%02d", from), To: fmt.Sprintf("v%02d", to), Kind: Fixed})
		}

		reach := g.Reachable("v00", nil)
		dist := g.Distances("v00", nil)
		if reach.Size() != len(dist) {
			rt.Fatalf("reachable %d != distances %d", reach.Size(), len(dist))
		}
		for id := range dist {
			if !reach.Has(id) {
				rt.Fatalf("%s has a distance but is not reachable", id)
			}
		}

		total := 0
		for _, c := range g.ConnectedComponents(nil) {
			total += len(c)
		}
		if total != n {
			rt.Fatalf("components cover %d vertices, want %d", total, n)
		}
	})
}
