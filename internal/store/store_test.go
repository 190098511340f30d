package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/store"
)

func newGraph(t *testing.T, edges ...[2]string) (graph.Graph[string, string], *store.MemoryStore[string, string]) {
	t.Helper()

	st := store.NewMemoryStore[string, string]()
	g := graph.NewWithStore(graph.StringHash, st, graph.Directed(), graph.PreventCycles())

	for _, e := range edges {
		for _, v := range e {
			err := g.AddVertex(v)
			if err != nil {
				require.ErrorIs(t, err, graph.ErrVertexAlreadyExists)
			}
		}
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}

	return g, st
}

func TestInsertionOrder(t *testing.T) {
	t.Parallel()

	_, st := newGraph(t, [2]string{"root", "z"}, [2]string{"root", "a"}, [2]string{"a", "m"}, [2]string{"root", "b"})

	vertices, err := st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "z", "a", "m", "b"}, vertices)
	assert.Equal(t, []string{"z", "a", "b"}, st.Successors("root"))
	assert.Equal(t, []string{"root"}, st.Predecessors("a"))
	assert.Empty(t, st.Successors("m"))

	edges, err := st.ListEdges()
	require.NoError(t, err)
	got := make([][2]string, 0, len(edges))
	for _, e := range edges {
		got = append(got, [2]string{e.Source, e.Target})
	}
	assert.Equal(t, [][2]string{{"root", "z"}, {"root", "a"}, {"root", "b"}, {"a", "m"}}, got)

	count, err := st.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCreatesCycle(t *testing.T) {
	t.Parallel()

	g, st := newGraph(t, [2]string{"a", "b"}, [2]string{"b", "c"})
	require.NoError(t, g.AddVertex("d"))

	tcs := map[string]struct {
		source, target string
		expected       bool
	}{
		"self":            {source: "a", target: "a", expected: true},
		"back to root":    {source: "c", target: "a", expected: true},
		"back to parent":  {source: "c", target: "b", expected: true},
		"forward":         {source: "a", target: "c"},
		"detached vertex": {source: "c", target: "d"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cycle, err := st.CreatesCycle(tc.source, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cycle)
		})
	}

	_, err := st.CreatesCycle("a", "missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	assert.Error(t, g.AddEdge("c", "a"))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	g, st := newGraph(t, [2]string{"a", "b"}, [2]string{"a", "c"})

	assert.ErrorIs(t, st.RemoveVertex("b"), graph.ErrVertexHasEdges)
	require.NoError(t, g.RemoveEdge("a", "b"))
	require.NoError(t, st.RemoveVertex("b"))
	assert.ErrorIs(t, st.RemoveVertex("b"), graph.ErrVertexNotFound)

	vertices, err := st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, vertices)
	assert.Equal(t, []string{"c"}, st.Successors("a"))

	_, err = st.Edge("a", "b")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	_, st := newGraph(t, [2]string{"a", "b"})

	require.NoError(t, st.UpdateVertex("a", graph.VertexAttribute("color", "red")))
	_, props, err := st.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "red", props.Attributes["color"])
	assert.ErrorIs(t, st.UpdateVertex("missing"), graph.ErrVertexNotFound)

	edge, err := st.Edge("a", "b")
	require.NoError(t, err)
	edge.Properties.Weight = 3
	require.NoError(t, st.UpdateEdge("a", "b", edge))

	edge, err = st.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 3, edge.Properties.Weight)
	assert.ErrorIs(t, st.UpdateEdge("b", "a", edge), graph.ErrEdgeNotFound)
}
