package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleSpec(t *testing.T, in, out string) NodeSpec {
	t.Helper()
	spec, err := NewNodeSpec("echo", "", []Handle{{Name: in, Kind: HandleText, AllowIncomingEdges: true}}, []Handle{{Name: out, Kind: HandleText}}, nil, false, "", nil)
	require.NoError(t, err)
	return spec
}

func TestGraphAddEdgeRejectsUnknownNodes(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", echoNode{simpleSpec(t, "in", "out")}, NewData()))

	err := g.AddEdge(Edge{ID: "e1", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "missing", TargetHandle: "in"})
	require.Error(t, err)
}

func TestGraphAddEdgeRejectsSecondEdgeOnSingleInputHandle(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", echoNode{simpleSpec(t, "in", "out")}, NewData()))
	require.NoError(t, g.AddNode("b", echoNode{simpleSpec(t, "in", "out")}, NewData()))
	require.NoError(t, g.AddNode("c", echoNode{simpleSpec(t, "in", "out")}, NewData()))

	require.NoError(t, g.AddEdge(Edge{ID: "e1", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "c", TargetHandle: "in"}))
	err := g.AddEdge(Edge{ID: "e2", SourceNodeID: "b", SourceHandle: "out", TargetNodeID: "c", TargetHandle: "in"})
	require.Error(t, err)
}

func TestGraphAddEdgeStripsHandleIndexSuffix(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", echoNode{simpleSpec(t, "in", "out")}, NewData()))
	require.NoError(t, g.AddNode("b", echoNode{simpleSpec(t, "in", "out")}, NewData()))

	err := g.AddEdge(Edge{ID: "e1", SourceNodeID: "a", SourceHandle: "out-index0", TargetNodeID: "b", TargetHandle: "in-index0"})
	require.NoError(t, err)

	edges := g.OutEdges("a")
	require.Len(t, edges, 1)
	assert.Equal(t, "out", edges[0].SourceHandle)
	assert.Equal(t, "in", edges[0].TargetHandle)
}

func TestGraphAncestorsAndDescendants(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(id, echoNode{simpleSpec(t, "in", "out")}, NewData()))
	}
	require.NoError(t, g.AddEdge(Edge{ID: "e1", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "b", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e2", SourceNodeID: "b", SourceHandle: "out", TargetNodeID: "c", TargetHandle: "in"}))

	assert.ElementsMatch(t, []string{"a", "b"}, g.Ancestors("c"))
	assert.ElementsMatch(t, []string{"b", "c"}, g.Descendants("a"))
}

func TestGraphInDegreeCountsParallelEdgesOnDistinctHandles(t *testing.T) {
	spec, err := NewNodeSpec("multi", "", []Handle{
		{Name: "in1", Kind: HandleText, AllowIncomingEdges: true},
		{Name: "in2", Kind: HandleText, AllowIncomingEdges: true},
	}, []Handle{{Name: "out", Kind: HandleText}}, nil, false, "", nil)
	require.NoError(t, err)

	g := NewGraph()
	require.NoError(t, g.AddNode("a", echoNode{simpleSpec(t, "in", "out")}, NewData()))
	require.NoError(t, g.AddNode("b", echoNode{spec}, NewData()))

	require.NoError(t, g.AddEdge(Edge{ID: "e1", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "b", TargetHandle: "in1"}))
	require.NoError(t, g.AddEdge(Edge{ID: "e2", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "b", TargetHandle: "in2"}))

	assert.Equal(t, 2, g.InDegree("b"))
	assert.ElementsMatch(t, []string{"a"}, g.Predecessors("b"))
}
