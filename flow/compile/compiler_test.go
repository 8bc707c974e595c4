package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/runtime/flow"
)

type passthrough struct{ spec flow.NodeSpec }

func (n passthrough) Spec() flow.NodeSpec { return n.spec }
func (n passthrough) Process(context.Context, map[string]any, map[string]any) (any, error) {
	return nil, nil
}

func node(t *testing.T) passthrough {
	t.Helper()
	spec, err := flow.NewNodeSpec("n", "", []flow.Handle{{Name: "in", Kind: flow.HandleText, AllowIncomingEdges: true, AllowMultipleIncomingEdges: true}}, []flow.Handle{{Name: "out", Kind: flow.HandleText}}, nil, false, "", nil)
	require.NoError(t, err)
	return passthrough{spec}
}

// diamond builds a -> b -> d, a -> c -> d.
func diamond(t *testing.T) *flow.Graph {
	t.Helper()
	g := flow.NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.AddNode(id, node(t), flow.NewData()))
	}
	require.NoError(t, g.AddEdge(flow.Edge{ID: "ab", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "b", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(flow.Edge{ID: "ac", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "c", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(flow.Edge{ID: "bd", SourceNodeID: "b", SourceHandle: "out", TargetNodeID: "d", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(flow.Edge{ID: "cd", SourceNodeID: "c", SourceHandle: "out", TargetNodeID: "d", TargetHandle: "in"}))
	return g
}

func TestCompileLayersDiamond(t *testing.T) {
	g := diamond(t)
	plan, err := Compile(g)
	require.NoError(t, err)

	require.Len(t, plan.Layers, 3)
	assert.Equal(t, []string{"a"}, plan.Layers[0])
	assert.ElementsMatch(t, []string{"b", "c"}, plan.Layers[1])
	assert.Equal(t, []string{"d"}, plan.Layers[2])

	assert.Equal(t, 0, plan.Layer("a"))
	assert.Equal(t, 2, plan.Layer("d"))
	assert.ElementsMatch(t, []string{"b", "c"}, plan.Dependencies("d"))
}

func TestCompileRejectsCycle(t *testing.T) {
	g := flow.NewGraph()
	require.NoError(t, g.AddNode("a", node(t), flow.NewData()))
	require.NoError(t, g.AddNode("b", node(t), flow.NewData()))
	require.NoError(t, g.AddEdge(flow.Edge{ID: "ab", SourceNodeID: "a", SourceHandle: "out", TargetNodeID: "b", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(flow.Edge{ID: "ba", SourceNodeID: "b", SourceHandle: "out", TargetNodeID: "a", TargetHandle: "in"}))

	_, err := Compile(g)
	require.Error(t, err)
	var fe *flow.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, flow.KindUnprocessedNodes, fe.Kind)
}

func TestCompileRejectsEmptyGraph(t *testing.T) {
	_, err := Compile(flow.NewGraph())
	require.Error(t, err)
	var fe *flow.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, flow.KindEmptyGraph, fe.Kind)
}

func TestCompileWithRemoveStandaloneDropsIsolatedNodes(t *testing.T) {
	g := diamond(t)
	require.NoError(t, g.AddNode("isolated", node(t), flow.NewData()))

	plan, err := Compile(g, WithRemoveStandalone())
	require.NoError(t, err)
	assert.Equal(t, -1, plan.Layer("isolated"))
	assert.Equal(t, 4, plan.Stats().TotalNodes)
}

func TestCompileIsIdempotentOverSameGraph(t *testing.T) {
	g := diamond(t)
	p1, err := Compile(g)
	require.NoError(t, err)
	p2, err := Compile(g)
	require.NoError(t, err)
	assert.Equal(t, p1.Layers, p2.Layers)
}

func TestStatsReflectsLayerWidths(t *testing.T) {
	g := diamond(t)
	plan, err := Compile(g)
	require.NoError(t, err)

	stats := plan.Stats()
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 4, stats.TotalEdges)
	assert.Equal(t, 3, stats.LayerCount)
	assert.Equal(t, 2, stats.MaxWidth)
	assert.Equal(t, 1, stats.MinWidth)
}
