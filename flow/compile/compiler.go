// Package compile implements the Graph Compiler (spec.md C4): a Kahn-style
// layered topological sort that turns a flow.Graph into a parallelism-
// maximizing Plan, with strict validation.
//
// Grounded on original_source/backend/src/nodes/GraphCompiler.py, which
// this package follows closely: in-degree-driven layering via a queue,
// post-hoc validation that every node appears exactly once across layers,
// and the same execution-stats surface (get_execution_stats,
// get_layer_for_node, get_dependencies/get_dependents).
package compile

import (
	"github.com/flowgraph/runtime/flow"
)

// Plan is an ordered list of layers produced by Compile. Every node
// appears in exactly one layer; no layer is empty; for every edge u->v,
// layer(u) < layer(v) (spec.md §3 "Execution plan").
type Plan struct {
	Layers [][]string
	graph  *flow.Graph
}

// Graph returns the graph this plan was compiled from (or the
// standalone-filtered copy of it, if WithRemoveStandalone was used).
func (p *Plan) Graph() *flow.Graph { return p.graph }

// Layer returns the 0-based layer index containing nodeID, or -1 if not
// found.
func (p *Plan) Layer(nodeID string) int {
	for i, layer := range p.Layers {
		for _, id := range layer {
			if id == nodeID {
				return i
			}
		}
	}
	return -1
}

// Dependencies returns the direct predecessors of nodeID in the compiled
// graph.
func (p *Plan) Dependencies(nodeID string) []string {
	return p.graph.Predecessors(nodeID)
}

// Dependents returns the direct successors of nodeID in the compiled
// graph.
func (p *Plan) Dependents(nodeID string) []string {
	return p.graph.Successors(nodeID)
}

// Stats summarizes a compiled Plan for UI/observability consumers
// (spec.md §4.4 "Compiler exposes stats").
type Stats struct {
	TotalNodes   int
	TotalEdges   int
	LayerCount   int
	MaxWidth     int
	MinWidth     int
	AvgWidth     float64
	LayerSizes   []int
}

// Stats computes execution statistics for the plan.
func (p *Plan) Stats() Stats {
	sizes := make([]int, len(p.Layers))
	total := 0
	maxW, minW := 0, 0
	if len(p.Layers) > 0 {
		minW = len(p.Layers[0])
	}
	edgeCount := 0
	for _, id := range p.graph.NodeIDs() {
		edgeCount += len(p.graph.OutEdges(id))
	}
	for i, layer := range p.Layers {
		sizes[i] = len(layer)
		total += len(layer)
		if len(layer) > maxW {
			maxW = len(layer)
		}
		if len(layer) < minW {
			minW = len(layer)
		}
	}
	avg := 0.0
	if len(p.Layers) > 0 {
		avg = float64(total) / float64(len(p.Layers))
	}
	return Stats{
		TotalNodes: p.graph.Len(),
		TotalEdges: edgeCount,
		LayerCount: len(p.Layers),
		MaxWidth:   maxW,
		MinWidth:   minW,
		AvgWidth:   avg,
		LayerSizes: sizes,
	}
}

// Option configures a single Compile call.
type Option func(*config)

type config struct {
	removeStandalone bool
}

// WithRemoveStandalone drops nodes with no incident edges before layering
// — used for the "compile only" preview path (spec.md §4.4).
func WithRemoveStandalone() Option {
	return func(c *config) { c.removeStandalone = true }
}

// Compile produces a layered execution plan over g using Kahn's algorithm
// (spec.md §4.4):
//  1. Reject an empty graph.
//  2. Compute in-degrees; layer 0 is every zero-indegree node.
//  3. Repeatedly drain the current layer, decrementing successor
//     in-degrees; any successor reaching zero joins the next layer.
//  4. Verify every node was processed (else UNPROCESSED_NODES — a cycle
//     leaves nodes stranded with positive in-degree; a cycle is reported
//     with this kind, not NOT_A_DAG).
//  5. Validate the plan: no empty layers, no duplicate membership, exact
//     coverage of the graph's node set.
func Compile(g *flow.Graph, opts ...Option) (*Plan, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	workGraph := g
	if cfg.removeStandalone {
		workGraph = withoutStandaloneNodes(g)
	}

	if workGraph.Len() == 0 {
		return nil, flow.NewError(flow.KindEmptyGraph, "graph has no nodes to compile", nil)
	}

	plan, err := kahnLayers(workGraph)
	if err != nil {
		return nil, err
	}
	if err := validatePlan(workGraph, plan); err != nil {
		return nil, err
	}
	return &Plan{Layers: plan, graph: workGraph}, nil
}

func withoutStandaloneNodes(g *flow.Graph) *flow.Graph {
	out := flow.NewGraph()
	ids := g.NodeIDs()
	keep := map[string]bool{}
	for _, id := range ids {
		if len(g.OutEdges(id)) > 0 || len(g.InEdges(id)) > 0 {
			keep[id] = true
		}
	}
	for _, id := range ids {
		if !keep[id] {
			continue
		}
		n, _ := g.Node(id)
		_ = out.AddNode(id, n.Node, n.Data)
	}
	for _, id := range ids {
		if !keep[id] {
			continue
		}
		for _, e := range g.OutEdges(id) {
			if keep[e.TargetNodeID] {
				_ = out.AddEdge(e)
			}
		}
	}
	return out
}

func kahnLayers(g *flow.Graph) ([][]string, error) {
	ids := g.NodeIDs()
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = g.InDegree(id)
	}

	var layer []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			layer = append(layer, id)
		}
	}

	var plan [][]string
	processed := make(map[string]struct{}, len(ids))
	for len(layer) > 0 {
		plan = append(plan, layer)
		var next []string
		for _, id := range layer {
			processed[id] = struct{}{}
			for _, succ := range g.Successors(id) {
				// Decrement once per edge, not once per distinct successor:
				// a node with two parallel edges from id must wait for both
				// to be "satisfied" in the in-degree count computed above.
				// Successors() already dedups, so decrement by the number of
				// edges from id to succ to stay consistent with InDegree.
				edgeCount := 0
				for _, e := range g.OutEdges(id) {
					if e.TargetNodeID == succ {
						edgeCount++
					}
				}
				inDegree[succ] -= edgeCount
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		layer = dedupPreserveOrder(next)
	}

	if len(processed) != len(ids) {
		unprocessed := make([]string, 0)
		for _, id := range ids {
			if _, ok := processed[id]; !ok {
				unprocessed = append(unprocessed, id)
			}
		}
		return nil, flow.NewError(flow.KindUnprocessedNodes, "failed to process all nodes (cycle or disconnect): "+joinIDs(unprocessed), nil)
	}
	return plan, nil
}

func dedupPreserveOrder(ids []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func validatePlan(g *flow.Graph, plan [][]string) error {
	if len(plan) == 0 {
		return flow.NewError(flow.KindNotADAG, "execution plan is empty", nil)
	}
	seen := map[string]struct{}{}
	for _, layer := range plan {
		if len(layer) == 0 {
			return flow.NewError(flow.KindNotADAG, "execution plan contains an empty layer", nil)
		}
		for _, id := range layer {
			if _, dup := seen[id]; dup {
				return flow.NewError(flow.KindNotADAG, "node appears multiple times in plan: "+id, nil)
			}
			seen[id] = struct{}{}
		}
	}
	for _, id := range g.NodeIDs() {
		if _, ok := seen[id]; !ok {
			return flow.NewError(flow.KindUnprocessedNodes, "plan missing graph node: "+id, nil)
		}
	}
	if len(seen) != len(g.NodeIDs()) {
		return flow.NewError(flow.KindUnprocessedNodes, "plan membership does not equal graph node set", nil)
	}
	return nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
