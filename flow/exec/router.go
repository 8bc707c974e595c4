package exec

import "github.com/flowgraph/runtime/flow"

// routeState tracks, per run, which router nodes have produced a
// routing decision and what that decision was — the information needed
// to decide whether a downstream node's incoming edges are "live".
type routeState struct {
	decisions map[string]map[string]struct{} // nodeID -> set of selected edge ids
}

func newRouteState() *routeState {
	return &routeState{decisions: map[string]map[string]struct{}{}}
}

// recordRouterOutput extracts a completed router node's selected edge
// ids from its packaged output, per spec.md §4.6.4. A router node
// declares exactly one output (of kind flow.HandleRouterOutput) carrying
// a flow.RouterOutput value; an unexpected shape is treated as "selected
// nothing", which SKIPs every downstream branch — the conservative
// choice when a router's contract is violated.
func (rs *routeState) recordRouterOutput(nodeID string, outputs map[string]any) {
	selected := map[string]struct{}{}
	for _, v := range outputs {
		if ro, ok := v.(flow.RouterOutput); ok {
			for _, edgeID := range ro.RouteLabelDecisions {
				selected[edgeID] = struct{}{}
			}
			break
		}
	}
	rs.decisions[nodeID] = selected
}

func (rs *routeState) selected(routerNodeID, edgeID string) bool {
	sel, ok := rs.decisions[routerNodeID]
	if !ok {
		return false
	}
	_, ok = sel[edgeID]
	return ok
}

// edgeLive reports whether e still carries a value forward: its source
// must not be SKIPPED, and if the source is a router, e must be one of
// the edges the router selected.
func edgeLive(g *flow.Graph, statuses map[string]flow.ExecutionStatus, rs *routeState, e flow.Edge) bool {
	if statuses[e.SourceNodeID] == flow.StatusSkipped {
		return false
	}
	srcEntry, ok := g.Node(e.SourceNodeID)
	if !ok {
		return false
	}
	if srcEntry.Data.Label != flow.LabelRouter {
		return true
	}
	return rs.selected(e.SourceNodeID, e.ID)
}

// shouldSkip implements spec.md §4.6.4's propagation rule: a node with at
// least one incoming edge is SKIPPED only if every incoming edge is
// dead. A node with no incoming edges is never skipped by this rule.
func shouldSkip(g *flow.Graph, statuses map[string]flow.ExecutionStatus, rs *routeState, nodeID string) bool {
	inEdges := g.InEdges(nodeID)
	if len(inEdges) == 0 {
		return false
	}
	for _, e := range inEdges {
		if edgeLive(g, statuses, rs, e) {
			return false
		}
	}
	return true
}
