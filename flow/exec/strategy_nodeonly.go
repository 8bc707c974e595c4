package exec

import (
	"context"

	"github.com/flowgraph/runtime/flow"
)

// NodeOnlyStrategy runs exactly control.StartNode. Its ancestors are
// returned as preExecuted, so the main loop neither re-runs them nor
// touches their recorded status and outputs; every other node is forced
// to SKIPPED. StartNode's inputs are still propagated from its
// direct predecessors' Data.Outputs as usual (exec.Executor does not
// special-case this at propagation time) — those outputs must already
// be populated from an earlier run, since this strategy never executes
// them. Prepare fails fast with ANCESTOR_NOT_EXECUTED if a direct
// predecessor has no recorded outputs (spec.md §4.5 "NODE_ONLY").
type NodeOnlyStrategy struct{}

func (NodeOnlyStrategy) Prepare(_ context.Context, _ *Executor, _ Context, g *flow.Graph, _ map[string]flow.ExecutionStatus, _ *routeState, control Control) (map[string]bool, map[string]bool, error) {
	for _, predID := range g.Predecessors(control.StartNode) {
		pred, ok := g.Node(predID)
		if !ok {
			continue
		}
		if len(pred.Data.Outputs) == 0 && pred.Data.Status != flow.StatusSkipped {
			return nil, nil, flow.NewNodeError(flow.KindAncestorNotExecuted, predID, "ancestor has no recorded outputs from a prior run", nil)
		}
	}

	ancestors := map[string]bool{}
	for _, id := range g.Ancestors(control.StartNode) {
		ancestors[id] = true
	}
	skip := map[string]bool{}
	for _, id := range g.NodeIDs() {
		if id != control.StartNode && !ancestors[id] {
			skip[id] = true
		}
	}
	return skip, ancestors, nil
}
