package exec

import (
	"context"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/emit"
)

// FromNodeStrategy runs control.StartNode and its descendants. Any
// ancestor of StartNode that lacks a valid completed output is executed
// first, as a mini-plan of its own; once every ancestor has a valid
// output, they are propagated into StartNode.inputs and the run
// continues from StartNode's layer (spec.md §4.5, §4.6.5 "FROM_NODE").
//
// Grounded on original_source/backend/src/executors/strategies/
// RunFromNodeStrategy.py's _find_ancestors_to_execute /
// _execute_ancestors_first / _validate_ancestors_executed /
// _prepare_start_node_from_ancestors sequence. Adapted to execute the
// stale ancestors in their compiled topological layers via the same
// runLayer barrier the main Run loop uses, rather than the original's
// single-threaded BFS-order loop — once restricted to the stale
// ancestor set, a mini-plan run is no different from an ordinary
// layered run.
type FromNodeStrategy struct{}

func (FromNodeStrategy) Prepare(ctx context.Context, ex *Executor, ectx Context, g *flow.Graph, statuses map[string]flow.ExecutionStatus, routes *routeState, control Control) (map[string]bool, map[string]bool, error) {
	ancestors := g.Ancestors(control.StartNode)
	descendants := g.Descendants(control.StartNode)

	keep := map[string]bool{control.StartNode: true}
	for _, id := range ancestors {
		keep[id] = true
	}
	for _, id := range descendants {
		keep[id] = true
	}
	forcedSkip := map[string]bool{}
	for _, id := range g.NodeIDs() {
		if !keep[id] {
			forcedSkip[id] = true
		}
	}

	stale := map[string]bool{}
	for _, id := range ancestors {
		if !hasValidOutput(g, id) {
			stale[id] = true
		}
	}

	preExecuted := map[string]bool{}
	for _, layer := range ex.Plan.Layers {
		toRun := make([]string, 0, len(layer))
		for _, id := range layer {
			if stale[id] {
				toRun = append(toRun, id)
			}
		}
		if len(toRun) == 0 {
			continue
		}

		for _, id := range toRun {
			ex.propagate(g, statuses, routes, id)
			ex.injectRouterInput(g, id)
			entry, _ := g.Node(id)
			entry.Data.Status = flow.StatusQueued
			statuses[id] = flow.StatusQueued
			ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusQueued, id, nil)
		}

		err := runLayer(ctx, ex.MaxConcurrent, toRun, func(ctx context.Context, id string) error {
			return ex.runNode(ctx, ectx, g, routes, id)
		})
		for _, id := range toRun {
			statuses[id], _ = statusOf(g, id)
			preExecuted[id] = true
		}
		if err != nil {
			return nil, nil, err
		}
	}

	for _, id := range ancestors {
		if !hasValidOutput(g, id) {
			return nil, nil, flow.NewNodeError(flow.KindAncestorNotExecuted, id, "ancestor has no valid completed output; cannot start execution from "+control.StartNode, nil)
		}
		// Every ancestor is settled by this point — either it was just
		// executed above, or it already carried a valid output from an
		// earlier run. Either way the main Run loop must not touch its
		// layer again: continuing "from the layer containing start_node"
		// means ancestor layers are done, not merely eligible.
		preExecuted[id] = true
	}

	ex.propagate(g, statuses, routes, control.StartNode)

	return forcedSkip, preExecuted, nil
}

func hasValidOutput(g *flow.Graph, nodeID string) bool {
	entry, ok := g.Node(nodeID)
	if !ok {
		return false
	}
	return entry.Data.Status == flow.StatusCompleted && len(entry.Data.Outputs) > 0
}
