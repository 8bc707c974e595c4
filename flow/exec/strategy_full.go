package exec

import (
	"context"

	"github.com/flowgraph/runtime/flow"
)

// Strategy prepares a run before the main layer loop begins, per the
// three execution control scopes (spec.md §4.5). Prepare may itself
// execute part of the graph — FROM_NODE's stale-ancestor mini-plan is
// the only case that does — using ex's own propagate/runNode/runLayer
// machinery, so it is handed the Executor plus the run's shared
// statuses/routes state.
//
// It returns the set of node ids forced to SKIPPED regardless of what
// their incoming edges carry, and the set of node ids Run's main loop
// must leave untouched (not re-queued, re-run or skipped): ones Prepare
// executed itself, and ancestors whose recorded outputs are used as
// they are.
type Strategy interface {
	Prepare(ctx context.Context, ex *Executor, ectx Context, g *flow.Graph, statuses map[string]flow.ExecutionStatus, routes *routeState, control Control) (forcedSkip, preExecuted map[string]bool, err error)
}

// FullStrategy runs the entire plan; no node is forced to SKIPPED ahead
// of time (router-driven propagation during execution may still SKIP
// individual nodes).
type FullStrategy struct{}

func (FullStrategy) Prepare(context.Context, *Executor, Context, *flow.Graph, map[string]flow.ExecutionStatus, *routeState, Control) (map[string]bool, map[string]bool, error) {
	return map[string]bool{}, map[string]bool{}, nil
}
