package exec

import (
	"context"
	"strings"
	"time"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/adapt"
	"github.com/flowgraph/runtime/flow/compile"
	"github.com/flowgraph/runtime/flow/emit"
)

// Executor runs a compiled flow/compile.Plan layer by layer, with
// bounded per-layer parallelism, typed value propagation across edges,
// router-driven SKIPPED propagation, and ordered lifecycle event
// publication (spec.md C6).
//
// Grounded on the teacher's graph.Engine.runConcurrent (layer-by-layer
// concurrent dispatch with a barrier between steps) generalized from a
// single shared state type to per-node dict inputs/outputs wired
// through flow/adapt.
type Executor struct {
	Plan          *compile.Plan
	Adapters      *adapt.Registry
	Stream        emit.Stream
	Observer      emit.Emitter
	MaxConcurrent int
}

// NewExecutor returns an Executor over plan. stream and observer may be
// nil, in which case events are dropped.
func NewExecutor(plan *compile.Plan, adapters *adapt.Registry, stream emit.Stream, observer emit.Emitter, maxConcurrent int) *Executor {
	if observer == nil {
		observer = emit.NullEmitter{}
	}
	return &Executor{
		Plan:          plan,
		Adapters:      adapters,
		Stream:        stream,
		Observer:      observer,
		MaxConcurrent: maxConcurrent,
	}
}

// Run executes the plan under ectx according to control, publishing
// lifecycle events for every node touched (spec.md §4.5, §4.6, §4.7).
func (ex *Executor) Run(ctx context.Context, ectx Context, control Control) error {
	g := ex.Plan.Graph()
	if err := control.Validate(g); err != nil {
		return err
	}

	var strategy Strategy
	switch control.Scope {
	case ScopeFromNode:
		strategy = FromNodeStrategy{}
	case ScopeNodeOnly:
		strategy = NodeOnlyStrategy{}
	default:
		strategy = FullStrategy{}
	}

	// Seed status/route state from whatever the nodes already carry
	// (a fresh plan has every node StatusPending; a FROM_NODE rerun
	// carries prior-run statuses and outputs on its ancestors) so a
	// router ancestor's earlier routing decision is honored even when
	// this run never re-executes it.
	statuses := make(map[string]flow.ExecutionStatus, g.Len())
	routes := newRouteState()
	for _, id := range g.NodeIDs() {
		entry, _ := g.Node(id)
		statuses[id] = entry.Data.Status
		if entry.Data.Label == flow.LabelRouter && entry.Data.Status == flow.StatusCompleted {
			routes.recordRouterOutput(id, entry.Data.Outputs)
		}
	}

	ex.publish(ctx, ectx, emit.KindFlowStarted, "", "", nil)

	forcedSkip, preExecuted, err := strategy.Prepare(ctx, ex, ectx, g, statuses, routes, control)
	if err != nil {
		ex.publish(ctx, ectx, emit.KindFlowFailed, "", "", map[string]any{"error": err.Error()})
		return err
	}

	// Emit QUEUED for every node in every planned layer up front, before
	// any node executes, so a client can paint the whole DAG immediately
	// (spec.md §4.6.6). Nodes in preExecuted are not announced here:
	// FROM_NODE's stale ancestors were queued and executed as part of its
	// own mini-plan, and ancestors whose recorded outputs are reused are
	// not run at all.
	for _, layer := range ex.Plan.Layers {
		for _, id := range layer {
			if forcedSkip[id] || preExecuted[id] {
				continue
			}
			ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusQueued, id, nil)
		}
	}

	var runErr error
layers:
	for _, layer := range ex.Plan.Layers {
		skipNow := map[string]bool{}
		for _, id := range layer {
			if preExecuted[id] {
				continue
			}
			if forcedSkip[id] || shouldSkip(g, statuses, routes, id) {
				skipNow[id] = true
			}
		}

		for _, id := range layer {
			if preExecuted[id] || !skipNow[id] {
				continue
			}
			entry, _ := g.Node(id)
			entry.Data.Status = flow.StatusSkipped
			entry.Data.Outputs = map[string]any{}
			statuses[id] = flow.StatusSkipped
			ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusSkipped, id, nil)
		}

		toRun := make([]string, 0, len(layer))
		for _, id := range layer {
			if preExecuted[id] || skipNow[id] {
				continue
			}
			toRun = append(toRun, id)
			ex.propagate(g, statuses, routes, id)
			ex.injectRouterInput(g, id)
			entry, _ := g.Node(id)
			entry.Data.Status = flow.StatusQueued
			statuses[id] = flow.StatusQueued
		}

		err := runLayer(ctx, ex.MaxConcurrent, toRun, func(ctx context.Context, id string) error {
			return ex.runNode(ctx, ectx, g, routes, id)
		})
		for _, id := range toRun {
			statuses[id], _ = statusOf(g, id)
		}
		if err != nil {
			runErr = err
			break layers
		}
	}

	if runErr != nil {
		ex.publish(ctx, ectx, emit.KindFlowFailed, "", "", map[string]any{"error": runErr.Error()})
		return runErr
	}
	ex.publish(ctx, ectx, emit.KindFlowEnded, "", "", nil)
	return nil
}

func statusOf(g *flow.Graph, id string) (flow.ExecutionStatus, bool) {
	entry, ok := g.Node(id)
	if !ok {
		return flow.StatusPending, false
	}
	return entry.Data.Status, true
}

func (ex *Executor) runNode(ctx context.Context, ectx Context, g *flow.Graph, routes *routeState, id string) error {
	entry, _ := g.Node(id)
	entry.Data.Status = flow.StatusRunning
	ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusRunning, id, nil)

	inputs, err := flow.ExtractInputs(entry.Spec, entry.Data)
	if err != nil {
		return ex.fail(ctx, ectx, entry, err)
	}
	params := flow.ExtractParameters(entry.Spec, entry.Data)

	result, err := entry.Node.Process(ctx, inputs, params)
	if err != nil {
		return ex.fail(ctx, ectx, entry, flow.NewNodeError(flow.KindNodeExecutionError, id, "node process failed", err))
	}

	outputs, err := flow.PackageOutputs(entry.Spec, result)
	if err != nil {
		return ex.fail(ctx, ectx, entry, err)
	}

	entry.Data.Outputs = outputs
	entry.Data.Status = flow.StatusCompleted
	if entry.Data.Label == flow.LabelRouter {
		routes.recordRouterOutput(id, outputs)
	}
	ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusCompleted, id, map[string]any{"outputs": outputs})
	return nil
}

func (ex *Executor) fail(ctx context.Context, ectx Context, entry *flow.NodeEntry, err error) error {
	entry.Data.Status = flow.StatusFailed
	ex.publish(ctx, ectx, emit.KindNodeStatusChanged, flow.StatusFailed, entry.ID, map[string]any{"error": err.Error()})
	return err
}

// propagate copies each live predecessor's output value into nodeID's
// input map, adapting it across the handle-kind boundary (spec.md §4.2,
// §4.6.1, §4.6.4). A dead edge — its source SKIPPED, or its source a
// router that did not select this edge — contributes nothing, matching
// edgeLive's liveness rule. A router source's packaged output is a
// flow.RouterOutput record; only its RouteValue crosses the edge, and it
// is adapted from its own runtime-inferred kind rather than the
// router's declared HandleRouterOutput output kind (spec.md §4.6.4
// "Router semantics").
func (ex *Executor) propagate(g *flow.Graph, statuses map[string]flow.ExecutionStatus, routes *routeState, nodeID string) {
	target, ok := g.Node(nodeID)
	if !ok {
		return
	}
	for _, e := range g.InEdges(nodeID) {
		if !edgeLive(g, statuses, routes, e) {
			continue
		}
		src, ok := g.Node(e.SourceNodeID)
		if !ok {
			continue
		}
		value, has := src.Data.Outputs[e.SourceHandle]
		if !has {
			continue
		}
		sourceHandle, ok := src.Spec.OutputHandle(e.SourceHandle)
		if !ok {
			continue
		}
		targetHandle, ok := target.Spec.InputHandle(e.TargetHandle)
		if !ok {
			continue
		}

		sourceKind := sourceHandle.Kind
		if src.Data.Label == flow.LabelRouter {
			ro, ok := value.(flow.RouterOutput)
			if !ok {
				continue
			}
			value = ro.RouteValue
			sourceKind = adapt.InferKind(value)
		}

		adapted, err := ex.Adapters.Adapt(sourceKind, targetHandle.Kind, value)
		if err != nil {
			continue
		}
		target.Data.Inputs[e.TargetHandle] = adapted
	}
}

// injectRouterInput sets the reserved outgoing-edge-id list input on a
// router-labeled node immediately before it runs (spec.md §4.6.2).
func (ex *Executor) injectRouterInput(g *flow.Graph, nodeID string) {
	entry, ok := g.Node(nodeID)
	if !ok || entry.Data.Label != flow.LabelRouter {
		return
	}
	ids := make([]string, 0)
	for _, e := range g.OutEdges(nodeID) {
		ids = append(ids, e.ID)
	}
	entry.Data.Inputs[flow.SpecialInputRouterEdgeList] = strings.Join(ids, ",")
}

func (ex *Executor) publish(ctx context.Context, ectx Context, eventType emit.Kind, status flow.ExecutionStatus, nodeID string, payload map[string]any) {
	event := emit.Event{
		UserID:    ectx.UserID,
		RunID:     ectx.RunID,
		TaskID:    ectx.TaskID,
		NodeID:    nodeID,
		EventType: eventType,
		Status:    status,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if ex.Stream != nil {
		if id, err := ex.Stream.Append(ctx, ectx.UserID, event); err == nil {
			event.StreamID = id
		}
	}
	ex.Observer.Emit(ctx, event)
}
