package dispatch

import (
	"context"
	"time"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/adapt"
	"github.com/flowgraph/runtime/flow/admission"
	"github.com/flowgraph/runtime/flow/compile"
	"github.com/flowgraph/runtime/flow/emit"
	"github.com/flowgraph/runtime/flow/exec"
	"github.com/flowgraph/runtime/flow/loader"
)

// Dispatcher coordinates the Graph Loader (C3), Graph Compiler (C4),
// Admission/Slot Manager (C8), and Graph Executor (C6) for one run.
//
// Grounded on
// original_source/backend/src/celery_worker/tasks/flow_test_tasks.py's
// two-stage task split: dispatch_run_test checks for a free slot and
// either hands off to run_flow_test or retries with jittered backoff;
// run_flow_test does the actual compile-and-execute and releases the
// slot exactly once on every exit path. DispatchRun/RunFlow mirror that
// split without Celery's task-queue machinery — a caller's own job
// queue decides what to do with a "not ready yet, retry after d" result.
type Dispatcher struct {
	Registry      *loader.Registry
	Adapters      *adapt.Registry
	Slots         admission.Manager
	SlotLimit     int
	Backoff       admission.Backoff
	Stream        emit.Stream
	Observer      emit.Emitter
	MaxConcurrent int
	// Limits bounds one dispatched run's wall-clock time. Zero fields
	// disable the corresponding limit (spec.md Design Notes "soft/hard
	// timeout pair").
	Limits RunLimits
}

// CompileFlow loads and compiles req without admission control or
// execution — the preview/validate-only path (spec.md §4.3, §4.4).
func (d *Dispatcher) CompileFlow(req loader.Request) (*compile.Plan, error) {
	g, err := loader.Load(d.Registry, d.Adapters, req)
	if err != nil {
		return nil, err
	}
	return compile.Compile(g)
}

// DispatchRun attempts a single, non-blocking slot acquisition for
// userID. ready is false when the caller should retry after the
// returned duration rather than proceeding to RunFlow (spec.md §4.8
// "dispatch ... retry if no slot").
func (d *Dispatcher) DispatchRun(ctx context.Context, userID string) (ready bool, retryAfter time.Duration, err error) {
	ok, err := d.Slots.Acquire(ctx, userID, d.SlotLimit)
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	return false, d.Backoff.Next(), nil
}

// RunFlow compiles req and executes it under ectx/control, assuming the
// caller already holds an admission slot for ectx.UserID (via
// DispatchRun). The slot is released exactly once, regardless of
// whether execution succeeds, fails, or ctx is cancelled.
func (d *Dispatcher) RunFlow(ctx context.Context, ectx exec.Context, req loader.Request, control exec.Control) error {
	term := NewTerminator(func() {
		_ = d.Slots.Release(context.Background(), ectx.UserID)
	})
	defer term.Fire()

	plan, err := d.CompileFlow(req)
	if err != nil {
		return err
	}

	runCtx, cancel := d.Limits.enforce(ctx, ectx, d.Observer)
	defer cancel()

	executor := exec.NewExecutor(plan, d.Adapters, d.Stream, d.Observer, d.MaxConcurrent)
	err = executor.Run(runCtx, ectx, control)
	return d.Limits.timeoutErr(runCtx, err)
}

// RunFlowWithAdmission combines DispatchRun's retry loop with RunFlow,
// for callers that want a single blocking call rather than managing
// their own retry queue.
func (d *Dispatcher) RunFlowWithAdmission(ctx context.Context, ectx exec.Context, req loader.Request, control exec.Control) error {
	ok, err := admission.RetryAcquire(ctx, d.Slots, ectx.UserID, d.SlotLimit, 0, d.Backoff)
	if err != nil {
		return err
	}
	if !ok {
		return flow.NewError(flow.KindNoSlot, "could not acquire an admission slot for user "+ectx.UserID, nil)
	}

	term := NewTerminator(func() {
		_ = d.Slots.Release(context.Background(), ectx.UserID)
	})
	defer term.Fire()

	plan, err := d.CompileFlow(req)
	if err != nil {
		return err
	}

	runCtx, cancel := d.Limits.enforce(ctx, ectx, d.Observer)
	defer cancel()

	executor := exec.NewExecutor(plan, d.Adapters, d.Stream, d.Observer, d.MaxConcurrent)
	err = executor.Run(runCtx, ectx, control)
	return d.Limits.timeoutErr(runCtx, err)
}
