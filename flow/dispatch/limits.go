package dispatch

import (
	"context"
	"time"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/emit"
	"github.com/flowgraph/runtime/flow/exec"
)

// RunLimits is the soft/hard timeout pair for one dispatched run.
//
// Grounded on
// original_source/backend/src/celery_worker/tasks/flow_test_tasks.py's
// `time_limit=3600, soft_time_limit=3540`: Soft fires first and only logs
// a warning so the run gets a chance to finish gracefully (the Python
// side catches SoftTimeLimitExceeded and keeps going); Hard is the point
// past which the run is killed outright. Either field left zero disables
// that limit.
type RunLimits struct {
	Soft time.Duration
	Hard time.Duration
}

// enforce wraps ctx with Hard as a deadline (if set) and starts a timer
// that publishes a KindError warning through observer at Soft (if set
// and less than Hard), without cancelling anything. The returned cancel
// must be deferred by the caller.
func (l RunLimits) enforce(ctx context.Context, ectx exec.Context, observer emit.Emitter) (context.Context, context.CancelFunc) {
	if observer == nil {
		observer = emit.NullEmitter{}
	}

	runCtx := ctx
	cancel := func() {}
	if l.Hard > 0 {
		runCtx, cancel = context.WithTimeout(ctx, l.Hard)
	}

	if l.Soft > 0 && (l.Hard <= 0 || l.Soft < l.Hard) {
		timer := time.AfterFunc(l.Soft, func() {
			observer.Emit(context.Background(), emit.Event{
				EventType: emit.KindError,
				RunID:     ectx.RunID,
				TaskID:    ectx.TaskID,
				UserID:    ectx.UserID,
				Payload:   map[string]any{"warning": "soft time limit exceeded"},
				Timestamp: time.Now(),
			})
		})
		innerCancel := cancel
		cancel = func() {
			timer.Stop()
			innerCancel()
		}
	}

	return runCtx, cancel
}

// timeoutErr translates a context deadline hit against Hard into the
// taxonomy's TIMEOUT_HARD kind, leaving every other error (including
// caller cancellation via the original ctx) untouched.
func (l RunLimits) timeoutErr(ctx context.Context, err error) error {
	if err == nil || l.Hard <= 0 {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return flow.NewError(flow.KindTimeoutHard, "run exceeded hard time limit", err)
	}
	return err
}
