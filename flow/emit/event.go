// Package emit implements the Execution Event Publisher (spec.md C7): an
// ordered, append-only, per-user event stream with monotone ids for
// cursor-based resume, plus a pluggable observability Emitter for
// traces/metrics distinct from that stream.
package emit

import (
	"time"

	"github.com/flowgraph/runtime/flow"
)

// Kind is the event_type discriminator on the execution event stream
// (spec.md §3, §6). KindNodeStatusChanged carries a node-level lifecycle
// transition in Event.Status; the other four mark run-level milestones
// and leave Status empty.
type Kind string

const (
	KindNodeStatusChanged Kind = "NODE_STATUS_CHANGED"
	KindFlowStarted       Kind = "FLOW_STARTED"
	KindFlowEnded         Kind = "FLOW_ENDED"
	KindFlowFailed        Kind = "FLOW_FAILED"
	KindError             Kind = "ERROR"
)

// Event is one entry in a user's ordered execution event stream. StreamID
// is assigned by the Stream implementation on Append and is monotone
// within a user's stream (spec.md §4.7 "ordered, monotone ids"). RunID and
// TaskID are the correlation ids the publisher attaches to every event
// (spec.md §4.7 "timestamp, correlation ids (task_id, run_id)").
//
// Grounded on original_source/backend/src/routes/user_event_routes.py's
// event envelope (id, event, data) and
// original_source/backend/src/celery_worker/tasks/flow_test_tasks.py's
// publish-on-lifecycle-transition calls.
type Event struct {
	StreamID  int64
	UserID    string
	RunID     string
	TaskID    string
	NodeID    string
	EventType Kind
	// Status carries the node lifecycle state when EventType ==
	// KindNodeStatusChanged (spec.md §6 "status?"); empty for run-level
	// events.
	Status    flow.ExecutionStatus
	Payload   map[string]any
	Timestamp time.Time
}
