// Package exec implements the Execution Context & Control (spec.md C5) and
// the Graph Executor (spec.md C6): a bounded-parallelism, layer-barriered
// runner over a compiled flow/compile.Plan.
package exec

import "github.com/google/uuid"

// Context carries the identifying and environmental values a run is
// performed under. It is immutable once constructed; the executor copies
// its UserID, RunID and TaskID onto every event it publishes. It is not
// passed to a node's Process call (spec.md §4.5).
//
// Grounded on original_source/backend/src/schemas/graph_execution_context.py
// (GraphExecutionContext: run_id, flow_id, session_id, user_id, metadata).
type Context struct {
	RunID     string
	TaskID    string
	FlowID    string
	SessionID string
	UserID    string
	Metadata  map[string]any
}

// NewContext returns a Context with a defensively copied Metadata map.
// taskID is the correlation id the caller's admission/dispatch layer
// generated for this run (spec.md §4.4 "event publisher bound to
// user_id and a generated task_id"); it is threaded into every event
// this run publishes (spec.md §4.7 "task_id, run_id").
func NewContext(runID, taskID, flowID, sessionID, userID string, metadata map[string]any) Context {
	m := make(map[string]any, len(metadata))
	for k, v := range metadata {
		m[k] = v
	}
	return Context{
		RunID:     runID,
		TaskID:    taskID,
		FlowID:    flowID,
		SessionID: sessionID,
		UserID:    userID,
		Metadata:  m,
	}
}

// NewRunID returns a fresh random run identifier. Callers that already
// have a run id (resumed from a store, supplied by a caller) should pass
// it to NewContext directly instead of calling this.
func NewRunID() string {
	return uuid.NewString()
}

// ToDict renders the Context as a plain map, e.g. for inclusion in an
// event payload or a node's metadata input.
func (c Context) ToDict() map[string]any {
	out := make(map[string]any, 6+len(c.Metadata))
	out["run_id"] = c.RunID
	out["task_id"] = c.TaskID
	out["flow_id"] = c.FlowID
	out["session_id"] = c.SessionID
	out["user_id"] = c.UserID
	for k, v := range c.Metadata {
		out[k] = v
	}
	return out
}
