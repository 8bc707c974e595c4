package emit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/flowgraph/runtime/flow"
)

// SQLStream backs Stream with a plain SQL table, for multi-process
// deployments that would rather not stand up Redis — the same database
// driver choice the teacher offers for its own Store (sqlite via
// modernc.org/sqlite for a single-host deployment, mysql via
// go-sql-driver/mysql for a shared one). This is not the excluded
// business persistence layer (flows/snapshots/sessions/chat history);
// it is an alternate backing store for the in-scope C7 event stream.
type SQLStream struct {
	db *sql.DB
}

// NewSQLStream wraps an already-open *sql.DB. Callers choose the driver
// (sqlite or mysql) when opening db; NewSQLStream is driver-agnostic.
func NewSQLStream(db *sql.DB) *SQLStream {
	return &SQLStream{db: db}
}

// EnsureSchema creates the backing table if it does not already exist.
// Safe to call repeatedly.
func (s *SQLStream) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS flow_events (
	stream_id  INTEGER NOT NULL,
	user_id    VARCHAR(255) NOT NULL,
	run_id     VARCHAR(255) NOT NULL,
	task_id    VARCHAR(255) NOT NULL,
	node_id    VARCHAR(255) NOT NULL,
	event_type VARCHAR(64) NOT NULL,
	status     VARCHAR(32) NOT NULL,
	payload    TEXT,
	ts_millis  BIGINT NOT NULL,
	PRIMARY KEY (user_id, stream_id)
)`)
	if err != nil {
		return flow.NewError(flow.KindNodeExecutionError, "failed to create flow_events table", err)
	}
	return nil
}

func (s *SQLStream) Append(ctx context.Context, userID string, event Event) (int64, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to marshal event payload", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to begin stream append transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxID sql.NullInt64
	row := tx.QueryRowContext(ctx, `SELECT MAX(stream_id) FROM flow_events WHERE user_id = ?`, userID)
	if err := row.Scan(&maxID); err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to read max stream id", err)
	}
	nextID := maxID.Int64 + 1

	_, err = tx.ExecContext(ctx,
		`INSERT INTO flow_events (stream_id, user_id, run_id, task_id, node_id, event_type, status, payload, ts_millis) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nextID, userID, event.RunID, event.TaskID, event.NodeID, string(event.EventType), string(event.Status), string(payload), event.Timestamp.UnixMilli(),
	)
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to insert event", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to commit stream append", err)
	}
	return nextID, nil
}

// Read polls the table for events past sinceID, sleeping in short
// intervals up to block if none are yet available — SQL has no native
// blocking read analogous to Redis XREAD's BLOCK option.
func (s *SQLStream) Read(ctx context.Context, userID string, sinceID int64, block time.Duration) ([]Event, error) {
	deadline := time.Now().Add(block)
	for {
		out, err := s.readOnce(ctx, userID, sinceID)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 || block <= 0 || time.Now().After(deadline) {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (s *SQLStream) readOnce(ctx context.Context, userID string, sinceID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stream_id, run_id, task_id, node_id, event_type, status, payload, ts_millis FROM flow_events WHERE user_id = ? AND stream_id > ? ORDER BY stream_id ASC`,
		userID, sinceID,
	)
	if err != nil {
		return nil, flow.NewError(flow.KindNodeExecutionError, "failed to query events", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			id        int64
			runID     string
			taskID    string
			nodeID    string
			eventType string
			status    string
			payload   sql.NullString
			tsMillis  int64
		)
		if err := rows.Scan(&id, &runID, &taskID, &nodeID, &eventType, &status, &payload, &tsMillis); err != nil {
			return nil, flow.NewError(flow.KindNodeExecutionError, "failed to scan event row", err)
		}
		var p map[string]any
		if payload.Valid && payload.String != "" {
			_ = json.Unmarshal([]byte(payload.String), &p)
		}
		out = append(out, Event{
			StreamID:  id,
			UserID:    userID,
			RunID:     runID,
			TaskID:    taskID,
			NodeID:    nodeID,
			EventType: Kind(eventType),
			Status:    flow.ExecutionStatus(status),
			Payload:   p,
			Timestamp: time.UnixMilli(tsMillis),
		})
	}
	return out, rows.Err()
}

func (s *SQLStream) Latest(ctx context.Context, userID string) (int64, error) {
	var maxID sql.NullInt64
	row := s.db.QueryRowContext(ctx, `SELECT MAX(stream_id) FROM flow_events WHERE user_id = ?`, userID)
	if err := row.Scan(&maxID); err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to read latest stream id", err)
	}
	return maxID.Int64, nil
}
