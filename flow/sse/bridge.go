// Package sse implements the SSE Event Bridge (spec.md C9): it turns a
// per-user emit.Stream into a Server-Sent Events byte stream with
// cursor-based resume.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/emit"
)

// DefaultBlock is how long one Read call waits for new events before
// returning empty, matching the original system's 5-second long-poll
// read (spec.md §4.9).
const DefaultBlock = 5 * time.Second

// invalidCursorBackoff is how long Bridge.Serve pauses after
// self-healing an invalid cursor, before resuming the read loop
// (spec.md §4.9 "self-heal on invalid cursor").
const invalidCursorBackoff = 200 * time.Millisecond

// Bridge streams one user's events as SSE frames to w until ctx is
// cancelled or the client disconnects.
type Bridge struct {
	Stream emit.Stream
	Block  time.Duration
}

// NewBridge returns a Bridge reading from stream, with the spec-default
// 5s block duration.
func NewBridge(stream emit.Stream) *Bridge {
	return &Bridge{Stream: stream, Block: DefaultBlock}
}

// Serve writes SSE frames for userID starting strictly after sinceID.
// Each event becomes one "id:"/"data:" frame pair; a cursor rejected by
// the backing Stream as invalid is reset to 0 (replay from the start)
// after a short backoff, rather than terminating the connection
// (spec.md §4.9 "self-heal on invalid cursor").
func (b *Bridge) Serve(ctx context.Context, w *bufio.Writer, userID string, sinceID int64) error {
	cursor := sinceID
	block := b.Block
	if block <= 0 {
		block = DefaultBlock
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		events, err := b.Stream.Read(ctx, userID, cursor, block)
		if err != nil {
			var flowErr *flow.Error
			if errors.As(err, &flowErr) && flowErr.Kind == flow.KindStreamCursorInvalid {
				if werr := writeErrorFrame(w, "invalid cursor, resuming from start"); werr != nil {
					return werr
				}
				cursor = 0
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(invalidCursorBackoff):
				}
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for _, e := range events {
			if err := writeEventFrame(w, e); err != nil {
				return err
			}
			cursor = e.StreamID
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

// writeEventFrame renders e as the USER_EVENT wire frame spec.md §6
// documents: an "id:"/"data:" SSE pair whose data payload carries the
// canonical event envelope (event_type, user_id, run_id, task_id,
// node_id?, status?, data?, timestamp, id).
func writeEventFrame(w *bufio.Writer, e emit.Event) error {
	data, err := json.Marshal(struct {
		Event     string         `json:"event"`
		ID        int64          `json:"id"`
		UserID    string         `json:"user_id"`
		RunID     string         `json:"run_id"`
		TaskID    string         `json:"task_id"`
		NodeID    string         `json:"node_id,omitempty"`
		EventType string         `json:"event_type"`
		Status    string         `json:"status,omitempty"`
		Data      map[string]any `json:"data,omitempty"`
		Timestamp int64          `json:"timestamp"`
	}{
		Event:     "USER_EVENT",
		ID:        e.StreamID,
		UserID:    e.UserID,
		RunID:     e.RunID,
		TaskID:    e.TaskID,
		NodeID:    e.NodeID,
		EventType: string(e.EventType),
		Status:    string(e.Status),
		Data:      e.Payload,
		Timestamp: e.Timestamp.UnixMilli(),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", e.StreamID, data); err != nil {
		return err
	}
	return nil
}

func writeErrorFrame(w *bufio.Writer, message string) error {
	data, _ := json.Marshal(struct {
		Event string `json:"event"`
		Error string `json:"error"`
	}{Event: "ERROR", Error: message})
	if _, err := fmt.Fprintf(w, "event: ERROR\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
