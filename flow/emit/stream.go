package emit

import (
	"context"
	"time"
)

// Stream is the per-user ordered, append-only, at-least-once event log
// backing the SSE bridge (spec.md §4.7, §4.9). Implementations must
// assign a strictly increasing StreamID per user on Append and must
// return events in StreamID order from Read.
type Stream interface {
	// Append records event for userID, assigns its StreamID, and returns
	// the assigned id.
	Append(ctx context.Context, userID string, event Event) (int64, error)

	// Read returns events for userID with StreamID > sinceID, waiting up
	// to block for at least one to arrive if none are immediately
	// available. A zero block duration returns immediately with whatever
	// is available (possibly none).
	Read(ctx context.Context, userID string, sinceID int64, block time.Duration) ([]Event, error)

	// Latest returns the highest StreamID recorded for userID, or 0 if
	// the user has no events yet.
	Latest(ctx context.Context, userID string) (int64, error)
}
