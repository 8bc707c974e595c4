// Package admission implements the per-user Admission / Slot Manager
// (spec.md C8): a bounded count of concurrent runs per user, acquired
// before dispatch and released exactly once on completion.
package admission

import "context"

// Manager bounds the number of concurrent runs a single user may have
// in flight. Acquire must be atomic (compare-and-swap against the
// current count, not a read-then-write) so concurrent dispatchers never
// both observe a free slot and both take it (spec.md §4.8).
type Manager interface {
	// Acquire attempts to take one of userID's limit concurrent slots.
	// ok is false if none are free; the caller must not proceed to run.
	Acquire(ctx context.Context, userID string, limit int) (ok bool, err error)

	// Release returns one slot to userID. Implementations must be safe
	// to call more than once for the same acquisition without driving
	// the count negative (spec.md §4.8 "release must be idempotent").
	Release(ctx context.Context, userID string) error

	// InUse reports the current held-slot count for userID.
	InUse(ctx context.Context, userID string) (int, error)
}
