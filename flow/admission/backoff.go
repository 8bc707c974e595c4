package admission

import (
	"context"
	"math/rand"
	"time"
)

// Backoff computes the wait before retrying a dispatch that found no
// free slot. Grounded on
// original_source/backend/src/celery_worker/tasks/flow_test_tasks.py's
// `self.retry(countdown=6 + random.randint(-3, 3))`: a 6-second base
// with +/-3 seconds of jitter, so many queued retries for the same user
// don't all wake and re-contend for the slot at the same instant.
type Backoff struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultBackoff returns the spec-mandated 6s +/- 3s policy.
func DefaultBackoff() Backoff {
	return Backoff{Base: 6 * time.Second, Jitter: 3 * time.Second}
}

// Next returns one jittered delay drawn from [Base-Jitter, Base+Jitter].
func (b Backoff) Next() time.Duration {
	if b.Jitter <= 0 {
		return b.Base
	}
	offset := time.Duration(rand.Int63n(int64(2*b.Jitter+1))) - b.Jitter
	d := b.Base + offset
	if d < 0 {
		d = 0
	}
	return d
}

// RetryAcquire polls Manager.Acquire until a slot is free, ctx is
// cancelled, or maxAttempts is exhausted (0 means unlimited). It
// returns the same (ok, err) shape as a single Acquire call.
func RetryAcquire(ctx context.Context, mgr Manager, userID string, limit, maxAttempts int, backoff Backoff) (bool, error) {
	for attempt := 0; maxAttempts == 0 || attempt < maxAttempts; attempt++ {
		ok, err := mgr.Acquire(ctx, userID, limit)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff.Next()):
		}
	}
	return false, nil
}
