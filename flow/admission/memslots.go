package admission

import (
	"context"
	"sync"
)

// MemManager is an in-process Manager backed by a per-user counter
// guarded by a mutex — the CAS acquire/release semantics without a
// shared backing store, for single-process deployments and tests.
type MemManager struct {
	mu    sync.Mutex
	inUse map[string]int
}

// NewMemManager returns an empty in-memory slot manager.
func NewMemManager() *MemManager {
	return &MemManager{inUse: map[string]int{}}
}

func (m *MemManager) Acquire(_ context.Context, userID string, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse[userID] >= limit {
		return false, nil
	}
	m.inUse[userID]++
	return true, nil
}

// Release floors at zero so a release that races a double-call (the
// dispatch.Terminator is the primary idempotency guard; this is a
// backstop) never drives the count negative.
func (m *MemManager) Release(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse[userID] > 0 {
		m.inUse[userID]--
	}
	return nil
}

func (m *MemManager) InUse(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inUse[userID], nil
}
