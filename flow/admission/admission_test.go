package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemManagerAcquireRespectsLimit(t *testing.T) {
	m := NewMemManager()
	ok, err := m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.False(t, ok, "third acquire should fail at limit 2")

	inUse, err := m.InUse(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, inUse)
}

func TestMemManagerReleaseFreesASlotAndFloorsAtZero(t *testing.T) {
	m := NewMemManager()
	_, _ = m.Acquire(context.Background(), "u1", 1)

	require.NoError(t, m.Release(context.Background(), "u1"))
	require.NoError(t, m.Release(context.Background(), "u1"))

	inUse, err := m.InUse(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, inUse)

	ok, err := m.Acquire(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.True(t, ok, "slot should be available again after release")
}

func TestMemManagerTracksUsersIndependently(t *testing.T) {
	m := NewMemManager()
	ok, _ := m.Acquire(context.Background(), "u1", 1)
	require.True(t, ok)

	ok, err := m.Acquire(context.Background(), "u2", 1)
	require.NoError(t, err)
	assert.True(t, ok, "u2 has its own independent slot budget")
}

func TestBackoffNextStaysWithinJitterRange(t *testing.T) {
	b := Backoff{Base: 6 * time.Second, Jitter: 3 * time.Second}
	for i := 0; i < 50; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 9*time.Second)
	}
}

func TestBackoffNextWithZeroJitterReturnsBase(t *testing.T) {
	b := Backoff{Base: 5 * time.Second}
	assert.Equal(t, 5*time.Second, b.Next())
}

func TestDefaultBackoffMatchesSpecPolicy(t *testing.T) {
	b := DefaultBackoff()
	assert.Equal(t, 6*time.Second, b.Base)
	assert.Equal(t, 3*time.Second, b.Jitter)
}

func TestRetryAcquireSucceedsOnceSlotFreesUp(t *testing.T) {
	m := NewMemManager()
	_, _ = m.Acquire(context.Background(), "u1", 1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = m.Release(context.Background(), "u1")
	}()

	ok, err := RetryAcquire(context.Background(), m, "u1", 1, 0, Backoff{Base: 10 * time.Millisecond, Jitter: 0})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRetryAcquireRespectsContextCancellation(t *testing.T) {
	m := NewMemManager()
	_, _ = m.Acquire(context.Background(), "u1", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	ok, err := RetryAcquire(ctx, m, "u1", 1, 0, Backoff{Base: 10 * time.Millisecond, Jitter: 0})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestRetryAcquireStopsAfterMaxAttempts(t *testing.T) {
	m := NewMemManager()
	_, _ = m.Acquire(context.Background(), "u1", 1)

	ok, err := RetryAcquire(context.Background(), m, "u1", 1, 3, Backoff{Base: 5 * time.Millisecond, Jitter: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}
