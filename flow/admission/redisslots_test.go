package admission

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisManager(t *testing.T) *RedisManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisManager(client, "test")
}

func TestRedisManagerAcquireRespectsLimit(t *testing.T) {
	m := newTestRedisManager(t)

	ok, err := m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	inUse, err := m.InUse(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, inUse)
}

func TestRedisManagerReleaseFloorsAtZero(t *testing.T) {
	m := newTestRedisManager(t)
	_, _ = m.Acquire(context.Background(), "u1", 1)

	require.NoError(t, m.Release(context.Background(), "u1"))
	require.NoError(t, m.Release(context.Background(), "u1"))

	inUse, err := m.InUse(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, inUse)
}

func TestRedisManagerInUseIsZeroForUnknownUser(t *testing.T) {
	m := newTestRedisManager(t)
	inUse, err := m.InUse(context.Background(), "never-acquired")
	require.NoError(t, err)
	assert.Equal(t, 0, inUse)
}
