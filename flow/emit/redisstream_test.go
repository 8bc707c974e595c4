package emit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/runtime/flow"
)

func newTestRedisStream(t *testing.T) *RedisStream {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStream(client, "test")
}

func TestRedisStreamAppendAndReadRoundTrip(t *testing.T) {
	s := newTestRedisStream(t)

	id1, err := s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted, RunID: "r1", TaskID: "t1", Payload: map[string]any{"k": "v"}})
	require.NoError(t, err)
	id2, err := s.Append(context.Background(), "u1", Event{EventType: KindFlowEnded, RunID: "r1", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	events, err := s.Read(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, KindFlowStarted, events[0].EventType)
	assert.Equal(t, "t1", events[0].TaskID)
	assert.Equal(t, "v", events[0].Payload["k"])
	assert.Equal(t, KindFlowEnded, events[1].EventType)

	latest, err := s.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)
}

func TestRedisStreamReadSinceIDOnlyReturnsNewer(t *testing.T) {
	s := newTestRedisStream(t)
	id1, _ := s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted})
	_, _ = s.Append(context.Background(), "u1", Event{EventType: KindFlowEnded})

	events, err := s.Read(context.Background(), "u1", id1, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindFlowEnded, events[0].EventType)
}

func TestRedisStreamReadInvalidCursorIsTaggedStreamCursorInvalid(t *testing.T) {
	s := newTestRedisStream(t)
	_, _ = s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted})

	_, err := s.Read(context.Background(), "u1", -5, time.Millisecond)
	require.Error(t, err)
	var fe *flow.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, flow.KindStreamCursorInvalid, fe.Kind)
}
