package emit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLStream(t *testing.T) *SQLStream {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	stream := NewSQLStream(db)
	require.NoError(t, stream.EnsureSchema(context.Background()))
	return stream
}

func TestSQLStreamAppendAndReadRoundTrip(t *testing.T) {
	s := newTestSQLStream(t)

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

func TestSQLStreamReadSinceIDOnlyReturnsNewer(t *testing.T) {
	s := newTestSQLStream(t)
	id1, _ := s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted})
	_, _ = s.Append(context.Background(), "u1", Event{EventType: KindFlowEnded})

	events, err := s.Read(context.Background(), "u1", id1, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindFlowEnded, events[0].EventType)
}

func TestSQLStreamReadBlocksUntilAppendArrivesThenPolls(t *testing.T) {
	s := newTestSQLStream(t)

	done := make(chan []Event, 1)
	go func() {
		events, err := s.Read(context.Background(), "u1", 0, time.Second)
		require.NoError(t, err)
		done <- events
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted})
	require.NoError(t, err)

	select {
	case events := <-done:
		require.Len(t, events, 1)
		assert.Equal(t, KindFlowStarted, events[0].EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after Append")
	}
}

func TestSQLStreamTracksUsersIndependently(t *testing.T) {
	s := newTestSQLStream(t)
	_, _ = s.Append(context.Background(), "u1", Event{EventType: KindFlowStarted})
	_, _ = s.Append(context.Background(), "u2", Event{EventType: KindFlowStarted})

	events, err := s.Read(context.Background(), "u2", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	latest, err := s.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest)
}
