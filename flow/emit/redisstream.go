package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowgraph/runtime/flow"
)

// RedisStream backs Stream with Redis Streams (XADD/XREAD), the substrate
// the original system uses for its per-user event feed.
//
// Grounded on original_source/backend/src/routes/user_event_routes.py,
// which reads via redis_client.xread with a since_id cursor, normalizes
// the cursor with _normalize_since_id, and self-heals on a "Invalid
// stream ID" reply by resetting to "0-0".
//
// Redis stream entry ids are normally server-assigned "<ms>-<seq>"
// pairs; here the StreamID contract requires a plain per-user monotone
// integer, so RedisStream assigns ids itself via INCR on a sibling
// counter key and passes "<id>-0" as an explicit XADD id — Redis accepts
// any id greater than the stream's last, which a strictly increasing
// counter always satisfies.
type RedisStream struct {
	client *redis.Client
	prefix string
}

// NewRedisStream returns a Stream backed by client. Keys are namespaced
// under prefix (default "flow" if empty).
func NewRedisStream(client *redis.Client, prefix string) *RedisStream {
	if prefix == "" {
		prefix = "flow"
	}
	return &RedisStream{client: client, prefix: prefix}
}

func (s *RedisStream) streamKey(userID string) string {
	return s.prefix + ":events:" + userID
}

func (s *RedisStream) counterKey(userID string) string {
	return s.prefix + ":events:" + userID + ":seq"
}

func (s *RedisStream) Append(ctx context.Context, userID string, event Event) (int64, error) {
	id, err := s.client.Incr(ctx, s.counterKey(userID)).Result()
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "redis stream counter increment failed", err)
	}
	event.StreamID = id

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "failed to marshal event payload", err)
	}

	_, err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.streamKey(userID),
		ID:     fmt.Sprintf("%d-0", id),
		Values: map[string]any{
			"run_id":     event.RunID,
			"task_id":    event.TaskID,
			"node_id":    event.NodeID,
			"event_type": string(event.EventType),
			"status":     string(event.Status),
			"payload":    string(payload),
			"timestamp":  event.Timestamp.UnixMilli(),
		},
	}).Result()
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "redis XADD failed", err)
	}
	return id, nil
}

func (s *RedisStream) Read(ctx context.Context, userID string, sinceID int64, block time.Duration) ([]Event, error) {
	start := fmt.Sprintf("%d-0", sinceID)
	// go-redis sends BLOCK 0 (wait forever) for a zero Block and omits
	// BLOCK only for a negative one.
	if block <= 0 {
		block = -1
	}
	args := &redis.XReadArgs{
		Streams: []string{s.streamKey(userID), start},
		Count:   0,
		Block:   block,
	}
	res, err := s.client.XRead(ctx, args).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		if strings.Contains(err.Error(), "Invalid stream ID") {
			return nil, flow.NewError(flow.KindStreamCursorInvalid, "invalid stream cursor: "+start, err)
		}
		return nil, flow.NewError(flow.KindNodeExecutionError, "redis XREAD failed", err)
	}
	if len(res) == 0 {
		return nil, nil
	}

	var out []Event
	for _, msg := range res[0].Messages {
		e, err := decodeRedisEvent(userID, msg)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStream) Latest(ctx context.Context, userID string) (int64, error) {
	v, err := s.client.Get(ctx, s.counterKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, flow.NewError(flow.KindNodeExecutionError, "redis counter read failed", err)
	}
	return strconv.ParseInt(v, 10, 64)
}

func decodeRedisEvent(userID string, msg redis.XMessage) (Event, error) {
	idPart := msg.ID
	if i := strings.IndexByte(idPart, '-'); i >= 0 {
		idPart = idPart[:i]
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Event{}, err
	}

	var payload map[string]any
	if raw, ok := msg.Values["payload"].(string); ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &payload)
	}

	ts := int64(0)
	switch v := msg.Values["timestamp"].(type) {
	case string:
		ts, _ = strconv.ParseInt(v, 10, 64)
	case int64:
		ts = v
	}

	return Event{
		StreamID:  id,
		UserID:    userID,
		RunID:     fmt.Sprintf("%v", msg.Values["run_id"]),
		TaskID:    fmt.Sprintf("%v", msg.Values["task_id"]),
		NodeID:    fmt.Sprintf("%v", msg.Values["node_id"]),
		EventType: Kind(fmt.Sprintf("%v", msg.Values["event_type"])),
		Status:    flow.ExecutionStatus(fmt.Sprintf("%v", msg.Values["status"])),
		Payload:   payload,
		Timestamp: time.UnixMilli(ts),
	}, nil
}
