package emit

import (
	"context"
	"log/slog"
)

// LogEmitter writes every event as a structured slog record. Adapted
// from the teacher's emit.LogEmitter, retargeted from a raw io.Writer
// onto log/slog so its output composes with whatever handler the host
// process installs (spec.md Ambient Stack: structured logging).
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter wraps logger (or slog.Default() if nil).
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(_ context.Context, event Event) {
	l.logger.Info("flow event",
		slog.String("event_type", string(event.EventType)),
		slog.String("status", string(event.Status)),
		slog.String("run_id", event.RunID),
		slog.String("task_id", event.TaskID),
		slog.String("user_id", event.UserID),
		slog.String("node_id", event.NodeID),
		slog.Int64("stream_id", event.StreamID),
		slog.Any("payload", event.Payload),
	)
}
