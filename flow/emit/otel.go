package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph/runtime/flow"
)

// OTelEmitter turns each lifecycle event into a point-in-time span.
// Adapted from the teacher's graph/emit.OTelEmitter: same
// start-then-immediately-end shape (an event marks an instant, not a
// duration), retargeted onto the flow/emit Event/Kind vocabulary.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an Emitter that records spans via tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, string(event.EventType))
	defer span.End()

	span.SetAttributes(
		attribute.String("flow.run_id", event.RunID),
		attribute.String("flow.task_id", event.TaskID),
		attribute.String("flow.user_id", event.UserID),
		attribute.String("flow.node_id", event.NodeID),
		attribute.String("flow.status", string(event.Status)),
		attribute.Int64("flow.stream_id", event.StreamID),
	)
	for k, v := range event.Payload {
		span.SetAttributes(attribute.String("flow.payload."+k, fmt.Sprintf("%v", v)))
	}

	failed := event.EventType == KindFlowFailed ||
		(event.EventType == KindNodeStatusChanged && event.Status == flow.StatusFailed)
	if failed {
		msg := fmt.Sprintf("%v", event.Payload["error"])
		span.SetStatus(codes.Error, msg)
		span.RecordError(fmt.Errorf("%s", msg))
	}
}
