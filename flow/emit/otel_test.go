package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph/runtime/flow"
)

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider.Tracer("flow/emit"), recorder
}

func TestOTelEmitterRecordsOneSpanPerEvent(t *testing.T) {
	tracer, recorder := newTestTracer(t)
	emitter := NewOTelEmitter(tracer)

	emitter.Emit(context.Background(), Event{
		EventType: KindNodeStatusChanged,
		Status:    flow.StatusCompleted,
		RunID:     "r1",
		UserID:    "u1",
		NodeID:    "n1",
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "NODE_STATUS_CHANGED", spans[0].Name())
}

func TestOTelEmitterMarksFailedEventsAsErrorSpans(t *testing.T) {
	tracer, recorder := newTestTracer(t)
	emitter := NewOTelEmitter(tracer)

	emitter.Emit(context.Background(), Event{
		EventType: KindFlowFailed,
		RunID:     "r1",
		Payload:   map[string]any{"error": "node 7 exploded"},
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
