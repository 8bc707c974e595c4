package emit

import "context"

// Emitter receives observability events (traces, metrics, structured
// logs) about run execution. It is distinct from Stream: Stream is the
// at-least-once, resumable, per-user delivery contract consumed by the
// SSE bridge; Emitter is a best-effort, fire-and-forget sink for
// operational visibility and may be backed by several implementations
// fanned out together (spec.md §4.7 "event publisher ... distinct from
// observability").
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Fanout dispatches each event to every configured Emitter, in order, on
// the caller's goroutine. A panic in one Emitter is recovered so the
// others still receive the event; a slow Emitter delays the ones after
// it.
type Fanout struct {
	emitters []Emitter
}

// NewFanout returns an Emitter that forwards to all of emitters.
func NewFanout(emitters ...Emitter) *Fanout {
	return &Fanout{emitters: emitters}
}

func (f *Fanout) Emit(ctx context.Context, event Event) {
	for _, e := range f.emitters {
		func() {
			defer func() { _ = recover() }()
			e.Emit(ctx, event)
		}()
	}
}

// NullEmitter discards every event. Useful as a default when no
// observability backend is configured.
type NullEmitter struct{}

func (NullEmitter) Emit(context.Context, Event) {}
