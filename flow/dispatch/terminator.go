// Package dispatch implements the Task Dispatcher (spec.md C10): it
// coordinates admission, graph loading/compilation, and execution for
// one run, and guarantees slot release happens exactly once no matter
// how the run ends.
package dispatch

import "sync"

// Terminator runs a cleanup function exactly once, however many call
// sites race to trigger it — a normal completion, an error path, and a
// cancellation signal handler may all attempt it.
//
// Grounded on original_source/backend/src/celery_worker/tasks/
// flow_test_tasks.py's emergency_cleanup closure, which guards a
// SIGTERM handler and a `finally` block against double-running the same
// cleanup with a `nonlocal cleanup_done` flag; sync.Once is the
// idiomatic Go equivalent of that flag.
type Terminator struct {
	once sync.Once
	fn   func()
}

// NewTerminator wraps fn so it runs at most once across any number of
// Fire calls.
func NewTerminator(fn func()) *Terminator {
	return &Terminator{fn: fn}
}

// Fire runs the wrapped cleanup if it hasn't already run.
func (t *Terminator) Fire() {
	t.once.Do(t.fn)
}
