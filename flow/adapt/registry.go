// Package adapt implements the Handle & Adapter Registry (spec.md C2): it
// answers whether two handle kinds may be connected, and how to coerce a
// value crossing a connection between differing kinds.
//
// Grounded on original_source/backend/src/executors/NodeDataFlowAdapter.py
// (AdapterMatrix keyed by (source, target) with a default pass-through)
// and generalized into a closed-enum keyed matrix per spec.md Design
// Notes ("Dynamic/duck-typed handles").
package adapt

import (
	"fmt"

	"github.com/flowgraph/runtime/flow"
)

// AdapterFunc converts a value produced on a handle of kind S into a value
// suitable for a handle of kind T. Adapters must be pure functions of the
// value (spec.md §4.2).
type AdapterFunc func(value any) (any, error)

// pairKey is the matrix key: (source, target).
type pairKey struct {
	Source flow.HandleKind
	Target flow.HandleKind
}

// Registry answers connection-compatibility and adaptation questions for a
// fixed universe of HandleKinds.
type Registry struct {
	// compatiblePairs additionally permits connecting S -> T where S != T.
	// Same-kind connections are always compatible and need no entry here.
	compatiblePairs map[pairKey]struct{}
	matrix          map[pairKey]AdapterFunc
}

// New returns a Registry pre-seeded with the spec-mandated minimum:
// number -> text stringification (spec.md §4.2 "At minimum, the matrix
// must include number -> text coercion").
func New() *Registry {
	r := &Registry{
		compatiblePairs: map[pairKey]struct{}{},
		matrix:          map[pairKey]AdapterFunc{},
	}
	r.Allow(flow.HandleNumber, flow.HandleText, numberToText)
	return r
}

// Allow declares that a source->target connection of differing kinds is
// permitted, and registers the adapter function applied when a value
// crosses that connection. Calling Allow for a pair already present
// replaces the prior adapter.
func (r *Registry) Allow(source, target flow.HandleKind, fn AdapterFunc) {
	key := pairKey{Source: source, Target: target}
	r.compatiblePairs[key] = struct{}{}
	r.matrix[key] = fn
}

// Compatible reports whether a source handle of kind S may connect to a
// target handle of kind T (spec.md §4.2, question 1). Same-kind
// connections are always compatible; otherwise the pair must have been
// declared via Allow.
//
// A router's sole output handle is declared HandleRouterOutput, but the
// value it actually carries at propagation time is route_value, whose
// kind is not known until runtime (spec.md §4.6.4). Compatibility is
// therefore granted structurally for any target here; the real coercion
// happens at Adapt time against the route value's inferred kind via
// InferKind.
func (r *Registry) Compatible(source, target flow.HandleKind) bool {
	if source == target {
		return true
	}
	if source == flow.HandleRouterOutput {
		return true
	}
	_, ok := r.compatiblePairs[pairKey{Source: source, Target: target}]
	return ok
}

// Adapt converts value from a source handle of kind S to a target handle
// of kind T (spec.md §4.2, question 2). When S == T, or no adapter is
// registered for the pair, the value passes through unchanged; loader.Load
// rejects any edge whose pair Compatible refuses, so in a loaded graph
// the pass-through applies only to pairs Compatible accepted.
func (r *Registry) Adapt(source, target flow.HandleKind, value any) (any, error) {
	if source == target {
		return value, nil
	}
	fn, ok := r.matrix[pairKey{Source: source, Target: target}]
	if !ok {
		return value, nil
	}
	return fn(value)
}

// InferKind classifies value by its runtime Go type, for the one place
// a handle's declared kind doesn't describe the value it actually
// carries: a router's route_value, unwrapped from its RouterOutput
// envelope and adapted against its own effective kind rather than
// HandleRouterOutput (spec.md §4.6.4).
func InferKind(value any) flow.HandleKind {
	switch value.(type) {
	case bool:
		return flow.HandleBoolean
	case float64, float32, int, int64, int32:
		return flow.HandleNumber
	default:
		return flow.HandleText
	}
}

func numberToText(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return trimFloat(v), nil
	case float32:
		return trimFloat(float64(v)), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// trimFloat renders a float64 the way a JSON number typically reads back
// to a user: integral values without a trailing ".0", otherwise the
// shortest round-trippable decimal form.
func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
