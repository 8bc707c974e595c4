// Package loader implements the Graph Loader (spec.md C3): it turns an
// untyped node/edge request bundle into a typed, in-memory flow.Graph with
// resolved handles.
//
// Grounded on original_source/backend/src/nodes/GraphLoader.py's role
// (instantiate via a node registry, attach data, validate edges) and the
// teacher's Design Note replacing "registry singletons" with an explicit
// value passed by reference (spec.md Design Notes: "Registry singletons /
// global node registry").
package loader

import "github.com/flowgraph/runtime/flow"

// Constructor builds a fresh flow.Node instance for one graph node. It
// must not retain shared mutable state between calls — each graph node
// gets its own instance.
type Constructor func() flow.Node

// Registry maps a node type name to a Constructor. It is constructed once
// at process start and passed to Load by reference; there is no package
// global (spec.md Design Notes).
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns an empty node-type registry.
func NewRegistry() *Registry {
	return &Registry{constructors: map[string]Constructor{}}
}

// Register associates a node type name with a Constructor. Re-registering
// a name replaces the prior constructor.
func (r *Registry) Register(typeName string, ctor Constructor) {
	r.constructors[typeName] = ctor
}

// New instantiates a node of the given type name, or ok=false if
// unregistered.
func (r *Registry) New(typeName string) (flow.Node, bool) {
	ctor, ok := r.constructors[typeName]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.constructors[typeName]
	return ok
}
