package loader

import (
	"github.com/go-playground/validator/v10"

	"github.com/flowgraph/runtime/flow"
)

var structValidator = validator.New()

// Validate checks the request bundle's shape before graph construction:
// struct-tag validation (required fields present) plus the two checks a
// tag can't express — duplicate ids and self-loops.
func Validate(req Request) error {
	if err := structValidator.Struct(req); err != nil {
		return flow.NewError(flow.KindInvalidEdge, "request failed validation: "+err.Error(), err)
	}

	seenNodes := make(map[string]struct{}, len(req.Nodes))
	for _, n := range req.Nodes {
		if _, dup := seenNodes[n.ID]; dup {
			return flow.NewError(flow.KindInvalidEdge, "duplicate node id in request: "+n.ID, nil)
		}
		seenNodes[n.ID] = struct{}{}
	}

	seenEdges := make(map[string]struct{}, len(req.Edges))
	for _, e := range req.Edges {
		if _, dup := seenEdges[e.ID]; dup {
			return flow.NewError(flow.KindInvalidEdge, "duplicate edge id in request: "+e.ID, nil)
		}
		seenEdges[e.ID] = struct{}{}
		if e.Source == e.Target {
			return flow.NewError(flow.KindInvalidEdge, "self-loop edges are not permitted: "+e.ID, nil)
		}
	}

	return nil
}
