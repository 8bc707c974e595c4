package exec

import "github.com/flowgraph/runtime/flow"

// Scope selects how much of a compiled plan a run actually executes
// (spec.md §4.5 "Execution control").
type Scope string

const (
	// ScopeFull runs every node in the plan, layer by layer.
	ScopeFull Scope = "FULL"
	// ScopeFromNode runs StartNode and its descendants; any ancestor of
	// StartNode lacking a valid completed output is executed first (as
	// a mini-plan) and its output propagated into StartNode.inputs.
	// Every node outside StartNode, its ancestors, and its descendants
	// is marked SKIPPED without being invoked.
	ScopeFromNode Scope = "FROM_NODE"
	// ScopeNodeOnly runs exactly StartNode, using its already-recorded
	// Data.Outputs as the substitute for any ancestor it depends on.
	ScopeNodeOnly Scope = "NODE_ONLY"
)

// Control configures one Run call's scope.
type Control struct {
	Scope     Scope
	StartNode string
}

// Validate checks that Control is self-consistent against g: FROM_NODE and
// NODE_ONLY both require an existing StartNode.
func (c Control) Validate(g *flow.Graph) error {
	switch c.Scope {
	case ScopeFull:
		return nil
	case ScopeFromNode, ScopeNodeOnly:
		if c.StartNode == "" {
			return flow.NewError(flow.KindInvalidEdge, "execution control requires a start node for scope "+string(c.Scope), nil)
		}
		if _, ok := g.Node(c.StartNode); !ok {
			return flow.NewError(flow.KindInvalidEdge, "execution control start node not found: "+c.StartNode, nil)
		}
		return nil
	default:
		return flow.NewError(flow.KindInvalidEdge, "unknown execution control scope: "+string(c.Scope), nil)
	}
}
