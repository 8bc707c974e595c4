package flow

// ToolDescriptor is what a can_be_tool node exposes to an "agent" node that
// composes sibling nodes as callable tools (spec.md §4.1). It is the
// static, JSON-schema-shaped description of a callable — not the callable
// itself, which remains ProcessTool on the owning node.
//
// Adapted from the teacher's graph/tool.Tool, which couples name+schema to
// a single Call method; here the shape is split so the executor can expose
// the descriptor to a UI or an agent's planning step without holding a
// reference to the node instance.
type ToolDescriptor struct {
	Name        string
	Description string
	// Schema is a JSON-schema-shaped map describing the tool's callable
	// input parameters, built from the owning node's declared inputs.
	Schema map[string]any
}

// BuildToolSchema derives a minimal JSON-schema "properties" map from a
// node's declared inputs — the common case for ToolCapable.BuildTool
// implementations that don't need bespoke schema shaping.
func BuildToolSchema(spec NodeSpec) map[string]any {
	props := make(map[string]any, len(spec.Inputs))
	required := make([]string, 0, len(spec.Inputs))
	for _, h := range spec.Inputs {
		props[h.Name] = map[string]any{
			"type":        string(h.Kind),
			"description": h.UI.Placeholder,
		}
		if h.Required {
			required = append(required, h.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
