package flow

import "strings"

// HandleKind is a closed, tagged variant of the semantic types a handle can
// carry (spec.md §3, Design Note "Dynamic/duck-typed handles"). The source
// system represents this with loose pydantic subclasses; here it is a
// closed enum so the adapter matrix (flow/adapt) can be a total function
// over (HandleKind, HandleKind) pairs.
type HandleKind string

const (
	HandleText              HandleKind = "text"
	HandleNumber            HandleKind = "number"
	HandleBoolean           HandleKind = "boolean"
	HandleDropdown          HandleKind = "dropdown"
	HandleSecret            HandleKind = "secret"
	HandleFile              HandleKind = "file"
	HandleDynamicType       HandleKind = "dynamic_type"
	HandleTable             HandleKind = "table"
	HandleKeyValue          HandleKind = "key_value"
	HandleToolableJSON      HandleKind = "toolable_json"
	HandleLLMProvider       HandleKind = "llm_provider"
	HandleEmbeddingProvider HandleKind = "embedding_provider"
	HandleRouterOutput      HandleKind = "router_output"
	HandleAgentTool         HandleKind = "agent_tool"
)

// ResolverKind tags how an input handle's UI options are produced. The
// engine never invokes resolvers itself (spec.md Design Notes) — this is
// surfaced to the UI as a JSON-schema-shaped descriptor only.
type ResolverKind string

const (
	ResolverStatic      ResolverKind = "static"
	ResolverHTTP        ResolverKind = "http"
	ResolverConditional ResolverKind = "conditional"
)

// ResolverDescriptor describes how an input's option list should be
// resolved by a client, not by the engine.
type ResolverDescriptor struct {
	Kind ResolverKind
	// Static holds the fixed option list when Kind == ResolverStatic.
	Static []Option
	// Endpoint is the HTTP endpoint template when Kind == ResolverHTTP.
	Endpoint string
	// DependsOn names sibling input handles whose value changes the
	// resolved options when Kind == ResolverConditional.
	DependsOn []string
}

// Option is a single selectable value for dropdown-like handles.
type Option struct {
	Label string
	Value any
}

// UIHints carries presentation metadata that has no bearing on execution
// semantics but must round-trip through the loader for the UI's benefit.
type UIHints struct {
	Placeholder string
	Min, Max    *float64
	Options     []Option
}

// Handle describes one port (input or output) on a node spec.
type Handle struct {
	Name string
	Kind HandleKind
	UI   UIHints

	// Input-only fields. Zero-valued and ignored on an output handle.
	AllowIncomingEdges         bool
	AllowMultipleIncomingEdges bool
	HideInputField             bool
	Resolver                   *ResolverDescriptor
	Required                   bool
	Default                    any

	// Output-only field.
	EnableForTool bool
}

// StripHandleIndexSuffix removes a trailing "-index<N>" disambiguator from
// a handle name, per spec.md §3/§6. Edges may reference a handle as
// "value-index2"; the loader and executor both match against the
// stripped form.
func StripHandleIndexSuffix(name string) string {
	i := strings.LastIndex(name, "-index")
	if i < 0 {
		return name
	}
	suffix := name[i+len("-index"):]
	if suffix == "" {
		return name
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[:i]
}
