package flow

import "context"

// ExecutionStatus is the lifecycle state of a node within one run.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "PENDING"
	StatusQueued    ExecutionStatus = "QUEUED"
	StatusRunning   ExecutionStatus = "RUNNING"
	StatusCompleted ExecutionStatus = "COMPLETED"
	StatusFailed    ExecutionStatus = "FAILED"
	StatusSkipped   ExecutionStatus = "SKIPPED"
)

// ParameterSpec describes one named, defaulted configuration value on a
// node — distinct from an input, which may additionally be wired from an
// edge.
type ParameterSpec struct {
	Name        string
	Default     any
	Description string
}

// NodeSpec is a node's immutable declaration: its ports and parameters.
// Per spec.md §3, every declared input/output/parameter name must be
// unique within its own list, and a NodeSpec is immutable after
// construction — NewNodeSpec is therefore the only constructor and it
// validates eagerly.
type NodeSpec struct {
	Name        string
	Description string
	Inputs      []Handle
	Outputs     []Handle
	Parameters  []ParameterSpec
	CanBeTool   bool
	Group       string
	Tags        []string
}

// NewNodeSpec validates name-uniqueness across inputs, outputs, and
// parameters (independently — spec.md only requires uniqueness within
// each own list) and returns an immutable NodeSpec.
func NewNodeSpec(name, description string, inputs, outputs []Handle, params []ParameterSpec, canBeTool bool, group string, tags []string) (NodeSpec, error) {
	if err := assertUniqueHandleNames(inputs); err != nil {
		return NodeSpec{}, err
	}
	if err := assertUniqueHandleNames(outputs); err != nil {
		return NodeSpec{}, err
	}
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p.Name]; dup {
			return NodeSpec{}, NewError(KindOutputShapeMismatch, "duplicate parameter name: "+p.Name, nil)
		}
		seen[p.Name] = struct{}{}
	}
	return NodeSpec{
		Name:        name,
		Description: description,
		Inputs:      append([]Handle(nil), inputs...),
		Outputs:     append([]Handle(nil), outputs...),
		Parameters:  append([]ParameterSpec(nil), params...),
		CanBeTool:   canBeTool,
		Group:       group,
		Tags:        append([]string(nil), tags...),
	}, nil
}

func assertUniqueHandleNames(handles []Handle) error {
	seen := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		if _, dup := seen[h.Name]; dup {
			return NewError(KindOutputShapeMismatch, "duplicate handle name: "+h.Name, nil)
		}
		seen[h.Name] = struct{}{}
	}
	return nil
}

// InputHandle looks up a declared input by name, or ok=false.
func (s NodeSpec) InputHandle(name string) (Handle, bool) {
	for _, h := range s.Inputs {
		if h.Name == name {
			return h, true
		}
	}
	return Handle{}, false
}

// OutputHandle looks up a declared output by name, or ok=false.
func (s NodeSpec) OutputHandle(name string) (Handle, bool) {
	for _, h := range s.Outputs {
		if h.Name == name {
			return h, true
		}
	}
	return Handle{}, false
}

// Data is a node's mutable per-run state: the input/parameter/output value
// maps plus its execution status. Values are untyped (`any`) because the
// wire format (spec.md §6) carries arbitrary JSON-shaped node data; see
// flow/loader for the JSON decoding boundary.
type Data struct {
	Inputs     map[string]any
	Parameters map[string]any
	Outputs    map[string]any
	Status     ExecutionStatus
	// Label identifies special node roles (e.g. "router", "chat_input",
	// "chat_output") that the executor treats specially. It is distinct
	// from NodeSpec.Name, which is the node *type* name.
	Label string
}

// NewData returns a zero-valued Data in PENDING status with initialized
// maps, ready to receive loader-supplied values.
func NewData() Data {
	return Data{
		Inputs:     map[string]any{},
		Parameters: map[string]any{},
		Outputs:    map[string]any{},
		Status:     StatusPending,
	}
}

// Clone returns a copy of d with its own Inputs, Parameters and Outputs
// maps (values are copied shallowly). The executor does not call it:
// Process receives the fresh maps built by ExtractInputs and
// ExtractParameters, not d's own maps.
func (d Data) Clone() Data {
	out := Data{Status: d.Status, Label: d.Label}
	out.Inputs = cloneMap(d.Inputs)
	out.Parameters = cloneMap(d.Parameters)
	out.Outputs = cloneMap(d.Outputs)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Node is the abstract processing unit (spec.md §4.1). Implementations
// supply Spec() once (immutable) and Process() for each invocation; the
// engine is responsible for input/parameter extraction and output
// packaging around Process, per ExtractInputs/ExtractParameters/
// PackageOutputs below.
type Node interface {
	Spec() NodeSpec
	Process(ctx context.Context, inputs map[string]any, params map[string]any) (any, error)
}

// ToolCapable is implemented by nodes with NodeSpec.CanBeTool == true. The
// executor never calls BuildTool/ProcessTool directly — they are consumed
// by agent-style sibling nodes that compose other nodes as tools
// (spec.md §4.1).
type ToolCapable interface {
	Node
	BuildTool(inputs map[string]any, config map[string]any) (ToolDescriptor, error)
	ProcessTool(ctx context.Context, inputs, params, toolInputs map[string]any) (any, error)
}

// ExtractInputs builds the input value map handed to Process: declared
// value if present, else declared default, failing with
// MISSING_REQUIRED_INPUT if a required input has neither.
func ExtractInputs(spec NodeSpec, data Data) (map[string]any, error) {
	out := make(map[string]any, len(spec.Inputs))
	for _, h := range spec.Inputs {
		if v, ok := data.Inputs[h.Name]; ok {
			out[h.Name] = v
			continue
		}
		if h.Default != nil {
			out[h.Name] = h.Default
			continue
		}
		if h.Required {
			return nil, NewError(KindMissingInput, "missing required input: "+h.Name, nil)
		}
		out[h.Name] = nil
	}
	return out, nil
}

// ExtractParameters builds the parameter value map handed to Process:
// declared value if present, else declared default.
func ExtractParameters(spec NodeSpec, data Data) map[string]any {
	out := make(map[string]any, len(spec.Parameters))
	for _, p := range spec.Parameters {
		if v, ok := data.Parameters[p.Name]; ok {
			out[p.Name] = v
			continue
		}
		out[p.Name] = p.Default
	}
	return out
}

// PackageOutputs normalizes a Process() return value into the declared
// output shape (spec.md §4.1):
//   - exactly one declared output: a non-mapping result is wrapped as
//     {output_name: result}; a mapping result must carry that one key.
//   - multiple declared outputs: the result must be a map whose keys are
//     exactly the declared output names — no missing, no extras.
func PackageOutputs(spec NodeSpec, result any) (map[string]any, error) {
	if len(spec.Outputs) == 0 {
		return map[string]any{}, nil
	}
	if len(spec.Outputs) == 1 {
		name := spec.Outputs[0].Name
		if m, ok := result.(map[string]any); ok {
			if len(m) == 1 {
				if v, has := m[name]; has {
					return map[string]any{name: v}, nil
				}
			}
			return nil, NewError(KindOutputShapeMismatch, "single-output node result map must contain exactly key "+name, nil)
		}
		return map[string]any{name: result}, nil
	}

	m, ok := result.(map[string]any)
	if !ok {
		return nil, NewError(KindOutputShapeMismatch, "multi-output node must return a map[string]any", nil)
	}
	out := make(map[string]any, len(spec.Outputs))
	for _, h := range spec.Outputs {
		v, has := m[h.Name]
		if !has {
			return nil, NewError(KindOutputShapeMismatch, "missing declared output: "+h.Name, nil)
		}
		out[h.Name] = v
	}
	if len(m) != len(spec.Outputs) {
		return nil, NewError(KindOutputShapeMismatch, "result map contains undeclared output keys", nil)
	}
	return out, nil
}
