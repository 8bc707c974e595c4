package loader

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/flowgraph/runtime/flow"
	"github.com/flowgraph/runtime/flow/adapt"
)

// Load turns a validated Request into a typed flow.Graph (spec.md §4.3):
//  1. For each node record, look up its type in reg — UNKNOWN_NODE_TYPE if
//     absent — instantiate, attach Data, and add it to the graph.
//  2. Apply the chat-input override, if present, to the first node
//     labeled chat_input.
//  3. For each edge record, strip handle-index suffixes and delegate
//     connection validation to flow.Graph.AddEdge, additionally checking
//     handle-kind compatibility against adapters.
func Load(reg *Registry, adapters *adapt.Registry, req Request) (*flow.Graph, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	g := flow.NewGraph()
	for _, nr := range req.Nodes {
		node, ok := reg.New(nr.Type)
		if !ok {
			return nil, flow.NewNodeError(flow.KindUnknownNodeType, nr.ID, "unknown node type: "+nr.Type, nil)
		}
		data := flow.NewData()
		for k, v := range nr.Data.InputValues {
			data.Inputs[k] = v
		}
		for k, v := range nr.Data.Parameters {
			data.Parameters[k] = v
		}
		data.Label = nr.Data.Label
		if err := g.AddNode(nr.ID, node, data); err != nil {
			return nil, err
		}
	}

	if req.ChatInputOverride != nil {
		if err := applyChatInputOverride(g, req.Nodes, *req.ChatInputOverride); err != nil {
			return nil, err
		}
	}

	for _, er := range req.Edges {
		sourceNode, ok := g.Node(er.Source)
		if !ok {
			return nil, flow.NewError(flow.KindInvalidEdge, "edge references unknown source node: "+er.Source, nil)
		}
		targetNode, ok := g.Node(er.Target)
		if !ok {
			return nil, flow.NewError(flow.KindInvalidEdge, "edge references unknown target node: "+er.Target, nil)
		}
		sourceHandle, ok := sourceNode.Spec.OutputHandle(flow.StripHandleIndexSuffix(er.SourceHandle))
		if !ok {
			return nil, flow.NewError(flow.KindInvalidEdge, "source handle not found: "+er.SourceHandle, nil)
		}
		targetHandle, ok := targetNode.Spec.InputHandle(flow.StripHandleIndexSuffix(er.TargetHandle))
		if !ok {
			return nil, flow.NewError(flow.KindInvalidEdge, "target handle not found: "+er.TargetHandle, nil)
		}
		if !adapters.Compatible(sourceHandle.Kind, targetHandle.Kind) {
			return nil, flow.NewError(flow.KindInvalidEdge, "incompatible handle kinds: "+string(sourceHandle.Kind)+" -> "+string(targetHandle.Kind), nil)
		}
		edge := flow.Edge{
			ID:           er.ID,
			SourceNodeID: er.Source,
			SourceHandle: er.SourceHandle,
			TargetNodeID: er.Target,
			TargetHandle: er.TargetHandle,
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// LoadJSON decodes a raw request body and loads it. Before decoding, if
// the body carries a top-level "chat_input_override", that value is
// written via gjson/sjson into data.input_values.message of the first
// node whose data.label is chat_input; the same key also decodes into
// Request.ChatInputOverride, which Load then applies as well.
func LoadJSON(reg *Registry, adapters *adapt.Registry, raw []byte) (*flow.Graph, error) {
	patched := raw
	if override := gjson.GetBytes(raw, "chat_input_override"); override.Exists() {
		nodes := gjson.GetBytes(raw, "nodes")
		nodes.ForEach(func(key, node gjson.Result) bool {
			if node.Get("data.label").String() != flow.LabelChatInput {
				return true
			}
			idx := key.String()
			path := "nodes." + idx + ".data.input_values.message"
			next, err := sjson.SetBytes(patched, path, override.Value())
			if err == nil {
				patched = next
			}
			return false
		})
	}

	var req Request
	if err := json.Unmarshal(patched, &req); err != nil {
		return nil, flow.NewError(flow.KindInvalidEdge, "malformed request body: "+err.Error(), err)
	}
	return Load(reg, adapters, req)
}

func applyChatInputOverride(g *flow.Graph, nodes []NodeRecord, override string) error {
	for _, nr := range nodes {
		if nr.Data.Label != flow.LabelChatInput {
			continue
		}
		entry, ok := g.Node(nr.ID)
		if !ok {
			continue
		}
		entry.Data.Inputs["message"] = override
		return nil
	}
	return nil
}
