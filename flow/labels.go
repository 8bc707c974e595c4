package flow

// Node labels the executor and loader treat specially, distinct from a
// node's type name (NodeSpec.Name). A node's Data.Label carries one of
// these (or "") to mark its role in the flow.
//
// Grounded on original_source/backend/src/consts/node_consts.py's
// NODE_LABEL_CONSTS and the router/chat-io special-casing in
// GraphExecutionUtil.py and RunFullStrategy.py.
const (
	LabelRouter     = "router"
	LabelChatInput  = "chat_input"
	LabelChatOutput = "chat_output"
)

// SpecialInputRouterEdgeList is the reserved input key the executor
// injects into a router node's Data.Inputs before running it: a
// comma-joined list of its outgoing edge ids (spec.md §4.6.2).
//
// Grounded on SPECIAL_NODE_INPUT_CONSTS.ROUTER_ROUTE_LABELS in
// original_source/backend/src/consts/node_consts.py.
const SpecialInputRouterEdgeList = "__router_outgoing_edge_ids__"

// ChatOutputMessageInput is the input handle name a chat-output node
// reads its rendered content from (spec.md §4.6.5 FULL strategy).
const ChatOutputMessageInput = "message_in"

// RouterOutput is the shape a router node's packaged output must take
// (spec.md §4.6.4 "Router semantics"). The single-output packaging rule
// in PackageOutputs wraps this struct under the node's sole declared
// output name when Process returns it directly.
type RouterOutput struct {
	RouteValue          any
	RouteLabelDecisions []string // edge ids selected by the router
}
