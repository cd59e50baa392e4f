// Package subgraph implements subgraph-node expansion, definition/instance
// synchronization, parameter promotion, and the navigation breadcrumb
// write-back. A subgraph node is an ordinary graph.Node of Type "subgraph"
// whose Params carry the recognized shape below as a value.Object; this
// package is the only place that interprets that shape.
package subgraph

import (
	"encoding/json"
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// NodeType is the recognized Node.Type value for subgraph instances.
const NodeType = "subgraph"

// MaxDepth is the default limit on subgraph nesting.
const MaxDepth = 8

// SocketRef points at a socket inside a subgraph's embedded definition.
type SocketRef struct {
	NodeID   ids.NodeId
	SocketID ids.SocketId
}

// PromotedParam surfaces an inner node's parameter field as an additional
// outer input socket.
type PromotedParam struct {
	Key     string
	NodeID  ids.NodeId
	FieldID string
}

// Params is the parsed form of a subgraph node's recognized params shape.
type Params struct {
	Graph          *codec.GraphDocument
	Inputs         map[string]SocketRef
	Outputs        map[string]SocketRef
	PromotedParams []PromotedParam
	Overrides      map[ids.NodeId]map[string]value.Value
}

// ParseParams extracts the recognized subgraph shape from a node's raw
// Params map. Missing optional fields (promotedParams, overrides) are left
// empty/nil rather than erroring.
func ParseParams(raw map[string]value.Value) (*Params, error) {
	graphVal, ok := raw["graph"]
	if !ok {
		return nil, fmt.Errorf("subgraph: params.graph is required")
	}
	doc, err := decodeDocument(graphVal)
	if err != nil {
		return nil, fmt.Errorf("subgraph: params.graph: %w", err)
	}

	inputs, err := decodeSocketRefMap(raw["inputs"])
	if err != nil {
		return nil, fmt.Errorf("subgraph: params.inputs: %w", err)
	}
	outputs, err := decodeSocketRefMap(raw["outputs"])
	if err != nil {
		return nil, fmt.Errorf("subgraph: params.outputs: %w", err)
	}
	promoted, err := decodePromotedParams(raw["promotedParams"])
	if err != nil {
		return nil, fmt.Errorf("subgraph: params.promotedParams: %w", err)
	}
	overrides, err := decodeOverrides(raw["overrides"])
	if err != nil {
		return nil, fmt.Errorf("subgraph: params.overrides: %w", err)
	}

	return &Params{
		Graph:          doc,
		Inputs:         inputs,
		Outputs:        outputs,
		PromotedParams: promoted,
		Overrides:      overrides,
	}, nil
}

// Encode packs Params back into the raw node-params representation.
func (p *Params) Encode() (map[string]value.Value, error) {
	graphVal, err := encodeDocument(p.Graph)
	if err != nil {
		return nil, fmt.Errorf("subgraph: encoding graph: %w", err)
	}
	out := map[string]value.Value{
		"graph":   graphVal,
		"inputs":  encodeSocketRefMap(p.Inputs),
		"outputs": encodeSocketRefMap(p.Outputs),
	}
	if len(p.PromotedParams) > 0 {
		out["promotedParams"] = encodePromotedParams(p.PromotedParams)
	}
	if len(p.Overrides) > 0 {
		out["overrides"] = encodeOverrides(p.Overrides)
	}
	return out, nil
}

func decodeDocument(v value.Value) (*codec.GraphDocument, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc codec.GraphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func encodeDocument(doc *codec.GraphDocument) (value.Value, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return value.Null(), err
	}
	var v value.Value
	if err := v.UnmarshalJSON(data); err != nil {
		return value.Null(), err
	}
	return v, nil
}

func decodeSocketRefMap(v value.Value) (map[string]SocketRef, error) {
	if v.IsNull() {
		return map[string]SocketRef{}, nil
	}
	obj, err := v.AsObject()
	if err != nil {
		return nil, err
	}
	out := make(map[string]SocketRef, len(obj))
	for name, entry := range obj {
		fields, err := entry.AsObject()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		nodeID, _ := fields["nodeId"].AsString()
		socketID, _ := fields["socketId"].AsString()
		out[name] = SocketRef{NodeID: ids.NodeId(nodeID), SocketID: ids.SocketId(socketID)}
	}
	return out, nil
}

func encodeSocketRefMap(m map[string]SocketRef) value.Value {
	obj := make(map[string]value.Value, len(m))
	for name, ref := range m {
		obj[name] = value.Object(map[string]value.Value{
			"nodeId":   value.String(string(ref.NodeID)),
			"socketId": value.String(string(ref.SocketID)),
		})
	}
	return value.Object(obj)
}

func decodePromotedParams(v value.Value) ([]PromotedParam, error) {
	if v.IsNull() {
		return nil, nil
	}
	arr, err := v.AsArray()
	if err != nil {
		return nil, err
	}
	out := make([]PromotedParam, 0, len(arr))
	for _, item := range arr {
		fields, err := item.AsObject()
		if err != nil {
			return nil, err
		}
		key, _ := fields["key"].AsString()
		nodeID, _ := fields["nodeId"].AsString()
		fieldID, _ := fields["fieldId"].AsString()
		out = append(out, PromotedParam{Key: key, NodeID: ids.NodeId(nodeID), FieldID: fieldID})
	}
	return out, nil
}

func encodePromotedParams(params []PromotedParam) value.Value {
	arr := make([]value.Value, len(params))
	for i, p := range params {
		arr[i] = value.Object(map[string]value.Value{
			"key":     value.String(p.Key),
			"nodeId":  value.String(string(p.NodeID)),
			"fieldId": value.String(p.FieldID),
		})
	}
	return value.Array(arr...)
}

func decodeOverrides(v value.Value) (map[ids.NodeId]map[string]value.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	obj, err := v.AsObject()
	if err != nil {
		return nil, err
	}
	out := make(map[ids.NodeId]map[string]value.Value, len(obj))
	for nodeID, fields := range obj {
		fieldObj, err := fields.AsObject()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", nodeID, err)
		}
		out[ids.NodeId(nodeID)] = fieldObj
	}
	return out, nil
}

func encodeOverrides(overrides map[ids.NodeId]map[string]value.Value) value.Value {
	obj := make(map[string]value.Value, len(overrides))
	for nodeID, fields := range overrides {
		obj[string(nodeID)] = value.Object(fields)
	}
	return value.Object(obj)
}
