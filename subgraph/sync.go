package subgraph

import (
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/command"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// declaredSocket is one entry of a definition's exposed interface: an inner
// socket made visible on the outer subgraph node.
type declaredSocket struct {
	Name     string
	DataType value.DataType
	Ref      SocketRef
}

// DeclaredInterface collects a definition's exposed input and output
// sockets. A definition declares its interface by listing inner sockets in
// any frame's ExposedInputs/ExposedOutputs (graph.Frame already carries
// these fields for the renderer's grouping UI; subgraph promotion reuses
// them as the authoritative outer-socket contract so there is exactly one
// place in a definition that says "this is part of my public shape").
// Sockets are deduplicated by ID and ordered by first appearance.
func DeclaredInterface(doc *codec.GraphDocument) (inputs, outputs []declaredSocket) {
	sockets := make(map[string]SocketDocLookup)
	for _, n := range doc.Nodes {
		for _, s := range n.Inputs {
			sockets[s.ID] = SocketDocLookup{NodeID: ids.NodeId(n.ID), Socket: s}
		}
		for _, s := range n.Outputs {
			sockets[s.ID] = SocketDocLookup{NodeID: ids.NodeId(n.ID), Socket: s}
		}
	}

	seenIn := make(map[string]bool)
	seenOut := make(map[string]bool)
	for _, f := range doc.Frames {
		for _, id := range f.ExposedInputs {
			if seenIn[id] {
				continue
			}
			if look, ok := sockets[id]; ok {
				seenIn[id] = true
				inputs = append(inputs, declaredSocket{Name: look.Socket.Name, DataType: value.DataType(look.Socket.DataType), Ref: SocketRef{NodeID: look.NodeID, SocketID: ids.SocketId(id)}})
			}
		}
		for _, id := range f.ExposedOutputs {
			if seenOut[id] {
				continue
			}
			if look, ok := sockets[id]; ok {
				seenOut[id] = true
				outputs = append(outputs, declaredSocket{Name: look.Socket.Name, DataType: value.DataType(look.Socket.DataType), Ref: SocketRef{NodeID: look.NodeID, SocketID: ids.SocketId(id)}})
			}
		}
	}
	return inputs, outputs
}

// SocketDocLookup pairs a codec.SocketDoc with the inner node ID that owns
// it, so DeclaredInterface can resolve a bare socket ID from a frame's
// exposed list back to its name, type, and owning node.
type SocketDocLookup struct {
	NodeID ids.NodeId
	Socket codec.SocketDoc
}

// promotedSocketType maps a promoted inner field's current value to the
// outer socket type it produces. Promotion is restricted to the scalar and
// vector kinds the parameter model supports; anything else is rejected
// rather than silently coerced.
func promotedSocketType(v value.Value) (value.DataType, error) {
	switch v.Kind() {
	case value.KindNumber:
		return value.Float, nil
	case value.KindBool:
		return value.Bool, nil
	case value.KindArray:
		arr, _ := v.AsArray()
		switch len(arr) {
		case 2:
			return value.Vec2, nil
		case 3:
			return value.Vec3, nil
		case 4:
			return value.Vec4, nil
		}
	}
	return "", fmt.Errorf("subgraph: field value of kind %s is not promotable", v.Kind())
}

// SyncInstance recomputes one subgraph instance's outer sockets and params
// mapping tables from a new definition, preserving wires to sockets whose
// name survives (by reusing the old socket's ID, since wires reference
// sockets by ID) and dropping wires to removed sockets (ReplaceNodeIo
// cascades that deletion and records it for undo). Overrides are left
// untouched: they are scoped to the instance, never derived from the
// definition.
func SyncInstance(g *graph.Graph, mgr *command.Manager, instanceNodeID ids.NodeId, newDef *codec.GraphDocument) error {
	node, ok := g.Node(instanceNodeID)
	if !ok {
		return fmt.Errorf("subgraph: unknown instance node %q", instanceNodeID)
	}
	params, err := ParseParams(node.Params)
	if err != nil {
		return fmt.Errorf("subgraph: parsing instance %q: %w", instanceNodeID, err)
	}

	oldInputs, oldOutputs := g.NodeSockets(instanceNodeID)
	oldInByName := indexByName(oldInputs)
	oldOutByName := indexByName(oldOutputs)

	declaredIn, declaredOut := DeclaredInterface(newDef)

	newInputs := make([]graph.Socket, 0, len(declaredIn)+len(params.PromotedParams))
	newInputRefs := make(map[string]SocketRef, len(declaredIn)+len(params.PromotedParams))
	for _, d := range declaredIn {
		newInputs = append(newInputs, socketFor(d.Name, d.DataType, instanceNodeID, graph.DirectionInput, oldInByName))
		newInputRefs[d.Name] = d.Ref
	}

	newPromoted := make([]PromotedParam, 0, len(params.PromotedParams))
	for _, pp := range params.PromotedParams {
		innerNode := findNodeDoc(newDef, pp.NodeID)
		if innerNode == nil {
			continue // inner node removed in the new definition: drop the promotion
		}
		fieldVal, ok := innerNode.Params[pp.FieldID]
		if !ok {
			continue
		}
		dt, err := promotedSocketType(fieldVal)
		if err != nil {
			return fmt.Errorf("subgraph: promoted param %q: %w", pp.Key, err)
		}
		newInputs = append(newInputs, socketFor(pp.Key, dt, instanceNodeID, graph.DirectionInput, oldInByName))
		newInputRefs[pp.Key] = SocketRef{NodeID: pp.NodeID, SocketID: ""}
		newPromoted = append(newPromoted, pp)
	}

	newOutputs := make([]graph.Socket, 0, len(declaredOut))
	newOutputRefs := make(map[string]SocketRef, len(declaredOut))
	for _, d := range declaredOut {
		newOutputs = append(newOutputs, socketFor(d.Name, d.DataType, instanceNodeID, graph.DirectionOutput, oldOutByName))
		newOutputRefs[d.Name] = d.Ref
	}

	params.Graph = newDef
	params.Inputs = newInputRefs
	params.Outputs = newOutputRefs
	params.PromotedParams = newPromoted

	encoded, err := params.Encode()
	if err != nil {
		return fmt.Errorf("subgraph: encoding synced params: %w", err)
	}

	if _, err := mgr.RecordCommand(command.ReplaceNodeIo{NodeID: instanceNodeID, NewInputs: newInputs, NewOutputs: newOutputs}); err != nil {
		return fmt.Errorf("subgraph: ReplaceNodeIo: %w", err)
	}
	for key, v := range encoded {
		if _, err := mgr.RecordCommand(command.UpdateNodeParam{NodeID: instanceNodeID, Key: key, Value: v}); err != nil {
			return fmt.Errorf("subgraph: updating param %q: %w", key, err)
		}
	}
	return nil
}

// SyncDefinitionChange updates every subgraph instance in g that references
// definitionGraphID, in a single atomic batch.
func SyncDefinitionChange(g *graph.Graph, mgr *command.Manager, definitionGraphID ids.GraphId, newDef *codec.GraphDocument) ([]ids.NodeId, error) {
	var instances []ids.NodeId
	for _, n := range g.Nodes() {
		if n.Type != NodeType {
			continue
		}
		p, err := ParseParams(n.Params)
		if err != nil {
			continue
		}
		if p.Graph.GraphID == string(definitionGraphID) {
			instances = append(instances, n.ID)
		}
	}
	if len(instances) == 0 {
		return nil, nil
	}

	if err := mgr.BeginBatch("sync subgraph definition"); err != nil {
		return nil, err
	}
	for _, instanceID := range instances {
		if err := SyncInstance(g, mgr, instanceID, newDef); err != nil {
			_ = mgr.AbortBatch()
			return nil, err
		}
	}
	if err := mgr.CommitBatch(); err != nil {
		return nil, err
	}
	return instances, nil
}

// ApplyOverrides computes the effective params for one inner node at
// evaluation time: inner.params ⊕ overrides[inner.id] (shallow merge,
// override keys win). The result is a fresh map; neither input is mutated.
func ApplyOverrides(innerParams map[string]value.Value, overrides map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(innerParams)+len(overrides))
	for k, v := range innerParams {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// CheckDepth rejects descending into a subgraph once currentDepth has
// already reached MaxDepth.
func CheckDepth(currentDepth int) error {
	if currentDepth >= MaxDepth {
		return fmt.Errorf("subgraph: maximum nesting depth %d reached", MaxDepth)
	}
	return nil
}

func indexByName(sockets []graph.Socket) map[string]graph.Socket {
	m := make(map[string]graph.Socket, len(sockets))
	for _, s := range sockets {
		m[s.Name] = s
	}
	return m
}

// socketFor builds the outer socket for a declared name/type, reusing the
// previous socket's ID (and thus its wires) if one existed under the same
// name and direction.
func socketFor(name string, dt value.DataType, nodeID ids.NodeId, dir graph.Direction, existing map[string]graph.Socket) graph.Socket {
	if old, ok := existing[name]; ok {
		old.DataType = dt
		return old
	}
	return graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: name, Direction: dir, DataType: dt}
}

func findNodeDoc(doc *codec.GraphDocument, nodeID ids.NodeId) *codec.NodeDoc {
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == string(nodeID) {
			return &doc.Nodes[i]
		}
	}
	return nil
}
