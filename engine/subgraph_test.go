package engine

import (
	"context"
	"testing"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/subgraph"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// addParamBDef sums its "a" input with its "b" param, so the override path
// (which targets params, not wires) has something to observe.
func addParamBDef() NodeDef {
	return NodeDef{Compute: func(params map[string]value.Value, inputs map[string]value.Value) (map[string]value.Value, error) {
		a, _ := inputs["a"].AsFloat()
		b, _ := params["b"].AsFloat()
		return map[string]value.Value{"out": value.Number(a + b)}, nil
	}}
}

// TestSubgraphInstanceOverrideReplacesInnerParam is the mandatory named
// scenario: an instance overriding its inner add node's b from 1 to 100,
// fed a=5 from a wired constant, must resolve to 105.
func TestSubgraphInstanceOverrideReplacesInnerParam(t *testing.T) {
	innerG := graph.New()
	innerNodeID := ids.NewNodeId()
	inA := graph.Socket{ID: ids.NewSocketId(), NodeID: innerNodeID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float, Required: true}
	outOut := graph.Socket{ID: ids.NewSocketId(), NodeID: innerNodeID, Name: "out", Direction: graph.DirectionOutput, DataType: value.Float}
	innerNode := graph.Node{
		ID:      innerNodeID,
		Type:    "addParamB",
		Inputs:  []ids.SocketId{inA.ID},
		Outputs: []ids.SocketId{outOut.ID},
		Params:  map[string]value.Value{"b": value.Number(1)},
	}
	if err := innerG.InsertNode(innerNode, []graph.Socket{inA, outOut}); err != nil {
		t.Fatalf("InsertNode inner: %v", err)
	}
	doc := codec.Encode(innerG)

	outerG := graph.New()
	_, constOut := buildConstant(t, outerG, "value", 5)

	instanceNodeID := ids.NewNodeId()
	instIn := graph.Socket{ID: ids.NewSocketId(), NodeID: instanceNodeID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float}
	instOut := graph.Socket{ID: ids.NewSocketId(), NodeID: instanceNodeID, Name: "out", Direction: graph.DirectionOutput, DataType: value.Float}

	sp := &subgraph.Params{
		Graph:   doc,
		Inputs:  map[string]subgraph.SocketRef{"a": {NodeID: innerNodeID, SocketID: inA.ID}},
		Outputs: map[string]subgraph.SocketRef{"out": {NodeID: innerNodeID, SocketID: outOut.ID}},
		Overrides: map[ids.NodeId]map[string]value.Value{
			innerNodeID: {"b": value.Number(100)},
		},
	}
	encoded, err := sp.Encode()
	if err != nil {
		t.Fatalf("Encode subgraph params: %v", err)
	}
	instanceNode := graph.Node{
		ID:      instanceNodeID,
		Type:    subgraph.NodeType,
		Inputs:  []ids.SocketId{instIn.ID},
		Outputs: []ids.SocketId{instOut.ID},
		Params:  encoded,
	}
	if err := outerG.InsertNode(instanceNode, []graph.Socket{instIn, instOut}); err != nil {
		t.Fatalf("InsertNode instance: %v", err)
	}
	if err := outerG.InsertWire(graph.Wire{ID: ids.NewWireId(), FromSocketID: constOut.ID, ToSocketID: instIn.ID}); err != nil {
		t.Fatalf("wire const->instance.a: %v", err)
	}

	cat := NewCatalog()
	cat.Register("constant", constantDef())
	cat.Register("addParamB", addParamBDef())
	e := New(outerG, cat, NewDirtyState(), nil)

	if err := e.RequestOutput(instOut.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	v, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, _ := v.AsFloat()
	if f != 105 {
		t.Fatalf("expected override (b=100) over definition (b=1) with a=5 to give 105, got %v", f)
	}
}
