package codec

import (
	"encoding/json"
	"testing"

	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	srcID := ids.NewNodeId()
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: srcID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	src := graph.Node{ID: srcID, Type: "constant", Position: graph.Position{X: 10, Y: 20}, Outputs: []ids.SocketId{out.ID}, Params: map[string]value.Value{"value": value.Number(42)}}
	if err := g.InsertNode(src, []graph.Socket{out}); err != nil {
		t.Fatalf("InsertNode src: %v", err)
	}

	dstID := ids.NewNodeId()
	in := graph.Socket{ID: ids.NewSocketId(), NodeID: dstID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float, Required: true}
	dstOut := graph.Socket{ID: ids.NewSocketId(), NodeID: dstID, Name: "echo", Direction: graph.DirectionOutput, DataType: value.Float}
	dst := graph.Node{ID: dstID, Type: "echo", Position: graph.Position{X: 100, Y: 20}, Inputs: []ids.SocketId{in.ID}, Outputs: []ids.SocketId{dstOut.ID}}
	if err := g.InsertNode(dst, []graph.Socket{in, dstOut}); err != nil {
		t.Fatalf("InsertNode dst: %v", err)
	}

	if err := g.InsertWire(graph.Wire{ID: ids.NewWireId(), FromSocketID: out.ID, ToSocketID: in.ID}); err != nil {
		t.Fatalf("InsertWire: %v", err)
	}

	if err := g.InsertFrame(graph.Frame{ID: ids.NewFrameId(), Title: "group", ExposedInputs: []ids.SocketId{in.ID}}); err != nil {
		t.Fatalf("InsertFrame: %v", err)
	}
	return g
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	g2, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if g2.GraphID != g.GraphID {
		t.Fatalf("graph id mismatch: %q vs %q", g2.GraphID, g.GraphID)
	}
	if len(g2.Nodes()) != len(g.Nodes()) {
		t.Fatalf("node count mismatch: %d vs %d", len(g2.Nodes()), len(g.Nodes()))
	}
	if len(g2.Wires()) != len(g.Wires()) {
		t.Fatalf("wire count mismatch: %d vs %d", len(g2.Wires()), len(g.Wires()))
	}
	if len(g2.Frames()) != len(g.Frames()) {
		t.Fatalf("frame count mismatch: %d vs %d", len(g2.Frames()), len(g.Frames()))
	}

	data2, err := Marshal(g2)
	if err != nil {
		t.Fatalf("re-Marshal: %v", err)
	}
	var a, b map[string]any
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal(data2, &b); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("round-trip document shape changed: %v vs %v", a, b)
	}
}

func TestUnmarshalRepairsMalformedJSON(t *testing.T) {
	g := graph.New()
	nodeID := ids.NewNodeId()
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "constant", Outputs: []ids.SocketId{out.ID}}
	if err := g.InsertNode(n, []graph.Socket{out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Drop the trailing closing brace to simulate a truncated write.
	broken := data[:len(data)-1]

	g2, err := Unmarshal(broken)
	if err != nil {
		t.Fatalf("Unmarshal should repair truncated JSON, got: %v", err)
	}
	if len(g2.Nodes()) != 1 {
		t.Fatalf("expected 1 node after repair, got %d", len(g2.Nodes()))
	}
}

func TestUnmarshalRejectsUnsupportedFutureVersion(t *testing.T) {
	doc := map[string]any{"version": float64(graph.SchemaVersion + 1), "graphId": "graph_x", "nodes": []any{}, "wires": []any{}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	_, err = Unmarshal(data)
	if err == nil {
		t.Fatal("expected an error for an unsupported future version")
	}
	de, ok := err.(*DocumentError)
	if !ok {
		t.Fatalf("expected *DocumentError, got %T", err)
	}
	if de.Reason != ReasonUnsupportedVersion {
		t.Fatalf("expected ReasonUnsupportedVersion, got %v", de.Reason)
	}
}

func TestUnmarshalRejectsMissingVersion(t *testing.T) {
	_, err := Unmarshal([]byte(`{"graphId":"graph_x","nodes":[],"wires":[]}`))
	if err == nil {
		t.Fatal("expected an error for a missing version field")
	}
}
