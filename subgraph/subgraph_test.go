package subgraph

import (
	"testing"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/command"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// buildDefinition returns a tiny two-node definition: an "echo" node whose
// input socket is exposed as the definition's outer input "a", and a
// "constant" node whose output is exposed as the outer output "value".
func buildDefinition(t *testing.T) (*codec.GraphDocument, ids.NodeId, ids.SocketId, ids.NodeId, ids.SocketId) {
	t.Helper()
	dg := graph.New()

	echoID := ids.NewNodeId()
	echoIn := graph.Socket{ID: ids.NewSocketId(), NodeID: echoID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float, Required: true}
	echoOut := graph.Socket{ID: ids.NewSocketId(), NodeID: echoID, Name: "echo", Direction: graph.DirectionOutput, DataType: value.Float}
	if err := dg.InsertNode(graph.Node{ID: echoID, Type: "echo", Inputs: []ids.SocketId{echoIn.ID}, Outputs: []ids.SocketId{echoOut.ID}}, []graph.Socket{echoIn, echoOut}); err != nil {
		t.Fatalf("InsertNode echo: %v", err)
	}

	constID := ids.NewNodeId()
	constOut := graph.Socket{ID: ids.NewSocketId(), NodeID: constID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	if err := dg.InsertNode(graph.Node{ID: constID, Type: "constant", Outputs: []ids.SocketId{constOut.ID}, Params: map[string]value.Value{"value": value.Number(5)}}, []graph.Socket{constOut}); err != nil {
		t.Fatalf("InsertNode constant: %v", err)
	}

	if err := dg.InsertFrame(graph.Frame{ID: ids.NewFrameId(), ExposedInputs: []ids.SocketId{echoIn.ID}, ExposedOutputs: []ids.SocketId{constOut.ID}}); err != nil {
		t.Fatalf("InsertFrame: %v", err)
	}

	return codec.Encode(dg), echoID, echoIn.ID, constID, constOut.ID
}

func TestDeclaredInterface(t *testing.T) {
	def, _, _, _, _ := buildDefinition(t)
	inputs, outputs := DeclaredInterface(def)
	if len(inputs) != 1 || inputs[0].Name != "a" || inputs[0].DataType != value.Float {
		t.Fatalf("unexpected declared inputs: %+v", inputs)
	}
	if len(outputs) != 1 || outputs[0].Name != "value" || outputs[0].DataType != value.Float {
		t.Fatalf("unexpected declared outputs: %+v", outputs)
	}
}

// buildInstanceGraph builds an outer graph containing one subgraph instance
// node (already carrying outer sockets "a"/"value" matching the
// definition) plus a downstream "echo" node wired to the instance's output,
// so a sync can be checked for wire preservation.
func buildInstanceGraph(t *testing.T, def *codec.GraphDocument, echoNodeID ids.NodeId, echoInSocketID ids.SocketId, constNodeID ids.NodeId, constOutSocketID ids.SocketId) (*graph.Graph, *command.Manager, ids.NodeId, ids.SocketId, ids.SocketId, ids.NodeId) {
	t.Helper()
	g := graph.New()

	instID := ids.NewNodeId()
	instIn := graph.Socket{ID: ids.NewSocketId(), NodeID: instID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float, Required: true}
	instOut := graph.Socket{ID: ids.NewSocketId(), NodeID: instID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}

	params := &Params{
		Graph:   def,
		Inputs:  map[string]SocketRef{"a": {NodeID: echoNodeID, SocketID: echoInSocketID}},
		Outputs: map[string]SocketRef{"value": {NodeID: constNodeID, SocketID: constOutSocketID}},
	}
	encoded, err := params.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	instNode := graph.Node{ID: instID, Type: NodeType, Inputs: []ids.SocketId{instIn.ID}, Outputs: []ids.SocketId{instOut.ID}, Params: encoded}
	if err := g.InsertNode(instNode, []graph.Socket{instIn, instOut}); err != nil {
		t.Fatalf("InsertNode instance: %v", err)
	}

	downstreamID := ids.NewNodeId()
	downIn := graph.Socket{ID: ids.NewSocketId(), NodeID: downstreamID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float}
	downOut := graph.Socket{ID: ids.NewSocketId(), NodeID: downstreamID, Name: "echo", Direction: graph.DirectionOutput, DataType: value.Float}
	if err := g.InsertNode(graph.Node{ID: downstreamID, Type: "echo", Inputs: []ids.SocketId{downIn.ID}, Outputs: []ids.SocketId{downOut.ID}}, []graph.Socket{downIn, downOut}); err != nil {
		t.Fatalf("InsertNode downstream: %v", err)
	}
	if err := g.InsertWire(graph.Wire{ID: ids.NewWireId(), FromSocketID: instOut.ID, ToSocketID: downIn.ID}); err != nil {
		t.Fatalf("InsertWire: %v", err)
	}

	mgr := command.NewManager(g)
	return g, mgr, instID, instIn.ID, instOut.ID, downstreamID
}

func TestSyncInstancePreservesWireOnUnchangedInterface(t *testing.T) {
	def, echoID, echoInID, constID, constOutID := buildDefinition(t)
	g, mgr, instID, _, instOutID, downstreamID := buildInstanceGraph(t, def, echoID, echoInID, constID, constOutID)

	if err := mgr.BeginBatch("sync"); err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if err := SyncInstance(g, mgr, instID, def); err != nil {
		t.Fatalf("SyncInstance: %v", err)
	}
	if err := mgr.CommitBatch(); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	downstreamInputs, _ := g.NodeSockets(downstreamID)
	w, ok := g.IncomingWire(downstreamInputs[0].ID)
	if !ok {
		t.Fatal("expected the downstream wire to survive a no-op sync")
	}
	if w.FromSocketID != instOutID {
		t.Fatalf("expected wire to still originate from %v, got %v", instOutID, w.FromSocketID)
	}
}

func TestSyncInstanceDropsWireToRemovedSocket(t *testing.T) {
	def, echoID, echoInID, constID, constOutID := buildDefinition(t)
	g, mgr, instID, _, instOutID, downstreamID := buildInstanceGraph(t, def, echoID, echoInID, constID, constOutID)

	// A new definition that no longer exposes the output: drop the frame.
	dg2 := graph.New()
	echoIn2 := graph.Socket{ID: ids.NewSocketId(), NodeID: echoID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float}
	if err := dg2.InsertNode(graph.Node{ID: echoID, Type: "echo", Inputs: []ids.SocketId{echoIn2.ID}}, []graph.Socket{echoIn2}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if err := dg2.InsertFrame(graph.Frame{ID: ids.NewFrameId(), ExposedInputs: []ids.SocketId{echoIn2.ID}}); err != nil {
		t.Fatalf("InsertFrame: %v", err)
	}
	newDef := codec.Encode(dg2)

	if err := mgr.BeginBatch("sync"); err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if err := SyncInstance(g, mgr, instID, newDef); err != nil {
		t.Fatalf("SyncInstance: %v", err)
	}
	if err := mgr.CommitBatch(); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	_, outputs := g.NodeSockets(instID)
	if len(outputs) != 0 {
		t.Fatalf("expected the dropped output socket to be gone, got %+v", outputs)
	}
	inputs, _ := g.NodeSockets(downstreamID)
	if _, ok := g.IncomingWire(inputs[0].ID); ok {
		t.Fatal("expected the wire from the removed output to be dropped")
	}
	_ = instOutID
}

func TestApplyOverridesShallowMerge(t *testing.T) {
	inner := map[string]value.Value{"scale": value.Number(1), "offset": value.Number(0)}
	overrides := map[string]value.Value{"scale": value.Number(2)}
	merged := ApplyOverrides(inner, overrides)
	f, _ := merged["scale"].AsFloat()
	if f != 2 {
		t.Fatalf("expected override to win, got %v", f)
	}
	f, _ = merged["offset"].AsFloat()
	if f != 0 {
		t.Fatalf("expected non-overridden key preserved, got %v", f)
	}
	if _, ok := inner["scale"]; !ok {
		t.Fatal("ApplyOverrides must not mutate its inputs")
	}
}

func TestCheckDepthRejectsAtLimit(t *testing.T) {
	if err := CheckDepth(MaxDepth - 1); err != nil {
		t.Fatalf("expected depth %d to be allowed: %v", MaxDepth-1, err)
	}
	if err := CheckDepth(MaxDepth); err == nil {
		t.Fatal("expected depth at the limit to be rejected")
	}
}

func TestParamsRoundTrip(t *testing.T) {
	def, echoID, echoInID, constID, constOutID := buildDefinition(t)
	params := &Params{
		Graph:          def,
		Inputs:         map[string]SocketRef{"a": {NodeID: echoID, SocketID: echoInID}},
		Outputs:        map[string]SocketRef{"value": {NodeID: constID, SocketID: constOutID}},
		PromotedParams: []PromotedParam{{Key: "scale", NodeID: constID, FieldID: "value"}},
		Overrides:      map[ids.NodeId]map[string]value.Value{constID: {"value": value.Number(9)}},
	}
	encoded, err := params.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := ParseParams(encoded)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if back.Graph.GraphID != def.GraphID {
		t.Fatalf("graph id mismatch: %v vs %v", back.Graph.GraphID, def.GraphID)
	}
	if back.Inputs["a"].NodeID != echoID {
		t.Fatalf("inputs mismatch: %+v", back.Inputs)
	}
	if len(back.PromotedParams) != 1 || back.PromotedParams[0].Key != "scale" {
		t.Fatalf("promoted params mismatch: %+v", back.PromotedParams)
	}
	v, _ := back.Overrides[constID]["value"].AsFloat()
	if v != 9 {
		t.Fatalf("overrides mismatch: %+v", back.Overrides)
	}
}
