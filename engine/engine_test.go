package engine

import (
	"context"
	"testing"

	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// constantDef produces a fixed number on its "value" output, read from the
// node's "value" param.
func constantDef() NodeDef {
	return NodeDef{Compute: func(params map[string]value.Value, inputs map[string]value.Value) (map[string]value.Value, error) {
		v, _ := params["value"].AsFloat()
		return map[string]value.Value{"value": value.Number(v)}, nil
	}}
}

// addDef sums its "a" and "b" inputs on the "sum" output.
func addDef() NodeDef {
	return NodeDef{Compute: func(params map[string]value.Value, inputs map[string]value.Value) (map[string]value.Value, error) {
		a, _ := inputs["a"].AsFloat()
		b, _ := inputs["b"].AsFloat()
		return map[string]value.Value{"sum": value.Number(a + b)}, nil
	}}
}

func buildConstant(t *testing.T, g *graph.Graph, outName string, v float64) (graph.Node, graph.Socket) {
	t.Helper()
	nodeID := ids.NewNodeId()
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: outName, Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "constant", Outputs: []ids.SocketId{out.ID}, Params: map[string]value.Value{"value": value.Number(v)}}
	if err := g.InsertNode(n, []graph.Socket{out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	return n, out
}

func TestRequestOutputEvaluatesConstant(t *testing.T) {
	g := graph.New()
	_, out := buildConstant(t, g, "value", 7)

	cat := NewCatalog()
	cat.Register("constant", constantDef())
	e := New(g, cat, NewDirtyState(), nil)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	v, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, _ := v.AsFloat()
	if f != 7 {
		t.Fatalf("expected 7, got %v", f)
	}
}

func TestRequestOutputAddWiredConstants(t *testing.T) {
	g := graph.New()
	_, outA := buildConstant(t, g, "value", 3)
	_, outB := buildConstant(t, g, "value", 4)

	sumNodeID := ids.NewNodeId()
	inA := graph.Socket{ID: ids.NewSocketId(), NodeID: sumNodeID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float}
	inB := graph.Socket{ID: ids.NewSocketId(), NodeID: sumNodeID, Name: "b", Direction: graph.DirectionInput, DataType: value.Float}
	outSum := graph.Socket{ID: ids.NewSocketId(), NodeID: sumNodeID, Name: "sum", Direction: graph.DirectionOutput, DataType: value.Float}
	sumNode := graph.Node{ID: sumNodeID, Type: "add", Inputs: []ids.SocketId{inA.ID, inB.ID}, Outputs: []ids.SocketId{outSum.ID}}
	if err := g.InsertNode(sumNode, []graph.Socket{inA, inB, outSum}); err != nil {
		t.Fatalf("InsertNode sum: %v", err)
	}
	if err := g.InsertWire(graph.Wire{ID: ids.NewWireId(), FromSocketID: outA.ID, ToSocketID: inA.ID}); err != nil {
		t.Fatalf("wire A: %v", err)
	}
	if err := g.InsertWire(graph.Wire{ID: ids.NewWireId(), FromSocketID: outB.ID, ToSocketID: inB.ID}); err != nil {
		t.Fatalf("wire B: %v", err)
	}

	cat := NewCatalog()
	cat.Register("constant", constantDef())
	cat.Register("add", addDef())
	state := NewDirtyState()
	e := New(g, cat, state, nil)

	if err := e.RequestOutput(outSum.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	v, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, _ := v.AsFloat()
	if f != 7 {
		t.Fatalf("expected 3+4=7, got %v", f)
	}
	if state.IsDirty(sumNodeID) {
		t.Fatal("sum node should no longer be dirty after a fresh evaluation")
	}
}

func TestMemoizedNodeNotReEvaluated(t *testing.T) {
	g := graph.New()
	callCount := 0
	nodeID := ids.NewNodeId()
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "counting", Outputs: []ids.SocketId{out.ID}}
	if err := g.InsertNode(n, []graph.Socket{out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	cat := NewCatalog()
	cat.Register("counting", NodeDef{Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
		callCount++
		return map[string]value.Value{"value": value.Number(1)}, nil
	}})
	e := New(g, cat, NewDirtyState(), nil)

	for i := 0; i < 3; i++ {
		if err := e.RequestOutput(out.ID); err != nil {
			t.Fatalf("RequestOutput: %v", err)
		}
		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if callCount != 1 {
		t.Fatalf("expected compute to run once, ran %d times", callCount)
	}
}

func TestMissingRequiredInputUsesZeroAndWarns(t *testing.T) {
	g := graph.New()
	nodeID := ids.NewNodeId()
	in := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "a", Direction: graph.DirectionInput, DataType: value.Float, Required: true}
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "echo", Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "echo", Inputs: []ids.SocketId{in.ID}, Outputs: []ids.SocketId{out.ID}}
	if err := g.InsertNode(n, []graph.Socket{in, out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	cat := NewCatalog()
	cat.Register("echo", NodeDef{Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
		return map[string]value.Value{"echo": inputs["a"]}, nil
	}})
	state := NewDirtyState()
	e := New(g, cat, state, nil)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	v, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, _ := v.AsFloat()
	if f != 0 {
		t.Fatalf("expected zero-value substitution, got %v", f)
	}
	errs := state.NodeErrors(nodeID)
	if len(errs) != 1 {
		t.Fatalf("expected one warning, got %v", errs)
	}
	if _, ok := errs[0].(*MissingRequiredInput); !ok {
		t.Fatalf("expected MissingRequiredInput, got %T", errs[0])
	}
}

func TestNodeComputeFailedHaltsRun(t *testing.T) {
	g := graph.New()
	nodeID := ids.NewNodeId()
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "failing", Outputs: []ids.SocketId{out.ID}}
	if err := g.InsertNode(n, []graph.Socket{out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	cat := NewCatalog()
	cat.Register("failing", NodeDef{Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
		return nil, errFailingCompute
	}})
	e := New(g, cat, NewDirtyState(), nil)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	_, err := e.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*NodeComputeFailed); !ok {
		t.Fatalf("expected NodeComputeFailed, got %T", err)
	}
}

func TestBypassPassesCompatibleInputThrough(t *testing.T) {
	g := graph.New()
	nodeID := ids.NewNodeId()
	in := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "value", Direction: graph.DirectionInput, DataType: value.Float, DefaultValue: valuePtr(value.Number(9))}
	out := graph.Socket{ID: ids.NewSocketId(), NodeID: nodeID, Name: "value", Direction: graph.DirectionOutput, DataType: value.Float}
	n := graph.Node{ID: nodeID, Type: "identity", Inputs: []ids.SocketId{in.ID}, Outputs: []ids.SocketId{out.ID}}
	if err := g.InsertNode(n, []graph.Socket{in, out}); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	cat := NewCatalog()
	cat.Register("identity", NodeDef{Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
		t.Fatal("compute should not run for a bypassed node")
		return nil, nil
	}})
	e := New(g, cat, NewDirtyState(), nil)
	e.SetBypassed(nodeID, true)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	v, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, _ := v.AsFloat()
	if f != 9 {
		t.Fatalf("expected default 9 passed through, got %v", f)
	}
}

func TestCancelEvaluationSurfacesExecutionCanceled(t *testing.T) {
	g := graph.New()
	_, out := buildConstant(t, g, "value", 1)
	cat := NewCatalog()
	cat.Register("constant", constantDef())
	e := New(g, cat, NewDirtyState(), nil)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	e.CancelEvaluation()
	r := e.Step(context.Background())
	if !r.Done {
		t.Fatal("expected Done after cancellation")
	}
	if _, ok := r.Err.(*ExecutionCanceled); !ok {
		t.Fatalf("expected ExecutionCanceled, got %v", r.Err)
	}
}

func TestClearOutputResetsState(t *testing.T) {
	g := graph.New()
	_, out := buildConstant(t, g, "value", 1)
	cat := NewCatalog()
	cat.Register("constant", constantDef())
	e := New(g, cat, NewDirtyState(), nil)

	if err := e.RequestOutput(out.ID); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	e.ClearOutput()
	if !e.OutputValue().IsNull() {
		t.Fatal("expected null output value after clear")
	}
	if e.OutputError() != nil {
		t.Fatal("expected nil output error after clear")
	}
}

func valuePtr(v value.Value) *value.Value { return &v }

var errFailingCompute = &testComputeError{"boom"}

type testComputeError struct{ msg string }

func (e *testComputeError) Error() string { return e.msg }
