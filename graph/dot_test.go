package graph

import (
	"strings"
	"testing"

	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

func TestWriteDOTIncludesNodesAndWires(t *testing.T) {
	g := New()
	_, _, outA := newTestNode(t, g, value.Float)
	_, inB, _ := newTestNode(t, g, value.Float)
	if err := g.InsertWire(Wire{ID: ids.NewWireId(), FromSocketID: outA.ID, ToSocketID: inB.ID}); err != nil {
		t.Fatalf("InsertWire: %v", err)
	}

	dot := WriteDOT(g)
	if !strings.HasPrefix(dot, "digraph G {") {
		t.Fatalf("expected digraph header, got %q", dot)
	}
	if !strings.Contains(dot, "->") {
		t.Fatalf("expected an edge in output: %q", dot)
	}
}

func TestWriteDOTEmptyGraph(t *testing.T) {
	dot := WriteDOT(New())
	if !strings.Contains(dot, "digraph G {") || !strings.Contains(dot, "}") {
		t.Fatalf("expected well-formed empty digraph, got %q", dot)
	}
}
