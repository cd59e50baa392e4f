package command

import (
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// InsertNode adds a node and its sockets. Its inverse is RemoveNode.
type InsertNode struct {
	Node    graph.Node
	Sockets []graph.Socket
}

func (c InsertNode) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	if err := g.InsertNode(c.Node, c.Sockets); err != nil {
		return nil, nil, err
	}
	return RemoveNode{NodeID: c.Node.ID}, []ids.NodeId{c.Node.ID}, nil
}

// RemoveNode deletes a node, cascading to its sockets and any wires touching
// them. Its inverse is insertNodeWithWires, which restores all three.
type RemoveNode struct {
	NodeID ids.NodeId
}

func (c RemoveNode) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	n, sockets, wires, err := g.RemoveNode(c.NodeID)
	if err != nil {
		return nil, nil, err
	}
	affected := wireDownstreamNodes(g, wires)
	return insertNodeWithWires{Node: n, Sockets: sockets, Wires: wires}, affected, nil
}

// insertNodeWithWires is the internal inverse of RemoveNode: it restores a
// node, its sockets, and the wires that were cascade-deleted with it. It is
// unexported because callers never construct it directly; it only ever
// arises as an inverse.
type insertNodeWithWires struct {
	Node    graph.Node
	Sockets []graph.Socket
	Wires   []graph.Wire
}

func (c insertNodeWithWires) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	if err := g.InsertNode(c.Node, c.Sockets); err != nil {
		return nil, nil, err
	}
	for _, w := range c.Wires {
		if err := g.InsertWire(w); err != nil {
			return nil, nil, err
		}
	}
	affected := wireDownstreamNodes(g, c.Wires)
	affected = append(affected, c.Node.ID)
	return RemoveNode{NodeID: c.Node.ID}, affected, nil
}

// InsertWire adds a wire. Its inverse is RemoveWire.
type InsertWire struct {
	Wire graph.Wire
}

func (c InsertWire) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	if err := g.InsertWire(c.Wire); err != nil {
		return nil, nil, err
	}
	affected := wireDownstreamNodes(g, []graph.Wire{c.Wire})
	return RemoveWire{WireID: c.Wire.ID}, affected, nil
}

// RemoveWire deletes a wire. Its inverse is InsertWire.
type RemoveWire struct {
	WireID ids.WireId
}

func (c RemoveWire) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	affected := affectedByWireID(g, c.WireID)
	w, err := g.RemoveWire(c.WireID)
	if err != nil {
		return nil, nil, err
	}
	return InsertWire{Wire: w}, affected, nil
}

// InsertFrame adds a frame. Its inverse is RemoveFrame.
type InsertFrame struct {
	Frame graph.Frame
}

func (c InsertFrame) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	if err := g.InsertFrame(c.Frame); err != nil {
		return nil, nil, err
	}
	return RemoveFrame{FrameID: c.Frame.ID}, nil, nil
}

// RemoveFrame deletes a frame. Its inverse is InsertFrame.
type RemoveFrame struct {
	FrameID ids.FrameId
}

func (c RemoveFrame) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	f, err := g.RemoveFrame(c.FrameID)
	if err != nil {
		return nil, nil, err
	}
	return InsertFrame{Frame: f}, nil, nil
}

// UpdateFrame replaces a frame's metadata wholesale. Its inverse is another
// UpdateFrame carrying the previous metadata.
type UpdateFrame struct {
	Frame graph.Frame
}

func (c UpdateFrame) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	prev, err := g.UpdateFrame(c.Frame)
	if err != nil {
		return nil, nil, err
	}
	return UpdateFrame{Frame: prev}, nil, nil
}

// UpdateSocketMetadata replaces a socket's presentation/validation metadata.
// Its inverse is another UpdateSocketMetadata carrying the previous value.
type UpdateSocketMetadata struct {
	Socket graph.Socket
}

func (c UpdateSocketMetadata) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	prev, err := g.UpdateSocketMetadata(c.Socket)
	if err != nil {
		return nil, nil, err
	}
	return UpdateSocketMetadata{Socket: prev}, nil, nil
}

// UpdateNodeParam sets a single node parameter. Its inverse is another
// UpdateNodeParam carrying the previous value. Parameter changes only mark
// this node and its downstream dirty.
type UpdateNodeParam struct {
	NodeID ids.NodeId
	Key    string
	Value  value.Value
}

func (c UpdateNodeParam) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	prev, err := g.UpdateNodeParam(c.NodeID, c.Key, c.Value)
	if err != nil {
		return nil, nil, err
	}
	return UpdateNodeParam{NodeID: c.NodeID, Key: c.Key, Value: prev}, []ids.NodeId{c.NodeID}, nil
}

// ReplaceNodeIo atomically replaces a node's socket list, cascading to
// remove wires touching any dropped socket. Its inverse restores the
// previous sockets and wires together.
type ReplaceNodeIo struct {
	NodeID     ids.NodeId
	NewInputs  []graph.Socket
	NewOutputs []graph.Socket
}

func (c ReplaceNodeIo) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	oldInputs, oldOutputs := g.NodeSockets(c.NodeID)
	removedSockets, removedWires, err := g.ReplaceNodeIo(c.NodeID, c.NewInputs, c.NewOutputs)
	if err != nil {
		return nil, nil, err
	}
	_ = removedSockets
	affected := wireDownstreamNodes(g, removedWires)
	affected = append(affected, c.NodeID)
	return restoreNodeIo{NodeID: c.NodeID, OldInputs: oldInputs, OldOutputs: oldOutputs, Wires: removedWires}, affected, nil
}

// restoreNodeIo is the internal inverse of ReplaceNodeIo.
type restoreNodeIo struct {
	NodeID    ids.NodeId
	OldInputs []graph.Socket
	OldOutputs []graph.Socket
	Wires     []graph.Wire
}

func (c restoreNodeIo) Apply(g *graph.Graph) (GraphCommand, []ids.NodeId, error) {
	curInputs, curOutputs := g.NodeSockets(c.NodeID)
	if _, _, err := g.ReplaceNodeIo(c.NodeID, c.OldInputs, c.OldOutputs); err != nil {
		return nil, nil, err
	}
	for _, w := range c.Wires {
		if err := g.InsertWire(w); err != nil {
			return nil, nil, err
		}
	}
	affected := wireDownstreamNodes(g, c.Wires)
	affected = append(affected, c.NodeID)
	return ReplaceNodeIo{NodeID: c.NodeID, NewInputs: curInputs, NewOutputs: curOutputs}, affected, nil
}

// wireDownstreamNodes returns the distinct node IDs on the input side of
// each wire, i.e. the nodes whose input was affected by inserting/removing
// these wires.
func wireDownstreamNodes(g *graph.Graph, wires []graph.Wire) []ids.NodeId {
	seen := make(map[ids.NodeId]bool)
	var out []ids.NodeId
	for _, w := range wires {
		s, ok := g.Socket(w.ToSocketID)
		if !ok {
			continue
		}
		if !seen[s.NodeID] {
			seen[s.NodeID] = true
			out = append(out, s.NodeID)
		}
	}
	return out
}

// affectedByWireID looks up the downstream node of a wire before it is
// removed from the store.
func affectedByWireID(g *graph.Graph, wireID ids.WireId) []ids.NodeId {
	w, ok := g.Wire(wireID)
	if !ok {
		return nil
	}
	return wireDownstreamNodes(g, []graph.Wire{w})
}
