package graph

import (
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// InsertNode adds a fully-formed node and its sockets to the graph. Callers
// (the command layer) are responsible for generating IDs up front so that a
// command's invert can recreate the exact same IDs on redo. InsertNode
// returns a ValidationError if the node ID is already in use or any socket
// references a NodeID other than n.ID.
func (g *Graph) InsertNode(n Node, sockets []Socket) error {
	if _, exists := g.nodes[n.ID]; exists {
		return newValidationError(ReasonUnknownNode, "node %s already exists", n.ID)
	}
	for _, s := range sockets {
		if s.NodeID != n.ID {
			return newValidationError(ReasonUnknownSocket, "socket %s does not belong to node %s", s.ID, n.ID)
		}
	}
	g.nodes[n.ID] = n.Clone()
	for _, s := range sockets {
		g.sockets[s.ID] = s.Clone()
	}
	return nil
}

// RemoveNode deletes a node, its sockets, and cascades to delete any wire
// touching one of those sockets. It returns the removed entities so the
// command layer can build an exact inverse.
func (g *Graph) RemoveNode(id ids.NodeId) (Node, []Socket, []Wire, error) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, nil, nil, newValidationError(ReasonUnknownNode, "node %s not found", id)
	}

	var removedSockets []Socket
	socketIDs := append(append([]ids.SocketId(nil), n.Inputs...), n.Outputs...)
	for _, sid := range socketIDs {
		if s, ok := g.sockets[sid]; ok {
			removedSockets = append(removedSockets, s)
		}
	}

	var removedWires []Wire
	socketSet := make(map[ids.SocketId]bool, len(socketIDs))
	for _, sid := range socketIDs {
		socketSet[sid] = true
	}
	for wid, w := range g.wires {
		if socketSet[w.FromSocketID] || socketSet[w.ToSocketID] {
			removedWires = append(removedWires, w)
			delete(g.wires, wid)
		}
	}

	for _, sid := range socketIDs {
		delete(g.sockets, sid)
	}
	delete(g.nodes, id)

	return n.Clone(), removedSockets, removedWires, nil
}

// InsertWire adds a wire, validating it with CheckWireCompatible first.
func (g *Graph) InsertWire(w Wire) error {
	if err := g.CheckWireCompatible(w.FromSocketID, w.ToSocketID); err != nil {
		return err
	}
	g.wires[w.ID] = w
	return nil
}

// RemoveWire deletes a wire by ID, returning the removed wire for invert.
func (g *Graph) RemoveWire(id ids.WireId) (Wire, error) {
	w, ok := g.wires[id]
	if !ok {
		return Wire{}, newValidationError(ReasonUnknownWire, "wire %s not found", id)
	}
	delete(g.wires, id)
	return w, nil
}

// InsertFrame adds a new frame.
func (g *Graph) InsertFrame(f Frame) error {
	if _, exists := g.frames[f.ID]; exists {
		return newValidationError(ReasonUnknownFrame, "frame %s already exists", f.ID)
	}
	g.frames[f.ID] = f.Clone()
	return nil
}

// RemoveFrame deletes a frame by ID (frames never own nodes, so there is no
// cascade), returning the removed frame for invert.
func (g *Graph) RemoveFrame(id ids.FrameId) (Frame, error) {
	f, ok := g.frames[id]
	if !ok {
		return Frame{}, newValidationError(ReasonUnknownFrame, "frame %s not found", id)
	}
	delete(g.frames, id)
	return f, nil
}

// UpdateFrame replaces a frame's metadata wholesale, returning the previous
// value for invert.
func (g *Graph) UpdateFrame(f Frame) (Frame, error) {
	prev, ok := g.frames[f.ID]
	if !ok {
		return Frame{}, newValidationError(ReasonUnknownFrame, "frame %s not found", f.ID)
	}
	g.frames[f.ID] = f.Clone()
	return prev, nil
}

// UpdateSocketMetadata replaces a socket's presentation/validation metadata
// (label, numeric format, min/max connections) without touching its wires,
// returning the previous value for invert.
func (g *Graph) UpdateSocketMetadata(s Socket) (Socket, error) {
	prev, ok := g.sockets[s.ID]
	if !ok {
		return Socket{}, newValidationError(ReasonUnknownSocket, "socket %s not found", s.ID)
	}
	g.sockets[s.ID] = s.Clone()
	return prev, nil
}

// ReplaceNodeIo atomically replaces a node's socket list, e.g. after
// reconfiguring which variant of a node type is active. Any existing
// socket whose ID is not present in newInputs/newOutputs is removed,
// cascading to delete wires touching it. It returns the removed sockets
// and wires for invert.
func (g *Graph) ReplaceNodeIo(nodeID ids.NodeId, newInputs, newOutputs []Socket) ([]Socket, []Wire, error) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return nil, nil, newValidationError(ReasonUnknownNode, "node %s not found", nodeID)
	}
	for _, s := range append(append([]Socket(nil), newInputs...), newOutputs...) {
		if s.NodeID != nodeID {
			return nil, nil, newValidationError(ReasonUnknownSocket, "socket %s does not belong to node %s", s.ID, nodeID)
		}
	}

	keep := make(map[ids.SocketId]bool)
	for _, s := range newInputs {
		keep[s.ID] = true
	}
	for _, s := range newOutputs {
		keep[s.ID] = true
	}

	oldSocketIDs := append(append([]ids.SocketId(nil), n.Inputs...), n.Outputs...)
	var removedSockets []Socket
	var removedWires []Wire
	for _, sid := range oldSocketIDs {
		if keep[sid] {
			continue
		}
		if s, ok := g.sockets[sid]; ok {
			removedSockets = append(removedSockets, s)
		}
		for wid, w := range g.wires {
			if w.FromSocketID == sid || w.ToSocketID == sid {
				removedWires = append(removedWires, w)
				delete(g.wires, wid)
			}
		}
		delete(g.sockets, sid)
	}

	inputIDs := make([]ids.SocketId, len(newInputs))
	for i, s := range newInputs {
		inputIDs[i] = s.ID
		g.sockets[s.ID] = s.Clone()
	}
	outputIDs := make([]ids.SocketId, len(newOutputs))
	for i, s := range newOutputs {
		outputIDs[i] = s.ID
		g.sockets[s.ID] = s.Clone()
	}

	n.Inputs = inputIDs
	n.Outputs = outputIDs
	g.nodes[nodeID] = n

	return removedSockets, removedWires, nil
}

// UpdateNodeParam sets a single parameter on a node, returning the previous
// value (or value.Null() if it was unset) for invert.
func (g *Graph) UpdateNodeParam(nodeID ids.NodeId, key string, v value.Value) (value.Value, error) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return value.Null(), newValidationError(ReasonUnknownNode, "node %s not found", nodeID)
	}
	prev, had := n.Params[key]
	if !had {
		prev = value.Null()
	}
	if n.Params == nil {
		n.Params = make(map[string]value.Value)
	}
	n.Params[key] = v
	g.nodes[nodeID] = n
	return prev, nil
}
