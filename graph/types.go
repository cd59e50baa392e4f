// Package graph implements the graph store: typed sockets, wires, nodes,
// frames, and the invariants that guard every mutation.
//
// The package is grounded on leofalp-aigo/patterns/graph's node/edge storage
// (builder.go, graph.go), generalized from a build-once DAG into a mutable
// store that can insert, remove, and replace entities at runtime while
// preserving IDs across edits and saves.
package graph

import (
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// Direction is which side of a node a socket belongs to.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// LabelPlacement is presentation-only metadata that is round-tripped but
// never interpreted by the core.
type LabelPlacement string

const (
	LabelPlacementDefault LabelPlacement = ""
	LabelPlacementTop     LabelPlacement = "top"
	LabelPlacementLeft    LabelPlacement = "left"
	LabelPlacementHidden  LabelPlacement = "hidden"
)

// NumericFormat is presentation-only metadata for how a numeric socket's
// default/current value should be rendered (e.g. "0.00", "0%").
type NumericFormat struct {
	Precision int
	Suffix    string
}

// Socket is one named, typed connection point on a node.
type Socket struct {
	ID       ids.SocketId
	NodeID   ids.NodeId
	Name     string
	Label    string
	Direction Direction
	DataType value.DataType

	Required     bool
	DefaultValue *value.Value

	MinConnections *int
	MaxConnections *int

	LabelPlacement LabelPlacement
	NumericFormat  *NumericFormat
}

// Clone returns a deep copy of the socket, used when snapshotting state for
// command inverses.
func (s Socket) Clone() Socket {
	cp := s
	if s.DefaultValue != nil {
		v := *s.DefaultValue
		cp.DefaultValue = &v
	}
	if s.MinConnections != nil {
		m := *s.MinConnections
		cp.MinConnections = &m
	}
	if s.MaxConnections != nil {
		m := *s.MaxConnections
		cp.MaxConnections = &m
	}
	if s.NumericFormat != nil {
		f := *s.NumericFormat
		cp.NumericFormat = &f
	}
	return cp
}

// Wire is a directed, typed edge from an output socket to an input socket.
type Wire struct {
	ID           ids.WireId
	FromSocketID ids.SocketId
	ToSocketID   ids.SocketId
}

// Node is a typed data-flow node. Inputs/Outputs are ordered slices of
// socket IDs owned by this node.
type Node struct {
	ID       ids.NodeId
	Type     string
	Position Position
	Inputs   []ids.SocketId
	Outputs  []ids.SocketId
	Params   map[string]value.Value
}

// Position is the node's canvas location. Coordinates are float64.
type Position struct {
	X, Y float64
}

// Clone returns a deep copy of the node (but not of its sockets, which are
// stored separately in the Graph).
func (n Node) Clone() Node {
	cp := n
	cp.Inputs = append([]ids.SocketId(nil), n.Inputs...)
	cp.Outputs = append([]ids.SocketId(nil), n.Outputs...)
	cp.Params = cloneParams(n.Params)
	return cp
}

func cloneParams(params map[string]value.Value) map[string]value.Value {
	cp := make(map[string]value.Value, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}

// Frame is a visual grouping that carries metadata but does not own nodes.
// Containment is geometric and left to the renderer.
type Frame struct {
	ID             ids.FrameId
	Title          string
	Description    string
	Color          string
	Collapsed      bool
	ExposedInputs  []ids.SocketId
	ExposedOutputs []ids.SocketId
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	cp := f
	cp.ExposedInputs = append([]ids.SocketId(nil), f.ExposedInputs...)
	cp.ExposedOutputs = append([]ids.SocketId(nil), f.ExposedOutputs...)
	return cp
}

// SchemaVersion is the current document schema version this store produces.
// Loaded documents are migrated up to this version.
const SchemaVersion = 1

// Graph is the in-memory container: a named collection of nodes, sockets,
// wires, and frames, each keyed by ID for O(1) lookup.
type Graph struct {
	GraphID       ids.GraphId
	SchemaVersion int

	nodes   map[ids.NodeId]Node
	sockets map[ids.SocketId]Socket
	wires   map[ids.WireId]Wire
	frames  map[ids.FrameId]Frame
}

// New creates an empty graph with a fresh GraphId.
func New() *Graph {
	return NewWithID(ids.NewGraphId())
}

// NewWithID creates an empty graph with the given GraphId (used when
// restoring a document that already has a stable ID).
func NewWithID(id ids.GraphId) *Graph {
	return &Graph{
		GraphID:       id,
		SchemaVersion: SchemaVersion,
		nodes:         make(map[ids.NodeId]Node),
		sockets:       make(map[ids.SocketId]Socket),
		wires:         make(map[ids.WireId]Wire),
		frames:        make(map[ids.FrameId]Frame),
	}
}

// Node returns the node for id, and whether it was found.
func (g *Graph) Node(id ids.NodeId) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Socket returns the socket for id, and whether it was found.
func (g *Graph) Socket(id ids.SocketId) (Socket, bool) {
	s, ok := g.sockets[id]
	return s, ok
}

// Wire returns the wire for id, and whether it was found.
func (g *Graph) Wire(id ids.WireId) (Wire, bool) {
	w, ok := g.wires[id]
	return w, ok
}

// Frame returns the frame for id, and whether it was found.
func (g *Graph) Frame(id ids.FrameId) (Frame, bool) {
	f, ok := g.frames[id]
	return f, ok
}

// Nodes returns a snapshot slice of all nodes, in no particular order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Wires returns a snapshot slice of all wires, in no particular order.
func (g *Graph) Wires() []Wire {
	out := make([]Wire, 0, len(g.wires))
	for _, w := range g.wires {
		out = append(out, w)
	}
	return out
}

// Frames returns a snapshot slice of all frames, in no particular order.
func (g *Graph) Frames() []Frame {
	out := make([]Frame, 0, len(g.frames))
	for _, f := range g.frames {
		out = append(out, f)
	}
	return out
}

// Sockets returns a snapshot slice of all sockets, in no particular order.
func (g *Graph) Sockets() []Socket {
	out := make([]Socket, 0, len(g.sockets))
	for _, s := range g.sockets {
		out = append(out, s)
	}
	return out
}

// NodeSockets returns the ordered input and output sockets owned by a node.
func (g *Graph) NodeSockets(nodeID ids.NodeId) (inputs, outputs []Socket) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	for _, sid := range n.Inputs {
		if s, ok := g.sockets[sid]; ok {
			inputs = append(inputs, s)
		}
	}
	for _, sid := range n.Outputs {
		if s, ok := g.sockets[sid]; ok {
			outputs = append(outputs, s)
		}
	}
	return inputs, outputs
}

// IncomingWire returns the wire connected to an input socket, if any. An
// input has at most one incoming wire.
func (g *Graph) IncomingWire(inputSocket ids.SocketId) (Wire, bool) {
	for _, w := range g.wires {
		if w.ToSocketID == inputSocket {
			return w, true
		}
	}
	return Wire{}, false
}

// OutgoingWires returns every wire whose FromSocketID is outputSocket.
func (g *Graph) OutgoingWires(outputSocket ids.SocketId) []Wire {
	var out []Wire
	for _, w := range g.wires {
		if w.FromSocketID == outputSocket {
			out = append(out, w)
		}
	}
	return out
}
