// Package ids defines the opaque identifier types shared by every layer of
// nodeflow-core: graphs, nodes, sockets, wires, and frames. Identifiers are
// newtypes over non-empty strings so that a GraphId can never be passed where
// a NodeId is expected, even though both are strings underneath.
package ids

import "github.com/google/uuid"

// GraphId uniquely identifies a graph document.
type GraphId string

// NodeId uniquely identifies a node within a graph.
type NodeId string

// SocketId uniquely identifies a socket (input or output) within a graph.
type SocketId string

// WireId uniquely identifies a wire within a graph.
type WireId string

// FrameId uniquely identifies a frame within a graph.
type FrameId string

// NewGraphId generates a fresh, globally unique GraphId.
func NewGraphId() GraphId { return GraphId(newID("graph")) }

// NewNodeId generates a fresh, globally unique NodeId.
func NewNodeId() NodeId { return NodeId(newID("node")) }

// NewSocketId generates a fresh, globally unique SocketId.
func NewSocketId() SocketId { return SocketId(newID("socket")) }

// NewWireId generates a fresh, globally unique WireId.
func NewWireId() WireId { return WireId(newID("wire")) }

// NewFrameId generates a fresh, globally unique FrameId.
func NewFrameId() FrameId { return FrameId(newID("frame")) }

// newID produces a prefixed UUIDv4 string. The prefix is purely cosmetic
// (it makes IDs self-describing in logs and DOT exports) and carries no
// semantic meaning — callers must never parse it back out.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
