// Package codec implements the versioned JSON document format: graph <->
// document conversion, round-trip identity, and a migration table for
// upgrading older documents. It mirrors the explicit-error,
// best-effort-repair parsing style of leofalp-aigo/core/parse.ParseStringAs,
// which falls back to github.com/kaptinlin/jsonrepair before giving up on
// malformed JSON.
package codec

import (
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// SocketDoc is the wire representation of graph.Socket: id, name, label,
// dataType, required, defaultValue, and presentation metadata.
type SocketDoc struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Label          string             `json:"label,omitempty"`
	Direction      string             `json:"direction"`
	DataType       string             `json:"dataType"`
	Required       bool               `json:"required,omitempty"`
	DefaultValue   *value.Value       `json:"defaultValue,omitempty"`
	MinConnections *int               `json:"minConnections,omitempty"`
	MaxConnections *int               `json:"maxConnections,omitempty"`
	LabelPlacement string             `json:"labelPlacement,omitempty"`
	NumericFormat  *NumericFormatDoc  `json:"numericFormat,omitempty"`
}

// NumericFormatDoc is the wire representation of graph.NumericFormat.
type NumericFormatDoc struct {
	Precision int    `json:"precision,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
}

// PositionDoc is the wire representation of graph.Position.
type PositionDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeDoc is the wire representation of graph.Node: id, type, position,
// input/output sockets, and params.
type NodeDoc struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Position PositionDoc            `json:"position"`
	Inputs   []SocketDoc            `json:"inputs"`
	Outputs  []SocketDoc            `json:"outputs"`
	Params   map[string]value.Value `json:"params,omitempty"`
}

// WireDoc is the wire representation of graph.Wire.
type WireDoc struct {
	ID           string `json:"id"`
	FromSocketID string `json:"fromSocketId"`
	ToSocketID   string `json:"toSocketId"`
}

// FrameDoc is the wire representation of graph.Frame.
type FrameDoc struct {
	ID             string   `json:"id"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	Color          string   `json:"color,omitempty"`
	Collapsed      bool     `json:"collapsed,omitempty"`
	ExposedInputs  []string `json:"exposedInputs,omitempty"`
	ExposedOutputs []string `json:"exposedOutputs,omitempty"`
}

// GraphDocument is the top-level wire format: version, graphId, nodes,
// wires, and frames.
type GraphDocument struct {
	Version int       `json:"version"`
	GraphID string    `json:"graphId"`
	Nodes   []NodeDoc `json:"nodes"`
	Wires   []WireDoc `json:"wires"`
	Frames  []FrameDoc `json:"frames,omitempty"`
}

// Encode converts an in-memory graph into its document form, at the
// current schema version.
func Encode(g *graph.Graph) *GraphDocument {
	doc := &GraphDocument{
		Version: graph.SchemaVersion,
		GraphID: string(g.GraphID),
	}
	for _, n := range g.Nodes() {
		inputs, outputs := g.NodeSockets(n.ID)
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:       string(n.ID),
			Type:     n.Type,
			Position: PositionDoc{X: n.Position.X, Y: n.Position.Y},
			Inputs:   encodeSockets(inputs),
			Outputs:  encodeSockets(outputs),
			Params:   n.Params,
		})
	}
	for _, w := range g.Wires() {
		doc.Wires = append(doc.Wires, WireDoc{
			ID:           string(w.ID),
			FromSocketID: string(w.FromSocketID),
			ToSocketID:   string(w.ToSocketID),
		})
	}
	for _, f := range g.Frames() {
		doc.Frames = append(doc.Frames, encodeFrame(f))
	}
	return doc
}

func encodeSockets(sockets []graph.Socket) []SocketDoc {
	out := make([]SocketDoc, len(sockets))
	for i, s := range sockets {
		out[i] = SocketDoc{
			ID:             string(s.ID),
			Name:           s.Name,
			Label:          s.Label,
			Direction:      string(s.Direction),
			DataType:       string(s.DataType),
			Required:       s.Required,
			DefaultValue:   s.DefaultValue,
			MinConnections: s.MinConnections,
			MaxConnections: s.MaxConnections,
			LabelPlacement: string(s.LabelPlacement),
		}
		if s.NumericFormat != nil {
			out[i].NumericFormat = &NumericFormatDoc{Precision: s.NumericFormat.Precision, Suffix: s.NumericFormat.Suffix}
		}
	}
	return out
}

func encodeFrame(f graph.Frame) FrameDoc {
	d := FrameDoc{
		ID:          string(f.ID),
		Title:       f.Title,
		Description: f.Description,
		Color:       f.Color,
		Collapsed:   f.Collapsed,
	}
	for _, s := range f.ExposedInputs {
		d.ExposedInputs = append(d.ExposedInputs, string(s))
	}
	for _, s := range f.ExposedOutputs {
		d.ExposedOutputs = append(d.ExposedOutputs, string(s))
	}
	return d
}

// Decode converts a document (already migrated to the current schema
// version) into an in-memory graph.
func Decode(doc *GraphDocument) (*graph.Graph, error) {
	if doc.Version != graph.SchemaVersion {
		return nil, &DocumentError{Reason: ReasonUnsupportedVersion, Message: "document must be migrated before decoding"}
	}
	g := graph.NewWithID(ids.GraphId(doc.GraphID))

	for _, nd := range doc.Nodes {
		n := graph.Node{
			ID:       ids.NodeId(nd.ID),
			Type:     nd.Type,
			Position: graph.Position{X: nd.Position.X, Y: nd.Position.Y},
			Params:   nd.Params,
		}
		sockets := make([]graph.Socket, 0, len(nd.Inputs)+len(nd.Outputs))
		for _, sd := range nd.Inputs {
			s := decodeSocket(sd, n.ID, graph.DirectionInput)
			n.Inputs = append(n.Inputs, s.ID)
			sockets = append(sockets, s)
		}
		for _, sd := range nd.Outputs {
			s := decodeSocket(sd, n.ID, graph.DirectionOutput)
			n.Outputs = append(n.Outputs, s.ID)
			sockets = append(sockets, s)
		}
		if err := g.InsertNode(n, sockets); err != nil {
			return nil, &DocumentError{Reason: ReasonMalformed, Message: err.Error()}
		}
	}
	for _, wd := range doc.Wires {
		w := graph.Wire{ID: ids.WireId(wd.ID), FromSocketID: ids.SocketId(wd.FromSocketID), ToSocketID: ids.SocketId(wd.ToSocketID)}
		if err := g.InsertWire(w); err != nil {
			return nil, &DocumentError{Reason: ReasonMalformed, Message: err.Error()}
		}
	}
	for _, fd := range doc.Frames {
		f := graph.Frame{
			ID:          ids.FrameId(fd.ID),
			Title:       fd.Title,
			Description: fd.Description,
			Color:       fd.Color,
			Collapsed:   fd.Collapsed,
		}
		for _, s := range fd.ExposedInputs {
			f.ExposedInputs = append(f.ExposedInputs, ids.SocketId(s))
		}
		for _, s := range fd.ExposedOutputs {
			f.ExposedOutputs = append(f.ExposedOutputs, ids.SocketId(s))
		}
		if err := g.InsertFrame(f); err != nil {
			return nil, &DocumentError{Reason: ReasonMalformed, Message: err.Error()}
		}
	}
	return g, nil
}

func decodeSocket(sd SocketDoc, nodeID ids.NodeId, dir graph.Direction) graph.Socket {
	s := graph.Socket{
		ID:             ids.SocketId(sd.ID),
		NodeID:         nodeID,
		Name:           sd.Name,
		Label:          sd.Label,
		Direction:      dir,
		DataType:       value.DataType(sd.DataType),
		Required:       sd.Required,
		DefaultValue:   sd.DefaultValue,
		MinConnections: sd.MinConnections,
		MaxConnections: sd.MaxConnections,
		LabelPlacement: graph.LabelPlacement(sd.LabelPlacement),
	}
	if sd.NumericFormat != nil {
		s.NumericFormat = &graph.NumericFormat{Precision: sd.NumericFormat.Precision, Suffix: sd.NumericFormat.Suffix}
	}
	return s
}
