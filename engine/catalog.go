package engine

import "github.com/nodeflow-dev/nodeflow-core/value"

// ComputeFunc is the external collaborator a node type provides: given a
// node's resolved parameters and its named input values, produce named
// output values, or fail with NodeComputeFailed's Cause.
type ComputeFunc func(params map[string]value.Value, inputs map[string]value.Value) (map[string]value.Value, error)

// ParamKind enumerates the param-field kinds a catalog entry may describe
// for its editor UI: float, int, bool, vec2, vec3, vec4, string, enum, or
// color. Only float/int/bool/vec2/vec3/vec4 are promotable out of a
// subgraph (see the subgraph package); string/enum/color are editor-only.
type ParamKind string

const (
	ParamFloat  ParamKind = "float"
	ParamInt    ParamKind = "int"
	ParamBool   ParamKind = "bool"
	ParamVec2   ParamKind = "vec2"
	ParamVec3   ParamKind = "vec3"
	ParamVec4   ParamKind = "vec4"
	ParamString ParamKind = "string"
	ParamEnum   ParamKind = "enum"
	ParamColor  ParamKind = "color"
)

// ParamField describes one entry of a node type's paramSchema, consumed by
// the editor UI to render a parameter control.
type ParamField struct {
	ID      string
	Label   string
	Kind    ParamKind
	Min     *float64
	Max     *float64
	Step    *float64
	Default *value.Value
	Options []string // only meaningful when Kind == ParamEnum
}

// SocketBlueprint declares one socket a fresh node instance is given when
// first placed on the canvas.
type SocketBlueprint struct {
	Name         string
	Direction    string // "input" or "output"; graph.Direction's string form
	DataType     value.DataType
	Required     bool
	DefaultValue *value.Value
}

// NodeDef describes one node type's full catalog entry: its compute
// function, editor metadata, and the socket set a fresh instance starts
// with.
type NodeDef struct {
	Label       string
	Description string
	Compute     ComputeFunc
	ParamSchema []ParamField
	Blueprint   []SocketBlueprint
}

// Catalog is the registry of known node types, consulted by the engine to
// find the ComputeFunc for a node being evaluated.
type Catalog struct {
	defs map[string]NodeDef
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]NodeDef)}
}

// Register adds or replaces the definition for nodeType.
func (c *Catalog) Register(nodeType string, def NodeDef) {
	c.defs[nodeType] = def
}

// Lookup returns the definition for nodeType, if registered.
func (c *Catalog) Lookup(nodeType string) (NodeDef, bool) {
	def, ok := c.defs[nodeType]
	return def, ok
}
