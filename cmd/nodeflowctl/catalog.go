package main

import (
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/engine"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// demoCatalog returns a small illustrative node catalog. nodeflow-core
// itself ships no node types — the catalog is an external collaborator
// supplied by the host application; a real UI shell would register its
// own.
func demoCatalog() *engine.Catalog {
	cat := engine.NewCatalog()

	cat.Register("constant", engine.NodeDef{
		Label:       "Constant",
		Description: "Outputs a fixed number.",
		ParamSchema: []engine.ParamField{{ID: "value", Label: "Value", Kind: engine.ParamFloat}},
		Blueprint: []engine.SocketBlueprint{
			{Name: "value", Direction: "output", DataType: value.Float},
		},
		Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
			v, _ := params["value"].AsFloat()
			return map[string]value.Value{"value": value.Number(v)}, nil
		},
	})

	cat.Register("add", engine.NodeDef{
		Label:       "Add",
		Description: "Sums two numbers.",
		Blueprint: []engine.SocketBlueprint{
			{Name: "a", Direction: "input", DataType: value.Float, Required: true},
			{Name: "b", Direction: "input", DataType: value.Float, Required: true},
			{Name: "sum", Direction: "output", DataType: value.Float},
		},
		Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
			a, err := inputs["a"].AsFloat()
			if err != nil {
				return nil, fmt.Errorf("input a: %w", err)
			}
			b, err := inputs["b"].AsFloat()
			if err != nil {
				return nil, fmt.Errorf("input b: %w", err)
			}
			return map[string]value.Value{"sum": value.Number(a + b)}, nil
		},
	})

	cat.Register("multiply", engine.NodeDef{
		Label:       "Multiply",
		Description: "Multiplies two numbers.",
		Blueprint: []engine.SocketBlueprint{
			{Name: "a", Direction: "input", DataType: value.Float, Required: true},
			{Name: "b", Direction: "input", DataType: value.Float, Required: true},
			{Name: "product", Direction: "output", DataType: value.Float},
		},
		Compute: func(params, inputs map[string]value.Value) (map[string]value.Value, error) {
			a, err := inputs["a"].AsFloat()
			if err != nil {
				return nil, fmt.Errorf("input a: %w", err)
			}
			b, err := inputs["b"].AsFloat()
			if err != nil {
				return nil, fmt.Errorf("input b: %w", err)
			}
			return map[string]value.Value{"product": value.Number(a * b)}, nil
		},
	})

	return cat
}
