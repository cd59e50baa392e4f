// Package command implements the invertible command/history layer: a flat
// sum type of graph mutations, atomic batches, transient application for
// drag-style interactions, and undo/redo stacks.
//
// Every concrete command captures the pre-mutation state itself inside
// Apply, so a caller only ever needs to describe the *desired* new state;
// the returned inverse is always exact, including for chains of
// undo-then-redo-then-undo. This mirrors the symmetric executor/state
// snapshotting in leofalp-aigo/patterns/graph/state.go, generalized from a
// single immutable run-state to a mutable, invertible graph store.
package command

import (
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
)

// GraphCommand is the flat sum type of graph mutations. Concrete
// implementations live in commands.go; there is deliberately no class
// hierarchy, only a closed set of struct types satisfying this interface.
type GraphCommand interface {
	// Apply mutates g to the command's target state and returns the exact
	// inverse command, the set of directly-affected node IDs (for dirty
	// propagation), and an error if a precondition was violated. On error
	// g must be left unchanged.
	Apply(g *graph.Graph) (inverse GraphCommand, affected []ids.NodeId, err error)
}
