// Package engine implements the pull-based, memoized, single-threaded
// cooperative execution engine: requestOutput walks upstream from an
// active output socket, resolving each dependency's cached value or
// recomputing it, with cancellation and progress reporting between node
// computes.
//
// The evaluation loop and its yield-between-steps scheduling are grounded on
// leofalp-aigo/patterns/graph/executor.go, generalized from a one-shot DAG
// run to a long-lived, re-requestable, memoized evaluator.
package engine

import (
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/ids"
)

// RuntimeError is the common interface satisfied by every member of the
// engine's runtime error taxonomy.
type RuntimeError interface {
	error
	NodeID() ids.NodeId
}

// MissingRequiredInput reports that a required input socket has no incoming
// wire. It is a warning: evaluation proceeds using the socket's default
// value, or its zero value when it has no default.
type MissingRequiredInput struct {
	NodeId     ids.NodeId
	SocketId   ids.SocketId
	SocketName string
}

func (e *MissingRequiredInput) Error() string {
	return fmt.Sprintf("engine: node %s: required input %q is unconnected", e.NodeId, e.SocketName)
}
func (e *MissingRequiredInput) NodeID() ids.NodeId { return e.NodeId }

// NodeComputeFailed reports that a node's compute function returned an
// error. Downstream nodes that depend on it fail to produce values.
type NodeComputeFailed struct {
	NodeId   ids.NodeId
	NodeType string
	Cause    error
}

func (e *NodeComputeFailed) Error() string {
	return fmt.Sprintf("engine: node %s (%s): compute failed: %v", e.NodeId, e.NodeType, e.Cause)
}
func (e *NodeComputeFailed) NodeID() ids.NodeId { return e.NodeId }
func (e *NodeComputeFailed) Unwrap() error      { return e.Cause }

// CyclicDependency reports a cycle discovered during evaluation. It is
// fatal to the run and attached to the active socket's node.
type CyclicDependency struct {
	NodeId ids.NodeId
	Cycle  []ids.NodeId
}

func (e *CyclicDependency) Error() string {
	return fmt.Sprintf("engine: node %s: cyclic dependency: %v", e.NodeId, e.Cycle)
}
func (e *CyclicDependency) NodeID() ids.NodeId { return e.NodeId }

// ExecutionCanceled reports that a run was superseded by a newer request or
// explicitly canceled. It is not a failure; it surfaces as an idle message.
type ExecutionCanceled struct {
	NodeId ids.NodeId
}

func (e *ExecutionCanceled) Error() string      { return "engine: execution canceled" }
func (e *ExecutionCanceled) NodeID() ids.NodeId { return e.NodeId }
