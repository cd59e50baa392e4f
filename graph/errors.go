package graph

import "fmt"

// ValidationError reports that a requested mutation would violate one of
// the graph invariants (dangling reference, duplicate input wire,
// incompatible types, or a cycle). Reason is a stable machine-readable
// tag; callers that need to present a message should use Error().
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph: %s: %s", e.Reason, e.Message)
}

func newValidationError(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Reason tags used by ValidationError.Reason.
const (
	ReasonUnknownNode       = "unknown_node"
	ReasonUnknownSocket     = "unknown_socket"
	ReasonUnknownWire       = "unknown_wire"
	ReasonUnknownFrame      = "unknown_frame"
	ReasonDirectionMismatch = "direction_mismatch"
	ReasonInputOccupied     = "input_occupied"
	ReasonIncompatibleTypes = "incompatible_types"
	ReasonWouldCycle        = "would_cycle"
	ReasonSelfWire          = "self_wire"
)
