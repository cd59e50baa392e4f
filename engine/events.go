package engine

import "github.com/nodeflow-dev/nodeflow-core/value"

// Progress reports how many nodes of the active run's transitive-dependency
// set have been evaluated so far.
type Progress struct {
	Completed int
	Total     int
}

// EventKind identifies which field of an Event is populated.
type EventKind string

const (
	// EventProgress carries an updated Progress snapshot.
	EventProgress EventKind = "progress"
	// EventValue carries the final resolved value of the active output.
	EventValue EventKind = "value"
	// EventError carries a fatal RuntimeError (NodeComputeFailed or
	// CyclicDependency) that ended the run.
	EventError EventKind = "error"
	// EventCanceled reports that a run was superseded or explicitly
	// canceled; not a failure.
	EventCanceled EventKind = "canceled"
	// EventIdle reports that there is no active output (after clearOutput).
	EventIdle EventKind = "idle"
)

// Event is the supplemented progress/event stream of SPEC_FULL.md, grounded
// on leofalp-aigo/patterns/graph/stream.go's event-channel pattern. It lets
// a UI shell subscribe instead of polling the observer snapshots.
type Event struct {
	Kind     EventKind
	Progress Progress
	Value    value.Value
	Err      error
}

// StepResult is returned by Engine.Step, the supplemented state-machine
// entry point: one call evaluates at most one node and reports whether more
// work remains.
type StepResult struct {
	Done     bool
	Progress Progress
	Value    value.Value
	Err      error
}
