package command

import (
	"errors"

	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
)

// ErrBatchInProgress is returned by BeginBatch when a batch is already open.
var ErrBatchInProgress = errors.New("command: a batch is already in progress")

// ErrNoBatchInProgress is returned by RecordCommand/ApplyTransient/CommitBatch/
// AbortBatch when no batch has been opened.
var ErrNoBatchInProgress = errors.New("command: no batch in progress")

// ErrHistoryEmpty is returned by Undo/Redo when the relevant stack is empty.
var ErrHistoryEmpty = errors.New("command: history stack is empty")

// Batch is an ordered sequence of commands committed atomically as one
// undo step. Forward holds the commands in the order they were recorded
// (used to replay on redo); Inverses holds the inverse of every apply in
// the batch, transient applies included, in apply order (applied in
// reverse on undo).
type Batch struct {
	Label    string
	Forward  []GraphCommand
	Inverses []GraphCommand
}

// Manager is the command layer: it applies commands to a graph.Graph,
// tracks an optional in-progress batch, and maintains the undo/redo
// stacks.
type Manager struct {
	store *graph.Graph

	undo []Batch
	redo []Batch

	active *Batch
}

// NewManager creates a command layer bound to store.
func NewManager(store *graph.Graph) *Manager {
	return &Manager{store: store}
}

// Store returns the bound graph store.
func (m *Manager) Store() *graph.Graph { return m.store }

// BeginBatch opens a transient batch with a human-readable label.
func (m *Manager) BeginBatch(label string) error {
	if m.active != nil {
		return ErrBatchInProgress
	}
	m.active = &Batch{Label: label}
	return nil
}

// ApplyTransient applies cmd to the store without recording it into the
// batch's forward list, for multi-step interactions like a drag where
// intermediate states must be visible but only the final state is recorded
// as a single undo step. Its inverse is still tracked so AbortBatch can
// unwind it.
func (m *Manager) ApplyTransient(cmd GraphCommand) ([]ids.NodeId, error) {
	if m.active == nil {
		return nil, ErrNoBatchInProgress
	}
	inverse, affected, err := cmd.Apply(m.store)
	if err != nil {
		return nil, err
	}
	m.active.Inverses = append(m.active.Inverses, inverse)
	return m.store.DownstreamClosure(affected), nil
}

// RecordCommand applies cmd and appends it to the in-progress batch's
// forward list.
func (m *Manager) RecordCommand(cmd GraphCommand) ([]ids.NodeId, error) {
	if m.active == nil {
		return nil, ErrNoBatchInProgress
	}
	inverse, affected, err := cmd.Apply(m.store)
	if err != nil {
		return nil, err
	}
	m.active.Forward = append(m.active.Forward, cmd)
	m.active.Inverses = append(m.active.Inverses, inverse)
	return m.store.DownstreamClosure(affected), nil
}

// CommitBatch pushes the active batch onto the undo stack, clears the redo
// stack, and ends the batch.
func (m *Manager) CommitBatch() error {
	if m.active == nil {
		return ErrNoBatchInProgress
	}
	m.undo = append(m.undo, *m.active)
	m.redo = nil
	m.active = nil
	return nil
}

// AbortBatch discards the active batch, re-applying the inverses of every
// transient and recorded apply in reverse order so the store returns to
// its pre-batch state.
func (m *Manager) AbortBatch() error {
	if m.active == nil {
		return ErrNoBatchInProgress
	}
	for i := len(m.active.Inverses) - 1; i >= 0; i-- {
		if _, _, err := m.active.Inverses[i].Apply(m.store); err != nil {
			return err
		}
	}
	m.active = nil
	return nil
}

// InBatch reports whether a batch is currently open.
func (m *Manager) InBatch() bool { return m.active != nil }

// Undo pops the most recent batch from the undo stack, applies its inverses
// in reverse order, and pushes it onto the redo stack. It returns the set of
// nodes whose cache must be invalidated.
func (m *Manager) Undo() ([]ids.NodeId, error) {
	if len(m.undo) == 0 {
		return nil, ErrHistoryEmpty
	}
	last := len(m.undo) - 1
	batch := m.undo[last]
	m.undo = m.undo[:last]

	var affected []ids.NodeId
	for i := len(batch.Inverses) - 1; i >= 0; i-- {
		_, a, err := batch.Inverses[i].Apply(m.store)
		if err != nil {
			return nil, err
		}
		affected = append(affected, a...)
	}
	m.redo = append(m.redo, batch)
	return m.store.DownstreamClosure(affected), nil
}

// Redo pops the most recent batch from the redo stack, re-applies its
// forward commands in original order, and pushes it back onto the undo
// stack.
func (m *Manager) Redo() ([]ids.NodeId, error) {
	if len(m.redo) == 0 {
		return nil, ErrHistoryEmpty
	}
	last := len(m.redo) - 1
	batch := m.redo[last]
	m.redo = m.redo[:last]

	var affected []ids.NodeId
	for _, cmd := range batch.Forward {
		_, a, err := cmd.Apply(m.store)
		if err != nil {
			return nil, err
		}
		affected = append(affected, a...)
	}
	m.undo = append(m.undo, batch)
	return m.store.DownstreamClosure(affected), nil
}

// CanUndo reports whether the undo stack is non-empty.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Do is a convenience for the common one-command-one-batch case: it opens a
// batch, records cmd, and commits, returning the dirty node set.
func (m *Manager) Do(label string, cmd GraphCommand) ([]ids.NodeId, error) {
	if err := m.BeginBatch(label); err != nil {
		return nil, err
	}
	dirty, err := m.RecordCommand(cmd)
	if err != nil {
		_ = m.AbortBatch()
		return nil, err
	}
	if err := m.CommitBatch(); err != nil {
		return nil, err
	}
	return dirty, nil
}
