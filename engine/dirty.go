package engine

import (
	"sync"

	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// DirtyState is owned exclusively by the execution engine: which nodes'
// caches are invalid, the per-node per-socket output cache, and any
// runtime errors attached to a node's last evaluation attempt.
type DirtyState struct {
	mu         sync.RWMutex
	dirty      map[ids.NodeId]bool
	outputs    map[ids.NodeId]map[string]value.Value
	nodeErrors map[ids.NodeId][]RuntimeError
}

// NewDirtyState creates an empty DirtyState, as when a graph is first
// loaded.
func NewDirtyState() *DirtyState {
	return &DirtyState{
		dirty:      make(map[ids.NodeId]bool),
		outputs:    make(map[ids.NodeId]map[string]value.Value),
		nodeErrors: make(map[ids.NodeId][]RuntimeError),
	}
}

// MarkDirty flags each of nodeIDs as dirty and invalidates its output cache
// entry.
func (d *DirtyState) MarkDirty(nodeIDs []ids.NodeId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range nodeIDs {
		d.dirty[id] = true
		delete(d.outputs, id)
		delete(d.nodeErrors, id)
	}
}

// IsDirty reports whether nodeID's cached output is currently invalid.
func (d *DirtyState) IsDirty(nodeID ids.NodeId) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty[nodeID]
}

// cachedOutputs returns the cached output map for nodeID and whether the
// node has a valid (non-dirty) entry.
func (d *DirtyState) cachedOutputs(nodeID ids.NodeId) (map[string]value.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.dirty[nodeID] {
		return nil, false
	}
	out, ok := d.outputs[nodeID]
	return out, ok
}

// store records a fresh evaluation result for nodeID and clears it from the
// dirty set.
func (d *DirtyState) store(nodeID ids.NodeId, outputs map[string]value.Value, errs []RuntimeError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs[nodeID] = outputs
	delete(d.dirty, nodeID)
	if len(errs) > 0 {
		d.nodeErrors[nodeID] = errs
	} else {
		delete(d.nodeErrors, nodeID)
	}
}

// Reset clears the entire state, as on a full graph load.
func (d *DirtyState) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = make(map[ids.NodeId]bool)
	d.outputs = make(map[ids.NodeId]map[string]value.Value)
	d.nodeErrors = make(map[ids.NodeId][]RuntimeError)
}

// NodeErrors returns a copy of the errors recorded for nodeID's last
// evaluation, if any.
func (d *DirtyState) NodeErrors(nodeID ids.NodeId) []RuntimeError {
	d.mu.RLock()
	defer d.mu.RUnlock()
	errs := d.nodeErrors[nodeID]
	out := make([]RuntimeError, len(errs))
	copy(out, errs)
	return out
}
