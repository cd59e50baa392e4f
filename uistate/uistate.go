// Package uistate implements the selection and UI-state store: selection
// sets, canvas focus, bypass/collapse toggles, and the subgraph breadcrumb
// stack. It is persisted independently of the graph document and never
// owns graph entities, only their IDs.
//
// The shape follows leofalp-aigo/patterns/graph's InMemoryStateProvider: a
// small mutex-guarded set of maps behind a narrow interface, safe for
// concurrent use even though the rest of nodeflow-core is single-threaded.
package uistate

import (
	"sync"

	"github.com/nodeflow-dev/nodeflow-core/ids"
)

// BreadcrumbEntry is one frame of the subgraph navigation stack: the graph
// being viewed, a display label for it, and the subgraph node in the parent
// graph that was descended into to reach it (empty at the root).
type BreadcrumbEntry struct {
	GraphID      ids.GraphId
	Label        string
	ParentNodeID ids.NodeId
}

// State holds selection and view state for a single editor session.
type State struct {
	mu sync.RWMutex

	selectedNodes map[ids.NodeId]bool
	selectedFrames map[ids.FrameId]bool
	selectedWires map[ids.WireId]bool

	bypassedNodes  map[ids.NodeId]bool
	collapsedNodes map[ids.NodeId]bool

	canvasCenterX, canvasCenterY float64

	lastGraphID   ids.GraphId
	recentGraphIDs []ids.GraphId

	graphPath []BreadcrumbEntry

	commandPaletteOpen bool
}

// SetCommandPaletteOpen toggles the command-palette visibility flag
// observed by the UI shell via commandPaletteOpen().
func (s *State) SetCommandPaletteOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandPaletteOpen = open
}

// CommandPaletteOpen reports whether the command palette is open.
func (s *State) CommandPaletteOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commandPaletteOpen
}

// New returns an empty State.
func New() *State {
	return &State{
		selectedNodes:  make(map[ids.NodeId]bool),
		selectedFrames: make(map[ids.FrameId]bool),
		selectedWires:  make(map[ids.WireId]bool),
		bypassedNodes:  make(map[ids.NodeId]bool),
		collapsedNodes: make(map[ids.NodeId]bool),
	}
}

// SetNodeSelection replaces the node selection and clears the frame and
// wire selections, since at most one of the three kinds is authoritative at
// commit time.
func (s *State) SetNodeSelection(ids_ []ids.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedNodes = toSet(ids_)
	s.selectedFrames = make(map[ids.FrameId]bool)
	s.selectedWires = make(map[ids.WireId]bool)
}

// SetFrameSelection replaces the frame selection and clears the node and
// wire selections.
func (s *State) SetFrameSelection(ids_ []ids.FrameId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedFrames = toSetFrame(ids_)
	s.selectedNodes = make(map[ids.NodeId]bool)
	s.selectedWires = make(map[ids.WireId]bool)
}

// SetWireSelection replaces the wire selection and clears the node and
// frame selections.
func (s *State) SetWireSelection(ids_ []ids.WireId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedWires = toSetWire(ids_)
	s.selectedNodes = make(map[ids.NodeId]bool)
	s.selectedFrames = make(map[ids.FrameId]bool)
}

// ClearSelection empties all three selection sets.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedNodes = make(map[ids.NodeId]bool)
	s.selectedFrames = make(map[ids.FrameId]bool)
	s.selectedWires = make(map[ids.WireId]bool)
}

// SelectedNodes returns the currently selected node IDs.
func (s *State) SelectedNodes() []ids.NodeId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.NodeId, 0, len(s.selectedNodes))
	for id := range s.selectedNodes {
		out = append(out, id)
	}
	return out
}

// SelectedFrames returns the currently selected frame IDs.
func (s *State) SelectedFrames() []ids.FrameId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.FrameId, 0, len(s.selectedFrames))
	for id := range s.selectedFrames {
		out = append(out, id)
	}
	return out
}

// SelectedWires returns the currently selected wire IDs.
func (s *State) SelectedWires() []ids.WireId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.WireId, 0, len(s.selectedWires))
	for id := range s.selectedWires {
		out = append(out, id)
	}
	return out
}

// SetBypassed toggles a node's membership in bypassedNodes.
func (s *State) SetBypassed(nodeID ids.NodeId, bypassed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bypassed {
		s.bypassedNodes[nodeID] = true
	} else {
		delete(s.bypassedNodes, nodeID)
	}
}

// IsBypassed reports whether nodeID is in bypassedNodes.
func (s *State) IsBypassed(nodeID ids.NodeId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bypassedNodes[nodeID]
}

// SetCollapsed toggles a node's membership in collapsedNodes.
func (s *State) SetCollapsed(nodeID ids.NodeId, collapsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collapsed {
		s.collapsedNodes[nodeID] = true
	} else {
		delete(s.collapsedNodes, nodeID)
	}
}

// IsCollapsed reports whether nodeID is in collapsedNodes.
func (s *State) IsCollapsed(nodeID ids.NodeId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collapsedNodes[nodeID]
}

// SetCanvasCenter records the canvas pan/zoom focal point.
func (s *State) SetCanvasCenter(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvasCenterX, s.canvasCenterY = x, y
}

// CanvasCenter returns the canvas pan/zoom focal point.
func (s *State) CanvasCenter() (x, y float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvasCenterX, s.canvasCenterY
}

// SetLastGraph records the most recently opened graph ID and pushes it onto
// the front of recentGraphIDs (deduplicated, capped at 10 entries).
func (s *State) SetLastGraph(id ids.GraphId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastGraphID = id
	filtered := []ids.GraphId{id}
	for _, g := range s.recentGraphIDs {
		if g != id {
			filtered = append(filtered, g)
		}
	}
	if len(filtered) > 10 {
		filtered = filtered[:10]
	}
	s.recentGraphIDs = filtered
}

// LastGraph returns the most recently opened graph ID.
func (s *State) LastGraph() ids.GraphId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGraphID
}

// RecentGraphs returns the recently opened graph IDs, most recent first.
func (s *State) RecentGraphs() []ids.GraphId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.GraphId, len(s.recentGraphIDs))
	copy(out, s.recentGraphIDs)
	return out
}

// PushBreadcrumb descends into a subgraph, appending a new entry to
// graphPath.
func (s *State) PushBreadcrumb(entry BreadcrumbEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphPath = append(s.graphPath, entry)
}

// PopBreadcrumb ascends one level, returning the entry that was popped and
// whether the stack was non-empty.
func (s *State) PopBreadcrumb() (BreadcrumbEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.graphPath) == 0 {
		return BreadcrumbEntry{}, false
	}
	last := s.graphPath[len(s.graphPath)-1]
	s.graphPath = s.graphPath[:len(s.graphPath)-1]
	return last, true
}

// GraphPath returns a copy of the current breadcrumb stack, root first.
func (s *State) GraphPath() []BreadcrumbEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BreadcrumbEntry, len(s.graphPath))
	copy(out, s.graphPath)
	return out
}

// ResetGraphPath clears the breadcrumb stack, used when jumping directly to
// a root graph rather than ascending one level at a time.
func (s *State) ResetGraphPath() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphPath = nil
}

// FilterSelection removes IDs that no longer exist in the loaded graph from
// all three selection sets, the bypass set, and the collapse set. Selection
// state referring to missing IDs after load is silently dropped rather than
// surfaced as an error.
func (s *State) FilterSelection(validNodes map[ids.NodeId]bool, validFrames map[ids.FrameId]bool, validWires map[ids.WireId]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedNodes = filterNode(s.selectedNodes, validNodes)
	s.selectedFrames = filterFrame(s.selectedFrames, validFrames)
	s.selectedWires = filterWire(s.selectedWires, validWires)
	s.bypassedNodes = filterNode(s.bypassedNodes, validNodes)
	s.collapsedNodes = filterNode(s.collapsedNodes, validNodes)
}

func toSet(ids_ []ids.NodeId) map[ids.NodeId]bool {
	m := make(map[ids.NodeId]bool, len(ids_))
	for _, id := range ids_ {
		m[id] = true
	}
	return m
}

func toSetFrame(ids_ []ids.FrameId) map[ids.FrameId]bool {
	m := make(map[ids.FrameId]bool, len(ids_))
	for _, id := range ids_ {
		m[id] = true
	}
	return m
}

func toSetWire(ids_ []ids.WireId) map[ids.WireId]bool {
	m := make(map[ids.WireId]bool, len(ids_))
	for _, id := range ids_ {
		m[id] = true
	}
	return m
}

func filterNode(set, valid map[ids.NodeId]bool) map[ids.NodeId]bool {
	out := make(map[ids.NodeId]bool, len(set))
	for id := range set {
		if valid[id] {
			out[id] = true
		}
	}
	return out
}

func filterFrame(set, valid map[ids.FrameId]bool) map[ids.FrameId]bool {
	out := make(map[ids.FrameId]bool, len(set))
	for id := range set {
		if valid[id] {
			out[id] = true
		}
	}
	return out
}

func filterWire(set, valid map[ids.WireId]bool) map[ids.WireId]bool {
	out := make(map[ids.WireId]bool, len(set))
	for id := range set {
		if valid[id] {
			out[id] = true
		}
	}
	return out
}
