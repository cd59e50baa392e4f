// Package editor wires the graph, command, engine, uistate, codec, and
// observability packages into a single logical "editor store": the Graph
// store, DirtyState, and History stacks are owned by one object, and all
// mutations flow through it.
//
// Store is built the way leofalp-aigo/core/client.Client is: an immutable
// orchestrator assembled once from functional options, exposing narrow
// accessor methods rather than its internals.
package editor

import (
	"context"
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/command"
	"github.com/nodeflow-dev/nodeflow-core/engine"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/observability"
	"github.com/nodeflow-dev/nodeflow-core/subgraph"
	"github.com/nodeflow-dev/nodeflow-core/uistate"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// Settings holds the editor-level configuration the observer interface
// exposes as settings() — currently just the subgraph nesting limit.
type Settings struct {
	MaxSubgraphDepth int
}

func defaultSettings() Settings {
	return Settings{MaxSubgraphDepth: subgraph.MaxDepth}
}

// Options configures a new Store. The zero value is valid: a fresh,
// empty graph with a no-op observer.
type Options struct {
	Catalog  *engine.Catalog
	Observer observability.Provider
	Settings Settings
}

// Option mutates Options; functions following this shape are passed
// variadically to New/Open the way leofalp-aigo/core/client's
// WithObserver/WithMemory/... options do.
type Option func(*Options)

// WithCatalog supplies the node type registry the engine consults to
// evaluate nodes.
func WithCatalog(catalog *engine.Catalog) Option {
	return func(o *Options) { o.Catalog = catalog }
}

// WithObserver supplies the observability backend used for tracing,
// metrics, and structured logs. Defaults to observability.NoOp.
func WithObserver(p observability.Provider) Option {
	return func(o *Options) { o.Observer = p }
}

// WithSettings overrides the default editor settings.
func WithSettings(s Settings) Option {
	return func(o *Options) { o.Settings = s }
}

// Store is the editor store: the single owner of the graph, its command
// history, the execution engine's dirty state, and the UI-state
// selection/navigation store. External callers receive snapshots or
// ID-level references only, never the store's internals.
type Store struct {
	catalog  *engine.Catalog
	obs      observability.Provider
	settings Settings

	g      *graph.Graph
	mgr    *command.Manager
	eng    *engine.Engine
	state  *uistate.State
	dirty  *engine.DirtyState
}

// New creates a Store around a fresh, empty graph.
func New(opts ...Option) *Store {
	options := &Options{Settings: defaultSettings()}
	for _, opt := range opts {
		opt(options)
	}
	return newStore(graph.New(), options)
}

// Open creates a Store by decoding a persisted document. A codec error
// aborts the load and is returned unchanged; no partial store is
// constructed. If a caller already holds a Store for a previous graph, it
// simply keeps that Store on error — there is nothing here to roll back.
func Open(data []byte, opts ...Option) (*Store, error) {
	g, err := codec.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	options := &Options{Settings: defaultSettings()}
	for _, opt := range opts {
		opt(options)
	}
	s := newStore(g, options)
	s.state.SetLastGraph(g.GraphID)
	s.filterSelectionToLoadedGraph()
	return s, nil
}

func newStore(g *graph.Graph, options *Options) *Store {
	obs := observability.Or(options.Observer)
	catalog := options.Catalog
	if catalog == nil {
		catalog = engine.NewCatalog()
	}
	dirty := engine.NewDirtyState()
	return &Store{
		catalog:  catalog,
		obs:      obs,
		settings: options.Settings,
		g:        g,
		mgr:      command.NewManager(g),
		eng:      engine.New(g, catalog, dirty, obs),
		state:    uistate.New(),
		dirty:    dirty,
	}
}

// filterSelectionToLoadedGraph drops any selection/bypass/collapse entries
// that refer to IDs absent from the just-loaded graph. Selection state
// referring to missing IDs after load is silently filtered rather than
// treated as an error.
func (s *Store) filterSelectionToLoadedGraph() {
	nodes := make(map[ids.NodeId]bool)
	frames := make(map[ids.FrameId]bool)
	wires := make(map[ids.WireId]bool)
	for _, n := range s.g.Nodes() {
		nodes[n.ID] = true
	}
	for _, f := range s.g.Frames() {
		frames[f.ID] = true
	}
	for _, w := range s.g.Wires() {
		wires[w.ID] = true
	}
	s.state.FilterSelection(nodes, frames, wires)
}

// --- Observer interface ---

// Graph returns the live graph store. Callers must treat it as read-only;
// mutation only happens through Do/Undo/Redo.
func (s *Store) Graph() *graph.Graph { return s.g }

// DirtyState returns the engine's per-node cache/error tracker.
func (s *Store) DirtyState() *engine.DirtyState { return s.dirty }

// SelectedNodes returns the current node selection.
func (s *Store) SelectedNodes() []ids.NodeId { return s.state.SelectedNodes() }

// SelectedFrames returns the current frame selection.
func (s *Store) SelectedFrames() []ids.FrameId { return s.state.SelectedFrames() }

// SelectedWires returns the current wire selection.
func (s *Store) SelectedWires() []ids.WireId { return s.state.SelectedWires() }

// Settings returns the editor's current configuration.
func (s *Store) Settings() Settings { return s.settings }

// GraphPath returns the subgraph navigation breadcrumb stack.
func (s *Store) GraphPath() []uistate.BreadcrumbEntry { return s.state.GraphPath() }

// CanvasCenter returns the canvas pan/zoom focal point.
func (s *Store) CanvasCenter() (x, y float64) { return s.state.CanvasCenter() }

// OutputValue returns the most recently resolved value of the active
// requested output, or Null if none.
func (s *Store) OutputValue() value.Value { return s.eng.OutputValue() }

// OutputError returns the error that ended the active run, if any.
func (s *Store) OutputError() error { return s.eng.OutputError() }

// OutputProgress returns the active run's progress snapshot.
func (s *Store) OutputProgress() engine.Progress { return s.eng.OutputProgress() }

// CanUndo reports whether Undo has a batch to apply.
func (s *Store) CanUndo() bool { return s.mgr.CanUndo() }

// CanRedo reports whether Redo has a batch to apply.
func (s *Store) CanRedo() bool { return s.mgr.CanRedo() }

// CommandPaletteOpen reports whether the command palette is open.
func (s *Store) CommandPaletteOpen() bool { return s.state.CommandPaletteOpen() }

// SetCommandPaletteOpen toggles the command palette flag.
func (s *Store) SetCommandPaletteOpen(open bool) { s.state.SetCommandPaletteOpen(open) }

// SelectNodes replaces the node selection, clearing frame/wire selection.
func (s *Store) SelectNodes(ids_ []ids.NodeId) { s.state.SetNodeSelection(ids_) }

// SelectFrames replaces the frame selection, clearing node/wire selection.
func (s *Store) SelectFrames(ids_ []ids.FrameId) { s.state.SetFrameSelection(ids_) }

// SelectWires replaces the wire selection, clearing node/frame selection.
func (s *Store) SelectWires(ids_ []ids.WireId) { s.state.SetWireSelection(ids_) }

// ClearSelection empties all three selection sets.
func (s *Store) ClearSelection() { s.state.ClearSelection() }

// SetCanvasCenter records the canvas pan/zoom focal point.
func (s *Store) SetCanvasCenter(x, y float64) { s.state.SetCanvasCenter(x, y) }

// --- Mutations: the command layer ---

// Do applies a single command as its own committed batch and marks the
// affected nodes dirty in the engine.
func (s *Store) Do(label string, cmd command.GraphCommand) ([]ids.NodeId, error) {
	affected, err := s.mgr.Do(label, cmd)
	if err != nil {
		return nil, err
	}
	s.eng.MarkDirty(affected)
	return affected, nil
}

// BeginBatch/RecordCommand/CommitBatch/AbortBatch expose the manager's
// batch lifecycle directly for callers building a multi-command edit (a
// drag that moves several nodes, a subgraph sync).
func (s *Store) BeginBatch(label string) error { return s.mgr.BeginBatch(label) }

func (s *Store) RecordCommand(cmd command.GraphCommand) ([]ids.NodeId, error) {
	affected, err := s.mgr.RecordCommand(cmd)
	if err != nil {
		return nil, err
	}
	s.eng.MarkDirty(affected)
	return affected, nil
}

func (s *Store) CommitBatch() error { return s.mgr.CommitBatch() }

func (s *Store) AbortBatch() error { return s.mgr.AbortBatch() }

// Undo reverts the most recent committed batch.
func (s *Store) Undo() ([]ids.NodeId, error) {
	affected, err := s.mgr.Undo()
	if err != nil {
		return nil, err
	}
	s.eng.MarkDirty(affected)
	return affected, nil
}

// Redo reapplies the most recently undone batch.
func (s *Store) Redo() ([]ids.NodeId, error) {
	affected, err := s.mgr.Redo()
	if err != nil {
		return nil, err
	}
	s.eng.MarkDirty(affected)
	return affected, nil
}

// --- Execution ---

// RequestOutput asks the engine to resolve socketID, superseding any
// in-flight request.
func (s *Store) RequestOutput(socketID ids.SocketId) error { return s.eng.RequestOutput(socketID) }

// ClearOutput cancels and forgets the active requested output.
func (s *Store) ClearOutput() { s.eng.ClearOutput() }

// CancelEvaluation stops the active run without clearing which output is
// being observed.
func (s *Store) CancelEvaluation() { s.eng.CancelEvaluation() }

// Step advances the active evaluation by at most one node.
func (s *Store) Step(ctx context.Context) engine.StepResult { return s.eng.Step(ctx) }

// Run drives the active evaluation to completion.
func (s *Store) Run(ctx context.Context) (value.Value, error) { return s.eng.Run(ctx) }

// Events returns the engine's best-effort progress/value/error stream.
func (s *Store) Events() <-chan engine.Event { return s.eng.Events() }

// --- Persistence ---

// Save serializes the current graph to its document form.
func (s *Store) Save() ([]byte, error) { return codec.Marshal(s.g) }

// --- Subgraph navigation ---

// DescendInto pushes a breadcrumb and returns a Store for the named
// subgraph instance's embedded definition, sharing this Store's catalog,
// observer, and settings. It is rejected once the navigation stack is
// already subgraph.MaxDepth deep; Settings.MaxSubgraphDepth is not consulted.
func (s *Store) DescendInto(subgraphNodeID ids.NodeId, label string) (*Store, error) {
	if err := subgraph.CheckDepth(len(s.state.GraphPath())); err != nil {
		return nil, err
	}
	node, ok := s.g.Node(subgraphNodeID)
	if !ok {
		return nil, fmt.Errorf("editor: unknown node %q", subgraphNodeID)
	}
	params, err := subgraph.ParseParams(node.Params)
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	child := New(WithCatalog(s.catalog), WithObserver(s.obs), WithSettings(s.settings))
	decoded, err := codec.Decode(params.Graph)
	if err != nil {
		return nil, fmt.Errorf("editor: decoding subgraph definition: %w", err)
	}
	child.g = decoded
	child.mgr = command.NewManager(decoded)
	child.eng = engine.New(decoded, child.catalog, child.dirty, child.obs)
	for _, entry := range s.state.GraphPath() {
		child.state.PushBreadcrumb(entry)
	}
	child.state.PushBreadcrumb(uistate.BreadcrumbEntry{GraphID: decoded.GraphID, Label: label, ParentNodeID: subgraphNodeID})
	return child, nil
}

// AscendTo writes this Store's current document back into parentNodeID's
// params.graph on parent, as one undoable batch, and returns the popped
// breadcrumb.
func (s *Store) AscendTo(parent *Store, parentNodeID ids.NodeId) (uistate.BreadcrumbEntry, error) {
	entry, ok := s.state.PopBreadcrumb()
	if !ok {
		return uistate.BreadcrumbEntry{}, fmt.Errorf("editor: no breadcrumb to ascend from")
	}
	doc := codec.Encode(s.g)
	if err := subgraph.WriteBackToParent(parent.mgr, parentNodeID, doc); err != nil {
		return uistate.BreadcrumbEntry{}, err
	}
	parent.eng.MarkDirty([]ids.NodeId{parentNodeID})
	return entry, nil
}
