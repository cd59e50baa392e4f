package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
	"github.com/nodeflow-dev/nodeflow-core/observability"
	"github.com/nodeflow-dev/nodeflow-core/subgraph"
	"github.com/nodeflow-dev/nodeflow-core/value"
)

// Engine is the pull-based, memoized execution engine.
//
// Rather than modeling "single-threaded cooperative" scheduling with an
// internal goroutine and a cancellation channel, Engine exposes Step as the
// unit of cooperative work: each call evaluates at most one node and
// returns control to the caller's own event loop, which may then observe a
// new requestOutput, clearOutput, or cancelEvaluation call before invoking
// Step again. Run is a convenience that loops Step to completion for
// callers that don't need interleaving.
type Engine struct {
	mu       sync.Mutex
	store    *graph.Graph
	catalog  *Catalog
	state    *DirtyState
	obs      observability.Provider
	bypassed map[ids.NodeId]bool

	activeSocket ids.SocketId
	hasActive    bool
	run          *runState

	lastValue    value.Value
	lastErr      error
	lastProgress Progress

	events chan Event

	// externalInputs and paramOverlay are set only on the short-lived inner
	// Engine an evaluateSubgraphNode call builds to flatten one subgraph
	// instance; a top-level Engine never populates them. externalInputs
	// substitutes a declared input socket's resolved value in place of its
	// (absent) internal wiring; paramOverlay shallow-merges promoted and
	// instance-override values into a node's params before Compute runs.
	externalInputs map[ids.SocketId]value.Value
	paramOverlay   map[ids.NodeId]map[string]value.Value

	// depth counts subgraph nesting for this Engine; zero on a top-level
	// Engine, incremented by one on each inner Engine evaluateSubgraphNode
	// constructs. Checked against subgraph.MaxDepth before expanding.
	depth int
}

// runState is the paused evaluation of one requestOutput call: a
// precomputed topological order over the active output's transitive
// dependency set, and a cursor into it.
type runState struct {
	order     []ids.NodeId
	idx       int
	total     int
	completed int
	socketID  ids.SocketId
	canceled  bool
}

// New creates an engine bound to store, catalog, and state. obs may be nil.
func New(store *graph.Graph, catalog *Catalog, state *DirtyState, obs observability.Provider) *Engine {
	return &Engine{
		store:    store,
		catalog:  catalog,
		state:    state,
		obs:      observability.Or(obs),
		bypassed: make(map[ids.NodeId]bool),
		events:   make(chan Event, 256),
		lastValue: value.Null(),
	}
}

// SetBypassed toggles whether a node is in bypassedNodes; bypassed nodes
// pass an input through instead of computing.
func (e *Engine) SetBypassed(nodeID ids.NodeId, bypassed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if bypassed {
		e.bypassed[nodeID] = true
	} else {
		delete(e.bypassed, nodeID)
	}
}

// IsBypassed reports whether nodeID is currently bypassed.
func (e *Engine) IsBypassed(nodeID ids.NodeId) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bypassed[nodeID]
}

// MarkDirty forwards to the bound DirtyState; the command layer calls this
// with the dirty set it computed after a batch commit.
func (e *Engine) MarkDirty(nodeIDs []ids.NodeId) { e.state.MarkDirty(nodeIDs) }

// IsDirty reports whether nodeID's cached output is currently invalid.
func (e *Engine) IsDirty(nodeID ids.NodeId) bool { return e.state.IsDirty(nodeID) }

// RequestOutput designates socketID as the active output and prepares (but
// does not run) its evaluation. Any run already in progress is treated as
// superseded and surfaces ExecutionCanceled. Call Step or Run to make
// progress.
func (e *Engine) RequestOutput(socketID ids.SocketId) error {
	order, err := e.buildOrder(socketID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != nil {
		e.lastErr = &ExecutionCanceled{}
		e.emitLocked(Event{Kind: EventCanceled})
	}

	e.activeSocket = socketID
	e.hasActive = true
	e.lastValue = value.Null()

	if err != nil {
		e.run = nil
		if ce, ok := err.(*CyclicDependency); ok {
			e.lastErr = ce
			e.emitLocked(Event{Kind: EventError, Err: ce})
			return nil
		}
		return err
	}

	e.lastErr = nil
	e.run = &runState{order: order, total: len(order), socketID: socketID}
	e.emitLocked(Event{Kind: EventProgress, Progress: Progress{Total: len(order)}})
	return nil
}

// ClearOutput abandons the active output and cancels any in-progress
// evaluation.
func (e *Engine) ClearOutput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.run = nil
	e.hasActive = false
	e.lastValue = value.Null()
	e.lastErr = nil
	e.emitLocked(Event{Kind: EventIdle})
}

// CancelEvaluation signals cancellation of the current run; the next
// observation sees ExecutionCanceled. The active output designation itself
// is left in place.
func (e *Engine) CancelEvaluation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return
	}
	e.run = nil
	e.lastErr = &ExecutionCanceled{}
	e.emitLocked(Event{Kind: EventCanceled})
}

// RefreshActiveOutput re-runs the currently active output to completion,
// used after undo/redo or load. It is a no-op if there is no active
// output.
func (e *Engine) RefreshActiveOutput(ctx context.Context) (value.Value, error) {
	e.mu.Lock()
	active, has := e.activeSocket, e.hasActive
	e.mu.Unlock()
	if !has {
		return value.Null(), nil
	}
	if err := e.RequestOutput(active); err != nil {
		return value.Null(), err
	}
	return e.Run(ctx)
}

// Step performs at most one unit of cooperative work on the active run: it
// evaluates the next pending node, or — once every node in the transitive
// dependency set is fresh — resolves and reports the active output's final
// value. Step returns Done=true once the run has finished, failed, or been
// canceled.
func (e *Engine) Step(ctx context.Context) StepResult {
	select {
	case <-ctx.Done():
		e.mu.Lock()
		e.run = nil
		e.lastErr = &ExecutionCanceled{}
		e.emitLocked(Event{Kind: EventCanceled})
		e.mu.Unlock()
		return StepResult{Done: true, Err: &ExecutionCanceled{}}
	default:
	}

	e.mu.Lock()
	rs := e.run
	if rs == nil {
		value, err := e.lastValue, e.lastErr
		e.mu.Unlock()
		return StepResult{Done: true, Value: value, Err: err}
	}
	if rs.canceled {
		e.run = nil
		e.lastErr = &ExecutionCanceled{}
		e.emitLocked(Event{Kind: EventCanceled})
		e.mu.Unlock()
		return StepResult{Done: true, Err: &ExecutionCanceled{}}
	}
	if rs.idx >= len(rs.order) {
		v, err := e.resolveFinalValueLocked(rs.socketID)
		e.lastValue, e.lastErr = v, err
		progress := Progress{Completed: rs.completed, Total: rs.total}
		e.run = nil
		if err != nil {
			e.emitLocked(Event{Kind: EventError, Err: err})
		} else {
			e.emitLocked(Event{Kind: EventValue, Value: v})
		}
		e.mu.Unlock()
		return StepResult{Done: true, Value: v, Err: err, Progress: progress}
	}
	nodeID := rs.order[rs.idx]
	e.mu.Unlock()

	_, _, fatal := e.evaluateNode(ctx, nodeID)

	e.mu.Lock()
	defer e.mu.Unlock()
	// the run may have been superseded or canceled while this node computed
	if e.run != rs {
		return StepResult{Done: true, Err: e.lastErr}
	}
	if fatal != nil {
		e.lastErr = fatal
		e.run = nil
		e.emitLocked(Event{Kind: EventError, Err: fatal})
		return StepResult{Done: true, Err: fatal}
	}
	rs.idx++
	rs.completed++
	progress := Progress{Completed: rs.completed, Total: rs.total}
	e.emitLocked(Event{Kind: EventProgress, Progress: progress})
	return StepResult{Done: false, Progress: progress}
}

// Run loops Step to completion, returning the active output's final value
// or the error that ended the run.
func (e *Engine) Run(ctx context.Context) (value.Value, error) {
	for {
		r := e.Step(ctx)
		if r.Done {
			return r.Value, r.Err
		}
	}
}

// OutputValue returns the last resolved value of the active output.
func (e *Engine) OutputValue() value.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastValue
}

// OutputError returns the error (if any) that ended the most recent run.
func (e *Engine) OutputError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// OutputProgress returns the progress of the in-progress run, or the final
// progress of the last completed one.
func (e *Engine) OutputProgress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run != nil {
		return Progress{Completed: e.run.completed, Total: e.run.total}
	}
	return e.lastProgress
}

// Events returns the engine's progress/result event stream (a supplemented
// feature grounded on leofalp-aigo/patterns/graph/stream.go). Sends are
// best-effort: a slow or absent consumer never blocks evaluation.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) emitLocked(evt Event) {
	if evt.Kind == EventProgress {
		e.lastProgress = evt.Progress
	}
	select {
	case e.events <- evt:
	default:
	}
}

// buildOrder resolves socketID to its owning node and returns a topological
// ordering of that node's transitive-dependency set.
func (e *Engine) buildOrder(socketID ids.SocketId) ([]ids.NodeId, error) {
	socket, ok := e.store.Socket(socketID)
	if !ok {
		return nil, fmt.Errorf("engine: unknown socket %s", socketID)
	}
	full, err := e.store.TopoSort()
	if err != nil {
		return nil, &CyclicDependency{NodeId: socket.NodeID}
	}
	closure := e.store.UpstreamClosure(socket.NodeID)
	inClosure := make(map[ids.NodeId]bool, len(closure))
	for _, n := range closure {
		inClosure[n] = true
	}
	order := make([]ids.NodeId, 0, len(closure))
	for _, n := range full {
		if inClosure[n] {
			order = append(order, n)
		}
	}
	return order, nil
}

// resolveFinalValueLocked reads the cached output produced for socketID's
// node. Callers must hold e.mu.
func (e *Engine) resolveFinalValueLocked(socketID ids.SocketId) (value.Value, error) {
	socket, ok := e.store.Socket(socketID)
	if !ok {
		return value.Null(), fmt.Errorf("engine: unknown socket %s", socketID)
	}
	outputs, ok := e.state.cachedOutputs(socket.NodeID)
	if !ok {
		return value.Null(), fmt.Errorf("engine: node %s produced no cached output", socket.NodeID)
	}
	v, ok := outputs[socket.Name]
	if !ok {
		return value.ZeroValue(socket.DataType), nil
	}
	return v, nil
}

// evaluateNode resolves nodeID's inputs (from cache or defaults/zeros),
// invokes its compute function (or bypass pass-through), and stores the
// result. It returns the node's outputs, any non-fatal warnings, and a
// fatal error if the node's own compute failed.
func (e *Engine) evaluateNode(ctx context.Context, nodeID ids.NodeId) (map[string]value.Value, []RuntimeError, error) {
	if cached, ok := e.state.cachedOutputs(nodeID); ok {
		// A node whose last compute failed stays failed until it is dirtied.
		errs := e.state.NodeErrors(nodeID)
		for _, re := range errs {
			if failed, ok := re.(*NodeComputeFailed); ok {
				return nil, errs, failed
			}
		}
		return cached, errs, nil
	}

	node, ok := e.store.Node(nodeID)
	if !ok {
		return nil, nil, fmt.Errorf("engine: unknown node %s", nodeID)
	}
	inputSockets, outputSockets := e.store.NodeSockets(nodeID)

	inputValues := make(map[string]value.Value, len(inputSockets))
	var warnings []RuntimeError
	for _, in := range inputSockets {
		if v, ok := e.externalInputs[in.ID]; ok {
			inputValues[in.Name] = v
			continue
		}
		if wire, ok := e.store.IncomingWire(in.ID); ok {
			fromSocket, ok := e.store.Socket(wire.FromSocketID)
			if !ok {
				inputValues[in.Name] = value.ZeroValue(in.DataType)
				continue
			}
			producerOutputs, _ := e.state.cachedOutputs(fromSocket.NodeID)
			v, ok := producerOutputs[fromSocket.Name]
			if !ok {
				v = value.ZeroValue(fromSocket.DataType)
			}
			coerced, err := value.Coerce(v, fromSocket.DataType, in.DataType)
			if err != nil {
				coerced = value.ZeroValue(in.DataType)
			}
			inputValues[in.Name] = coerced
			continue
		}
		if in.Required {
			warnings = append(warnings, &MissingRequiredInput{NodeId: nodeID, SocketId: in.ID, SocketName: in.Name})
		}
		if in.DefaultValue != nil {
			inputValues[in.Name] = *in.DefaultValue
		} else {
			inputValues[in.Name] = value.ZeroValue(in.DataType)
		}
	}

	var outputs map[string]value.Value
	switch {
	case e.IsBypassed(nodeID):
		outputs = bypassPassthrough(inputSockets, outputSockets, inputValues)
	case node.Type == subgraph.NodeType:
		out, err := e.evaluateSubgraphNode(ctx, nodeID, node, inputValues, inputSockets)
		if err != nil {
			nerr := &NodeComputeFailed{NodeId: nodeID, NodeType: node.Type, Cause: err}
			e.state.store(nodeID, nil, append(warnings, nerr))
			return nil, warnings, nerr
		}
		outputs = out
	default:
		def, ok := e.catalog.Lookup(node.Type)
		if !ok {
			err := &NodeComputeFailed{NodeId: nodeID, NodeType: node.Type, Cause: fmt.Errorf("unregistered node type %q", node.Type)}
			e.state.store(nodeID, nil, append(warnings, err))
			return nil, warnings, err
		}
		params := node.Params
		if overlay, ok := e.paramOverlay[nodeID]; ok {
			params = subgraph.ApplyOverrides(node.Params, overlay)
		}
		ctx, span := e.obs.StartSpan(ctx, "node.compute", observability.String("node_type", node.Type))
		out, err := def.Compute(params, inputValues)
		if err != nil {
			span.RecordError(err)
			span.End()
			nerr := &NodeComputeFailed{NodeId: nodeID, NodeType: node.Type, Cause: err}
			e.state.store(nodeID, nil, append(warnings, nerr))
			return nil, warnings, nerr
		}
		span.End()
		outputs = out
	}

	e.state.store(nodeID, outputs, warnings)
	return outputs, warnings, nil
}

// evaluateSubgraphNode flattens one subgraph instance: it decodes the
// embedded definition into a fresh graph.Graph, routes the outer instance's
// resolved input values and wired promoted parameters into the inner nodes,
// applies instance overrides, evaluates the mapped inner output sockets on a
// short-lived inner Engine, and returns the instance's outer outputs.
func (e *Engine) evaluateSubgraphNode(ctx context.Context, nodeID ids.NodeId, node graph.Node, inputValues map[string]value.Value, inputSockets []graph.Socket) (map[string]value.Value, error) {
	if err := subgraph.CheckDepth(e.depth); err != nil {
		return nil, err
	}
	params, err := subgraph.ParseParams(node.Params)
	if err != nil {
		return nil, err
	}
	inner, err := codec.Decode(params.Graph)
	if err != nil {
		return nil, fmt.Errorf("subgraph: decoding embedded graph: %w", err)
	}

	externalInputs := make(map[ids.SocketId]value.Value, len(params.Inputs))
	overlay := make(map[ids.NodeId]map[string]value.Value)
	for name, ref := range params.Inputs {
		v, ok := inputValues[name]
		if !ok {
			continue
		}
		if ref.SocketID != "" {
			// a declared (non-promoted) input: feed straight into the inner socket
			externalInputs[ref.SocketID] = v
			continue
		}
		// a promoted param ref carries no SocketID; it targets an inner
		// node's param field directly and only applies when this outer
		// socket is actually wired (checked via the matching input socket
		// definition below), matching the "from an incoming wire" half of
		// the promotion rule. An unwired promoted socket leaves the inner
		// field's own value untouched by adding no overlay entry.
		if !socketWired(inputSockets, name, e.store) {
			continue
		}
		if overlay[ref.NodeID] == nil {
			overlay[ref.NodeID] = make(map[string]value.Value)
		}
		overlay[ref.NodeID][findPromotedFieldID(params.PromotedParams, name)] = v
	}
	for innerNodeID, fields := range params.Overrides {
		overlay[innerNodeID] = subgraph.ApplyOverrides(overlay[innerNodeID], fields)
	}

	innerEngine := New(inner, e.catalog, NewDirtyState(), e.obs)
	innerEngine.externalInputs = externalInputs
	innerEngine.paramOverlay = overlay
	innerEngine.depth = e.depth + 1

	outputs := make(map[string]value.Value, len(params.Outputs))
	for name, ref := range params.Outputs {
		if err := innerEngine.RequestOutput(ref.SocketID); err != nil {
			return nil, fmt.Errorf("subgraph: requesting output %q: %w", name, err)
		}
		v, err := innerEngine.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("subgraph: evaluating output %q: %w", name, err)
		}
		outputs[name] = v
	}
	return outputs, nil
}

// socketWired reports whether the outer instance socket named name (one of
// nodeID's input sockets) has an incoming wire.
func socketWired(inputSockets []graph.Socket, name string, store *graph.Graph) bool {
	s, ok := findSocketByName(inputSockets, name)
	if !ok {
		return false
	}
	_, wired := store.IncomingWire(s.ID)
	return wired
}

// findPromotedFieldID looks up the inner field ID a promoted outer socket
// name maps to.
func findPromotedFieldID(promoted []subgraph.PromotedParam, key string) string {
	for _, pp := range promoted {
		if pp.Key == key {
			return pp.FieldID
		}
	}
	return ""
}

// bypassPassthrough implements the bypass rule: for each output, pass
// through the first compatible input (preferring one with the same name),
// or the output's zero value if none matches.
func bypassPassthrough(inputSockets, outputSockets []graph.Socket, inputValues map[string]value.Value) map[string]value.Value {
	result := make(map[string]value.Value, len(outputSockets))
	for _, out := range outputSockets {
		if in, ok := findSocketByName(inputSockets, out.Name); ok && value.Compatible(in.DataType, out.DataType) {
			if coerced, err := value.Coerce(inputValues[in.Name], in.DataType, out.DataType); err == nil {
				result[out.Name] = coerced
				continue
			}
		}
		matched := false
		for _, in := range inputSockets {
			if !value.Compatible(in.DataType, out.DataType) {
				continue
			}
			coerced, err := value.Coerce(inputValues[in.Name], in.DataType, out.DataType)
			if err != nil {
				continue
			}
			result[out.Name] = coerced
			matched = true
			break
		}
		if !matched {
			result[out.Name] = value.ZeroValue(out.DataType)
		}
	}
	return result
}

func findSocketByName(sockets []graph.Socket, name string) (graph.Socket, bool) {
	for _, s := range sockets {
		if s.Name == name {
			return s, true
		}
	}
	return graph.Socket{}, false
}
