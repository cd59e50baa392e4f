package subgraph

import (
	"fmt"

	"github.com/nodeflow-dev/nodeflow-core/codec"
	"github.com/nodeflow-dev/nodeflow-core/command"
	"github.com/nodeflow-dev/nodeflow-core/ids"
)

// WriteBackToParent writes a subgraph instance's edited document into its
// parent graph's subgraph node, as a single undoable command. Ascending a
// chain of breadcrumbs calls this once per level, from the graph just left
// up to the root, so every intermediate document along the path reflects
// the edits.
func WriteBackToParent(parentMgr *command.Manager, subgraphNodeID ids.NodeId, editedChild *codec.GraphDocument) error {
	encoded, err := encodeDocument(editedChild)
	if err != nil {
		return fmt.Errorf("subgraph: encoding edited document: %w", err)
	}
	if err := parentMgr.BeginBatch("write back subgraph edits"); err != nil {
		return err
	}
	if _, err := parentMgr.RecordCommand(command.UpdateNodeParam{NodeID: subgraphNodeID, Key: "graph", Value: encoded}); err != nil {
		_ = parentMgr.AbortBatch()
		return fmt.Errorf("subgraph: writing back params.graph: %w", err)
	}
	return parentMgr.CommitBatch()
}
