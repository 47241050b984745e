package session

import (
	"context"
	"io"

	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/transfer"
)

// Export writes the current workflow as a transfer document.
func (s *Session) Export(w io.Writer) error {
	workflow := s.Workflow()

	return transfer.Write(w, transfer.Export(workflow.Name, workflow.Description, workflow.Graph, s.catalog, s.now()))
}

// Import replaces the graph with the one in data. A rejected document leaves
// the graph untouched. The replacement can be undone. Workflow name and
// description are kept; the document values are returned.
func (s *Session) Import(ctx context.Context, data []byte) (*transfer.Imported, error) {
	imported, err := transfer.Import(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected", "error", err)

		return nil, err
	}

	if err := s.Apply(ctx, &graph.ReplaceGraph{Graph: imported.Graph}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.WorkflowImported{
		BaseEvent:   events.NewBaseEvent(events.WorkflowImportedEvent, s.meta.ID),
		Name:        imported.Name,
		Nodes:       len(imported.Graph.Nodes),
		Connections: len(imported.Graph.Connections),
	})

	return imported, nil
}
