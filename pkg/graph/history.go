package graph

import "github.com/dukex/flowcanvas/pkg/models"

// DefaultHistoryDepth bounds the undo stack.
const DefaultHistoryDepth = 100

// History owns the current graph and the undo/redo stacks. It is not safe
// for concurrent use; an editing session serializes access.
type History struct {
	current models.Graph
	undo    []models.Graph
	redo    []models.Graph
	depth   int
}

// NewHistory starts a history at g. A depth below one uses DefaultHistoryDepth.
func NewHistory(g models.Graph, depth int) *History {
	if depth < 1 {
		depth = DefaultHistoryDepth
	}

	return &History{current: g.Clone(), depth: depth}
}

// Graph returns a copy of the current graph.
func (h *History) Graph() models.Graph {
	return h.current.Clone()
}

// Do applies cmd. On failure the state is left untouched. On success the redo
// stack is cleared.
func (h *History) Do(cmd Command) error {
	next, err := cmd.Apply(h.current)
	if err != nil {
		return err
	}

	h.undo = append(h.undo, h.current)
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}

	h.redo = nil
	h.current = next

	return nil
}

// Undo reverts the last applied command.
func (h *History) Undo() error {
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}

	last := len(h.undo) - 1
	h.redo = append(h.redo, h.current)
	h.current = h.undo[last]
	h.undo = h.undo[:last]

	return nil
}

// Redo re-applies the last undone command.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}

	last := len(h.redo) - 1
	h.undo = append(h.undo, h.current)
	h.current = h.redo[last]
	h.redo = h.redo[:last]

	return nil
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset replaces the current graph and clears both stacks.
func (h *History) Reset(g models.Graph) {
	h.current = g.Clone()
	h.undo = nil
	h.redo = nil
}
