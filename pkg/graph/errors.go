package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNodeNotFound indicates an operation referenced a node id absent from the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode indicates a node id is already taken.
	ErrDuplicateNode = errors.New("node already exists")

	// ErrConnectionNotFound indicates a connection id is absent from the graph.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrCycle indicates the connections form a cycle.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrIntegrity indicates the graph breaks a structural invariant.
	ErrIntegrity = errors.New("graph integrity violated")

	// ErrNothingToUndo is returned by History.Undo on an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by History.Redo on an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// NodeError wraps a failed lifecycle operation on one node.
type NodeError struct {
	Op     string
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func nodeError(op, id string, err error) *NodeError {
	return &NodeError{Op: op, NodeID: id, Err: err}
}

// IntegrityError lists every structural problem found in a graph.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: %s", ErrIntegrity, strings.Join(e.Problems, "; "))
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
