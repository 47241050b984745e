package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a placeholder body that is not a known expression.
	ErrSyntax = errors.New("invalid expression")

	// ErrMissingReference indicates an expression addresses a node that has
	// no recorded output.
	ErrMissingReference = errors.New("missing reference")

	// ErrScope indicates a variable used outside the scope that defines it.
	ErrScope = errors.New("variable out of scope")
)

// SyntaxError reports a malformed placeholder.
type SyntaxError struct {
	Expr   string // placeholder body
	Offset int    // byte offset of the placeholder in the source text
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v {{%s}} at offset %d: %s", ErrSyntax, e.Expr, e.Offset, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// MissingReferenceError reports a $node or $prev expression whose node did not
// produce an output.
type MissingReferenceError struct {
	Expr   string
	NodeID string
}

func (e *MissingReferenceError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%v: {{%s}} has no previous node", ErrMissingReference, e.Expr)
	}

	return fmt.Sprintf("%v: {{%s}} refers to node %s which has no output", ErrMissingReference, e.Expr, e.NodeID)
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrMissingReference
}

// ScopeError reports a loop variable used outside an iteration.
type ScopeError struct {
	Expr     string
	Variable string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%v: {{%s}} uses %s outside an iteration", ErrScope, e.Expr, e.Variable)
}

func (e *ScopeError) Is(target error) bool {
	return target == ErrScope
}
