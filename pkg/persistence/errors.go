package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrFileNotFound indicates an uploaded file was not found by the given identifier.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidSortField indicates a listing was requested on an unknown field.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrInvalidSortOrder indicates a sort order other than asc or desc.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// ExecutionError wraps execution-related errors with additional context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// FileError wraps errors about uploaded files.
type FileError struct {
	Op     string
	FileID string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s operation failed for file %s: %v", e.Op, e.FileID, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func (e *FileError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFileError creates a new file error with context.
func NewFileError(op, fileID string, err error) *FileError {
	return &FileError{Op: op, FileID: fileID, Err: err}
}

// SortError reports a rejected listing parameter.
type SortError struct {
	Value string
	Err   error
}

func (e *SortError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Value)
}

func (e *SortError) Unwrap() error {
	return e.Err
}

// NewSortError creates a new sort error.
func NewSortError(value string, err error) *SortError {
	return &SortError{Value: value, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsFileNotFound checks if an error indicates a file was not found.
func IsFileNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsNotFound reports any of the not found errors.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) || IsExecutionNotFound(err) || IsFileNotFound(err)
}

// IsInvalidSortField checks if an error indicates an invalid sort field.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}

// IsInvalidSort reports a rejected sort field or order.
func IsInvalidSort(err error) bool {
	return errors.Is(err, ErrInvalidSortField) || errors.Is(err, ErrInvalidSortOrder)
}
