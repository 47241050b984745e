// Package services implements the reference backend's business operations on
// top of the persistence layer.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrInvalidStatus        = errors.New("invalid execution status")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrInvalidGraph         = errors.New("invalid workflow graph")
	ErrNodesRequired        = errors.New("workflow must have at least one node")
	ErrEmptyFile            = errors.New("uploaded file is empty")
	ErrFileTooLarge         = errors.New("uploaded file is too large")

	// Business Logic Conflicts (409 Conflict).
	ErrExecutionFinished = errors.New("execution already finished")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrInvalidGraph) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrEmptyFile)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrExecutionFinished)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
