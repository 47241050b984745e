package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning  ExecutionStatus = "running"
	ExecutionStatusSuccess  ExecutionStatus = "success"
	ExecutionStatusError    ExecutionStatus = "error"
	ExecutionStatusWaiting  ExecutionStatus = "waiting"
	ExecutionStatusCanceled ExecutionStatus = "canceled"
)

// IsTerminal reports whether no further status change is expected.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusError || s == ExecutionStatusCanceled
}

// Valid reports whether s is a known status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionStatusRunning, ExecutionStatusSuccess, ExecutionStatusError,
		ExecutionStatusWaiting, ExecutionStatusCanceled:
		return true
	default:
		return false
	}
}

// Execution is a single run of a workflow as reported by the backend.
type Execution struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflowId"`
	Status     ExecutionStatus `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	Error      *ExecutionError `json:"error,omitempty"`
	Input      any             `json:"input,omitempty"`
	Data       ExecutionData   `json:"data"`
}

// ExecutionError describes why a run failed.
type ExecutionError struct {
	Message string `json:"message"`
	Node    string `json:"node,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ExecutionData wraps the per-node run results.
type ExecutionData struct {
	ResultData ResultData `json:"resultData"`
}

// ResultData holds run results keyed by node id.
type ResultData struct {
	RunData map[string]NodeRunResult `json:"runData"`
}

// NodeRunResult is the recorded output of one node. Expressions address it as
// $node.<id>.data... and $node.<id>.metadata...
type NodeRunResult struct {
	Data          any            `json:"data"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Status        string         `json:"status,omitempty"`
	StartedAt     *time.Time     `json:"startedAt,omitempty"`
	ExecutionTime int64          `json:"executionTime,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Record returns the result as the JSON-like value expressions are evaluated
// against.
func (r NodeRunResult) Record() map[string]any {
	record := map[string]any{"data": r.Data}

	if r.Metadata != nil {
		record["metadata"] = r.Metadata
	}

	if r.Status != "" {
		record["status"] = r.Status
	}

	if r.Error != "" {
		record["error"] = r.Error
	}

	return record
}

// Duration returns the run duration, or zero while still running.
func (e *Execution) Duration() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}

	return e.FinishedAt.Sub(e.StartedAt)
}

// FileInfo describes an uploaded file. File-typed config values hold its ID.
type FileInfo struct {
	ID         string    `json:"_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimetype"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt,omitzero"`
}
