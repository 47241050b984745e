// Package events defines the notifications emitted while a workflow is edited,
// saved and executed.
package events

import (
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every flowcanvas event.
const Topic = "flowcanvas.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Editing session events.
	WorkflowLoadedEvent   EventType = "workflow.loaded"
	GraphChangedEvent     EventType = "workflow.graph.changed"
	WorkflowImportedEvent EventType = "workflow.imported"
	SaveStateChangedEvent EventType = "workflow.save.state_changed"

	// Backend events.
	WorkflowSavedEvent EventType = "workflow.saved"
	FileUploadedEvent  EventType = "file.uploaded"
	FileDeletedEvent   EventType = "file.deleted"

	// Execution events.
	ExecutionStartedEvent       EventType = "execution.started"
	ExecutionStatusChangedEvent EventType = "execution.status_changed"
	ExecutionPollFailedEvent    EventType = "execution.poll_failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowLoaded struct {
	BaseEvent

	Name        string `json:"name"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
}

func (w WorkflowLoaded) GetType() EventType {
	return WorkflowLoadedEvent
}

// GraphChanged is emitted after a command, an undo or a redo.
type GraphChanged struct {
	BaseEvent

	Command     string `json:"command"`
	Action      string `json:"action"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
}

func (g GraphChanged) GetType() EventType {
	return GraphChangedEvent
}

type WorkflowImported struct {
	BaseEvent

	Name        string `json:"name"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
}

func (w WorkflowImported) GetType() EventType {
	return WorkflowImportedEvent
}

// SaveStateChanged reports a transition of the session save state. Error is
// set when State is failed.
type SaveStateChanged struct {
	BaseEvent

	From  string `json:"from"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func (s SaveStateChanged) GetType() EventType {
	return SaveStateChangedEvent
}

type WorkflowSaved struct {
	BaseEvent

	Name        string    `json:"name"`
	Nodes       int       `json:"nodes"`
	Connections int       `json:"connections"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (w WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type FileUploaded struct {
	BaseEvent

	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

func (f FileUploaded) GetType() EventType {
	return FileUploadedEvent
}

type FileDeleted struct {
	BaseEvent

	FileID string `json:"file_id"`
}

func (f FileDeleted) GetType() EventType {
	return FileDeletedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Input       any    `json:"input,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionStatusChanged struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
	Error       string                 `json:"error,omitempty"`
	DurationMs  int64                  `json:"duration_ms,omitempty"`
}

func (e ExecutionStatusChanged) GetType() EventType {
	return ExecutionStatusChangedEvent
}

type ExecutionPollFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Error       string `json:"error"`
	Attempt     int    `json:"attempt"`
}

func (e ExecutionPollFailed) GetType() EventType {
	return ExecutionPollFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
