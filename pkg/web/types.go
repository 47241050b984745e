// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/services"
)

// SaveWorkflowRequest is the body of POST /workflows and PUT /workflows/:id.
type SaveWorkflowRequest struct {
	Name        string              `json:"name"        validate:"required,max=255"`
	Description string              `json:"description" validate:"max=4096"`
	Nodes       []models.Node       `json:"nodes"       validate:"dive"`
	Connections []models.Connection `json:"connections" validate:"dive"`
}

// ToService converts the body to the service request.
func (r SaveWorkflowRequest) ToService() *services.SaveWorkflowRequest {
	return &services.SaveWorkflowRequest{
		Name:        r.Name,
		Description: r.Description,
		Graph: models.Graph{
			Nodes:       r.Nodes,
			Connections: r.Connections,
		},
	}
}

// UpdateExecutionRequest is the body of PATCH /executions/:id, sent by the
// runner progressing an execution.
type UpdateExecutionRequest struct {
	Status  string                          `json:"status"  validate:"omitempty,oneof=running success error waiting canceled"`
	Error   *models.ExecutionError          `json:"error,omitempty"`
	RunData map[string]models.NodeRunResult `json:"runData,omitempty"`
}

// ToService converts the body to the service request.
func (r UpdateExecutionRequest) ToService() *services.UpdateExecutionRequest {
	return &services.UpdateExecutionRequest{
		Status:  models.ExecutionStatus(r.Status),
		Error:   r.Error,
		RunData: r.RunData,
	}
}

// UseTemplateRequest is the optional body of POST /templates/:id/use.
type UseTemplateRequest struct {
	Name string `json:"name" validate:"max=255"`
}
