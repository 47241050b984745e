// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) models.Node {
	node := models.Node{
		ID:       uuid.New().String(),
		Type:     "httpRequest",
		Position: models.Position{X: 100, Y: 200},
		Data: models.NodeData{
			Label:  "Test Node",
			Config: map[string]any{"url": "https://example.com", "method": "GET"},
		},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Label = label
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Config = config
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// Chain builds a graph of nodes with the given ids connected in sequence.
func Chain(ids ...string) models.Graph {
	g := models.Graph{}

	for i, id := range ids {
		g.Nodes = append(g.Nodes, CreateTestNode(WithID(id), WithLabel(id)))

		if i > 0 {
			g.Connections = append(g.Connections, models.Connection{
				ID:     "c-" + ids[i-1] + "-" + id,
				Source: ids[i-1],
				Target: id,
			})
		}
	}

	return g
}

// CreateTestWorkflow creates a test Workflow holding a three-node chain.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:          "test-workflow",
		Name:        "Test Workflow",
		Description: "Test workflow description",
		Graph:       Chain("a", "b", "c"),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

func WithWorkflowID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

func WithWorkflowName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

func ptr(v float64) *float64 { return &v }

// HTTPTemplate returns a template resembling an HTTP request node.
func HTTPTemplate() *models.NodeTemplate {
	return &models.NodeTemplate{
		ID:      "httpRequest",
		Name:    "HTTP Request",
		Icon:    "🌐",
		Color:   "#3B82F6",
		Inputs:  1,
		Outputs: 1,
		Properties: []models.PropertyDescriptor{
			{Name: "url", Label: "URL", Type: models.PropertyTypeString, Required: true},
			{
				Name: "method", Label: "Method", Type: models.PropertyTypeSelect, Default: "GET",
				Options: []string{"GET", "POST", "PUT", "DELETE"},
			},
			{Name: "headers", Type: models.PropertyTypeKeyValue},
			{Name: "timeout", Type: models.PropertyTypeNumber, Default: float64(30), Min: ptr(1), Max: ptr(300)},
		},
		Sample: &models.SampleShape{
			Fields: []models.SampleField{
				{Label: "Response body", Path: "data"},
				{Label: "Status code", Path: "metadata.statusCode"},
			},
			Output: map[string]any{
				"data":     map[string]any{"id": float64(123), "name": "John Doe"},
				"metadata": map[string]any{"statusCode": float64(200)},
			},
		},
	}
}

// EmailTemplate returns a template resembling an email node.
func EmailTemplate() *models.NodeTemplate {
	return &models.NodeTemplate{
		ID:      "email",
		Name:    "Send Email",
		Icon:    "📧",
		Color:   "#EF4444",
		Inputs:  1,
		Outputs: 1,
		Properties: []models.PropertyDescriptor{
			{Name: "toEmail", Label: "To", Type: models.PropertyTypeString, Required: true},
			{Name: "subject", Type: models.PropertyTypeString, Required: true},
			{Name: "body", Type: models.PropertyTypeText},
			{Name: "html", Type: models.PropertyTypeBoolean, Default: false},
		},
	}
}
