package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Template serves the workflow template gallery and creates workflows from it.
type Template struct {
	gallery   *gallery.Gallery
	workflows *Workflow
	logger    *slog.Logger
}

// NewTemplate creates a new template service. Workflows are created through
// workflows so they are validated and announced like any other.
func NewTemplate(gallery *gallery.Gallery, workflows *Workflow, logger *slog.Logger) *Template {
	return &Template{
		gallery:   gallery,
		workflows: workflows,
		logger:    logger.With("module", "template_service"),
	}
}

// List returns the templates matching filter with the category summary.
func (t *Template) List(filter gallery.Filter) gallery.Listing {
	return t.gallery.List(filter)
}

// Get returns one template, or gallery.ErrTemplateNotFound.
func (t *Template) Get(id string) (*models.WorkflowTemplate, error) {
	return t.gallery.Get(id)
}

// Use creates a workflow from a copy of a template graph. Node ids are kept
// since they are scoped to one workflow and $node references in configs use
// them. An empty name keeps the template name.
func (t *Template) Use(ctx context.Context, id, name string) (*models.Workflow, error) {
	template, err := t.gallery.Get(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = template.Name
	}

	workflow, err := t.workflows.Create(ctx, &SaveWorkflowRequest{
		Name:        name,
		Description: template.Description,
		Graph:       template.Graph,
	})
	if err != nil {
		return nil, err
	}

	if err := t.gallery.RecordUse(id); err != nil {
		t.logger.WarnContext(ctx, "Failed to record template use", "template_id", id, "error", err)
	}

	t.logger.InfoContext(ctx, "Workflow created from template", "template_id", id, "workflow_id", workflow.ID)

	return workflow, nil
}
