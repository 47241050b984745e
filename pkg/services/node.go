package services

import (
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/registry"
)

// Node serves the node template catalog.
type Node struct {
	registry *registry.Registry
}

// NewNode creates a new node service.
func NewNode(registry *registry.Registry) *Node {
	return &Node{registry: registry}
}

// Templates returns every template in registration order, optionally
// restricted to one category.
func (n *Node) Templates(category string) []*models.NodeTemplate {
	templates := n.registry.Templates()
	if category == "" {
		return templates
	}

	filtered := make([]*models.NodeTemplate, 0, len(templates))

	for _, t := range templates {
		if t.Category == category {
			filtered = append(filtered, t)
		}
	}

	return filtered
}

// Template returns one template by node type, or registry.ErrTemplateNotFound.
func (n *Node) Template(nodeType string) (*models.NodeTemplate, error) {
	return n.registry.MustTemplate(nodeType)
}

// Catalog exposes the registry to callers that validate configs.
func (n *Node) Catalog() models.TemplateCatalog {
	return n.registry
}

// Categories summarizes the palette categories in name order.
func (n *Node) Categories() []models.NodeCategory {
	return n.registry.NodeCategories()
}
