// Package registry holds the catalog of node templates available to the editor.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrTemplateNotFound indicates no template is registered for a node type.
	ErrTemplateNotFound = errors.New("node template not found")

	// ErrInvalidTemplate indicates a template failed validation on registration.
	ErrInvalidTemplate = errors.New("invalid node template")

	// ErrEmptyCatalog is reported by HealthCheck when nothing is registered.
	ErrEmptyCatalog = errors.New("node template catalog is empty")
)

// Registry is an insertion-ordered, concurrency-safe node template catalog.
type Registry struct {
	logger    *slog.Logger
	validate  *validator.Validate
	mu        sync.RWMutex
	templates map[string]*models.NodeTemplate
	order     []string
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log.With("module", "registry"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		templates: make(map[string]*models.NodeTemplate),
	}
}

// Register adds or replaces a template after validating it.
func (r *Registry) Register(template *models.NodeTemplate) error {
	if err := r.check(template); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(template)

	return nil
}

// Replace swaps the whole catalog, as done after fetching it from the
// backend. Nothing changes unless every template is valid.
func (r *Registry) Replace(templates []*models.NodeTemplate) error {
	for _, t := range templates {
		if err := r.check(t); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates = make(map[string]*models.NodeTemplate, len(templates))
	r.order = nil

	for _, t := range templates {
		r.put(t)
	}

	r.logger.Info("Catalog replaced", "templates", len(templates))

	return nil
}

func (r *Registry) put(template *models.NodeTemplate) {
	if _, exists := r.templates[template.ID]; !exists {
		r.order = append(r.order, template.ID)
	}

	r.templates[template.ID] = template

	r.logger.Debug("Registered node template", "type", template.ID)
}

func (r *Registry) check(template *models.NodeTemplate) error {
	if template == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}

	if err := r.validate.Struct(template); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidTemplate, template.ID, err)
	}

	if dups := template.DuplicatePropertyNames(); len(dups) > 0 {
		return fmt.Errorf("%w %s: duplicate properties %s", ErrInvalidTemplate, template.ID, strings.Join(dups, ", "))
	}

	return nil
}

// Template returns the template for a node type.
func (r *Registry) Template(nodeType string) (*models.NodeTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[nodeType]

	return t, ok
}

// MustTemplate is Template returning ErrTemplateNotFound for unknown types.
func (r *Registry) MustTemplate(nodeType string) (*models.NodeTemplate, error) {
	t, ok := r.Template(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, nodeType)
	}

	return t, nil
}

// Templates returns every template in registration order.
func (r *Registry) Templates() []*models.NodeTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.NodeTemplate, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}

	return out
}

// Categories groups template ids by category. Ids keep registration order.
func (r *Registry) Categories() map[string][]string {
	out := make(map[string][]string)

	for _, t := range r.Templates() {
		category := t.Category
		if category == "" {
			category = "Other"
		}

		out[category] = append(out[category], t.ID)
	}

	return out
}

// CategoryNames returns the sorted category names.
func (r *Registry) CategoryNames() []string {
	categories := r.Categories()
	names := make([]string, 0, len(categories))

	for name := range categories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NodeCategories summarizes the palette categories in name order.
func (r *Registry) NodeCategories() []models.NodeCategory {
	categories := r.Categories()
	out := make([]models.NodeCategory, 0, len(categories))

	for _, name := range r.CategoryNames() {
		types := categories[name]
		out = append(out, models.NodeCategory{Name: name, Count: len(types), Types: types})
	}

	return out
}

// HealthCheck reports whether the catalog is usable.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.templates) == 0 {
		return ErrEmptyCatalog.Error(), false
	}

	return fmt.Sprintf("%d node templates", len(r.templates)), true
}

// Has reports whether nodeType is registered.
func (r *Registry) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[nodeType]

	return ok
}
