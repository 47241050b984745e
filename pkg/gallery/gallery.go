// Package gallery holds the ready-made workflows users can start from.
package gallery

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
)

// AllCategories selects every template in a Filter field.
const AllCategories = "all"

var (
	// ErrTemplateNotFound indicates no workflow template has the requested id.
	ErrTemplateNotFound = errors.New("workflow template not found")

	// ErrInvalidTemplate indicates a template failed validation on registration.
	ErrInvalidTemplate = errors.New("invalid workflow template")
)

// Filter narrows a listing. Empty fields and "all" match everything. Search
// matches the name, description and tags, ignoring case.
type Filter struct {
	Category   string
	Difficulty string
	Search     string
}

// Listing is one page of the gallery. Categories always cover the whole
// gallery so counts do not change while filtering.
type Listing struct {
	Templates  []*models.WorkflowTemplate `json:"templates"`
	Total      int                        `json:"total"`
	Categories []models.TemplateCategory  `json:"categories"`
}

// Gallery is an insertion-ordered, concurrency-safe workflow template catalog.
// Callers get copies, never the stored templates.
type Gallery struct {
	logger    *slog.Logger
	validate  *validator.Validate
	mu        sync.RWMutex
	templates map[string]*models.WorkflowTemplate
	order     []string
}

func NewGallery(log *slog.Logger) *Gallery {
	return &Gallery{
		logger:    log.With("module", "gallery"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		templates: make(map[string]*models.WorkflowTemplate),
	}
}

// Register adds or replaces a template after validating it and its graph.
func (g *Gallery) Register(template *models.WorkflowTemplate) error {
	if template == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}

	if err := g.validate.Struct(template); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidTemplate, template.ID, err)
	}

	if err := graph.Validate(template.Graph); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidTemplate, template.ID, err)
	}

	stored := clone(template)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.templates[stored.ID]; !exists {
		g.order = append(g.order, stored.ID)
	}

	g.templates[stored.ID] = stored

	g.logger.Debug("Registered workflow template", "template_id", stored.ID)

	return nil
}

// Get returns a copy of the template with the given id.
func (g *Gallery) Get(id string) (*models.WorkflowTemplate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	return clone(t), nil
}

// RecordUse bumps the usage counter of a template.
func (g *Gallery) RecordUse(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.templates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	t.UsageCount++

	return nil
}

// Len returns the number of templates.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.order)
}

// List returns the templates matching filter in registration order.
func (g *Gallery) List(filter Filter) Listing {
	g.mu.RLock()
	defer g.mu.RUnlock()

	listing := Listing{
		Templates:  []*models.WorkflowTemplate{},
		Categories: g.categories(),
	}

	for _, id := range g.order {
		t := g.templates[id]
		if filter.matches(t) {
			listing.Templates = append(listing.Templates, clone(t))
		}
	}

	listing.Total = len(listing.Templates)

	return listing
}

func (g *Gallery) categories() []models.TemplateCategory {
	counts := make(map[string]int)

	for _, t := range g.templates {
		counts[t.Category]++
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	out := make([]models.TemplateCategory, 0, len(ids)+1)
	out = append(out, models.TemplateCategory{ID: AllCategories, Name: "All Templates", Icon: "📋", Count: len(g.templates)})

	for _, id := range ids {
		name, icon := describeCategory(id)
		out = append(out, models.TemplateCategory{ID: id, Name: name, Icon: icon, Count: counts[id]})
	}

	return out
}

func (f Filter) matches(t *models.WorkflowTemplate) bool {
	if !matchesOption(f.Category, t.Category) {
		return false
	}

	if !matchesOption(f.Difficulty, string(t.Difficulty)) {
		return false
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}

	if strings.Contains(strings.ToLower(t.Name), search) ||
		strings.Contains(strings.ToLower(t.Description), search) {
		return true
	}

	return slices.ContainsFunc(t.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), search)
	})
}

func matchesOption(want, got string) bool {
	return want == "" || strings.EqualFold(want, AllCategories) || strings.EqualFold(want, got)
}

func clone(t *models.WorkflowTemplate) *models.WorkflowTemplate {
	c := *t
	c.Tags = slices.Clone(t.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}

	c.Graph = t.Graph.Clone()

	return &c
}
