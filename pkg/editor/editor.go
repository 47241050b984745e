// Package editor converts between the canonical workflow graph and the canvas
// model rendered by the visual editor.
package editor

import (
	"fmt"

	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	// DefaultIcon and DefaultColor render nodes whose type has no template.
	DefaultIcon  = "📦"
	DefaultColor = "#6B7280"

	// NodeRenderer is the canvas component every node is drawn with.
	NodeRenderer = "custom"
)

// Node is a canvas node. Persisted holds exactly what is saved; Render holds
// fields resolved from the template for display only.
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position models.Position `json:"position"`
	Data     NodeData        `json:"data"`
}

type NodeData struct {
	NodeType  string          `json:"nodeType"`
	Persisted models.NodeData `json:"persisted"`
	Render    Render          `json:"render"`
}

// Render carries the display-only fields of a canvas node.
type Render struct {
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon"`
	Color       string            `json:"color"`
	Inputs      int               `json:"inputs"`
	Outputs     int               `json:"outputs"`
	Known       bool              `json:"known"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Valid reports whether the node has no validation badges.
func (r Render) Valid() bool {
	return len(r.Errors) == 0
}

// Edge is a canvas edge.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Type         string    `json:"type"`
	Animated     bool      `json:"animated"`
	MarkerEnd    Marker    `json:"markerEnd"`
	Style        EdgeStyle `json:"style"`
	Data         EdgeData  `json:"data"`
}

type Marker struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color"`
}

type EdgeStyle struct {
	StrokeWidth float64 `json:"strokeWidth"`
	Stroke      string  `json:"stroke"`
}

// EdgeData remembers the id of the persisted connection, which may be empty.
type EdgeData struct {
	ConnectionID string `json:"connectionId"`
}

// DefaultEdgeStyle is applied uniformly to every edge.
func DefaultEdgeStyle(e *Edge) {
	e.Type = "smoothstep"
	e.Animated = true
	e.MarkerEnd = Marker{Type: "arrowclosed", Width: 10, Height: 10, Color: DefaultColor}
	e.Style = EdgeStyle{StrokeWidth: 3, Stroke: DefaultColor}
}

// ConfigValidator returns per-property error messages for a node config.
type ConfigValidator func(template *models.NodeTemplate, config map[string]any) map[string]string

type options struct {
	validate ConfigValidator
}

// Option configures ToEditorModel.
type Option func(*options)

// WithValidation attaches live validation badges to known nodes.
func WithValidation(fn ConfigValidator) Option {
	return func(o *options) {
		o.validate = fn
	}
}

// ToEditorModel resolves render fields for every node from catalog. Nodes of
// unknown type fall back to neutral defaults; conversion never fails.
func ToEditorModel(g models.Graph, catalog models.TemplateCatalog, opts ...Option) ([]Node, []Edge) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	nodes := make([]Node, 0, len(g.Nodes))

	for _, n := range g.Nodes {
		var tmpl *models.NodeTemplate
		if catalog != nil {
			tmpl, _ = catalog.Template(n.Type)
		}

		node := Node{
			ID:       n.ID,
			Type:     NodeRenderer,
			Position: n.Position,
			Data: NodeData{
				NodeType:  n.Type,
				Persisted: n.Clone().Data,
				Render:    render(n, tmpl),
			},
		}

		if tmpl != nil && o.validate != nil {
			node.Data.Render.Errors = o.validate(tmpl, n.Data.Config)
		}

		nodes = append(nodes, node)
	}

	edges := make([]Edge, 0, len(g.Connections))

	for i, c := range g.Connections {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("e-%s-%s-%d", c.Source, c.Target, i)
		}

		edge := Edge{
			ID:           id,
			Source:       c.Source,
			Target:       c.Target,
			SourceHandle: c.SourceHandle,
			TargetHandle: c.TargetHandle,
			Data:         EdgeData{ConnectionID: c.ID},
		}
		DefaultEdgeStyle(&edge)

		edges = append(edges, edge)
	}

	return nodes, edges
}

func render(n models.Node, tmpl *models.NodeTemplate) Render {
	r := Render{
		Label:       n.Data.Label,
		Description: n.Data.Description,
		Icon:        n.Data.Icon,
		Color:       n.Data.Color,
		Inputs:      1,
		Outputs:     1,
	}

	if tmpl != nil {
		r.Known = true
		r.Inputs = tmpl.Inputs
		r.Outputs = tmpl.Outputs
		r.Icon = firstNonEmpty(r.Icon, tmpl.Icon)
		r.Color = firstNonEmpty(r.Color, tmpl.Color)
		r.Description = firstNonEmpty(r.Description, tmpl.Description)
	}

	r.Label = firstNonEmpty(r.Label, n.Type)
	r.Icon = firstNonEmpty(r.Icon, DefaultIcon)
	r.Color = firstNonEmpty(r.Color, DefaultColor)

	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// ToCanonicalModel strips every render-only field.
func ToCanonicalModel(nodes []Node, edges []Edge) models.Graph {
	g := models.Graph{
		Nodes:       make([]models.Node, 0, len(nodes)),
		Connections: make([]models.Connection, 0, len(edges)),
	}

	for _, n := range nodes {
		g.Nodes = append(g.Nodes, models.Node{
			ID:       n.ID,
			Type:     n.Data.NodeType,
			Position: n.Position,
			Data:     n.Data.Persisted,
		}.Clone())
	}

	for _, e := range edges {
		g.Connections = append(g.Connections, models.Connection{
			ID:           e.Data.ConnectionID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}

	return g
}

// NewEdge builds a styled canvas edge for a connection drawn by the user.
func NewEdge(conn models.Connection) Edge {
	edge := Edge{
		ID:           conn.ID,
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
		Data:         EdgeData{ConnectionID: conn.ID},
	}
	DefaultEdgeStyle(&edge)

	return edge
}
