package editor

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() models.TemplateSet {
	return models.NewTemplateSet(testutil.HTTPTemplate(), testutil.EmailTemplate())
}

func sampleGraph() models.Graph {
	return models.Graph{
		Nodes: []models.Node{
			{
				ID: "a", Type: "httpRequest", Position: models.Position{X: 1.5, Y: 2},
				Data: models.NodeData{Label: "Fetch", Config: map[string]any{
					"url": "https://x", "headers": map[string]any{"k": "v"}, "list": []any{float64(1)},
				}},
			},
			{
				ID: "b", Type: "mystery", Position: models.Position{X: 10, Y: 20},
				Data: models.NodeData{Icon: "⭐", Description: "custom"},
			},
			{ID: "c", Type: "email", Data: models.NodeData{Label: "Mail", Color: "#000000"}},
		},
		Connections: []models.Connection{
			{ID: "ab", Source: "a", Target: "b"},
			{Source: "b", Target: "c", SourceHandle: "out-1", TargetHandle: "in-0"},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	catalogs := map[string]models.TemplateCatalog{
		"full":  catalog(),
		"empty": models.TemplateSet{},
		"nil":   nil,
	}

	for name, c := range catalogs {
		t.Run(name, func(t *testing.T) {
			g := sampleGraph()

			nodes, edges := ToEditorModel(g, c)
			back := ToCanonicalModel(nodes, edges)

			assert.Equal(t, g, back)
		})
	}
}

func TestRoundTrip_EmptyGraph(t *testing.T) {
	nodes, edges := ToEditorModel(models.Graph{}, catalog())
	back := ToCanonicalModel(nodes, edges)

	assert.Empty(t, back.Nodes)
	assert.Empty(t, back.Connections)
}

func TestToEditorModel_RenderFields(t *testing.T) {
	nodes, edges := ToEditorModel(sampleGraph(), catalog())
	require.Len(t, nodes, 3)
	require.Len(t, edges, 2)

	known := nodes[0].Data.Render
	assert.True(t, known.Known)
	assert.Equal(t, "Fetch", known.Label)
	assert.Equal(t, "🌐", known.Icon)
	assert.Equal(t, "#3B82F6", known.Color)
	assert.Equal(t, 1, known.Inputs)
	assert.Equal(t, NodeRenderer, nodes[0].Type)

	unknown := nodes[1].Data.Render
	assert.False(t, unknown.Known)
	assert.Equal(t, "mystery", unknown.Label)
	assert.Equal(t, "⭐", unknown.Icon)
	assert.Equal(t, DefaultColor, unknown.Color)
	assert.Equal(t, "custom", unknown.Description)

	override := nodes[2].Data.Render
	assert.Equal(t, "#000000", override.Color)
	assert.Equal(t, "📧", override.Icon)

	for _, e := range edges {
		assert.Equal(t, "smoothstep", e.Type)
		assert.True(t, e.Animated)
		assert.Equal(t, Marker{Type: "arrowclosed", Width: 10, Height: 10, Color: DefaultColor}, e.MarkerEnd)
		assert.Equal(t, 3.0, e.Style.StrokeWidth)
		assert.NotEmpty(t, e.ID)
	}

	assert.Empty(t, edges[1].Data.ConnectionID)
}

func TestToEditorModel_RenderDoesNotAliasConfig(t *testing.T) {
	g := sampleGraph()

	nodes, _ := ToEditorModel(g, catalog())
	nodes[0].Data.Persisted.Config["url"] = "changed"

	assert.Equal(t, "https://x", g.Nodes[0].Data.Config["url"])
}

func TestToEditorModel_WithValidation(t *testing.T) {
	calls := 0
	validate := func(tmpl *models.NodeTemplate, config map[string]any) map[string]string {
		calls++
		if _, ok := config["toEmail"]; !ok && tmpl.ID == "email" {
			return map[string]string{"toEmail": "To is required"}
		}

		return nil
	}

	nodes, _ := ToEditorModel(sampleGraph(), catalog(), WithValidation(validate))

	assert.Equal(t, 2, calls)
	assert.True(t, nodes[0].Data.Render.Valid())
	assert.True(t, nodes[1].Data.Render.Valid())
	assert.False(t, nodes[2].Data.Render.Valid())
	assert.Equal(t, "To is required", nodes[2].Data.Render.Errors["toEmail"])
}

func TestNewEdge(t *testing.T) {
	edge := NewEdge(models.Connection{ID: "x", Source: "a", Target: "b"})

	assert.Equal(t, "x", edge.Data.ConnectionID)
	assert.Equal(t, "smoothstep", edge.Type)

	g := ToCanonicalModel(nil, []Edge{edge})
	assert.Equal(t, []models.Connection{{ID: "x", Source: "a", Target: "b"}}, g.Connections)
}
