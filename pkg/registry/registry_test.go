package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Register(&models.NodeTemplate{
		ID: "custom", Name: "Custom",
		Properties: []models.PropertyDescriptor{{Name: "a", Type: models.PropertyTypeString}},
	}))

	tmpl, ok := r.Template("custom")
	require.True(t, ok)
	assert.Equal(t, "Custom", tmpl.Name)
	assert.True(t, r.Has("custom"))

	_, ok = r.Template("missing")
	assert.False(t, ok)

	_, err := r.MustTemplate("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name     string
		template *models.NodeTemplate
	}{
		{"nil", nil},
		{"missing id", &models.NodeTemplate{Name: "x"}},
		{"unknown property type", &models.NodeTemplate{
			ID: "x", Name: "x",
			Properties: []models.PropertyDescriptor{{Name: "a", Type: "color"}},
		}},
		{"duplicate property", &models.NodeTemplate{
			ID: "x", Name: "x",
			Properties: []models.PropertyDescriptor{
				{Name: "a", Type: models.PropertyTypeString},
				{Name: "a", Type: models.PropertyTypeNumber},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.template)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}

	assert.Empty(t, r.Templates())
}

func TestRegistry_DefaultTemplates(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.RegisterDefaultTemplates())

	for _, id := range []string{
		"httpRequest", "aiChat", "aiTextGeneration", "uploadFile", "email",
		"code", "function", "filter", "sort", "database", "webhook",
	} {
		assert.True(t, r.Has(id), id)
	}

	http, _ := r.Template("httpRequest")
	assert.Equal(t, "GET", http.Defaults()["method"])
	require.NotNil(t, http.Sample)
	assert.NotEmpty(t, http.Sample.Fields)

	upload, _ := r.Template("uploadFile")
	assert.NotEmpty(t, upload.Sample.LoopFields)

	msg, ok := r.HealthCheck()
	assert.True(t, ok)
	assert.Contains(t, msg, "node templates")

	categories := r.Categories()
	assert.Equal(t, []string{"aiChat", "aiTextGeneration"}, categories["AI"])
	assert.Contains(t, r.CategoryNames(), "Data")
}

func TestRegistry_Replace(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.RegisterDefaultTemplates())

	err := r.Replace([]*models.NodeTemplate{{ID: "ok", Name: "ok"}, {Name: "broken"}})
	require.Error(t, err)
	assert.True(t, r.Has("httpRequest"))

	require.NoError(t, r.Replace([]*models.NodeTemplate{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}))

	templates := r.Templates()
	require.Len(t, templates, 2)
	assert.Equal(t, "b", templates[0].ID)
	assert.Equal(t, "a", templates[1].ID)
	assert.False(t, r.Has("httpRequest"))
}

func TestRegistry_NodeCategories(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(&models.NodeTemplate{ID: "send", Name: "Send", Category: "Communication"}))
	require.NoError(t, r.Register(&models.NodeTemplate{ID: "misc", Name: "Misc"}))
	require.NoError(t, r.Register(&models.NodeTemplate{ID: "ask", Name: "Ask", Category: "AI"}))
	require.NoError(t, r.Register(&models.NodeTemplate{ID: "reply", Name: "Reply", Category: "Communication"}))

	assert.Equal(t, []models.NodeCategory{
		{Name: "AI", Count: 1, Types: []string{"ask"}},
		{Name: "Communication", Count: 2, Types: []string{"send", "reply"}},
		{Name: "Other", Count: 1, Types: []string{"misc"}},
	}, r.NodeCategories())

	assert.Empty(t, newTestRegistry().NodeCategories())
}

func TestRegistry_HealthCheckEmpty(t *testing.T) {
	msg, ok := newTestRegistry().HealthCheck()

	assert.False(t, ok)
	assert.Equal(t, ErrEmptyCatalog.Error(), msg)
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
templates:
  - id: slack
    name: Slack Message
    icon: "💬"
    category: Communication
    inputs: 1
    outputs: 1
    properties:
      - name: channel
        type: string
        required: true
      - name: retries
        type: number
        default: 3
        min: 0
    sample:
      fields:
        - label: Message id
          path: data.ts
`), 0o600))

	jsonPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"id":"noop","name":"Noop","inputs":1,"outputs":1}]`), 0o600))

	r := newTestRegistry()

	n, err := r.LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	slack, ok := r.Template("slack")
	require.True(t, ok)
	assert.Equal(t, float64(3), slack.Defaults()["retries"])
	require.NotNil(t, slack.Properties[1].Min)
	assert.Equal(t, float64(0), *slack.Properties[1].Min)
	assert.Equal(t, "data.ts", slack.Sample.Fields[0].Path)

	n, err = r.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, r.Templates(), 2)

	_, err = r.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("templates:\n  - name: [unclosed"), 0o600))
	_, err = r.LoadFile(badPath)
	assert.Error(t, err)
}
