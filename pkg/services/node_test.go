package services

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Templates(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	require.NoError(t, reg.RegisterDefaultTemplates())

	service := NewNode(reg)

	all := service.Templates("")
	assert.Len(t, all, len(reg.Templates()))

	data := service.Templates("Data")
	require.NotEmpty(t, data)

	for _, tmpl := range data {
		assert.Equal(t, "Data", tmpl.Category)
	}

	assert.Empty(t, service.Templates("Nope"))

	tmpl, err := service.Template("httpRequest")
	require.NoError(t, err)
	assert.Equal(t, "HTTP Request", tmpl.Name)

	_, err = service.Template("teleport")
	assert.ErrorIs(t, err, registry.ErrTemplateNotFound)

	assert.Same(t, reg, service.Catalog())
}

func TestNode_Categories(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	require.NoError(t, reg.RegisterDefaultTemplates())

	categories := NewNode(reg).Categories()
	require.NotEmpty(t, categories)

	total := 0
	for i, c := range categories {
		assert.Len(t, c.Types, c.Count)
		total += c.Count

		if i > 0 {
			assert.Less(t, categories[i-1].Name, c.Name)
		}
	}

	assert.Equal(t, len(reg.Templates()), total)
}
