package transfer

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() models.Graph {
	return models.Graph{
		Nodes: []models.Node{
			testutil.CreateTestNode(testutil.WithID("a")),
			testutil.CreateTestNode(testutil.WithID("b"), testutil.WithType("email"), testutil.WithConfig(map[string]any{"toEmail": "{{$item.email}}"})),
		},
		Connections: testutil.Chain("a", "b").Connections,
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	g := sampleGraph()
	catalog := models.NewTemplateSet(testutil.HTTPTemplate(), testutil.EmailTemplate())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	doc := Export("Flow", "desc", g, catalog, now)
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, now.UTC(), doc.ExportedAt)
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	for _, key := range []string{"name", "description", "nodes", "edges", "exportedAt", "version"} {
		assert.Contains(t, fields, key)
	}

	imported, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Flow", imported.Name)
	assert.Equal(t, "desc", imported.Description)
	assert.Equal(t, g, imported.Graph)
}

func TestExportEmptyGraph(t *testing.T) {
	doc := Export("", "", models.Graph{}, nil, time.Now())

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"nodes":[]`)
	assert.Contains(t, string(raw), `"edges":[]`)
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"missing edges", `{"nodes":[]}`, "missing edges"},
		{"missing nodes", `{"edges":[]}`, "missing nodes"},
		{"null nodes", `{"nodes":null,"edges":[]}`, "missing nodes"},
		{"not json", `nope`, "not a JSON object"},
		{"nodes not list", `{"nodes":{},"edges":[]}`, "nodes must be a list"},
		{"edges not list", `{"nodes":[],"edges":"x"}`, "edges must be a list"},
		{"untyped node", `{"nodes":[{"id":"a"}],"edges":[]}`, "node 0"},
		{"dangling edge", `{"nodes":[{"id":"a","type":"email"}],"edges":[{"id":"e","source":"a","target":"zz"}]}`, "broken graph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imported, err := Import([]byte(tt.input))
			assert.Nil(t, imported)
			require.ErrorIs(t, err, ErrMalformedImport)

			var mie *MalformedImportError
			require.ErrorAs(t, err, &mie)
			assert.Contains(t, mie.Reason, tt.reason)
		})
	}
}

func TestImport_CanonicalNodes(t *testing.T) {
	input := `{
		"name": "Plain",
		"nodes": [
			{"id":"a","type":"webhook","position":{"x":1,"y":2},"data":{"label":"Hook"}},
			{"id":"b","type":"email","data":{"label":"Mail","config":{"subject":"hi"}}}
		],
		"edges": [{"id":"ab","source":"a","target":"b"}]
	}`

	imported, err := Import([]byte(input))
	require.NoError(t, err)

	g := imported.Graph
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "webhook", g.Nodes[0].Type)
	assert.Equal(t, "Hook", g.Nodes[0].Data.Label)
	assert.Equal(t, "hi", g.Nodes[1].Data.Config["subject"])
	require.Len(t, g.Connections, 1)
	assert.Equal(t, "ab", g.Connections[0].ID)
	assert.Equal(t, "Plain", imported.Name)
	assert.Empty(t, imported.Description)
}
