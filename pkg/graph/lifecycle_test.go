package graph

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	tmpl := testutil.HTTPTemplate()

	node := NewNode(tmpl, &models.Position{X: 10, Y: 20})

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "httpRequest", node.Type)
	assert.Equal(t, models.Position{X: 10, Y: 20}, node.Position)
	assert.Equal(t, "HTTP Request", node.Data.Label)
	assert.Equal(t, "🌐", node.Data.Icon)
	assert.Equal(t, "#3B82F6", node.Data.Color)
	assert.Equal(t, map[string]any{"method": "GET", "timeout": float64(30)}, node.Data.Config)

	other := NewNode(tmpl, nil)
	assert.NotEqual(t, node.ID, other.ID)
	assert.GreaterOrEqual(t, other.Position.X, 100.0)
	assert.GreaterOrEqual(t, other.Position.Y, 100.0)
}

func TestNewNode_ConfigNotSharedWithTemplate(t *testing.T) {
	tmpl := testutil.HTTPTemplate()
	tmpl.Properties = append(tmpl.Properties, models.PropertyDescriptor{
		Name: "tags", Type: models.PropertyTypeArray, Default: []any{"a"},
	})

	node := NewNode(tmpl, nil)
	node.Data.Config["tags"].([]any)[0] = "changed"

	prop, ok := tmpl.Property("tags")
	require.True(t, ok)
	assert.Equal(t, []any{"a"}, prop.Default)
}

func TestDelete(t *testing.T) {
	g := testutil.Chain("a", "b", "c")
	g.Connections = append(g.Connections, models.Connection{ID: "x", Source: "a", Target: "c"})

	for _, id := range []string{"a", "b", "c"} {
		t.Run(id, func(t *testing.T) {
			out, err := Delete(g, id)
			require.NoError(t, err)

			assert.False(t, out.HasNode(id))
			assert.Len(t, out.Nodes, 2)

			for _, c := range out.Connections {
				assert.NotEqual(t, id, c.Source)
				assert.NotEqual(t, id, c.Target)
			}

			assert.NoError(t, Validate(out))
		})
	}

	// input untouched
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Connections, 3)
}

func TestDelete_UnknownNode(t *testing.T) {
	g := testutil.Chain("a")

	_, err := Delete(g, "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.True(t, IsNodeNotFound(err))
}

func TestDisconnect(t *testing.T) {
	g := testutil.Chain("a", "b", "c")

	out, removed, err := Disconnect(g, "b")
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.True(t, out.HasNode("b"))
	assert.Empty(t, out.Connections)

	_, removed, err = Disconnect(out, "b")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestConnect(t *testing.T) {
	g := testutil.Chain("a", "b")
	g.Connections = nil

	out, err := Connect(g, models.Connection{Source: "a", Target: "b"})
	require.NoError(t, err)
	require.Len(t, out.Connections, 1)
	assert.NotEmpty(t, out.Connections[0].ID)

	again, err := Connect(out, models.Connection{Source: "a", Target: "b"})
	require.NoError(t, err)
	assert.Len(t, again.Connections, 1)

	handles, err := Connect(out, models.Connection{Source: "a", Target: "b", SourceHandle: "false"})
	require.NoError(t, err)
	assert.Len(t, handles.Connections, 2)

	_, err = Connect(g, models.Connection{Source: "a", Target: "zzz"})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestRemoveConnection(t *testing.T) {
	g := testutil.Chain("a", "b", "c")

	out, err := RemoveConnection(g, "c-a-b")
	require.NoError(t, err)
	assert.Len(t, out.Connections, 1)
	assert.Equal(t, "c-b-c", out.Connections[0].ID)

	_, err = RemoveConnection(g, "nope")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestConfigureMoveRelabel(t *testing.T) {
	g := testutil.Chain("a")
	config := map[string]any{"url": "https://api.example.com", "nested": map[string]any{"k": "v"}}

	out, err := Configure(g, "a", config)
	require.NoError(t, err)

	config["nested"].(map[string]any)["k"] = "mutated"
	n, _ := out.Node("a")
	assert.Equal(t, "v", n.Data.Config["nested"].(map[string]any)["k"])

	out, err = Move(out, "a", models.Position{X: 1, Y: 2})
	require.NoError(t, err)

	out, err = Relabel(out, "a", "Fetch", "fetches things")
	require.NoError(t, err)

	n, _ = out.Node("a")
	assert.Equal(t, models.Position{X: 1, Y: 2}, n.Position)
	assert.Equal(t, "Fetch", n.Data.Label)
	assert.Equal(t, "fetches things", n.Data.Description)

	_, err = Move(out, "missing", models.Position{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestScenario_AddConnectSave(t *testing.T) {
	g := models.Graph{}

	a := NewNode(testutil.HTTPTemplate(), nil)
	assert.Equal(t, "GET", a.Data.Config["method"])

	b := NewNode(testutil.EmailTemplate(), nil)

	g, err := Insert(g, a)
	require.NoError(t, err)

	g, err = Insert(g, b)
	require.NoError(t, err)

	g, err = Connect(g, models.Connection{Source: a.ID, Target: b.ID})
	require.NoError(t, err)

	preds := DirectPredecessors(g, b.ID)
	require.Len(t, preds, 1)
	assert.Equal(t, a.ID, preds[0].ID)

	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Connections, 1)

	_, err = Insert(g, a)
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestScenario_DuplicateThenDeleteOriginal(t *testing.T) {
	a := NewNode(testutil.HTTPTemplate(), &models.Position{X: 10, Y: 10})
	a.Data.Label = "Fetch users"

	g, err := Insert(models.Graph{}, a)
	require.NoError(t, err)

	a2 := Duplicate(a)
	assert.NotEqual(t, a.ID, a2.ID)
	assert.Equal(t, "Fetch users (Copy)", a2.Data.Label)
	assert.Equal(t, models.Position{X: 60, Y: 60}, a2.Position)

	g, err = Insert(g, a2)
	require.NoError(t, err)

	g, err = Delete(g, a.ID)
	require.NoError(t, err)

	kept, ok := g.Node(a2.ID)
	require.True(t, ok)

	kept.Data.Config["method"] = "POST"
	assert.Equal(t, "GET", a.Data.Config["method"])
}
