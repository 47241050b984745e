package graph

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_DoUndoRedo(t *testing.T) {
	h := NewHistory(models.Graph{}, 0)
	node := testutil.CreateTestNode(testutil.WithID("a"))

	require.NoError(t, h.Do(&AddNode{Node: node}))
	require.NoError(t, h.Do(&RelabelNode{NodeID: "a", Label: "renamed"}))

	n, _ := h.Graph().Node("a")
	assert.Equal(t, "renamed", n.Data.Label)

	require.NoError(t, h.Undo())
	n, _ = h.Graph().Node("a")
	assert.Equal(t, "Test Node", n.Data.Label)

	require.NoError(t, h.Undo())
	assert.Empty(t, h.Graph().Nodes)
	assert.ErrorIs(t, h.Undo(), ErrNothingToUndo)

	require.NoError(t, h.Redo())
	require.NoError(t, h.Redo())
	n, _ = h.Graph().Node("a")
	assert.Equal(t, "renamed", n.Data.Label)
	assert.ErrorIs(t, h.Redo(), ErrNothingToRedo)
}

func TestHistory_FailedCommandLeavesState(t *testing.T) {
	h := NewHistory(testutil.Chain("a", "b"), 0)

	err := h.Do(&DeleteNode{NodeID: "missing"})
	require.Error(t, err)

	assert.Len(t, h.Graph().Nodes, 2)
	assert.False(t, h.CanUndo())
}

func TestHistory_DoClearsRedo(t *testing.T) {
	h := NewHistory(testutil.Chain("a", "b"), 0)

	require.NoError(t, h.Do(&DeleteNode{NodeID: "b"}))
	require.NoError(t, h.Undo())
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Do(&MoveNode{NodeID: "a", Position: models.Position{X: 5}}))
	assert.False(t, h.CanRedo())
}

func TestHistory_Depth(t *testing.T) {
	h := NewHistory(testutil.Chain("a"), 2)

	for i := range 5 {
		require.NoError(t, h.Do(&MoveNode{NodeID: "a", Position: models.Position{X: float64(i)}}))
	}

	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	assert.ErrorIs(t, h.Undo(), ErrNothingToUndo)

	n, _ := h.Graph().Node("a")
	assert.Equal(t, 2.0, n.Position.X)
}

func TestCommands(t *testing.T) {
	h := NewHistory(testutil.Chain("a", "b"), 0)

	dup := &DuplicateNode{NodeID: "a"}
	require.NoError(t, h.Do(dup))
	require.NotNil(t, dup.Created)
	assert.True(t, h.Graph().HasNode(dup.Created.ID))

	disc := &DisconnectNode{NodeID: "b"}
	require.NoError(t, h.Do(disc))
	assert.Equal(t, 1, disc.Removed)

	conn := &ConnectNodes{Connection: models.Connection{Source: dup.Created.ID, Target: "b"}}
	require.NoError(t, h.Do(conn))
	assert.Equal(t, []string{dup.Created.ID}, PredecessorIDs(h.Graph(), "b"))

	require.NoError(t, h.Do(&RemoveEdge{ConnectionID: conn.Connection.ID}))
	assert.Empty(t, h.Graph().Connections)

	require.NoError(t, h.Do(&ConfigureNode{NodeID: "b", Config: map[string]any{"url": "x"}}))
	n, _ := h.Graph().Node("b")
	assert.Equal(t, "x", n.Data.Config["url"])

	require.NoError(t, h.Do(&ReplaceGraph{Graph: models.Graph{}}))
	assert.Empty(t, h.Graph().Nodes)

	require.NoError(t, h.Undo())
	assert.Len(t, h.Graph().Nodes, 3)
}

func TestCommandNames(t *testing.T) {
	cmds := []Command{
		&AddNode{}, &DeleteNode{}, &DuplicateNode{}, &ConnectNodes{}, &DisconnectNode{},
		&RemoveEdge{}, &ConfigureNode{}, &MoveNode{}, &RelabelNode{}, &ReplaceGraph{},
	}

	seen := map[string]bool{}
	for _, c := range cmds {
		assert.NotEmpty(t, c.Name())
		assert.False(t, seen[c.Name()], c.Name())
		seen[c.Name()] = true
	}
}
