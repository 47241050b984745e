package graph

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(testutil.Chain("a", "b", "c")))
	assert.NoError(t, Validate(models.Graph{}))

	g := testutil.Chain("a", "b")
	g.Nodes = append(g.Nodes, testutil.CreateTestNode(testutil.WithID("a")), testutil.CreateTestNode(testutil.WithID("")))
	g.Connections = append(g.Connections, models.Connection{ID: "bad", Source: "a", Target: "ghost"})

	err := Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Len(t, integrity.Problems, 3)
	assert.Contains(t, err.Error(), "ghost")
}

func TestExecutionOrder(t *testing.T) {
	order, err := ExecutionOrder(diamond())
	require.NoError(t, err)

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}

	assert.Len(t, order, 4)
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["a"], pos["c"])
	assert.Less(t, pos["b"], pos["d"])
	assert.Less(t, pos["c"], pos["d"])
	assert.False(t, HasCycle(diamond()))
}

func TestExecutionOrder_Stable(t *testing.T) {
	g := models.Graph{Nodes: []models.Node{
		testutil.CreateTestNode(testutil.WithID("z")),
		testutil.CreateTestNode(testutil.WithID("y")),
		testutil.CreateTestNode(testutil.WithID("x")),
	}}

	order, err := ExecutionOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, order)
}

func TestExecutionOrder_Cycle(t *testing.T) {
	g := testutil.Chain("a", "b", "c")
	g.Connections = append(g.Connections, models.Connection{ID: "back", Source: "c", Target: "a"})

	_, err := ExecutionOrder(g)
	assert.ErrorIs(t, err, ErrCycle)
	assert.True(t, HasCycle(g))

	self := testutil.Chain("a")
	self.Connections = []models.Connection{{ID: "s", Source: "a", Target: "a"}}
	assert.True(t, HasCycle(self))
}
