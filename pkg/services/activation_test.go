package services

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivationFixture(t *testing.T) (*Activation, persistence.Persistence) {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	require.NoError(t, reg.RegisterDefaultTemplates())

	p := file.NewPersistence(t.TempDir())

	return NewActivation(p, reg, testLogger()), p
}

func TestActivation_ActivateAndDeactivate(t *testing.T) {
	service, p := newActivationFixture(t)

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), workflow))

	activated, err := service.Activate(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)

	stored, err := p.WorkflowRepository().GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)

	deactivated, err := service.Deactivate(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
}

func TestActivation_Rejects(t *testing.T) {
	cyclic := testutil.Chain("a", "b")
	cyclic.Connections = append(cyclic.Connections, models.Connection{ID: "back", Source: "b", Target: "a"})

	missingURL := testutil.Chain("a")
	missingURL.Nodes[0].Data.Config = map[string]any{"method": "GET"}

	tests := []struct {
		name     string
		workflow *models.Workflow
		wantErr  error
	}{
		{
			name:     "no nodes",
			workflow: testutil.CreateTestWorkflow(func(w *models.Workflow) { w.Graph = models.Graph{} }),
			wantErr:  ErrNodesRequired,
		},
		{
			name:     "cycle",
			workflow: testutil.CreateTestWorkflow(func(w *models.Workflow) { w.Graph = cyclic }),
			wantErr:  ErrInvalidGraph,
		},
		{
			name:     "invalid config",
			workflow: testutil.CreateTestWorkflow(func(w *models.Workflow) { w.Graph = missingURL }),
			wantErr:  ErrInvalidGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, p := newActivationFixture(t)
			require.NoError(t, p.WorkflowRepository().Save(t.Context(), tt.workflow))

			_, err := service.Activate(t.Context(), tt.workflow.ID)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))

			stored, err := p.WorkflowRepository().GetByID(t.Context(), tt.workflow.ID)
			require.NoError(t, err)
			assert.False(t, stored.Active)
		})
	}
}

func TestActivation_UnknownWorkflow(t *testing.T) {
	service, _ := newActivationFixture(t)

	_, err := service.Activate(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	_, err = service.Deactivate(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
