package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/mocks"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBus() *mocks.MockEventBus {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return bus
}

func saveRequest(name string, g models.Graph) *SaveWorkflowRequest {
	return &SaveWorkflowRequest{Name: name, Description: "desc", Graph: g}
}

func TestNewWorkflow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p, nil, testLogger())

	assert.NotNil(t, service)
	assert.Equal(t, p, service.persistence)

	msg, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", msg)
}

func TestWorkflow_Create(t *testing.T) {
	bus := newTestBus()
	service := NewWorkflow(file.NewPersistence(t.TempDir()), bus, testLogger())

	created, err := service.Create(t.Context(), saveRequest("  Orders  ", testutil.Chain("a", "b")))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Orders", created.Name)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Len(t, created.Nodes, 2)
	assert.Len(t, created.Connections, 1)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)
	require.Len(t, fetched.Nodes, 2)
	assert.Equal(t, "a", fetched.Nodes[0].ID)
	assert.Equal(t, "b", fetched.Connections[0].Target)

	published := bus.Published()
	require.Len(t, published, 1)

	saved, ok := published[0].(events.WorkflowSaved)
	require.True(t, ok)
	assert.Equal(t, created.ID, saved.WorkflowID)
	assert.Equal(t, 2, saved.Nodes)
	assert.Equal(t, 1, saved.Connections)
}

func TestWorkflow_CreateEmptyGraph(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()), nil, testLogger())

	created, err := service.Create(t.Context(), saveRequest("Empty", models.Graph{}))
	require.NoError(t, err)

	assert.NotNil(t, created.Nodes)
	assert.NotNil(t, created.Connections)
	assert.Empty(t, created.Nodes)
}

func TestWorkflow_CreateValidation(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()), nil, testLogger())

	tests := []struct {
		name    string
		req     *SaveWorkflowRequest
		wantErr error
	}{
		{name: "nil request", req: nil, wantErr: ErrWorkflowNil},
		{name: "blank name", req: saveRequest("   ", models.Graph{}), wantErr: ErrWorkflowNameRequired},
		{
			name: "dangling connection",
			req: saveRequest("Broken", models.Graph{
				Nodes:       []models.Node{testutil.CreateTestNode(testutil.WithID("a"))},
				Connections: []models.Connection{{ID: "c1", Source: "a", Target: "ghost"}},
			}),
			wantErr: ErrInvalidGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(t.Context(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestWorkflow_SaveUpserts(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()), nil, testLogger())

	created, err := service.Save(t.Context(), "wf-1", saveRequest("First", testutil.Chain("a")))
	require.NoError(t, err)
	assert.Equal(t, "wf-1", created.ID)

	time.Sleep(5 * time.Millisecond)

	updated, err := service.Save(t.Context(), "wf-1", saveRequest("Second", testutil.Chain("a", "b", "c")))
	require.NoError(t, err)

	assert.Equal(t, "Second", updated.Name)
	assert.Len(t, updated.Nodes, 3)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestWorkflow_SaveKeepsActive(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p, nil, testLogger())

	workflow := testutil.CreateTestWorkflow()
	workflow.Active = true
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), workflow))

	saved, err := service.Save(t.Context(), workflow.ID, saveRequest("Renamed", workflow.Graph))
	require.NoError(t, err)
	assert.True(t, saved.Active)
}

func TestWorkflow_ListWorkflows(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()), nil, testLogger())

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := service.Create(t.Context(), saveRequest(name, models.Graph{}))
		require.NoError(t, err)
	}

	workflows, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	assert.Equal(t, "alpha", workflows[0].Name)
	assert.Equal(t, "bravo", workflows[1].Name)
	assert.Equal(t, "charlie", workflows[2].Name)

	_, err = service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortBy: "status"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortField)
	assert.True(t, IsValidationError(err))

	_, err = service.ListWorkflows(t.Context(), ListWorkflowsRequest{SortOrder: "sideways"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestWorkflow_Delete(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()), nil, testLogger())

	created, err := service.Create(t.Context(), saveRequest("Doomed", models.Graph{}))
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = service.Delete(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_PublishFailureDoesNotFailSave(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	service := NewWorkflow(file.NewPersistence(t.TempDir()), bus, testLogger())

	_, err := service.Create(t.Context(), saveRequest("Quiet", models.Graph{}))
	require.NoError(t, err)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestWorkflow_RepositoryFailures(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("create save fails", func(t *testing.T) {
		p := mocks.NewMockPersistence()
		p.GetMockWorkflowRepository().On("Save", mock.Anything, mock.AnythingOfType("*models.Workflow")).Return(boom)

		bus := newTestBus()
		service := NewWorkflow(p, bus, testLogger())

		_, err := service.Create(t.Context(), saveRequest("Broken", testutil.Chain("a")))
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to create workflow")
		assert.False(t, IsValidationError(err))
		assert.Empty(t, bus.Published())
		p.GetMockWorkflowRepository().AssertExpectations(t)
	})

	t.Run("save lookup fails", func(t *testing.T) {
		p := mocks.NewMockPersistence()
		p.GetMockWorkflowRepository().On("GetByID", mock.Anything, "wf-1").Return(nil, boom)

		_, err := NewWorkflow(p, nil, testLogger()).Save(t.Context(), "wf-1", saveRequest("X", models.Graph{}))
		require.ErrorIs(t, err, boom)
		p.GetMockWorkflowRepository().AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("list fails", func(t *testing.T) {
		p := mocks.NewMockPersistence()
		p.GetMockWorkflowRepository().On("List", mock.Anything, persistence.ListOptions{}).Return(nil, boom)

		_, err := NewWorkflow(p, nil, testLogger()).ListWorkflows(t.Context(), ListWorkflowsRequest{})
		require.ErrorIs(t, err, boom)
		assert.False(t, IsValidationError(err))
	})

	t.Run("health check", func(t *testing.T) {
		p := mocks.NewMockPersistence()
		p.On("HealthCheck", mock.Anything).Return(boom)

		message, ok := NewWorkflow(p, nil, testLogger()).HealthCheck(t.Context())
		assert.False(t, ok)
		assert.Contains(t, message, "connection reset")
	})
}
