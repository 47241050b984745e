package mocks

import (
	"context"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of the workflow backend used by an
// editing session.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockBackend) SaveWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	args := m.Called(ctx, workflow)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockBackend) ExecuteWorkflow(ctx context.Context, workflowID string, input any) (*models.Execution, error) {
	args := m.Called(ctx, workflowID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockBackend) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}
