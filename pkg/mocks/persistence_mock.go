package mocks

import (
	"context"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository interface.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) ([]*models.Workflow, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of persistence.ExecutionRepository interface.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Execution), args.Error(1)
}

func (m *MockExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

// MockFileRepository is a mock implementation of persistence.FileRepository interface.
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Save(ctx context.Context, info *models.FileInfo, content []byte) error {
	args := m.Called(ctx, info, content)

	return args.Error(0)
}

func (m *MockFileRepository) GetByID(ctx context.Context, id string) (*models.FileInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FileInfo), args.Error(1)
}

func (m *MockFileRepository) Content(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFileRepository) List(ctx context.Context) ([]*models.FileInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.FileInfo), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	workflowRepo  *MockWorkflowRepository
	executionRepo *MockExecutionRepository
	fileRepo      *MockFileRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		workflowRepo:  &MockWorkflowRepository{},
		executionRepo: &MockExecutionRepository{},
		fileRepo:      &MockFileRepository{},
	}
}

// GetMockWorkflowRepository returns the underlying mock workflow repository for setting up expectations.
func (m *MockPersistence) GetMockWorkflowRepository() *MockWorkflowRepository {
	return m.workflowRepo
}

func (m *MockPersistence) GetMockExecutionRepository() *MockExecutionRepository {
	return m.executionRepo
}

func (m *MockPersistence) GetMockFileRepository() *MockFileRepository {
	return m.fileRepo
}

func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	return m.workflowRepo
}

func (m *MockPersistence) ExecutionRepository() persistence.ExecutionRepository {
	return m.executionRepo
}

func (m *MockPersistence) FileRepository() persistence.FileRepository {
	return m.fileRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
