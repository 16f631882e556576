package mocks

import (
	"context"

	"github.com/arcsuite/arcflow/pkg/editor"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of editor.Gateway interface.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Workflow), args.Error(1)
}

func (m *MockGateway) CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockGateway) UpdateWorkflow(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

// MockNotifier is a mock implementation of editor.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notice editor.Notice) {
	m.Called(ctx, notice)
}
