package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/arcsuite/arcflow/pkg/events"
	"github.com/arcsuite/arcflow/pkg/mocks"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/persistence/file"
	"github.com/arcsuite/arcflow/pkg/registry"
	"github.com/arcsuite/arcflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current time and advances the clock by one second.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(time.Second)

	return now
}

func newTestService(t *testing.T, opts ...Option) (*Workflow, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	reg, err := registry.NewDefaultRegistry(slog.Default())
	require.NoError(t, err)

	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)

	return NewWorkflow(p, reg, opts...), p
}

func ptr[T any](v T) *T {
	return &v
}

func TestWorkflow_HealthCheck(t *testing.T) {
	service, _ := newTestService(t)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	broken := NewWorkflow(file.NewPersistence("/does/not/exist"), nil)
	message, ok = broken.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "unhealthy")

	missing := NewWorkflow(nil, nil)
	_, ok = missing.HealthCheck(t.Context())
	assert.False(t, ok)
}

func TestWorkflow_Create(t *testing.T) {
	service, p := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{
		Name:        "  Boas-vindas  ",
		Description: "Envia email de boas-vindas",
		Nodes: []models.NodeInstance{
			testutil.CreateTestNode(testutil.WithID("node_1")),
		},
	}, "ana")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Boas-vindas", created.Name)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.Equal(t, "ana", created.CreatedBy)
	assert.Len(t, created.Nodes, 1)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	stored, err := p.WorkflowRepository().GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
	assert.Equal(t, "node_1", stored.Nodes[0].ID)
}

func TestWorkflow_Create_Defaults(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "Vazio"}, "")
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.NotNil(t, created.Nodes)
	assert.Empty(t, created.Nodes)

	active, err := service.Create(t.Context(), models.CreateWorkflowRequest{
		Name:   "Ativo",
		Status: models.WorkflowStatusActive,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, active.Status)
}

func TestWorkflow_Create_Validation(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name    string
		req     models.CreateWorkflowRequest
		wantErr error
	}{
		{
			name:    "missing name",
			req:     models.CreateWorkflowRequest{},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "blank name",
			req:     models.CreateWorkflowRequest{Name: "   "},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "deleted status",
			req:     models.CreateWorkflowRequest{Name: "x", Status: models.WorkflowStatusDeleted},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "duplicate node ids",
			req: models.CreateWorkflowRequest{Name: "x", Nodes: []models.NodeInstance{
				testutil.CreateTestNode(testutil.WithID("a")),
				testutil.CreateTestNode(testutil.WithID("a")),
			}},
			wantErr: registry.ErrDuplicateNodeID,
		},
		{
			name: "category mismatch",
			req: models.CreateWorkflowRequest{Name: "x", Nodes: []models.NodeInstance{
				testutil.CreateTestNode(testutil.WithType(models.CategoryTrigger)),
			}},
			wantErr: registry.ErrCategoryMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(t.Context(), tt.req, "")
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWorkflow_FetchByID(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "Fetch"}, "")
	require.NoError(t, err)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Fetch", fetched.Name)

	_, err = service.FetchByID(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, CodeNotFound, serviceErr.Code)
}

func TestWorkflow_ListWorkflows(t *testing.T) {
	service, _ := newTestService(t)

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: name}, "")
		require.NoError(t, err)
	}

	active, err := service.Create(t.Context(), models.CreateWorkflowRequest{
		Name:   "Delta",
		Status: models.WorkflowStatusActive,
	}, "")
	require.NoError(t, err)

	t.Run("newest first by default", func(t *testing.T) {
		resp, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{})
		require.NoError(t, err)

		assert.Equal(t, int64(4), resp.TotalCount)
		assert.False(t, resp.HasNextPage)
		assert.Equal(t, []string{"Delta", "Charlie", "Bravo", "Alpha"}, names(resp.Workflows))
	})

	t.Run("status filter", func(t *testing.T) {
		resp, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{Status: ptr(models.WorkflowStatusActive)})
		require.NoError(t, err)

		require.Len(t, resp.Workflows, 1)
		assert.Equal(t, active.ID, resp.Workflows[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{
			Limit: 2, Offset: 1, SortBy: "name", SortOrder: "asc",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"Bravo", "Charlie"}, names(resp.Workflows))
		assert.Equal(t, int64(4), resp.TotalCount)
		assert.True(t, resp.HasNextPage)
	})

	t.Run("deleted workflows are hidden", func(t *testing.T) {
		require.NoError(t, service.Delete(t.Context(), active.ID))

		resp, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.TotalCount)
	})
}

func TestWorkflow_ListWorkflows_Validation(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name    string
		req     ListWorkflowsRequest
		wantErr error
	}{
		{"unknown sort field", ListWorkflowsRequest{SortBy: "status"}, ErrInvalidSortField},
		{"unknown sort order", ListWorkflowsRequest{SortOrder: "up"}, ErrInvalidSortOrder},
		{"negative limit", ListWorkflowsRequest{Limit: -1}, ErrInvalidRequest},
		{"limit too large", ListWorkflowsRequest{Limit: 1001}, ErrInvalidRequest},
		{"negative offset", ListWorkflowsRequest{Offset: -1}, ErrInvalidRequest},
		{"deleted status", ListWorkflowsRequest{Status: ptr(models.WorkflowStatusDeleted)}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ListWorkflows(t.Context(), tt.req)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWorkflow_Update(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{
		Name:        "Original",
		Description: "keep me",
		Nodes:       []models.NodeInstance{testutil.CreateTestNode(testutil.WithID("n1"))},
	}, "ana")
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Name: ptr("Renamed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "keep me", updated.Description)
	assert.Len(t, updated.Nodes, 1)
	assert.Equal(t, models.WorkflowStatusDraft, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "ana", updated.CreatedBy)

	cleared, err := service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Nodes: &[]models.NodeInstance{},
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.Nodes)
	assert.Equal(t, "Renamed", cleared.Name)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Nodes)
}

func TestWorkflow_Update_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    []models.WorkflowStatus
		to      models.WorkflowStatus
		wantErr bool
	}{
		{"draft to active", nil, models.WorkflowStatusActive, false},
		{"draft to draft", nil, models.WorkflowStatusDraft, false},
		{"draft to inactive", nil, models.WorkflowStatusInactive, true},
		{"active to inactive", []models.WorkflowStatus{models.WorkflowStatusActive}, models.WorkflowStatusInactive, false},
		{"active to draft", []models.WorkflowStatus{models.WorkflowStatusActive}, models.WorkflowStatusDraft, true},
		{
			"inactive to active",
			[]models.WorkflowStatus{models.WorkflowStatusActive, models.WorkflowStatusInactive},
			models.WorkflowStatusActive, false,
		},
		{
			"inactive to draft",
			[]models.WorkflowStatus{models.WorkflowStatusActive, models.WorkflowStatusInactive},
			models.WorkflowStatusDraft, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t)

			created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "")
			require.NoError(t, err)

			for _, status := range tt.from {
				_, err := service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Status: ptr(status)})
				require.NoError(t, err)
			}

			updated, err := service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Status: ptr(tt.to)})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConflictError(err))
				assert.ErrorIs(t, err, ErrInvalidTransition)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestWorkflow_Update_Errors(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "")
	require.NoError(t, err)

	_, err = service.Update(t.Context(), "missing", models.UpdateWorkflowRequest{Name: ptr("x")})
	assert.True(t, IsNotFoundError(err))

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Name: ptr(" ")})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Status: ptr(models.WorkflowStatusDeleted),
	})
	assert.True(t, IsValidationError(err))

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Nodes: &[]models.NodeInstance{testutil.CreateTestNode(testutil.WithID(""))},
	})
	assert.ErrorIs(t, err, registry.ErrMissingNodeID)
	assert.ErrorIs(t, err, ErrInvalidNodes)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Name: ptr("x")})
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_Delete(t *testing.T) {
	service, p := newTestService(t)

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "")
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.True(t, IsNotFoundError(err))

	stored, err := p.WorkflowRepository().GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDeleted, stored.Status)

	err = service.Delete(t.Context(), created.ID)
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_PublishesEvents(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("evt")
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowCreated")).Return(nil).Once()
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowUpdated")).Return(nil).Once()
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowStatusChanged")).Return(nil).Once()
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowDeleted")).Return(nil).Once()

	service, _ := newTestService(t, WithEventPublisher(bus))

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "ana")
	require.NoError(t, err)

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Name:   ptr("wf2"),
		Status: ptr(models.WorkflowStatusActive),
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	bus.AssertExpectations(t)

	var changed events.WorkflowStatusChanged
	for _, call := range bus.Calls {
		if call.Method != "Publish" {
			continue
		}

		assert.Equal(t, created.ID, call.Arguments.String(1))

		if e, ok := call.Arguments.Get(2).(events.WorkflowStatusChanged); ok {
			changed = e
		}

		if e, ok := call.Arguments.Get(2).(events.WorkflowUpdated); ok {
			assert.Equal(t, []string{"name"}, e.Fields)
		}
	}

	assert.Equal(t, models.WorkflowStatusDraft, changed.From)
	assert.Equal(t, models.WorkflowStatusActive, changed.To)
	assert.Equal(t, "evt", changed.ID)
	assert.Equal(t, created.ID, changed.WorkflowID)
}

func TestWorkflow_PublishFailureDoesNotFailOperation(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("evt")
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service, _ := newTestService(t, WithEventPublisher(bus))

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "")
	require.NoError(t, err)

	_, err = service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
}

func TestWorkflow_StatusOnlyUpdateSkipsUpdatedEvent(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("evt")
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowCreated")).Return(nil)
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.WorkflowStatusChanged")).Return(nil)

	service, _ := newTestService(t, WithEventPublisher(bus))

	created, err := service.Create(t.Context(), models.CreateWorkflowRequest{Name: "wf"}, "")
	require.NoError(t, err)

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Status: ptr(models.WorkflowStatusActive)})
	require.NoError(t, err)

	_, err = service.Update(t.Context(), created.ID, models.UpdateWorkflowRequest{Status: ptr(models.WorkflowStatusActive)})
	require.NoError(t, err)

	bus.AssertNumberOfCalls(t, "Publish", 2)
}

func TestWorkflow_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	service, _ := newTestService(t, WithTracer(provider.Tracer("test")))

	_, err := service.FetchByID(context.Background(), "missing")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "workflow.fetch", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func names(workflows []*models.Workflow) []string {
	out := make([]string, 0, len(workflows))
	for _, w := range workflows {
		out = append(out, w.Name)
	}

	return out
}
