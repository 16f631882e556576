package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arcsuite/arcflow/pkg/eventbus"
	"github.com/arcsuite/arcflow/pkg/events"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/otelhelper"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Workflow implements the workflow operations of the REST API.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// Option configures a Workflow service.
type Option func(*Workflow)

// WithEventPublisher publishes lifecycle events after each change.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) { w.publisher = publisher }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) { w.tracer = tracer }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry, opts ...Option) *Workflow {
	w := &Workflow{
		persistence: persistence,
		registry:    registry,
		tracer:      otelhelper.NoopTracer("arcflow"),
		logger:      slog.Default(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("module", "workflow_service")

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows. A zero Limit
// returns every workflow.
type ListWorkflowsRequest struct {
	Limit     int `validate:"min=0,max=1000"`
	Offset    int `validate:"min=0"`
	Status    *models.WorkflowStatus
	SortBy    string `validate:"omitempty,oneof=created_at updated_at name"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows returns non-deleted workflows, newest first unless asked otherwise.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list")
	defer span.End()

	if err := w.validateListWorkflowsRequest(req); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		if errors.Is(err, persistence.ErrInvalidSortOrder) {
			return nil, NewValidationError("ListWorkflows", err.Error(), ErrInvalidSortOrder)
		}

		if persistence.IsInvalidSortField(err) {
			return nil, NewValidationError("ListWorkflows", err.Error(), ErrInvalidSortField)
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	span.SetAttributes(attribute.Int64("arcflow.workflow.total", result.TotalCount))

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func (w *Workflow) validateListWorkflowsRequest(req ListWorkflowsRequest) error {
	if err := w.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "SortBy":
					return NewValidationError("ListWorkflows",
						fmt.Sprintf("invalid sort field '%v', allowed: created_at, updated_at, name", fe.Value()), ErrInvalidSortField)
				case "SortOrder":
					return NewValidationError("ListWorkflows",
						fmt.Sprintf("invalid sort order '%v', allowed: asc, desc", fe.Value()), ErrInvalidSortOrder)
				}
			}
		}

		return NewValidationError("ListWorkflows", describeValidation(err), ErrInvalidRequest)
	}

	if req.Status != nil && !req.Status.Valid() {
		return NewValidationError("ListWorkflows", fmt.Sprintf("invalid status '%s'", *req.Status), ErrInvalidStatus)
	}

	return nil
}

// FetchByID returns a workflow. Soft deleted workflows are reported as not found.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.fetch",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	workflow, err := w.load(ctx, "FetchByID", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return workflow, nil
}

func (w *Workflow) load(ctx context.Context, op, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return nil, newNotFoundError(op, id)
		}

		return nil, fmt.Errorf("failed to get workflow %s: %w", id, err)
	}

	if workflow.IsDeleted() {
		return nil, newNotFoundError(op, id)
	}

	return workflow, nil
}

// Create stores a new workflow. Status defaults to draft and nodes to an empty list.
func (w *Workflow) Create(ctx context.Context, req models.CreateWorkflowRequest, createdBy string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create",
		attribute.String(otelhelper.WorkflowNameKey, req.Name))
	defer span.End()

	if err := w.validateCreate(req); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
	}

	now := w.now().UTC()

	workflow := &models.Workflow{
		ID:          id.String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      req.Status,
		Nodes:       models.CloneNodes(req.Nodes),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	if workflow.Nodes == nil {
		workflow.Nodes = []models.NodeInstance{}
	}

	span.SetAttributes(
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowStatusKey, string(workflow.Status)),
		attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)),
	)

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow created", "workflow_id", workflow.ID, "status", workflow.Status)

	w.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent: w.newBaseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Name:      workflow.Name,
		Status:    workflow.Status,
		NodeCount: len(workflow.Nodes),
		CreatedBy: workflow.CreatedBy,
	})

	return workflow, nil
}

func (w *Workflow) validateCreate(req models.CreateWorkflowRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return NewValidationError("Create", "name is required", ErrInvalidRequest)
	}

	if err := w.validate.Struct(req); err != nil {
		return NewValidationError("Create", describeValidation(err), ErrInvalidRequest)
	}

	if req.Status != "" && !req.Status.Valid() {
		return NewValidationError("Create", fmt.Sprintf("invalid status '%s'", req.Status), ErrInvalidStatus)
	}

	if err := w.registry.ValidateNodes(req.Nodes); err != nil {
		return NewValidationError("Create", err.Error(), errors.Join(ErrInvalidNodes, err))
	}

	return nil
}

// Update applies a partial update. Present fields replace the stored values,
// nodes are replaced wholesale and status changes must follow the lifecycle.
func (w *Workflow) Update(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := w.validateUpdate(req); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	existing, err := w.load(ctx, "Update", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	updated := existing.Clone()

	var fields []string

	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
		fields = append(fields, "name")
	}

	if req.Description != nil {
		updated.Description = *req.Description
		fields = append(fields, "description")
	}

	if req.Nodes != nil {
		updated.Nodes = models.CloneNodes(*req.Nodes)
		if updated.Nodes == nil {
			updated.Nodes = []models.NodeInstance{}
		}

		fields = append(fields, "nodes")
	}

	if req.Status != nil {
		if !existing.Status.CanTransitionTo(*req.Status) {
			err := newConflictError("Update",
				fmt.Sprintf("cannot change status from %s to %s", existing.Status, *req.Status))
			otelhelper.SetError(span, err)

			return nil, err
		}

		updated.Status = *req.Status
	}

	updated.UpdatedAt = w.now().UTC()

	span.SetAttributes(
		attribute.String(otelhelper.WorkflowStatusKey, string(updated.Status)),
		attribute.Int(otelhelper.NodeCountKey, len(updated.Nodes)),
	)

	if err := w.persistence.WorkflowRepository().Save(ctx, updated); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow updated", "workflow_id", id, "fields", fields, "status", updated.Status)

	if len(fields) > 0 {
		w.publish(ctx, id, events.WorkflowUpdated{
			BaseEvent: w.newBaseEvent(events.WorkflowUpdatedEvent, id),
			Fields:    fields,
			NodeCount: len(updated.Nodes),
		})
	}

	if updated.Status != existing.Status {
		w.publish(ctx, id, events.WorkflowStatusChanged{
			BaseEvent: w.newBaseEvent(events.WorkflowStatusChangedEvent, id),
			From:      existing.Status,
			To:        updated.Status,
		})
	}

	return updated, nil
}

func (w *Workflow) validateUpdate(req models.UpdateWorkflowRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return NewValidationError("Update", "name cannot be empty", ErrInvalidRequest)
	}

	if err := w.validate.Struct(req); err != nil {
		return NewValidationError("Update", describeValidation(err), ErrInvalidRequest)
	}

	if req.Status != nil && !req.Status.Valid() {
		return NewValidationError("Update", fmt.Sprintf("invalid status '%s'", *req.Status), ErrInvalidStatus)
	}

	if req.Nodes != nil {
		if err := w.registry.ValidateNodes(*req.Nodes); err != nil {
			return NewValidationError("Update", err.Error(), errors.Join(ErrInvalidNodes, err))
		}
	}

	return nil
}

// Delete soft deletes a workflow by setting its status to deleted.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	existing, err := w.load(ctx, "Delete", id)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	deleted := existing.Clone()
	deleted.Status = models.WorkflowStatusDeleted
	deleted.UpdatedAt = w.now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, deleted); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow deleted", "workflow_id", id)

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent:      w.newBaseEvent(events.WorkflowDeletedEvent, id),
		PreviousStatus: existing.Status,
	})

	return nil
}

func (w *Workflow) newBaseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	var id string
	if w.publisher != nil {
		id = w.publisher.GenerateID()
	}

	return events.NewBaseEvent(id, eventType, workflowID, w.now())
}

// publish never fails the calling operation: the change is already stored.
func (w *Workflow) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.publish_event",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.EventTypeKey, string(event.GetType())))
	defer span.End()

	if err := w.publisher.Publish(ctx, workflowID, event); err != nil {
		otelhelper.SetError(span, err)
		w.logger.ErrorContext(ctx, "failed to publish workflow event",
			"workflow_id", workflowID, "event_type", event.GetType(), "error", err)
	}
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}

	return strings.Join(messages, "; ")
}
