package eventbus

import (
	"context"
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/events"
)

// RegisterAuditLog logs every workflow lifecycle event received by bus.
func RegisterAuditLog(bus EventSubscriber, logger *slog.Logger) error {
	logger = logger.With("module", "audit")

	handlers := map[events.EventType]EventHandler{
		events.WorkflowCreatedEvent: On(func(ctx context.Context, e *events.WorkflowCreated) error {
			logger.InfoContext(ctx, "workflow created",
				"workflow_id", e.WorkflowID, "name", e.Name, "status", e.Status, "nodes", e.NodeCount)
			return nil
		}),
		events.WorkflowUpdatedEvent: On(func(ctx context.Context, e *events.WorkflowUpdated) error {
			logger.InfoContext(ctx, "workflow updated",
				"workflow_id", e.WorkflowID, "fields", e.Fields, "nodes", e.NodeCount)
			return nil
		}),
		events.WorkflowStatusChangedEvent: On(func(ctx context.Context, e *events.WorkflowStatusChanged) error {
			logger.InfoContext(ctx, "workflow status changed",
				"workflow_id", e.WorkflowID, "from", e.From, "to", e.To)
			return nil
		}),
		events.WorkflowDeletedEvent: On(func(ctx context.Context, e *events.WorkflowDeleted) error {
			logger.InfoContext(ctx, "workflow deleted",
				"workflow_id", e.WorkflowID, "previous_status", e.PreviousStatus)
			return nil
		}),
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}
