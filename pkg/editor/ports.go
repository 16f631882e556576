package editor

import (
	"context"

	"github.com/arcsuite/arcflow/pkg/models"
)

// Gateway is the persistence port used by the editor.
type Gateway interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error)
}

// Notice is a message emitted after a successful operation.
type Notice string

// NoticeListInvalidated tells list views that the workflow list changed.
const NoticeListInvalidated Notice = "workflows.invalidated"

// Notifier receives editor notices.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

func (f NotifierFunc) Notify(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

// NopNotifier drops every notice.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}
