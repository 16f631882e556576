// Package editor implements the workflow graph editor: the node store, the
// canvas drag-drop controller, the node inspector and the session that ties
// them to a persistence gateway.
//
// An Editor is not safe for concurrent use. Each open workflow view owns one.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
)

var (
	// ErrNoActiveWorkflow is returned by operations that need an open workflow.
	ErrNoActiveWorkflow = errors.New("no active workflow")

	// ErrInvalidTransition is returned when activating a workflow that is not a draft.
	ErrInvalidTransition = errors.New("workflow can only be activated from draft")

	// ErrNodeNotFound is returned when an operation names a node that is not on the canvas.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNothingSelected is returned when the inspector is opened without a selection.
	ErrNothingSelected = errors.New("no node selected")
)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used by the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) { e.logger = logger }
}

// WithClock sets the clock used to generate node identifiers.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.ids.now = now }
}

// WithCanvas sets the canvas used to translate drop points.
func WithCanvas(canvas Canvas) Option {
	return func(e *Editor) { e.canvas = canvas }
}

// Editor is an editing session over at most one active workflow.
type Editor struct {
	gateway  Gateway
	notifier Notifier
	logger   *slog.Logger

	store  *Store
	ids    *idGenerator
	drag   *DragController
	canvas Canvas

	active *models.Workflow
}

// New creates an editor backed by gateway. A nil notifier drops notices.
func New(gateway Gateway, notifier Notifier, opts ...Option) *Editor {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	store := NewStore()
	ids := newIDGenerator(time.Now)

	e := &Editor{
		gateway:  gateway,
		notifier: notifier,
		logger:   slog.Default(),
		store:    store,
		ids:      ids,
		drag:     newDragController(store, ids),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("module", "editor")

	return e
}

// Workflows lists the stored workflows. Failures are logged and yield an
// empty list.
func (e *Editor) Workflows(ctx context.Context) []models.Workflow {
	workflows, err := e.gateway.ListWorkflows(ctx)
	if err != nil {
		e.logger.DebugContext(ctx, "failed to list workflows", "error", err)

		return []models.Workflow{}
	}

	if workflows == nil {
		return []models.Workflow{}
	}

	return workflows
}

// CreateWorkflow creates an empty draft and makes it the active workflow.
func (e *Editor) CreateWorkflow(ctx context.Context, name, description string) (*models.Workflow, error) {
	created, err := e.gateway.CreateWorkflow(ctx, models.CreateWorkflowRequest{
		Name:        name,
		Description: description,
		Nodes:       []models.NodeInstance{},
		Status:      models.WorkflowStatusDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	if created == nil {
		return nil, errors.New("failed to create workflow: empty response")
	}

	e.Open(created)
	e.notifier.Notify(ctx, NoticeListInvalidated)

	e.logger.InfoContext(ctx, "workflow created", "workflow_id", created.ID)

	return created.Clone(), nil
}

// Open makes wf the active workflow and loads its nodes onto the canvas.
// A nil wf closes the active workflow and clears the canvas.
func (e *Editor) Open(wf *models.Workflow) {
	e.drag.Cancel()

	if wf == nil {
		e.active = nil
		e.store.Replace(nil)

		return
	}

	e.active = wf.Clone()
	e.store.Replace(wf.Nodes)

	for _, n := range wf.Nodes {
		e.ids.observe(n.ID)
	}
}

// Active returns the active workflow, if any.
func (e *Editor) Active() (*models.Workflow, bool) {
	if e.active == nil {
		return nil, false
	}

	wf := e.active.Clone()
	wf.Nodes = e.store.Nodes()

	return wf, true
}

// Save writes the current node list of the active workflow. Exactly the
// in-memory list is sent, in order; the local list is kept as is.
func (e *Editor) Save(ctx context.Context) error {
	if e.active == nil {
		return ErrNoActiveWorkflow
	}

	nodes := e.store.Nodes()

	updated, err := e.gateway.UpdateWorkflow(ctx, e.active.ID, models.UpdateWorkflowRequest{Nodes: &nodes})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", e.active.ID, err)
	}

	if updated != nil {
		e.active.UpdatedAt = updated.UpdatedAt
	}

	e.notifier.Notify(ctx, NoticeListInvalidated)

	e.logger.InfoContext(ctx, "workflow saved", "workflow_id", e.active.ID, "nodes", len(nodes))

	return nil
}

// Activate moves the active workflow from draft to active.
func (e *Editor) Activate(ctx context.Context) error {
	if e.active == nil {
		return ErrNoActiveWorkflow
	}

	if e.active.Status != models.WorkflowStatusDraft {
		return fmt.Errorf("%w: status is %s", ErrInvalidTransition, e.active.Status)
	}

	status := models.WorkflowStatusActive

	updated, err := e.gateway.UpdateWorkflow(ctx, e.active.ID, models.UpdateWorkflowRequest{Status: &status})
	if err != nil {
		return fmt.Errorf("failed to activate workflow %s: %w", e.active.ID, err)
	}

	e.active.Status = status
	if updated != nil {
		e.active.UpdatedAt = updated.UpdatedAt
	}

	e.notifier.Notify(ctx, NoticeListInvalidated)

	e.logger.InfoContext(ctx, "workflow activated", "workflow_id", e.active.ID)

	return nil
}

// Nodes returns the nodes on the canvas.
func (e *Editor) Nodes() []models.NodeInstance {
	return e.store.Nodes()
}

// Store exposes the node store.
func (e *Editor) Store() *Store {
	return e.store
}

// BeginDrag starts dragging a palette template.
func (e *Editor) BeginDrag(tpl palette.NodeTemplate) {
	e.drag.BeginDrag(tpl)
}

// CancelDrag abandons the current drag.
func (e *Editor) CancelDrag() {
	e.drag.Cancel()
}

// DragState returns the drag controller state.
func (e *Editor) DragState() DragState {
	state, _ := e.drag.State()

	return state
}

// Drop places the dragged template at a pointer position given in client
// coordinates.
func (e *Editor) Drop(client models.Position) (models.NodeInstance, bool) {
	return e.drag.Drop(e.canvas.ToCanvas(client))
}

// AddNode places the template of subtype at a canvas position, as a drag and
// drop would. A drag already in flight is not affected.
func (e *Editor) AddNode(subtype models.Subtype, position models.Position) (models.NodeInstance, error) {
	tpl, ok := palette.Lookup(subtype)
	if !ok {
		return models.NodeInstance{}, fmt.Errorf("unknown node subtype %q", subtype)
	}

	return e.drag.place(tpl, position), nil
}

// Select selects a node.
func (e *Editor) Select(id string) error {
	if !e.store.Select(id) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	return nil
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.store.Deselect()
}

// DeleteNode removes a node from the canvas.
func (e *Editor) DeleteNode(id string) error {
	if !e.store.Delete(id) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	return nil
}

// MoveNode changes the canvas position of a node.
func (e *Editor) MoveNode(id string, position models.Position) error {
	if !e.store.Move(id, position) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	return nil
}

// Inspector returns the form of the selected node.
func (e *Editor) Inspector() (*Form, error) {
	node, ok := e.store.Selected()
	if !ok {
		return nil, ErrNothingSelected
	}

	return Inspect(node), nil
}

// Apply closes the inspector. Form values are not written to the node.
func (e *Editor) Apply(*Form) {
	e.store.Deselect()
}
