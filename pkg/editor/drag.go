package editor

import (
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
)

// DragState is the state of the drag-drop controller.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}

	return "idle"
}

// Canvas converts pointer positions in client coordinates into canvas coordinates.
type Canvas struct {
	Origin models.Position
}

// ToCanvas returns the point relative to the canvas origin.
func (c Canvas) ToCanvas(client models.Position) models.Position {
	return models.Position{X: client.X - c.Origin.X, Y: client.Y - c.Origin.Y}
}

// DragController turns a palette template dropped on the canvas into a node.
type DragController struct {
	state    DragState
	template palette.NodeTemplate
	store    *Store
	ids      *idGenerator
}

func newDragController(store *Store, ids *idGenerator) *DragController {
	return &DragController{store: store, ids: ids}
}

// BeginDrag starts dragging tpl, replacing any template already in flight.
func (d *DragController) BeginDrag(tpl palette.NodeTemplate) {
	d.state = DragDragging
	d.template = tpl
}

// State returns the current state and, when dragging, the template.
func (d *DragController) State() (DragState, palette.NodeTemplate) {
	return d.state, d.template
}

// Drop creates a node from the dragged template at a canvas-relative
// position and appends it to the store. It returns false when nothing is
// being dragged.
func (d *DragController) Drop(position models.Position) (models.NodeInstance, bool) {
	if d.state != DragDragging {
		return models.NodeInstance{}, false
	}

	node := d.place(d.template, position)
	d.reset()

	return node, true
}

// place appends a node built from tpl at position. The drag state is left as is.
func (d *DragController) place(tpl palette.NodeTemplate, position models.Position) models.NodeInstance {
	node := models.NodeInstance{
		ID:        d.ids.Next(),
		Type:      tpl.Category,
		Name:      tpl.Name,
		Config:    models.NewNodeConfig(tpl.Subtype),
		Position:  position,
		NextNodes: []string{},
	}

	d.store.Append(node)

	return node
}

// Cancel abandons the drag without creating a node.
func (d *DragController) Cancel() {
	d.reset()
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.template = palette.NodeTemplate{}
}
