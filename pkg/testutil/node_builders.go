// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/google/uuid"
)

var nodeSeq atomic.Int64

// CreateTestNode creates a send_email NodeInstance with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.NodeInstance)) models.NodeInstance {
	node := models.NodeInstance{
		ID:        fmt.Sprintf("node_%d", 1700000000000+nodeSeq.Add(1)),
		Type:      models.CategoryAction,
		Name:      "Enviar Email",
		Config:    models.NewNodeConfig(models.SubtypeSendEmail),
		Position:  models.Position{X: 100, Y: 200},
		NextNodes: []string{},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithID sets the node identifier.
func WithID(id string) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.ID = id
	}
}

// WithSubtype sets the config to the empty variant of subtype and aligns the category.
func WithSubtype(subtype models.Subtype) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Config = models.NewNodeConfig(subtype)
		if category, ok := subtype.Category(); ok {
			n.Type = category
		}
	}
}

// WithConfig sets the node configuration.
func WithConfig(config models.NodeConfig) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Config = config
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Name = name
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithType sets the node category.
func WithType(category models.NodeCategory) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Type = category
	}
}

// WithNextNodes sets the successor identifiers.
func WithNextNodes(ids ...string) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.NextNodes = ids
	}
}

// CreateTestWorkflow creates a draft workflow with the given nodes.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Now().UTC().Truncate(time.Millisecond)

	wf := &models.Workflow{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Name:        "Test Workflow",
		Description: "A workflow used in tests",
		Status:      models.WorkflowStatusDraft,
		Nodes:       []models.NodeInstance{},
		CreatedBy:   "tester",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(wf)
	}

	return wf
}

// WithNodes sets the workflow nodes.
func WithNodes(nodes ...models.NodeInstance) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = nodes
	}
}

// WithStatus sets the workflow status.
func WithStatus(status models.WorkflowStatus) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Status = status
	}
}

// WithWorkflowName sets the workflow name.
func WithWorkflowName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithCreatedAt sets both timestamps of the workflow.
func WithCreatedAt(t time.Time) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.CreatedAt = t
		w.UpdatedAt = t
	}
}
