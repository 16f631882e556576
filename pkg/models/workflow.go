// Package models defines the workflow graph edited on the canvas and persisted by the backend.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never activated
	WorkflowStatusActive   WorkflowStatus = "active"   // Activated by the user
	WorkflowStatusInactive WorkflowStatus = "inactive" // Deactivated after being active
	WorkflowStatusDeleted  WorkflowStatus = "deleted"  // Soft deleted, hidden from listings
)

// Valid reports whether s is a status a client may set.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusInactive:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a workflow in status s may move to next.
// Keeping the current status is always allowed; a workflow never returns to draft.
func (s WorkflowStatus) CanTransitionTo(next WorkflowStatus) bool {
	if s == next {
		return true
	}

	switch s {
	case WorkflowStatusDraft:
		return next == WorkflowStatusActive
	case WorkflowStatusActive:
		return next == WorkflowStatusInactive
	case WorkflowStatusInactive:
		return next == WorkflowStatusActive
	default:
		return false
	}
}

// Workflow is a named, ordered list of node instances.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                validate:"required"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"              validate:"required"`
	Nodes       []NodeInstance `json:"nodes"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// IsDeleted reports whether the workflow was soft deleted.
func (w *Workflow) IsDeleted() bool {
	return w.Status == WorkflowStatusDeleted
}

// Clone returns a copy of w whose node list can be modified independently.
func (w *Workflow) Clone() *Workflow {
	clone := *w
	clone.Nodes = CloneNodes(w.Nodes)

	return &clone
}
