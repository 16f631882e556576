// Package persistence provides the storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/arcsuite/arcflow/pkg/models"
)

// Persistence is a storage backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows. Soft deleted workflows are stored with
// status deleted and are skipped by ListWorkflows unless asked for.
type WorkflowRepository interface {
	// ListWorkflows returns the workflows matching opts.
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)

	// GetByID returns the stored workflow or an error matching ErrWorkflowNotFound.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// Save inserts or replaces a workflow as given, timestamps included.
	Save(ctx context.Context, workflow *models.Workflow) error
}

// ListWorkflowsOptions filters, sorts and paginates a workflow listing.
// A zero Limit returns every matching workflow.
type ListWorkflowsOptions struct {
	Limit          int
	Offset         int
	Status         *models.WorkflowStatus
	IncludeDeleted bool
	SortBy         string // created_at, updated_at or name
	SortOrder      string // asc or desc
}

// WorkflowListResult is a page of workflows.
type WorkflowListResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}
