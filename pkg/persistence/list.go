package persistence

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/arcsuite/arcflow/pkg/models"
)

// Sort fields accepted by ListWorkflows.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByName      = "name"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// NormalizeListOptions fills defaults (created_at, desc) and validates the
// sort parameters against the allowlist.
func NormalizeListOptions(opts ListWorkflowsOptions) (ListWorkflowsOptions, error) {
	if opts.SortBy == "" {
		opts.SortBy = SortByCreatedAt
	}

	if opts.SortOrder == "" {
		opts.SortOrder = SortDesc
	}

	switch opts.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByName:
	default:
		return opts, fmt.Errorf("%w: %s", ErrInvalidSortField, opts.SortBy)
	}

	if opts.SortOrder != SortAsc && opts.SortOrder != SortDesc {
		return opts, fmt.Errorf("%w: %s", ErrInvalidSortOrder, opts.SortOrder)
	}

	if opts.Limit < 0 {
		opts.Limit = 0
	}

	if opts.Offset < 0 {
		opts.Offset = 0
	}

	return opts, nil
}

// ApplyListOptions filters, sorts and paginates workflows in memory. opts
// must already be normalized.
func ApplyListOptions(workflows []*models.Workflow, opts ListWorkflowsOptions) *WorkflowListResult {
	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, wf := range workflows {
		if wf.IsDeleted() && !opts.IncludeDeleted {
			continue
		}

		if opts.Status != nil && wf.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, wf)
	}

	slices.SortStableFunc(filtered, func(a, b *models.Workflow) int {
		var c int

		switch opts.SortBy {
		case SortByUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case SortByName:
			c = cmp.Compare(a.Name, b.Name)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}

		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}

		if opts.SortOrder == SortDesc {
			return -c
		}

		return c
	})

	total := int64(len(filtered))

	if opts.Offset >= len(filtered) {
		return &WorkflowListResult{Workflows: []*models.Workflow{}, TotalCount: total}
	}

	end := len(filtered)
	if opts.Limit > 0 && opts.Offset+opts.Limit < end {
		end = opts.Offset + opts.Limit
	}

	return &WorkflowListResult{
		Workflows:   filtered[opts.Offset:end],
		TotalCount:  total,
		HasNextPage: end < len(filtered),
	}
}
