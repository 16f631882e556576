package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/persistence"
)

const workflowColumns = `
	id
  , name
  , description
  , nodes
  , status
  , created_by
  , created_at
  , updated_at`

var sortColumns = map[string]string{
	persistence.SortByCreatedAt: "created_at",
	persistence.SortByUpdatedAt: "updated_at",
	persistence.SortByName:      "name",
}

// WorkflowRepository handles workflow-related database operations. Nodes are
// stored as one JSON document per workflow.
type WorkflowRepository struct {
	db      *sql.DB
	logger  *slog.Logger
	dialect Dialect
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger, dialect Dialect) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow models.Workflow
		nodes    []byte
		status   string
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&nodes,
		&status,
		&workflow.CreatedBy,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Status = models.WorkflowStatus(status)
	workflow.CreatedAt = workflow.CreatedAt.UTC()
	workflow.UpdatedAt = workflow.UpdatedAt.UTC()

	if err := json.Unmarshal(nodes, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes of workflow %s: %w", workflow.ID, err)
	}

	if workflow.Nodes == nil {
		workflow.Nodes = []models.NodeInstance{}
	}

	return &workflow, nil
}

// ListWorkflows filters, sorts and paginates in SQL.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)

	if !opts.IncludeDeleted {
		args = append(args, string(models.WorkflowStatusDeleted))
		conditions = append(conditions, "status <> "+r.dialect.Placeholder(len(args)))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, "status = "+r.dialect.Placeholder(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64

	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows"+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	direction := "DESC"
	if opts.SortOrder == persistence.SortAsc {
		direction = "ASC"
	}

	query := "SELECT" + workflowColumns + " FROM workflows" + where +
		" ORDER BY " + sortColumns[opts.SortBy] + " " + direction + ", id " + direction +
		r.dialect.Pagination(opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return &persistence.WorkflowListResult{
		Workflows:   workflows,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(workflows)) < total,
	}, nil
}

// GetByID returns the workflow with the given id, soft deleted ones included.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := "SELECT" + workflowColumns + " FROM workflows WHERE id = " + r.dialect.Placeholder(1)

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save inserts the workflow or replaces every column of an existing row.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	nodes := workflow.Nodes
	if nodes == nil {
		nodes = []models.NodeInstance{}
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes of workflow %s: %w", workflow.ID, err)
	}

	placeholders := make([]string, 8)
	for i := range placeholders {
		placeholders[i] = r.dialect.Placeholder(i + 1)
	}

	query := `
		INSERT INTO workflows (id, name, description, nodes, status, created_by, created_at, updated_at)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			nodes = excluded.nodes,
			status = excluded.status,
			created_by = excluded.created_by,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		string(nodesJSON),
		string(workflow.Status),
		workflow.CreatedBy,
		workflow.CreatedAt.UTC(),
		workflow.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}
