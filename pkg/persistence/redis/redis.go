// Package redis provides a Redis persistence implementation. Workflows are
// stored as JSON strings and indexed by creation time in a sorted set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "arcflow"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client       *redis.Client
	workflowRepo *WorkflowRepository
}

// NewPersistence connects to a redis:// or rediss:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client:       client,
		workflowRepo: NewWorkflowRepository(client, logger, defaultPrefix),
	}, nil
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Client exposes the underlying client.
func (p *Persistence) Client() *redis.Client {
	return p.client
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// WorkflowRepository stores workflows in Redis.
type WorkflowRepository struct {
	client redis.Cmdable
	logger *slog.Logger
	prefix string
}

// NewWorkflowRepository creates a repository whose keys start with prefix.
func NewWorkflowRepository(client redis.Cmdable, logger *slog.Logger, prefix string) *WorkflowRepository {
	return &WorkflowRepository{client: client, logger: logger, prefix: prefix}
}

func (r *WorkflowRepository) workflowKey(id string) string {
	return r.prefix + ":workflow:" + id
}

func (r *WorkflowRepository) indexKey() string {
	return r.prefix + ":workflows"
}

// ListWorkflows reads every indexed workflow and filters, sorts and paginates in memory.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange %q: %w", r.indexKey(), err)
	}

	if len(ids) == 0 {
		return persistence.ApplyListOptions(nil, opts), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.workflowKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			r.logger.WarnContext(ctx, "indexed workflow is missing", "workflow_id", ids[i])

			continue
		}

		var workflow models.Workflow
		if err := json.Unmarshal([]byte(raw), &workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", ids[i], err)
		}

		workflows = append(workflows, &workflow)
	}

	return persistence.ApplyListOptions(workflows, opts), nil
}

// GetByID returns the stored workflow, soft deleted ones included.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	raw, err := r.client.Get(ctx, r.workflowKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("redis get %q: %w", r.workflowKey(id), err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(raw, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// Save writes the document and its index entry in one transaction.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.workflowKey(workflow.ID), data, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(workflow.CreatedAt.UnixMilli()),
			Member: workflow.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save workflow %s: %w", workflow.ID, err)
	}

	return nil
}
