package redis_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/persistence/persistencetest"
	arcredis "github.com/arcsuite/arcflow/pkg/persistence/redis"
	"github.com/arcsuite/arcflow/pkg/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestWorkflowRepository(t *testing.T) {
	persistencetest.RunWorkflowRepositoryTests(t, func(t *testing.T) persistence.WorkflowRepository {
		_, client := newTestRedis(t)

		return arcredis.NewWorkflowRepository(client, slog.New(slog.DiscardHandler), "test")
	})
}

func TestWorkflowRepository_SkipsDanglingIndexEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	repo := arcredis.NewWorkflowRepository(client, slog.New(slog.DiscardHandler), "test")

	wf := testutil.CreateTestWorkflow()
	require.NoError(t, repo.Save(ctx, wf))

	_, err := mr.ZAdd("test:workflows", 1, "ghost")
	require.NoError(t, err)

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, wf.ID, result.Workflows[0].ID)
}

func TestNewPersistence(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := arcredis.NewPersistence(ctx, slog.New(slog.DiscardHandler), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck(ctx))

	wf := testutil.CreateTestWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(ctx, wf))
	assert.True(t, mr.Exists("arcflow:workflow:"+wf.ID))

	require.NoError(t, p.Close(ctx))

	_, err = arcredis.NewPersistence(ctx, slog.New(slog.DiscardHandler), "not a url")
	assert.Error(t, err)
}
