package redis_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/persistence/persistencetest"
	arcredis "github.com/arcsuite/arcflow/pkg/persistence/redis"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestIntegration_RedisServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container tests in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := setupRedisContainer(ctx, t)

	p, err := arcredis.NewPersistence(ctx, slog.New(slog.DiscardHandler), url)
	require.NoError(t, err)

	t.Cleanup(func() { _ = p.Close(context.Background()) })

	prefix := 0

	persistencetest.RunWorkflowRepositoryTests(t, func(t *testing.T) persistence.WorkflowRepository {
		prefix++

		return arcredis.NewWorkflowRepository(p.Client(), slog.New(slog.DiscardHandler), fmt.Sprintf("it%d", prefix))
	})
}
