package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/persistence/persistencetest"
	"github.com/arcsuite/arcflow/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresContainer *postgres.PostgresContainer
	containerOnce     sync.Once
	containerErr      error
)

func databaseURL(ctx context.Context, t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container tests in short mode")
	}

	containerOnce.Do(func() {
		postgresContainer, containerErr = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("arcflow_test"),
			postgres.WithUsername("arcflow"),
			postgres.WithPassword("arcflow"),
			postgres.BasicWaitStrategies(),
		)
	})
	require.NoError(t, containerErr)

	url, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return url
}

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	url := databaseURL(ctx, t)
	dropDb(ctx, t, url)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, url)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		dropDb(ctx, t, url)
		cancel()
	})

	return p, ctx, url
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, url := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var exists bool

	err = db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'workflows')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)

	second, err := postgresql.NewPersistence(ctx, slog.New(slog.DiscardHandler), url)
	require.NoError(t, err, "migrations must be idempotent")
	require.NoError(t, second.Close(ctx))
}

func TestWorkflowRepository(t *testing.T) {
	persistencetest.RunWorkflowRepositoryTests(t, func(t *testing.T) persistence.WorkflowRepository {
		p, _, _ := setupTestDB(t)

		return p.WorkflowRepository()
	})
}
