package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/persistence"
)

// Options describe how to reach and migrate a SQL database.
type Options struct {
	Driver  string
	DSN     string
	Dialect Dialect
	// MigrationURL is the database URL handed to golang-migrate.
	MigrationURL string
	// MaxOpenConns limits the pool when positive.
	MaxOpenConns int
}

// Store is a migrated database connection serving the workflow repository.
// The PostgreSQL and SQLite backends embed it.
type Store struct {
	db        *sql.DB
	workflows *WorkflowRepository
}

// Open migrates the schema, then opens and pings the connection pool.
func Open(ctx context.Context, logger *slog.Logger, opts Options) (*Store, error) {
	if err := NewMigrationManager(logger, opts.Dialect, opts.MigrationURL).RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Dialect, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "database ready", "dialect", opts.Dialect.String())

	return &Store{
		db:        db,
		workflows: NewWorkflowRepository(db, logger, opts.Dialect),
	}, nil
}

func (s *Store) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s *Store) WorkflowRepository() persistence.WorkflowRepository {
	return s.workflows
}
