// Package sqlbase provides the base functionality for SQL database persistence:
// embedded schema migrations and a workflow repository shared by the
// PostgreSQL and SQLite backends.
package sqlbase

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationManager handles database schema migrations.
type MigrationManager struct {
	logger      *slog.Logger
	dialect     Dialect
	databaseURL string
}

// NewMigrationManager creates a migration manager. databaseURL must use a
// scheme golang-migrate understands (postgres://, sqlite3://).
func NewMigrationManager(logger *slog.Logger, dialect Dialect, databaseURL string) *MigrationManager {
	return &MigrationManager{
		logger:      logger,
		dialect:     dialect,
		databaseURL: databaseURL,
	}
}

// RunMigrations applies every pending up migration of the dialect.
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting database migrations", "dialect", m.dialect.String())

	sub, err := fs.Sub(migrationsFS, "migrations/"+m.dialect.MigrationsDir())
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, m.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	defer func() {
		sourceErr, dbErr := migrator.Close()
		if sourceErr != nil || dbErr != nil {
			m.logger.ErrorContext(ctx, "failed to close migrator", "source_error", sourceErr, "database_error", dbErr)
		}
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	m.logger.InfoContext(ctx, "Database migrations completed", "version", version, "dirty", dirty)

	return nil
}
