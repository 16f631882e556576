// Package sqlite provides the SQLite persistence implementation for workflows,
// suited to single node deployments and local development.
package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/arcsuite/arcflow/pkg/persistence/sqlbase"
	_ "github.com/mattn/go-sqlite3"
)

// ErrInMemoryDatabase is returned for :memory: databases, which cannot be
// shared between the migrator and the repository connection.
var ErrInMemoryDatabase = errors.New("in-memory sqlite databases are not supported")

type Persistence struct {
	*sqlbase.Store
}

// Path strips a sqlite:// or sqlite3:// scheme from databaseURL.
func Path(databaseURL string) string {
	for _, scheme := range []string{"sqlite3://", "sqlite://"} {
		if after, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return after
		}
	}

	return databaseURL
}

// NewPersistence opens the database file and applies pending migrations.
// Writes are serialized over a single connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	path := Path(databaseURL)
	if path == "" || strings.Contains(path, ":memory:") {
		return nil, ErrInMemoryDatabase
	}

	store, err := sqlbase.Open(ctx, logger, sqlbase.Options{
		Driver:       "sqlite3",
		DSN:          path + "?_busy_timeout=5000",
		Dialect:      sqlbase.DialectSQLite,
		MigrationURL: "sqlite3://" + path,
		MaxOpenConns: 1,
	})
	if err != nil {
		return nil, err
	}

	return &Persistence{Store: store}, nil
}
