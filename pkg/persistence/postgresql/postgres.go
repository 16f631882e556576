// Package postgresql stores workflows in PostgreSQL.
package postgresql

import (
	"context"
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

type Persistence struct {
	*sqlbase.Store
}

// NewPersistence connects to databaseURL (postgres:// or postgresql://) after
// applying pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	store, err := sqlbase.Open(ctx, logger, sqlbase.Options{
		Driver:       "postgres",
		DSN:          databaseURL,
		Dialect:      sqlbase.DialectPostgres,
		MigrationURL: databaseURL,
	})
	if err != nil {
		return nil, err
	}

	return &Persistence{Store: store}, nil
}
