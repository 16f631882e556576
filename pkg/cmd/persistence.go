package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/persistence/file"
	"github.com/arcsuite/arcflow/pkg/persistence/postgresql"
	"github.com/arcsuite/arcflow/pkg/persistence/redis"
	"github.com/arcsuite/arcflow/pkg/persistence/sqlite"
)

var ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

// NewPersistence opens the backend named by the scheme of databaseURL.
// A URL without a scheme is a directory for file persistence.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger = logger.With("module", "persistence", "provider", provider)

	switch provider {
	case "file":
		root := strings.TrimPrefix(databaseURL, "file://")
		if err := os.MkdirAll(root, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", root, err)
		}

		logger.InfoContext(ctx, "using file persistence", "root", root)

		return file.NewPersistence(root), nil
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "sqlite", "sqlite3":
		return sqlite.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger, databaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, provider)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return strings.ToLower(scheme)
}
