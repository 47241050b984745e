package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/persistence/postgresql"
	"github.com/dukex/flowcanvas/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "redis", "rediss"}

// NewPersistence opens the store named by databaseURL's scheme. A URL
// without a scheme is a file store directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, err := parsePersistenceProvider(databaseURL)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) (string, error) {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", nil
	}

	for _, supported := range supportedPersistenceProviders {
		if scheme == supported {
			return scheme, nil
		}
	}

	return "", fmt.Errorf("unsupported persistence provider %q, expected one of %s",
		scheme, strings.Join(supportedPersistenceProviders, ", "))
}
