package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conductor-ai/conductor/pkg/persistence"
	"github.com/conductor-ai/conductor/pkg/persistence/file"
	"github.com/conductor-ai/conductor/pkg/persistence/postgresql"
	redisstore "github.com/conductor-ai/conductor/pkg/persistence/redis"
)

// NewPersistence selects a persistence backend from the database URL scheme.
// postgres://, redis:// and file:// (the default) are supported.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return store
	case "redis", "rediss":
		store, err := redisstore.NewPersistence(ctx, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis persistence: %w", err))
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
