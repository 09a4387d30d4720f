// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/queryflow/pkg/persistence"
	"github.com/dukex/queryflow/pkg/persistence/memory"
	"github.com/dukex/queryflow/pkg/persistence/redis"
)

// NewPersistence selects the context repository from the database URL scheme.
// redis:// and rediss:// URLs get the Redis adapter; anything else falls back
// to the in-process memory adapter.
func NewPersistence(
	ctx context.Context,
	logger *slog.Logger,
	databaseURL string,
	ttl time.Duration,
) (persistence.ContextRepository, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "redis", "rediss":
		return redis.NewPersistence(ctx, databaseURL, ttl, logger)
	default:
		return memory.NewPersistence(ttl, logger), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "memory"
	}

	return scheme
}
