// Package redis implements context persistence on a Redis key/value store
// with per-key TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

type Persistence struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewPersistence connects to Redis at redisURL (redis://[user:pass@]host:port/db)
// and verifies the connection before returning.
func NewPersistence(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return &Persistence{
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "redis_persistence"),
	}, nil
}

// SaveContext overwrites the snapshot for the context's identifier and resets
// its TTL.
func (p *Persistence) SaveContext(ctx context.Context, wctx *models.Context) error {
	data, err := wctx.MarshalDocument()
	if err != nil {
		return persistence.NewStorageError("SaveContext", wctx.ID, err)
	}

	key := persistence.ContextKey(wctx.ID)

	if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
		return persistence.NewStorageError("SaveContext", wctx.ID, err)
	}

	return nil
}

// ContextByID loads and deserializes the snapshot for id.
func (p *Persistence) ContextByID(ctx context.Context, id string) (*models.Context, error) {
	data, err := p.client.Get(ctx, persistence.ContextKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrContextNotFound
		}

		return nil, persistence.NewStorageError("ContextByID", id, err)
	}

	wctx, err := models.ContextFromDocument(data)
	if err != nil {
		// A corrupt snapshot is unrecoverable; report it as unknown rather
		// than leaking parse internals to pollers.
		p.logger.ErrorContext(ctx, "Discarding malformed workflow snapshot", "workflow_id", id, "error", err)

		return nil, persistence.ErrContextNotFound
	}

	return wctx, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
