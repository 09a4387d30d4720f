// Package memory implements context persistence in process memory with TTL
// expiry, for tests and local development.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/persistence"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

type Persistence struct {
	mu     sync.RWMutex
	data   map[string]entry
	ttl    time.Duration
	logger *slog.Logger
}

func NewPersistence(ttl time.Duration, logger *slog.Logger) *Persistence {
	return &Persistence{
		data:   make(map[string]entry),
		ttl:    ttl,
		logger: logger.With("module", "memory_persistence"),
	}
}

// SaveContext stores the serialized snapshot, matching the round-trip
// semantics of the Redis adapter.
func (p *Persistence) SaveContext(_ context.Context, wctx *models.Context) error {
	data, err := wctx.MarshalDocument()
	if err != nil {
		return persistence.NewStorageError("SaveContext", wctx.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.data[persistence.ContextKey(wctx.ID)] = entry{
		payload:   data,
		expiresAt: time.Now().Add(p.ttl),
	}

	return nil
}

func (p *Persistence) ContextByID(ctx context.Context, id string) (*models.Context, error) {
	p.mu.RLock()
	stored, ok := p.data[persistence.ContextKey(id)]
	p.mu.RUnlock()

	if !ok || time.Now().After(stored.expiresAt) {
		return nil, persistence.ErrContextNotFound
	}

	wctx, err := models.ContextFromDocument(stored.payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "Discarding malformed workflow snapshot", "workflow_id", id, "error", err)

		return nil, persistence.ErrContextNotFound
	}

	return wctx, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = make(map[string]entry)

	return nil
}
