// Package persistence provides the storage abstraction for workflow contexts.
package persistence

import (
	"context"

	"github.com/dukex/queryflow/pkg/models"
)

// KeyPrefix namespaces workflow snapshots so they never collide with other
// entities sharing the store.
const KeyPrefix = "workflow:"

// ContextKey derives the storage key for a workflow identifier.
func ContextKey(id string) string {
	return KeyPrefix + id
}

// ContextRepository persists workflow context snapshots in a key/value store
// with a time-to-live.
//
// SaveContext overwrites any prior snapshot for the same identifier and resets
// the TTL. It never fails silently: a write failure surfaces as a
// StorageError.
//
// ContextByID returns ErrContextNotFound for absent or expired snapshots;
// callers must treat that as "workflow unknown", not as a failure. A snapshot
// that no longer deserializes is also reported as not found, after logging a
// diagnostic.
type ContextRepository interface {
	SaveContext(ctx context.Context, wctx *models.Context) error
	ContextByID(ctx context.Context, id string) (*models.Context, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
