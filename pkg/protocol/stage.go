// Package protocol defines the contracts between the execution engine and the
// pipeline stages it drives.
package protocol

import (
	"context"

	"github.com/dukex/queryflow/pkg/models"
)

// Stage is one transformation of the pipeline. Implementations receive the
// workflow context and return the updated context or an error. The single
// context-aware signature covers both quick in-process stages and stages that
// suspend on external work; the engine never branches on calling convention.
type Stage interface {
	// ID returns the stable stage identifier used in the pipeline definition.
	ID() string

	// Requires lists the context fields that must already be populated
	// before Execute may run. An empty list means the stage may run first.
	Requires() []string

	Execute(ctx context.Context, wctx *models.Context) (*models.Context, error)
}
