// Package registry holds the static catalog of pipeline stages: their linear
// execution order, their declared preconditions, and the retry sub-path. The
// registry executes nothing; it is consulted by the execution engine.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	stages    map[string]protocol.Stage
	order     []string
	retryPath []string
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		stages: make(map[string]protocol.Stage),
	}
}

// Register appends a stage to the pipeline. Declaring a requirement that is
// not a context field is a configuration error, detected here rather than at
// run time.
func (r *Registry) Register(stage protocol.Stage) error {
	id := stage.ID()

	if _, exists := r.stages[id]; exists {
		return fmt.Errorf("stage %q already registered", id)
	}

	for _, req := range stage.Requires() {
		if !models.KnownField(req) {
			return fmt.Errorf("stage %q requires unknown context field %q", id, req)
		}
	}

	r.stages[id] = stage
	r.order = append(r.order, id)

	r.logger.Info("Registered pipeline stage", "stage", id, "requires", stage.Requires())

	return nil
}

// SetRetryPath declares the sub-path re-executed when validation rejects the
// composed query. Every member must already be registered.
func (r *Registry) SetRetryPath(ids ...string) error {
	for _, id := range ids {
		if _, exists := r.stages[id]; !exists {
			return fmt.Errorf("retry path references unregistered stage %q", id)
		}
	}

	r.retryPath = ids

	return nil
}

// StageByID resolves a stage. Unknown identifiers are a configuration error.
func (r *Registry) StageByID(id string) (protocol.Stage, error) {
	stage, ok := r.stages[id]
	if !ok {
		return nil, fmt.Errorf("stage %q not registered", id)
	}

	return stage, nil
}

// RequirementsOf returns the declared preconditions of a stage.
func (r *Registry) RequirementsOf(id string) ([]string, error) {
	stage, err := r.StageByID(id)
	if err != nil {
		return nil, err
	}

	return stage.Requires(), nil
}

// OrderedStages returns the fixed, total execution order.
func (r *Registry) OrderedStages() []string {
	order := make([]string, len(r.order))
	copy(order, r.order)

	return order
}

// RetryPath returns the stages re-executed during a retry pass.
func (r *Registry) RetryPath() []string {
	path := make([]string, len(r.retryPath))
	copy(path, r.retryPath)

	return path
}
