package cmd

import (
	"log/slog"

	"github.com/dukex/queryflow/pkg/registry"
)

// NewRegistry builds the stage registry with the standard pipeline wired in.
func NewRegistry(logger *slog.Logger) (*registry.Registry, error) {
	return registry.Default(logger)
}
