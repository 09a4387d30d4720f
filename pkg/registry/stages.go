package registry

import (
	"log/slog"

	"github.com/dukex/queryflow/pkg/protocol"
	"github.com/dukex/queryflow/pkg/stages/composition"
	"github.com/dukex/queryflow/pkg/stages/mapping"
	"github.com/dukex/queryflow/pkg/stages/planning"
	"github.com/dukex/queryflow/pkg/stages/validation"
)

// Default builds the fixed query generation pipeline:
// planning -> mapping -> composition -> validation, with composition and
// validation forming the retry sub-path.
func Default(logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry(logger)

	stages := []protocol.Stage{
		planning.New(),
		mapping.New(),
		composition.New(),
		validation.New(),
	}

	for _, stage := range stages {
		if err := registry.Register(stage); err != nil {
			return nil, err
		}
	}

	if err := registry.SetRetryPath(composition.ID, validation.ID); err != nil {
		return nil, err
	}

	return registry, nil
}
