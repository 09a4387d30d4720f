package cmd

import (
	"log/slog"

	"github.com/dukex/queryflow/pkg/eventbus"
)

// NewEventBus builds the in-process lifecycle event bus.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	return eventbus.NewGoChannelEventBus(logger)
}
