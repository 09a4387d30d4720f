package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/queryflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := NewGoChannelEventBus(slog.Default())
	defer bus.Close()

	var (
		mu       sync.Mutex
		received []*events.StageFinished
	)

	bus.Handle(events.StageFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.StageFinished)
		require.True(t, ok)

		mu.Lock()
		received = append(received, finished)
		mu.Unlock()

		return nil
	})

	require.NoError(t, bus.Subscribe(t.Context()))

	event := events.StageFinished{
		BaseEvent:  events.NewBaseEvent(events.StageFinishedEvent, "wf-1"),
		StageID:    "planning",
		RetryCount: 0,
	}
	require.NoError(t, bus.Publish(t.Context(), "wf-1", event))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "wf-1", received[0].WorkflowID)
	assert.Equal(t, "planning", received[0].StageID)
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	t.Parallel()

	bus := NewGoChannelEventBus(slog.Default())
	defer bus.Close()

	require.NoError(t, bus.Subscribe(t.Context()))

	// No handler registered for this type; publishing must not error.
	event := events.WorkflowExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.WorkflowExecutionStartedEvent, "wf-1"),
		Query:     "count all active users",
	}
	require.NoError(t, bus.Publish(t.Context(), "wf-1", event))
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := NewGoChannelEventBus(slog.Default())
	defer bus.Close()

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
