// Package workflow implements the pipeline execution engine and the status
// projection consumed by pollers.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/queryflow/pkg/eventbus"
	"github.com/dukex/queryflow/pkg/events"
	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/otelhelper"
	"github.com/dukex/queryflow/pkg/persistence"
	"github.com/dukex/queryflow/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Executor drives one workflow context through the pipeline: stages in
// registry order, precondition checks, persistence after every mutation, and
// the bounded retry loop over the registry's retry sub-path.
type Executor struct {
	registry   *registry.Registry
	repository persistence.ContextRepository
	eventBus   eventbus.EventBus
	tracer     trace.Tracer
	logger     *slog.Logger
	stageDelay time.Duration
}

type Option func(*Executor)

// WithEventBus makes the executor publish lifecycle events.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(e *Executor) {
		e.eventBus = bus
	}
}

// WithTracer makes the executor open a span per stage execution.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithStageDelay inserts a pause before each stage execution.
func WithStageDelay(delay time.Duration) Option {
	return func(e *Executor) {
		e.stageDelay = delay
	}
}

func NewExecutor(
	reg *registry.Registry,
	repository persistence.ContextRepository,
	logger *slog.Logger,
	opts ...Option,
) *Executor {
	executor := &Executor{
		registry:   reg,
		repository: repository,
		logger:     logger.With("module", "workflow_executor"),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Run executes the full pipeline against wctx and returns the terminal
// context. The final context is persisted on every exit path, including
// engine-level failures, so pollers always observe the outcome.
func (e *Executor) Run(ctx context.Context, wctx *models.Context) (*models.Context, error) {
	logger := e.logger.With("workflow_id", wctx.ID)
	started := time.Now()

	var runErr error

	defer func() {
		if runErr != nil {
			wctx.Status = models.WorkflowStatusFailed
			if wctx.Feedback == "" {
				wctx.Feedback = fmt.Sprintf("execution error: %v", runErr)
			}

			logger.ErrorContext(ctx, "Workflow execution failed", "error", runErr)
		}

		if err := e.persist(ctx, wctx); err != nil {
			logger.ErrorContext(ctx, "Failed to persist final workflow context", "error", err)
		}

		e.publishTerminal(ctx, wctx, time.Since(started))
	}()

	wctx.Status = models.WorkflowStatusRunning
	if runErr = e.persist(ctx, wctx); runErr != nil {
		return wctx, runErr
	}

	logger.InfoContext(ctx, "Starting workflow execution", "query", wctx.Query)
	e.publish(ctx, wctx.ID, events.WorkflowExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.WorkflowExecutionStartedEvent, wctx.ID),
		Query:     wctx.Query,
	})

	for _, stageID := range e.registry.OrderedStages() {
		if wctx, runErr = e.runStage(ctx, logger, wctx, stageID); runErr != nil {
			return wctx, runErr
		}
	}

	for e.shouldRetry(wctx) {
		wctx.RetryCount++
		wctx.Status = models.WorkflowStatusRetrying

		logger.InfoContext(ctx, "Validation rejected the query, retrying",
			"retry_count", wctx.RetryCount,
			"max_retries", wctx.MaxRetries,
		)

		if runErr = e.persist(ctx, wctx); runErr != nil {
			return wctx, runErr
		}

		for _, stageID := range e.registry.RetryPath() {
			if wctx, runErr = e.runStage(ctx, logger, wctx, stageID); runErr != nil {
				return wctx, runErr
			}
		}
	}

	if wctx.ValidationOutput != nil && wctx.ValidationOutput.IsValid {
		wctx.Status = models.WorkflowStatusCompleted

		logger.InfoContext(ctx, "Workflow completed", "retry_count", wctx.RetryCount)
	} else {
		wctx.Status = models.WorkflowStatusFailed

		logger.InfoContext(ctx, "Workflow failed after exhausting retries", "retry_count", wctx.RetryCount)
	}

	return wctx, nil
}

// runStage verifies preconditions, records the current step, executes the
// stage, and persists the context around the execution.
func (e *Executor) runStage(ctx context.Context, logger *slog.Logger, wctx *models.Context, stageID string) (*models.Context, error) {
	stage, err := e.registry.StageByID(stageID)
	if err != nil {
		return wctx, err
	}

	if err := e.checkRequirements(wctx, stageID); err != nil {
		return wctx, err
	}

	wctx.CurrentStep = stageID
	if err := e.persist(ctx, wctx); err != nil {
		return wctx, err
	}

	logger.InfoContext(ctx, "Executing stage", "stage", stageID, "retry_count", wctx.RetryCount)

	stageCtx := ctx

	var span trace.Span
	if e.tracer != nil {
		stageCtx, span = otelhelper.StartSpan(ctx, e.tracer, "stage."+stageID,
			attribute.String(otelhelper.WorkflowIDKey, wctx.ID),
			attribute.String(otelhelper.StageIDKey, stageID),
			attribute.Int(otelhelper.RetryCountKey, wctx.RetryCount),
		)
		defer span.End()
	}

	if e.stageDelay > 0 {
		select {
		case <-time.After(e.stageDelay):
		case <-ctx.Done():
			return wctx, ctx.Err()
		}
	}

	updated, err := stage.Execute(stageCtx, wctx)
	if err != nil {
		if span != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.StageIDKey, stageID))
		}

		return wctx, &StageExecutionError{Stage: stageID, Err: err}
	}

	wctx = updated

	if err := e.persist(ctx, wctx); err != nil {
		return wctx, err
	}

	logger.InfoContext(ctx, "Stage completed", "stage", stageID)
	e.publish(ctx, wctx.ID, events.StageFinished{
		BaseEvent:  events.NewBaseEvent(events.StageFinishedEvent, wctx.ID),
		StageID:    stageID,
		RetryCount: wctx.RetryCount,
	})

	return wctx, nil
}

func (e *Executor) checkRequirements(wctx *models.Context, stageID string) error {
	requirements, err := e.registry.RequirementsOf(stageID)
	if err != nil {
		return err
	}

	var missing []string

	for _, requirement := range requirements {
		present, err := wctx.FieldPresent(requirement)
		if err != nil {
			return err
		}

		if !present {
			missing = append(missing, requirement)
		}
	}

	if len(missing) > 0 {
		return &PreconditionError{Stage: stageID, Missing: missing}
	}

	return nil
}

// shouldRetry: retry is warranted iff validation ran, rejected the query, and
// the ceiling has not been reached. Only the validity flag gates retries.
func (e *Executor) shouldRetry(wctx *models.Context) bool {
	if wctx.ValidationOutput == nil {
		return false
	}

	return !wctx.ValidationOutput.IsValid && wctx.RetryCount < wctx.MaxRetries
}

func (e *Executor) persist(ctx context.Context, wctx *models.Context) error {
	wctx.Touch()

	if err := e.repository.SaveContext(ctx, wctx); err != nil {
		return fmt.Errorf("failed to persist workflow context %s: %w", wctx.ID, err)
	}

	return nil
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Executor) publishTerminal(ctx context.Context, wctx *models.Context, duration time.Duration) {
	if wctx.Status == models.WorkflowStatusCompleted {
		sqlQuery := ""
		if wctx.CompositionOutput != nil {
			sqlQuery = wctx.CompositionOutput.SQLQuery
		}

		e.publish(ctx, wctx.ID, events.WorkflowExecutionCompleted{
			BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, wctx.ID),
			SQLQuery:   sqlQuery,
			RetryCount: wctx.RetryCount,
			Duration:   duration,
		})

		return
	}

	e.publish(ctx, wctx.ID, events.WorkflowExecutionFailed{
		BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionFailedEvent, wctx.ID),
		Feedback:   wctx.Feedback,
		RetryCount: wctx.RetryCount,
		Duration:   duration,
	})
}
