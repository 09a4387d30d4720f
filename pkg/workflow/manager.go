package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/persistence"
)

// Manager accepts submissions and detaches their execution. Submission is
// decoupled from execution: the pending context is durably persisted before
// the caller gets the identifier back, so polling works immediately.
type Manager struct {
	repository persistence.ContextRepository
	executor   *Executor
	maxRetries int
	logger     *slog.Logger
}

func NewManager(
	repository persistence.ContextRepository,
	executor *Executor,
	maxRetries int,
	logger *slog.Logger,
) *Manager {
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}

	return &Manager{
		repository: repository,
		executor:   executor,
		maxRetries: maxRetries,
		logger:     logger.With("module", "workflow_manager"),
	}
}

// Submit creates the pending context, persists it, and starts execution in a
// detached background task keyed by the workflow identifier. Completion is
// observed only through the persisted context, never through a return
// channel.
func (m *Manager) Submit(ctx context.Context, query string, schema models.SchemaDescription, userID string) (string, error) {
	wctx := models.NewContext(query, schema, userID)
	wctx.MaxRetries = m.maxRetries

	if err := m.repository.SaveContext(ctx, wctx); err != nil {
		return "", fmt.Errorf("failed to persist pending workflow: %w", err)
	}

	m.logger.InfoContext(ctx, "Workflow submitted", "workflow_id", wctx.ID, "user_id", userID)

	go func() {
		// Detached from the request context on purpose: callers cannot
		// cancel a run mid-pipeline, they can only stop polling.
		if _, err := m.executor.Run(context.Background(), wctx); err != nil {
			m.logger.Error("Workflow execution aborted", "workflow_id", wctx.ID, "error", err)
		}
	}()

	return wctx.ID, nil
}

// Status returns the overall status projection for a workflow, or
// persistence.ErrContextNotFound for unknown or expired identifiers.
func (m *Manager) Status(ctx context.Context, workflowID string) (*StatusView, error) {
	wctx, err := m.repository.ContextByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	view := ProjectStatus(wctx)

	return &view, nil
}

// Steps returns the ordered per-stage projection for a workflow, or
// persistence.ErrContextNotFound for unknown or expired identifiers.
func (m *Manager) Steps(ctx context.Context, workflowID string) ([]StepView, error) {
	wctx, err := m.repository.ContextByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return ProjectSteps(m.executor.registry.OrderedStages(), wctx), nil
}
