package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/queryflow/pkg/mocks"
	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/persistence/memory"
	"github.com/dukex/queryflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSchema() models.SchemaDescription {
	return models.SchemaDescription{
		Tables: map[string]models.TableSchema{
			"users":  {Columns: []string{"id", "name", "status", "age"}},
			"orders": {Columns: []string{"id", "user_id", "price", "created_at"}},
		},
	}
}

// stubStage lets tests script per-stage behavior.
type stubStage struct {
	id       string
	requires []string
	execute  func(wctx *models.Context) (*models.Context, error)
}

func (s *stubStage) ID() string {
	return s.id
}

func (s *stubStage) Requires() []string {
	return s.requires
}

func (s *stubStage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	return s.execute(wctx)
}

func TestExecutor_Run_CompletesPipeline(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	reg, err := registry.Default(logger)
	require.NoError(t, err)

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("count all active users", testSchema(), "user-1")
	require.NoError(t, repo.SaveContext(t.Context(), wctx))

	result, err := executor.Run(t.Context(), wctx)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusCompleted, result.Status)
	assert.Equal(t, 0, result.RetryCount)
	require.NotNil(t, result.CompositionOutput)
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE users.status = 'active'", result.CompositionOutput.SQLQuery)
	require.NotNil(t, result.ValidationOutput)
	assert.True(t, result.ValidationOutput.IsValid)

	// The terminal context is what pollers see.
	persisted, err := repo.ContextByID(t.Context(), wctx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, persisted.Status)
}

func invalidValidation(feedback string) *models.ValidationResult {
	return &models.ValidationResult{
		IsValid:  false,
		Errors:   []string{"Query must start with SELECT"},
		Feedback: feedback,
	}
}

func retryRegistry(t *testing.T, validate func(wctx *models.Context) (*models.Context, error)) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())

	stages := []*stubStage{
		{
			id: "planning",
			execute: func(wctx *models.Context) (*models.Context, error) {
				wctx.PlanningOutput = &models.PlanningResult{Intent: "select"}

				return wctx, nil
			},
		},
		{
			id:       "mapping",
			requires: []string{models.FieldPlanningOutput},
			execute: func(wctx *models.Context) (*models.Context, error) {
				wctx.MappingOutput = &models.MappingResult{}

				return wctx, nil
			},
		},
		{
			id:       "composition",
			requires: []string{models.FieldMappingOutput},
			execute: func(wctx *models.Context) (*models.Context, error) {
				wctx.CompositionOutput = &models.CompositionResult{SQLQuery: "SELECT 1"}

				return wctx, nil
			},
		},
		{
			id:       "validation",
			requires: []string{models.FieldCompositionOutput},
			execute:  validate,
		},
	}

	for _, stage := range stages {
		require.NoError(t, reg.Register(stage))
	}

	require.NoError(t, reg.SetRetryPath("composition", "validation"))

	return reg
}

func TestExecutor_Run_RetriesUntilValid(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	attempts := 0
	reg := retryRegistry(t, func(wctx *models.Context) (*models.Context, error) {
		attempts++
		if attempts < 3 {
			wctx.ValidationOutput = invalidValidation("try again")
			wctx.Feedback = "try again"

			return wctx, nil
		}

		wctx.ValidationOutput = &models.ValidationResult{IsValid: true}

		return wctx, nil
	})

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("whatever", testSchema(), "")

	result, err := executor.Run(t.Context(), wctx)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusCompleted, result.Status)
	assert.Equal(t, 2, result.RetryCount)
	assert.Equal(t, 3, attempts)
}

func TestExecutor_Run_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	attempts := 0
	reg := retryRegistry(t, func(wctx *models.Context) (*models.Context, error) {
		attempts++
		wctx.ValidationOutput = invalidValidation("still broken")
		wctx.Feedback = "still broken"

		return wctx, nil
	})

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("whatever", testSchema(), "")

	result, err := executor.Run(t.Context(), wctx)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusFailed, result.Status)
	assert.Equal(t, models.DefaultMaxRetries, result.RetryCount)
	// Initial pass plus one validation per retry.
	assert.Equal(t, models.DefaultMaxRetries+1, attempts)
	assert.Equal(t, "still broken", result.Feedback)

	persisted, err := repo.ContextByID(t.Context(), wctx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusFailed, persisted.Status)
}

func TestExecutor_Run_StageErrorIsFatal(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.Register(&stubStage{
		id: "planning",
		execute: func(wctx *models.Context) (*models.Context, error) {
			return nil, errors.New("boom")
		},
	}))

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("whatever", testSchema(), "")

	result, err := executor.Run(t.Context(), wctx)
	require.Error(t, err)

	var stageErr *StageExecutionError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "planning", stageErr.Stage)

	assert.Equal(t, models.WorkflowStatusFailed, result.Status)
	assert.Contains(t, result.Feedback, "execution error:")

	persisted, repoErr := repo.ContextByID(t.Context(), wctx.ID)
	require.NoError(t, repoErr)
	assert.Equal(t, models.WorkflowStatusFailed, persisted.Status)
	assert.Contains(t, persisted.Feedback, "execution error:")
}

func TestExecutor_Run_PreconditionFailureIsFatal(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.Register(&stubStage{
		id:       "mapping",
		requires: []string{models.FieldPlanningOutput},
		execute: func(wctx *models.Context) (*models.Context, error) {
			t.Fatal("stage must not execute when preconditions are unmet")

			return wctx, nil
		},
	}))

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("whatever", testSchema(), "")

	result, err := executor.Run(t.Context(), wctx)
	require.Error(t, err)

	var precondErr *PreconditionError
	require.ErrorAs(t, err, &precondErr)
	assert.Equal(t, "mapping", precondErr.Stage)
	assert.Equal(t, []string{models.FieldPlanningOutput}, precondErr.Missing)

	assert.Equal(t, models.WorkflowStatusFailed, result.Status)
}

func TestExecutor_Run_PersistFailureAborts(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	repo := new(mocks.MockContextRepository)
	repo.On("SaveContext", mock.Anything, mock.Anything).Return(errors.New("store down"))

	reg, err := registry.Default(logger)
	require.NoError(t, err)

	executor := NewExecutor(reg, repo, logger)

	wctx := models.NewContext("count all active users", testSchema(), "")

	result, err := executor.Run(t.Context(), wctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
	assert.Equal(t, models.WorkflowStatusFailed, result.Status)
}

func TestExecutor_Run_EmitsLifecycleEvents(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	repo := memory.NewPersistence(time.Hour, logger)

	bus := new(mocks.MockEventBus)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	reg, err := registry.Default(logger)
	require.NoError(t, err)

	executor := NewExecutor(reg, repo, logger, WithEventBus(bus))

	wctx := models.NewContext("count all active users", testSchema(), "")

	_, err = executor.Run(t.Context(), wctx)
	require.NoError(t, err)

	// Started, one per stage, and a terminal completion.
	bus.AssertNumberOfCalls(t, "Publish", 6)
}
