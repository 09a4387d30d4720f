package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/stages/composition"
	"github.com/dukex/queryflow/pkg/stages/mapping"
	"github.com/dukex/queryflow/pkg/stages/planning"
	"github.com/dukex/queryflow/pkg/stages/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	id       string
	requires []string
}

func (s *fakeStage) ID() string {
	return s.id
}

func (s *fakeStage) Requires() []string {
	return s.requires
}

func (s *fakeStage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	return wctx, nil
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	err := reg.Register(&fakeStage{id: "planning"})
	require.NoError(t, err)

	err = reg.Register(&fakeStage{id: "mapping", requires: []string{models.FieldPlanningOutput}})
	require.NoError(t, err)

	assert.Equal(t, []string{"planning", "mapping"}, reg.OrderedStages())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	require.NoError(t, reg.Register(&fakeStage{id: "planning"}))

	err := reg.Register(&fakeStage{id: "planning"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Register_UnknownRequirement(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	err := reg.Register(&fakeStage{id: "mapping", requires: []string{"planner_output"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context field")
}

func TestRegistry_SetRetryPath(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())
	require.NoError(t, reg.Register(&fakeStage{id: "composition"}))
	require.NoError(t, reg.Register(&fakeStage{id: "validation"}))

	require.NoError(t, reg.SetRetryPath("composition", "validation"))
	assert.Equal(t, []string{"composition", "validation"}, reg.RetryPath())
}

func TestRegistry_SetRetryPath_Unregistered(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	err := reg.SetRetryPath("composition")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered stage")
}

func TestRegistry_StageByID(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())
	require.NoError(t, reg.Register(&fakeStage{id: "planning"}))

	stage, err := reg.StageByID("planning")
	require.NoError(t, err)
	assert.Equal(t, "planning", stage.ID())

	_, err = reg.StageByID("unknown")
	require.Error(t, err)
}

func TestRegistry_RequirementsOf(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())
	require.NoError(t, reg.Register(&fakeStage{id: "mapping", requires: []string{models.FieldPlanningOutput}}))

	requirements, err := reg.RequirementsOf("mapping")
	require.NoError(t, err)
	assert.Equal(t, []string{models.FieldPlanningOutput}, requirements)

	_, err = reg.RequirementsOf("unknown")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	reg, err := Default(slog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{planning.ID, mapping.ID, composition.ID, validation.ID}, reg.OrderedStages())
	assert.Equal(t, []string{composition.ID, validation.ID}, reg.RetryPath())
}
