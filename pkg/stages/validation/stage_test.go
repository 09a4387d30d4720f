package validation

import (
	"testing"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithSQL(sql string, plan *models.PlanningResult) *models.Context {
	wctx := models.NewContext("irrelevant", models.SchemaDescription{}, "")
	wctx.PlanningOutput = plan
	wctx.CompositionOutput = &models.CompositionResult{SQLQuery: sql}

	return wctx
}

func TestStage_Execute_ValidQuery(t *testing.T) {
	t.Parallel()

	plan := &models.PlanningResult{
		Intent:  "aggregate",
		Filters: []models.Filter{{Column: "status", Operator: "=", Value: "active"}},
	}
	wctx := contextWithSQL("SELECT COUNT(*) FROM users WHERE users.status = 'active'", plan)

	result, err := New().Execute(t.Context(), wctx)
	require.NoError(t, err)
	require.NotNil(t, result.ValidationOutput)

	assert.True(t, result.ValidationOutput.IsValid)
	assert.Empty(t, result.ValidationOutput.Errors)
	assert.NotEmpty(t, result.ValidationOutput.QueryOutput)
	assert.Empty(t, result.Feedback)
	assert.Equal(t, ID, result.CurrentStep)
}

func TestStage_Execute_InvalidQueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sql         string
		plan        *models.PlanningResult
		wantError   string
		wantSuggest string
	}{
		{
			name:      "missing select",
			sql:       "COUNT(*) FROM users",
			wantError: "Query must start with SELECT",
		},
		{
			name:      "missing from",
			sql:       "SELECT 1",
			wantError: "Query must include FROM clause",
		},
		{
			name:      "dangerous pattern",
			sql:       "SELECT * FROM users; DROP TABLE users",
			wantError: "Potentially dangerous SQL pattern detected: drop table",
		},
		{
			name:        "aggregate intent without aggregation",
			sql:         "SELECT users.* FROM users",
			plan:        &models.PlanningResult{Intent: "aggregate"},
			wantError:   "Query should include aggregation functions based on intent",
			wantSuggest: "Suggestion: Add appropriate aggregation functions (COUNT, SUM, AVG)",
		},
		{
			name: "filters without where clause",
			sql:  "SELECT users.* FROM users",
			plan: &models.PlanningResult{
				Intent:  "filter",
				Filters: []models.Filter{{Column: "status", Operator: "=", Value: "active"}},
			},
			wantError:   "Query should include WHERE clause for filters",
			wantSuggest: "Suggestion: Add WHERE clause to apply filters",
		},
		{
			name:      "requested limit missing",
			sql:       "SELECT users.* FROM users",
			plan:      &models.PlanningResult{Intent: "select", Limit: 5},
			wantError: "Query should include LIMIT clause as requested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wctx := contextWithSQL(tt.sql, tt.plan)

			result, err := New().Execute(t.Context(), wctx)
			require.NoError(t, err)
			require.NotNil(t, result.ValidationOutput)

			output := result.ValidationOutput
			assert.False(t, output.IsValid)
			assert.Contains(t, output.Errors, tt.wantError)
			assert.Contains(t, output.Feedback, "Issues found:")
			assert.Equal(t, output.Feedback, result.Feedback)

			if tt.wantSuggest != "" {
				assert.Contains(t, output.Feedback, tt.wantSuggest)
			}
		})
	}
}

func TestStage_Execute_MissingCompositionOutput(t *testing.T) {
	t.Parallel()

	wctx := models.NewContext("irrelevant", models.SchemaDescription{}, "")

	result, err := New().Execute(t.Context(), wctx)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestStage_Requires(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{models.FieldCompositionOutput}, New().Requires())
}
