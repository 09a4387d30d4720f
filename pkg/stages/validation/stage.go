// Package validation checks the composed query for structural correctness and
// conformance with the planned intent, producing feedback that drives the
// retry loop when the query is rejected.
package validation

import (
	"context"
	"errors"
	"strings"

	"github.com/dukex/queryflow/pkg/models"
)

// ID is the stage identifier in the pipeline definition.
const ID = "validation"

// dangerousPatterns are rejected outright wherever they appear.
var dangerousPatterns = []string{";--", "; --", "drop table", "delete from", "update set"}

var aggregateFunctions = []string{"count(", "sum(", "avg(", "max(", "min("}

type Stage struct{}

func New() *Stage {
	return &Stage{}
}

func (s *Stage) ID() string {
	return ID
}

func (s *Stage) Requires() []string {
	return []string{models.FieldCompositionOutput}
}

func (s *Stage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	if wctx.CompositionOutput == nil {
		return nil, errors.New("composition output is required but not present in context")
	}

	sql := strings.TrimSpace(strings.ToLower(wctx.CompositionOutput.SQLQuery))
	plan := wctx.PlanningOutput

	validationErrors := structuralErrors(sql)
	validationErrors = append(validationErrors, intentErrors(sql, plan)...)

	result := &models.ValidationResult{
		IsValid: len(validationErrors) == 0,
		Errors:  validationErrors,
	}

	if result.IsValid {
		result.QueryOutput = "Query executed successfully (mock result)"
	} else {
		result.QueryOutput = "Query validation failed"
		result.Feedback = buildFeedback(sql, plan, validationErrors)
		wctx.Feedback = result.Feedback
	}

	wctx.ValidationOutput = result
	wctx.CurrentStep = ID
	wctx.Touch()

	return wctx, nil
}

func structuralErrors(sql string) []string {
	var errs []string

	if !strings.HasPrefix(sql, "select") {
		errs = append(errs, "Query must start with SELECT")
	}

	if !strings.Contains(sql, "from") {
		errs = append(errs, "Query must include FROM clause")
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(sql, pattern) {
			errs = append(errs, "Potentially dangerous SQL pattern detected: "+pattern)
		}
	}

	return errs
}

func intentErrors(sql string, plan *models.PlanningResult) []string {
	if plan == nil {
		return nil
	}

	var errs []string

	if plan.Intent == "aggregate" && !containsAny(sql, aggregateFunctions...) {
		errs = append(errs, "Query should include aggregation functions based on intent")
	}

	if len(plan.Filters) > 0 && !strings.Contains(sql, "where") {
		errs = append(errs, "Query should include WHERE clause for filters")
	}

	if plan.Limit > 0 && !strings.Contains(sql, "limit") {
		errs = append(errs, "Query should include LIMIT clause as requested")
	}

	return errs
}

func buildFeedback(sql string, plan *models.PlanningResult, validationErrors []string) string {
	parts := []string{"Issues found:"}
	for _, err := range validationErrors {
		parts = append(parts, "- "+err)
	}

	if plan != nil {
		if plan.Intent == "aggregate" && !containsAny(sql, "count(", "sum(", "avg(") {
			parts = append(parts, "Suggestion: Add appropriate aggregation functions (COUNT, SUM, AVG)")
		}

		if len(plan.Filters) > 0 && !strings.Contains(sql, "where") {
			parts = append(parts, "Suggestion: Add WHERE clause to apply filters")
		}
	}

	return strings.Join(parts, "\n")
}

func containsAny(sql string, patterns ...string) bool {
	for _, pattern := range patterns {
		if strings.Contains(sql, pattern) {
			return true
		}
	}

	return false
}
