// Package composition assembles the SQL query text from the mapping result.
package composition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/queryflow/pkg/models"
)

// ID is the stage identifier in the pipeline definition.
const ID = "composition"

type Stage struct{}

func New() *Stage {
	return &Stage{}
}

func (s *Stage) ID() string {
	return ID
}

func (s *Stage) Requires() []string {
	return []string{models.FieldMappingOutput}
}

func (s *Stage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	mapping := wctx.MappingOutput
	if mapping == nil {
		return nil, errors.New("mapping output is required but not present in context")
	}

	parts := []string{
		selectClause(mapping),
		fromClause(mapping),
	}

	if where := whereClause(mapping); where != "" {
		parts = append(parts, where)
	}

	if mapping.OrderBy != "" {
		parts = append(parts, "ORDER BY "+mapping.OrderBy)
	}

	if plan := wctx.PlanningOutput; plan != nil && plan.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", plan.Limit))
	}

	wctx.CompositionOutput = &models.CompositionResult{
		SQLQuery: strings.Join(parts, " "),
	}

	wctx.CurrentStep = ID
	wctx.Touch()

	return wctx, nil
}

func selectClause(mapping *models.MappingResult) string {
	if len(mapping.Aggregations) > 0 {
		selects := make([]string, 0, len(mapping.Aggregations))
		for _, agg := range mapping.Aggregations {
			selects = append(selects, fmt.Sprintf("%s(%s)", agg.Aggregation.Function, agg.MappedColumn))
		}

		return "SELECT " + strings.Join(selects, ", ")
	}

	if len(mapping.Entities) == 0 {
		return "SELECT *"
	}

	columns := make([]string, 0, len(mapping.Entities))

	for _, entity := range mapping.Entities {
		if entity.Column != "" {
			columns = append(columns, entity.Table+"."+entity.Column)
		} else {
			columns = append(columns, entity.Table+".*")
		}
	}

	return "SELECT " + strings.Join(columns, ", ")
}

func fromClause(mapping *models.MappingResult) string {
	if len(mapping.Entities) == 0 {
		return "FROM users"
	}

	tables := make([]string, 0, len(mapping.Entities))
	seen := make(map[string]bool)

	for _, entity := range mapping.Entities {
		if !seen[entity.Table] {
			seen[entity.Table] = true

			tables = append(tables, entity.Table)
		}
	}

	return "FROM " + strings.Join(tables, ", ")
}

func whereClause(mapping *models.MappingResult) string {
	if len(mapping.Filters) == 0 {
		return ""
	}

	conditions := make([]string, 0, len(mapping.Filters))

	for _, mapped := range mapping.Filters {
		filter := mapped.Filter

		var condition string

		switch {
		case strings.EqualFold(filter.Operator, "LIKE"):
			condition = fmt.Sprintf("%s %s '%%%s%%'", mapped.MappedColumn, filter.Operator, filter.Value)
		case isNumeric(filter.Value):
			condition = fmt.Sprintf("%s %s %s", mapped.MappedColumn, filter.Operator, filter.Value)
		default:
			condition = fmt.Sprintf("%s %s '%s'", mapped.MappedColumn, filter.Operator, filter.Value)
		}

		conditions = append(conditions, condition)
	}

	return "WHERE " + strings.Join(conditions, " AND ")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}

	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
