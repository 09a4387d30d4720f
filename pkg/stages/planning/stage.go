// Package planning parses the natural-language query into a structured
// representation: intent, entities, filters, aggregations, limit and ordering.
package planning

import (
	"context"
	"strconv"
	"strings"

	"github.com/dukex/queryflow/pkg/models"
)

// ID is the stage identifier in the pipeline definition.
const ID = "planning"

type Stage struct{}

func New() *Stage {
	return &Stage{}
}

func (s *Stage) ID() string {
	return ID
}

// Requires is empty: planning is the first stage.
func (s *Stage) Requires() []string {
	return nil
}

func (s *Stage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	query := strings.ToLower(wctx.Query)

	wctx.PlanningOutput = &models.PlanningResult{
		Intent:       detectIntent(query),
		Entities:     extractEntities(query, wctx.Schema),
		Filters:      extractFilters(query),
		Aggregations: extractAggregations(query),
		Limit:        extractLimit(query),
		OrderBy:      extractOrderBy(query),
	}

	wctx.CurrentStep = ID
	wctx.Touch()

	return wctx, nil
}

func detectIntent(query string) string {
	switch {
	case containsAny(query, "count", "sum", "average", "avg", "total"):
		return "aggregate"
	case containsAny(query, "where", "filter", "only"):
		return "filter"
	default:
		return "select"
	}
}

// extractEntities matches schema table names (and their singular forms)
// against the query text.
func extractEntities(query string, schema models.SchemaDescription) []models.Entity {
	entities := make([]models.Entity, 0)

	for _, table := range schema.TableNames() {
		singular := strings.TrimSuffix(table, "s")
		if strings.Contains(query, table) || strings.Contains(query, singular) {
			entities = append(entities, models.Entity{Name: table, Type: "table"})
		}
	}

	return entities
}

func extractFilters(query string) []models.Filter {
	filters := make([]models.Filter, 0)

	if strings.Contains(query, "active") {
		filters = append(filters, models.Filter{Column: "status", Operator: "=", Value: "active"})
	}

	if strings.Contains(query, "age") && strings.Contains(query, ">") {
		filters = append(filters, models.Filter{Column: "age", Operator: ">", Value: "18"})
	}

	return filters
}

func extractAggregations(query string) []models.Aggregation {
	aggregations := make([]models.Aggregation, 0)

	if strings.Contains(query, "count") {
		aggregations = append(aggregations, models.Aggregation{Function: "COUNT", Column: "*"})
	}

	if strings.Contains(query, "sum") && strings.Contains(query, "price") {
		aggregations = append(aggregations, models.Aggregation{Function: "SUM", Column: "price"})
	}

	if strings.Contains(query, "average") || strings.Contains(query, "avg") {
		switch {
		case strings.Contains(query, "age"):
			aggregations = append(aggregations, models.Aggregation{Function: "AVG", Column: "age"})
		case strings.Contains(query, "price"):
			aggregations = append(aggregations, models.Aggregation{Function: "AVG", Column: "price"})
		}
	}

	return aggregations
}

// extractLimit parses the word following "limit" as a row count.
func extractLimit(query string) int {
	words := strings.Fields(query)
	for i, word := range words {
		if word == "limit" && i+1 < len(words) {
			if limit, err := strconv.Atoi(words[i+1]); err == nil {
				return limit
			}
		}
	}

	return 0
}

func extractOrderBy(query string) string {
	if !strings.Contains(query, "order by") {
		return ""
	}

	switch {
	case strings.Contains(query, "name"):
		return "name"
	case strings.Contains(query, "date"):
		return "created_at"
	default:
		return ""
	}
}

func containsAny(query string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(query, word) {
			return true
		}
	}

	return false
}
