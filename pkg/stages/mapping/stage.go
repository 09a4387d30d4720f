// Package mapping resolves the planning result to concrete schema tables and
// qualified columns.
package mapping

import (
	"context"
	"errors"

	"github.com/dukex/queryflow/pkg/models"
)

// ID is the stage identifier in the pipeline definition.
const ID = "mapping"

type Stage struct{}

func New() *Stage {
	return &Stage{}
}

func (s *Stage) ID() string {
	return ID
}

func (s *Stage) Requires() []string {
	return []string{models.FieldPlanningOutput}
}

func (s *Stage) Execute(_ context.Context, wctx *models.Context) (*models.Context, error) {
	plan := wctx.PlanningOutput
	if plan == nil {
		return nil, errors.New("planning output is required but not present in context")
	}

	entities := mapEntities(plan.Entities)

	wctx.MappingOutput = &models.MappingResult{
		Entities:     entities,
		Filters:      mapFilters(plan.Filters, entities, wctx.Schema),
		Aggregations: mapAggregations(plan.Aggregations, entities, wctx.Schema),
		OrderBy:      mapOrderBy(plan.OrderBy, entities, wctx.Schema),
	}

	wctx.CurrentStep = ID
	wctx.Touch()

	return wctx, nil
}

func mapEntities(entities []models.Entity) []models.MappedEntity {
	mapped := make([]models.MappedEntity, 0, len(entities))

	for _, entity := range entities {
		mapped = append(mapped, models.MappedEntity{
			EntityName: entity.Name,
			Table:      entity.Name,
		})
	}

	return mapped
}

// qualify resolves a bare column name against the mapped tables, returning
// "table.column" for the first table that declares it.
func qualify(column string, entities []models.MappedEntity, schema models.SchemaDescription) string {
	for _, entity := range entities {
		if schema.HasColumn(entity.Table, column) {
			return entity.Table + "." + column
		}
	}

	return column
}

func mapFilters(filters []models.Filter, entities []models.MappedEntity, schema models.SchemaDescription) []models.MappedFilter {
	mapped := make([]models.MappedFilter, 0, len(filters))

	for _, filter := range filters {
		mapped = append(mapped, models.MappedFilter{
			Filter:       filter,
			MappedColumn: qualify(filter.Column, entities, schema),
		})
	}

	return mapped
}

func mapAggregations(aggregations []models.Aggregation, entities []models.MappedEntity, schema models.SchemaDescription) []models.MappedAggregation {
	mapped := make([]models.MappedAggregation, 0, len(aggregations))

	for _, aggregation := range aggregations {
		column := aggregation.Column
		if column != "*" {
			column = qualify(column, entities, schema)
		}

		mapped = append(mapped, models.MappedAggregation{
			Aggregation:  aggregation,
			MappedColumn: column,
		})
	}

	return mapped
}

func mapOrderBy(orderBy string, entities []models.MappedEntity, schema models.SchemaDescription) string {
	if orderBy == "" {
		return ""
	}

	if qualified := qualify(orderBy, entities, schema); qualified != orderBy {
		return qualified
	}

	// Ordering columns like created_at are assumed to live on the main table.
	if len(entities) > 0 {
		return entities[0].Table + "." + orderBy
	}

	return orderBy
}
