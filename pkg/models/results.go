package models

// Entity is a named object the planning stage extracted from the query.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"` // "table", "column", "filter", "aggregation"
}

// Filter is a comparison the query asked for.
type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"` // "=", ">", "<", "LIKE", ...
	Value    string `json:"value"`
}

// Aggregation is an aggregate function the query asked for.
type Aggregation struct {
	Function string `json:"function"` // "COUNT", "SUM", "AVG", ...
	Column   string `json:"column"`
}

// PlanningResult is the structured interpretation of the natural-language query.
type PlanningResult struct {
	Intent       string        `json:"intent"` // "select", "filter", "aggregate"
	Entities     []Entity      `json:"entities"`
	Filters      []Filter      `json:"filters"`
	Aggregations []Aggregation `json:"aggregations"`
	Limit        int           `json:"limit,omitempty"`
	OrderBy      string        `json:"order_by,omitempty"`
}

// MappedEntity binds a planned entity to a schema table. Column is empty for
// whole-table entities.
type MappedEntity struct {
	EntityName string `json:"entity_name"`
	Table      string `json:"table"`
	Column     string `json:"column,omitempty"`
}

// MappedFilter carries a planned filter together with its resolved column.
type MappedFilter struct {
	Filter       Filter `json:"filter"`
	MappedColumn string `json:"mapped_column"`
}

// MappedAggregation carries a planned aggregation together with its resolved column.
type MappedAggregation struct {
	Aggregation  Aggregation `json:"aggregation"`
	MappedColumn string      `json:"mapped_column"`
}

// MappingResult is the schema-resolved form of the planning result.
type MappingResult struct {
	Entities     []MappedEntity      `json:"mapped_entities"`
	Filters      []MappedFilter      `json:"mapped_filters"`
	Aggregations []MappedAggregation `json:"mapped_aggregations"`
	OrderBy      string              `json:"mapped_order_by,omitempty"`
}

// CompositionResult holds the generated query text.
type CompositionResult struct {
	SQLQuery string `json:"sql_query"`
}

// ValidationResult reports whether the composed query passed validation.
// IsValid=false with populated feedback is a normal output that drives the
// retry loop; it is not an execution error.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors,omitempty"`
	Feedback    string   `json:"feedback,omitempty"`
	QueryOutput string   `json:"query_output,omitempty"`
}
