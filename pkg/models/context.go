// Package models defines the core domain models for the query generation pipeline.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of one pipeline run.
type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "pending"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusRetrying  WorkflowStatus = "retrying"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// Valid reports whether s is one of the known workflow statuses.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusRunning, WorkflowStatusRetrying,
		WorkflowStatusCompleted, WorkflowStatusFailed:
		return true
	}

	return false
}

// Terminal reports whether no further transitions may leave s.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// Canonical context field names, used by stages to declare their preconditions.
const (
	FieldQuery             = "query"
	FieldSchema            = "schema"
	FieldPlanningOutput    = "planning_output"
	FieldMappingOutput     = "mapping_output"
	FieldCompositionOutput = "composition_output"
	FieldValidationOutput  = "validation_output"
)

// DefaultMaxRetries bounds the composition/validation feedback loop.
const DefaultMaxRetries = 3

// Context is the shared, persisted state record for one workflow. It is
// created once per submission, mutated only by the execution engine, and
// becomes immutable once the status is terminal.
type Context struct {
	ID     string            `json:"id"`
	Query  string            `json:"query"`
	Schema SchemaDescription `json:"schema"`

	// Per-stage output slots, each populated by exactly one stage.
	PlanningOutput    *PlanningResult    `json:"planning_output,omitempty"`
	MappingOutput     *MappingResult     `json:"mapping_output,omitempty"`
	CompositionOutput *CompositionResult `json:"composition_output,omitempty"`
	ValidationOutput  *ValidationResult  `json:"validation_output,omitempty"`

	Status      WorkflowStatus `json:"status"`
	CurrentStep string         `json:"current_step,omitempty"`
	Feedback    string         `json:"feedback,omitempty"`
	RetryCount  int            `json:"retry_count"`
	MaxRetries  int            `json:"max_retries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewContext creates a pending context for a fresh submission.
func NewContext(query string, schema SchemaDescription, userID string) *Context {
	now := time.Now().UTC()

	return &Context{
		ID:         uuid.New().String(),
		Query:      query,
		Schema:     schema,
		Status:     WorkflowStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
	}
}

// Touch refreshes the last-update timestamp. Called before every persisted
// mutation so UpdatedAt is monotonically non-decreasing.
func (c *Context) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

var contextFields = map[string]struct{}{
	FieldQuery:             {},
	FieldSchema:            {},
	FieldPlanningOutput:    {},
	FieldMappingOutput:     {},
	FieldCompositionOutput: {},
	FieldValidationOutput:  {},
}

// KnownField reports whether name is a declarable context field.
func KnownField(name string) bool {
	_, ok := contextFields[name]

	return ok
}

// FieldPresent reports whether the named field is populated. Referencing a
// field the context does not have is a configuration error, not a missing
// precondition.
func (c *Context) FieldPresent(name string) (bool, error) {
	switch name {
	case FieldQuery:
		return c.Query != "", nil
	case FieldSchema:
		return len(c.Schema.Tables) > 0, nil
	case FieldPlanningOutput:
		return c.PlanningOutput != nil, nil
	case FieldMappingOutput:
		return c.MappingOutput != nil, nil
	case FieldCompositionOutput:
		return c.CompositionOutput != nil, nil
	case FieldValidationOutput:
		return c.ValidationOutput != nil, nil
	default:
		return false, fmt.Errorf("unknown context field %q", name)
	}
}
