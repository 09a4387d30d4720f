package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DeserializationError indicates a persisted document does not parse back into
// a valid Context. Field names the offending field when it can be determined.
type DeserializationError struct {
	Field string
	Err   error
}

func (e *DeserializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed workflow context document: field %q: %v", e.Field, e.Err)
	}

	return fmt.Sprintf("malformed workflow context document: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// IsDeserializationError checks whether err stems from a malformed document.
func IsDeserializationError(err error) bool {
	var target *DeserializationError

	return errors.As(err, &target)
}

// MarshalDocument serializes the context into its persisted JSON form.
func (c *Context) MarshalDocument() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, &DeserializationError{Err: err}
	}

	return data, nil
}

// ContextFromDocument reconstructs a context from its persisted form. Every
// field round-trips exactly; a malformed document fails with a
// DeserializationError naming the offending field.
func ContextFromDocument(data []byte) (*Context, error) {
	var ctx Context

	if err := json.Unmarshal(data, &ctx); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &DeserializationError{Field: typeErr.Field, Err: err}
		}

		return nil, &DeserializationError{Err: err}
	}

	if ctx.ID == "" {
		return nil, &DeserializationError{Field: "id", Err: errors.New("missing workflow identifier")}
	}

	if !ctx.Status.Valid() {
		return nil, &DeserializationError{Field: "status", Err: fmt.Errorf("unknown status %q", ctx.Status)}
	}

	if ctx.UpdatedAt.Before(ctx.CreatedAt) {
		return nil, &DeserializationError{Field: "updated_at", Err: errors.New("updated_at precedes created_at")}
	}

	return &ctx, nil
}
