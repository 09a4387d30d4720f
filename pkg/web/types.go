// Package web provides HTTP request and response types for the query workflow API.
package web

import "encoding/json"

// SubmitWorkflowRequest represents the request body for submitting a new
// query workflow. Schema is the caller-supplied database schema description,
// kept raw so it can be validated against the schema document contract before
// decoding.
type SubmitWorkflowRequest struct {
	Query  string          `json:"query"             validate:"required,min=3"`
	Schema json.RawMessage `json:"schema"            validate:"required"`
	UserID string          `json:"user_id,omitempty"`
}

// SubmitWorkflowResponse represents the acknowledgement for an accepted
// workflow. Results are retrieved by polling with the returned identifier.
type SubmitWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
}
