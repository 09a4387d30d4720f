package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/dukex/queryflow/pkg/persistence"
	"github.com/dukex/queryflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xeipuuv/gojsonschema"
)

// schemaDocumentContract constrains the submitted schema description: a
// "tables" object mapping table names to their column lists.
const schemaDocumentContract = `{
	"type": "object",
	"required": ["tables"],
	"properties": {
		"tables": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {
				"type": "object",
				"required": ["columns"],
				"properties": {
					"columns": {
						"type": "array",
						"minItems": 1,
						"items": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}
}`

type APIHandlers struct {
	manager        *workflow.Manager
	repository     persistence.ContextRepository
	validator      *validator.Validate
	schemaContract *gojsonschema.Schema
}

func NewAPIHandlers(
	manager *workflow.Manager,
	repository persistence.ContextRepository,
	validator *validator.Validate,
) (*APIHandlers, error) {
	contract, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaDocumentContract))
	if err != nil {
		return nil, err
	}

	return &APIHandlers{
		manager:        manager,
		repository:     repository,
		validator:      validator,
		schemaContract: contract,
	}, nil
}

// SubmitWorkflow accepts a natural-language query plus schema description and
// acknowledges with 202 before the pipeline runs.
func (h *APIHandlers) SubmitWorkflow(c fiber.Ctx) error {
	var req SubmitWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.schemaContract.Validate(gojsonschema.NewBytesLoader(req.Schema))
	if err != nil {
		return badRequest(c, "Schema document is not valid JSON")
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return badRequest(c, "Invalid schema document: "+strings.Join(details, "; "))
	}

	var schema models.SchemaDescription
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return badRequest(c, "Invalid schema document: "+err.Error())
	}

	workflowID, err := h.manager.Submit(c.Context(), req.Query, schema, req.UserID)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(SubmitWorkflowResponse{
		WorkflowID: workflowID,
		Status:     string(models.WorkflowStatusPending),
	})
}

func (h *APIHandlers) GetWorkflowStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	status, err := h.manager.Status(c.Context(), id)
	if err != nil {
		if persistence.IsContextNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) GetWorkflowSteps(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	steps, err := h.manager.Steps(c.Context(), id)
	if err != nil {
		if persistence.IsContextNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": id,
		"steps":       steps,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "QueryFlow API is healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	if err := h.repository.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "QueryFlow API is unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
