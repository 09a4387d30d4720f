package workflow

import (
	"time"

	"github.com/dukex/queryflow/pkg/models"
)

// StepStatus is the per-stage status exposed to pollers, derived from the
// persisted context rather than stored alongside it.
type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusRunning StepStatus = "running"
	StepStatusDone    StepStatus = "done"
	StepStatusFailed  StepStatus = "failed"
)

// StatusView is the overall workflow projection returned by status polls.
type StatusView struct {
	WorkflowID   string                `json:"workflow_id"`
	Status       models.WorkflowStatus `json:"status"`
	CurrentStage string                `json:"current_stage,omitempty"`
	RetryCount   int                   `json:"retry_count"`
	Feedback     string                `json:"feedback,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// StepView is one stage's projection within the steps listing.
type StepView struct {
	Name       string         `json:"stage_name"`
	Status     StepStatus     `json:"stage_status"`
	Output     map[string]any `json:"output_summary,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// ProjectStatus derives the overall view from a persisted context. Pure: it
// never mutates or re-persists the context.
func ProjectStatus(wctx *models.Context) StatusView {
	return StatusView{
		WorkflowID:   wctx.ID,
		Status:       wctx.Status,
		CurrentStage: wctx.CurrentStep,
		RetryCount:   wctx.RetryCount,
		Feedback:     wctx.Feedback,
		CreatedAt:    wctx.CreatedAt,
		UpdatedAt:    wctx.UpdatedAt,
	}
}

// ProjectSteps derives a per-stage view for every stage in pipeline order.
//
// Derivation rules relative to the persisted current step:
//   - a failed workflow marks every stage failed
//   - with no recorded current step every stage is pending
//   - stages before the current one are done
//   - the current stage is running while the workflow is in flight, done once
//     the workflow completed
//   - stages after the current one are pending
//
// Timings reuse the workflow-level timestamps: per-stage timings are not
// tracked in the context.
func ProjectSteps(stageIDs []string, wctx *models.Context) []StepView {
	currentIndex := -1

	for i, stageID := range stageIDs {
		if stageID == wctx.CurrentStep {
			currentIndex = i

			break
		}
	}

	views := make([]StepView, 0, len(stageIDs))

	for i, stageID := range stageIDs {
		view := StepView{
			Name:   stageID,
			Status: stepStatusAt(i, currentIndex, wctx.Status),
			Output: stageOutputSummary(stageID, wctx),
		}

		if view.Status == StepStatusRunning || view.Status == StepStatusDone {
			startedAt := wctx.CreatedAt
			view.StartedAt = &startedAt
		}

		if view.Status == StepStatusDone {
			finishedAt := wctx.UpdatedAt
			view.FinishedAt = &finishedAt
		}

		views = append(views, view)
	}

	return views
}

func stepStatusAt(index, currentIndex int, status models.WorkflowStatus) StepStatus {
	if status == models.WorkflowStatusFailed {
		return StepStatusFailed
	}

	if currentIndex < 0 {
		return StepStatusPending
	}

	switch {
	case index < currentIndex:
		return StepStatusDone
	case index == currentIndex:
		switch status {
		case models.WorkflowStatusRunning, models.WorkflowStatusRetrying:
			return StepStatusRunning
		case models.WorkflowStatusCompleted:
			return StepStatusDone
		default:
			return StepStatusPending
		}
	default:
		return StepStatusPending
	}
}

// stageOutputSummary condenses a stage's output into a small map for the
// steps listing. Full outputs stay in the persisted context only.
func stageOutputSummary(stageID string, wctx *models.Context) map[string]any {
	switch stageID {
	case "planning":
		if wctx.PlanningOutput == nil {
			return nil
		}

		return map[string]any{
			"intent":       wctx.PlanningOutput.Intent,
			"entities":     len(wctx.PlanningOutput.Entities),
			"filters":      len(wctx.PlanningOutput.Filters),
			"aggregations": len(wctx.PlanningOutput.Aggregations),
		}
	case "mapping":
		if wctx.MappingOutput == nil {
			return nil
		}

		return map[string]any{
			"mapped_entities":     len(wctx.MappingOutput.Entities),
			"mapped_filters":      len(wctx.MappingOutput.Filters),
			"mapped_aggregations": len(wctx.MappingOutput.Aggregations),
		}
	case "composition":
		if wctx.CompositionOutput == nil {
			return nil
		}

		return map[string]any{
			"sql_query": wctx.CompositionOutput.SQLQuery,
		}
	case "validation":
		if wctx.ValidationOutput == nil {
			return nil
		}

		summary := map[string]any{
			"is_valid": wctx.ValidationOutput.IsValid,
		}
		if len(wctx.ValidationOutput.Errors) > 0 {
			summary["errors"] = len(wctx.ValidationOutput.Errors)
		}

		return summary
	default:
		return nil
	}
}
