// Package events defines event types and structures for workflow lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "queryflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	StageFinishedEvent              EventType = "workflow.stage.finished"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type WorkflowExecutionStarted struct {
	BaseEvent

	Query string `json:"query"`
}

func (e WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type StageFinished struct {
	BaseEvent

	StageID    string `json:"stage_id"`
	RetryCount int    `json:"retry_count"`
}

func (e StageFinished) GetType() EventType {
	return StageFinishedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	SQLQuery   string        `json:"sql_query"`
	RetryCount int           `json:"retry_count"`
	Duration   time.Duration `json:"duration"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	Feedback   string        `json:"feedback"`
	RetryCount int           `json:"retry_count"`
	Duration   time.Duration `json:"duration"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}
