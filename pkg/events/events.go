// Package events defines event types for workflow and task lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/conductor-ai/conductor/pkg/models"
)

type EventType string

// Kafka topic carrying all orchestration events.
const Topic = "conductor.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowStartedEvent   EventType = "workflow.started"
	WorkflowCompletedEvent EventType = "workflow.completed"
	WorkflowFailedEvent    EventType = "workflow.failed"
	WorkflowPausedEvent    EventType = "workflow.paused"
	WorkflowResumedEvent   EventType = "workflow.resumed"

	// Task lifecycle events.
	TaskStartedEvent           EventType = "task.started"
	TaskCompletedEvent         EventType = "task.completed"
	TaskFailedEvent            EventType = "task.failed"
	TaskRevisionRequestedEvent EventType = "task.revision_requested"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowStarted struct {
	BaseEvent

	WorkflowName string              `json:"workflow_name"`
	Mode         models.WorkflowMode `json:"mode"`
	TaskCount    int                 `json:"task_count"`
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	TasksCompleted int           `json:"tasks_completed"`
	TasksFailed    int           `json:"tasks_failed"`
	Iterations     int           `json:"iterations"`
	Duration       time.Duration `json:"duration"`
}

func (w WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowFailed struct {
	BaseEvent

	Errors   []string      `json:"errors"`
	Duration time.Duration `json:"duration"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type WorkflowPaused struct {
	BaseEvent

	TasksCompleted int `json:"tasks_completed"`
	TasksRemaining int `json:"tasks_remaining"`
}

func (w WorkflowPaused) GetType() EventType {
	return WorkflowPausedEvent
}

type WorkflowResumed struct {
	BaseEvent
}

func (w WorkflowResumed) GetType() EventType {
	return WorkflowResumedEvent
}

type TaskStarted struct {
	BaseEvent

	TaskID   string      `json:"task_id"`
	TaskName string      `json:"task_name"`
	Role     models.Role `json:"role"`
}

func (t TaskStarted) GetType() EventType {
	return TaskStartedEvent
}

type TaskCompleted struct {
	BaseEvent

	TaskID     string `json:"task_id"`
	TaskName   string `json:"task_name"`
	Output     any    `json:"output,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (t TaskCompleted) GetType() EventType {
	return TaskCompletedEvent
}

type TaskFailed struct {
	BaseEvent

	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Error    string `json:"error"`
}

func (t TaskFailed) GetType() EventType {
	return TaskFailedEvent
}

type TaskRevisionRequested struct {
	BaseEvent

	TaskID        string `json:"task_id"`
	TaskName      string `json:"task_name"`
	RevisionCount int    `json:"revision_count"`
	Feedback      string `json:"feedback"`
}

func (t TaskRevisionRequested) GetType() EventType {
	return TaskRevisionRequestedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
