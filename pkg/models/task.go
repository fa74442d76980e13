// Package models defines the core domain models for role-based agent
// workflow orchestration.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending       TaskStatus = "pending"
	TaskStatusInProgress    TaskStatus = "in_progress"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusFailed        TaskStatus = "failed"
	TaskStatusNeedsRevision TaskStatus = "needs_revision"
	TaskStatusBlocked       TaskStatus = "blocked"
)

// Terminal reports whether the status is final for the current attempt.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskPriority is informational ordering metadata. It does not affect
// scheduling order.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

const DefaultMaxRevisions = 3

// Task is one unit of work assigned to an agent role. Its status is
// mutated only through the methods below; the engine owns all transitions.
type Task struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"        validate:"required,min=3"`
	Description    string            `json:"description" validate:"required"`
	AssignedTo     Role              `json:"assigned_to" validate:"required"`
	Status         TaskStatus        `json:"status"`
	Priority       TaskPriority      `json:"priority"`
	ExpectedOutput string            `json:"expected_output,omitempty"`
	ContextTasks   []string          `json:"context_tasks,omitempty"`
	Result         *TaskResult       `json:"result,omitempty"`
	Evaluation     *EvaluationResult `json:"evaluation,omitempty"`
	RevisionCount  int               `json:"revision_count"`
	MaxRevisions   int               `json:"max_revisions"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

// NewTask creates a pending task assigned to the given role.
func NewTask(name, description string, assignedTo Role) *Task {
	now := time.Now().UTC()

	return &Task{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		AssignedTo:   assignedTo,
		Status:       TaskStatusPending,
		Priority:     PriorityMedium,
		MaxRevisions: DefaultMaxRevisions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MarkInProgress transitions the task to in_progress. The start time is
// kept from the first attempt when the task comes back for revision.
func (t *Task) MarkInProgress() {
	now := time.Now().UTC()
	t.Status = TaskStatusInProgress
	t.UpdatedAt = now

	if t.StartedAt == nil {
		t.StartedAt = &now
	}
}

// Complete attaches the result and finalizes the task as completed or
// failed depending on the result's success flag.
func (t *Task) Complete(result *TaskResult) {
	now := time.Now().UTC()
	t.Result = result

	if result.Success {
		t.Status = TaskStatusCompleted
	} else {
		t.Status = TaskStatusFailed
	}

	t.UpdatedAt = now
	t.CompletedAt = &now
}

// Duration returns the wall time between the task's first start and its
// completion, or zero when either is unknown.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}

	return t.CompletedAt.Sub(*t.StartedAt)
}

// RequestRevision sends the task back for rework. It returns false and
// leaves the task untouched once the revision budget is exhausted.
func (t *Task) RequestRevision(evaluation *EvaluationResult) bool {
	if t.RevisionCount >= t.MaxRevisions {
		return false
	}

	t.Evaluation = evaluation
	t.RevisionCount++
	t.Status = TaskStatusNeedsRevision
	t.UpdatedAt = time.Now().UTC()

	return true
}

// CanBeRevised reports whether the task has revision budget left.
func (t *Task) CanBeRevised() bool {
	return t.RevisionCount < t.MaxRevisions
}

// Requeue resets a task awaiting revision back to pending so it can be
// picked up for another attempt.
func (t *Task) Requeue() {
	t.Status = TaskStatusPending
	t.UpdatedAt = time.Now().UTC()
}
