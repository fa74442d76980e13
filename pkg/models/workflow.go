package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusNotStarted WorkflowStatus = "not_started"
	WorkflowStatusRunning    WorkflowStatus = "running"
	WorkflowStatusPaused     WorkflowStatus = "paused"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusFailed     WorkflowStatus = "failed"
)

// WorkflowMode selects how the engine walks the task list.
type WorkflowMode string

const (
	ModeSequential   WorkflowMode = "sequential"
	ModeParallel     WorkflowMode = "parallel"
	ModeHierarchical WorkflowMode = "hierarchical"
)

const DefaultMaxIterations = 10

// WorkflowConfig holds the execution configuration for a workflow.
type WorkflowConfig struct {
	Mode                 WorkflowMode `json:"mode"`
	MaxIterations        int          `json:"max_iterations"`
	EnableEvaluation     bool         `json:"enable_evaluation"`
	EnableCorrectionLoop bool         `json:"enable_correction_loop"`
	Verbose              bool         `json:"verbose"`
	Memory               bool         `json:"memory"`
}

// DefaultWorkflowConfig returns the defaults used by the standard
// workflow factory: sequential mode with the correction loop enabled.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		Mode:                 ModeSequential,
		MaxIterations:        DefaultMaxIterations,
		EnableEvaluation:     true,
		EnableCorrectionLoop: true,
		Verbose:              true,
		Memory:               true,
	}
}

// WorkflowResult aggregates the outcome of one workflow run.
type WorkflowResult struct {
	Success         bool           `json:"success"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksFailed     int            `json:"tasks_failed"`
	TotalIterations int            `json:"total_iterations"`
	Outputs         map[string]any `json:"outputs,omitempty"`
	Errors          []string       `json:"errors,omitempty"`
	Duration        time.Duration  `json:"duration"`
}

// Workflow is an ordered container of tasks plus execution state. The task
// list is append-only after creation; insertion order is the execution
// order in sequential mode and the tie-break order for ready tasks.
type Workflow struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"        validate:"required,min=3"`
	Description      string          `json:"description" validate:"required"`
	Tasks            []*Task         `json:"tasks"`
	Config           WorkflowConfig  `json:"config"`
	Status           WorkflowStatus  `json:"status"`
	Result           *WorkflowResult `json:"result,omitempty"`
	CurrentIteration int             `json:"current_iteration"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
}

// NewWorkflow creates a workflow in the not_started state.
func NewWorkflow(name, description string, config WorkflowConfig) *Workflow {
	if config.MaxIterations == 0 {
		config.MaxIterations = DefaultMaxIterations
	}

	return &Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Config:      config,
		Status:      WorkflowStatusNotStarted,
		CreatedAt:   time.Now().UTC(),
	}
}

// AddTask appends a task. Dependencies in ContextTasks must reference
// tasks already added.
func (w *Workflow) AddTask(task *Task) {
	w.Tasks = append(w.Tasks, task)
}

// TaskByID returns the task with the given id, or nil.
func (w *Workflow) TaskByID(id string) *Task {
	for _, task := range w.Tasks {
		if task.ID == id {
			return task
		}
	}

	return nil
}

// Start transitions the workflow to running. The start time is recorded
// on the first start only; a resumed workflow keeps the original one.
func (w *Workflow) Start() {
	w.Status = WorkflowStatusRunning

	if w.StartedAt == nil {
		now := time.Now().UTC()
		w.StartedAt = &now
	}
}

// Pause suspends a running workflow. It returns false without mutation
// when the workflow is not running.
func (w *Workflow) Pause() bool {
	if w.Status != WorkflowStatusRunning {
		return false
	}

	w.Status = WorkflowStatusPaused

	return true
}

// Resume continues a paused workflow. It returns false without mutation
// when the workflow is not paused.
func (w *Workflow) Resume() bool {
	if w.Status != WorkflowStatusPaused {
		return false
	}

	w.Status = WorkflowStatusRunning

	return true
}

// Complete finalizes the workflow with the given result.
func (w *Workflow) Complete(result *WorkflowResult) {
	now := time.Now().UTC()
	w.Result = result

	if result.Success {
		w.Status = WorkflowStatusCompleted
	} else {
		w.Status = WorkflowStatusFailed
	}

	w.CompletedAt = &now
}

// IncrementIteration advances the workflow-global iteration counter. It
// returns false and leaves the counter unchanged once the configured
// budget is reached.
func (w *Workflow) IncrementIteration() bool {
	if w.CurrentIteration >= w.Config.MaxIterations {
		return false
	}

	w.CurrentIteration++

	return true
}

// ReadyTasks returns, in insertion order, every pending task whose
// dependencies have all completed. A task gated on a failed dependency is
// never ready; detecting that stall is the engine's job.
func (w *Workflow) ReadyTasks() []*Task {
	ready := make([]*Task, 0, len(w.Tasks))

	for _, task := range w.Tasks {
		if task.Status != TaskStatusPending {
			continue
		}

		if w.dependenciesCompleted(task) {
			ready = append(ready, task)
		}
	}

	return ready
}

func (w *Workflow) dependenciesCompleted(task *Task) bool {
	for _, depID := range task.ContextTasks {
		dep := w.TaskByID(depID)
		if dep == nil || dep.Status != TaskStatusCompleted {
			return false
		}
	}

	return true
}

// PendingTasks returns all tasks still waiting to run.
func (w *Workflow) PendingTasks() []*Task {
	pending := make([]*Task, 0, len(w.Tasks))

	for _, task := range w.Tasks {
		if task.Status == TaskStatusPending {
			pending = append(pending, task)
		}
	}

	return pending
}

// TasksNeedingRevision returns all tasks sent back for rework.
func (w *Workflow) TasksNeedingRevision() []*Task {
	needing := make([]*Task, 0, len(w.Tasks))

	for _, task := range w.Tasks {
		if task.Status == TaskStatusNeedsRevision {
			needing = append(needing, task)
		}
	}

	return needing
}

// IsComplete reports whether every task has reached a terminal status.
func (w *Workflow) IsComplete() bool {
	for _, task := range w.Tasks {
		if !task.Status.Terminal() {
			return false
		}
	}

	return true
}

// Progress returns how many tasks are terminal and how many exist.
func (w *Workflow) Progress() (done, total int) {
	for _, task := range w.Tasks {
		if task.Status.Terminal() {
			done++
		}
	}

	return done, len(w.Tasks)
}

// RequiredRoles returns the distinct set of roles the workflow's tasks
// are assigned to.
func (w *Workflow) RequiredRoles() []Role {
	seen := make(map[Role]struct{}, len(w.Tasks))
	roles := make([]Role, 0, len(w.Tasks))

	for _, task := range w.Tasks {
		if _, ok := seen[task.AssignedTo]; ok {
			continue
		}

		seen[task.AssignedTo] = struct{}{}
		roles = append(roles, task.AssignedTo)
	}

	return roles
}
