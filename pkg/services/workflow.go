package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/conductor-ai/conductor/pkg/eventbus"
	"github.com/conductor-ai/conductor/pkg/events"
	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/orchestrator"
	"github.com/conductor-ai/conductor/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Runner executes a workflow to completion. The orchestrator service
// satisfies this.
type Runner interface {
	RunWorkflow(ctx context.Context, workflow *models.Workflow) *models.WorkflowResult
}

type Workflow struct {
	persistence persistence.Persistence
	runner      Runner
	publisher   eventbus.EventPublisher
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, runner Runner) *Workflow {
	return &Workflow{
		persistence: persistence,
		runner:      runner,
	}
}

// SetEventPublisher enables lifecycle event publication for runs.
func (w *Workflow) SetEventPublisher(publisher eventbus.EventPublisher) {
	w.publisher = publisher
}

func (w *Workflow) publishRunEvents(ctx context.Context, workflow *models.Workflow, result *models.WorkflowResult) {
	if w.publisher == nil {
		return
	}

	// Event delivery is best effort; a broker outage must not fail the run.
	_ = w.publisher.Publish(ctx, workflow.ID, events.WorkflowStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowStartedEvent, workflow.ID),
		WorkflowName: workflow.Name,
		Mode:         workflow.Config.Mode,
		TaskCount:    len(workflow.Tasks),
	})

	for _, task := range workflow.Tasks {
		if task.StartedAt != nil {
			_ = w.publisher.Publish(ctx, workflow.ID, events.TaskStarted{
				BaseEvent: events.NewBaseEvent(events.TaskStartedEvent, workflow.ID),
				TaskID:    task.ID,
				TaskName:  task.Name,
				Role:      task.AssignedTo,
			})
		}

		switch task.Status {
		case models.TaskStatusCompleted:
			var output any
			if task.Result != nil {
				output = task.Result.Output
			}

			_ = w.publisher.Publish(ctx, workflow.ID, events.TaskCompleted{
				BaseEvent:  events.NewBaseEvent(events.TaskCompletedEvent, workflow.ID),
				TaskID:     task.ID,
				TaskName:   task.Name,
				Output:     output,
				DurationMs: task.Duration().Milliseconds(),
			})
		case models.TaskStatusFailed:
			var taskErr string
			if task.Result != nil {
				taskErr = task.Result.Error
			}

			_ = w.publisher.Publish(ctx, workflow.ID, events.TaskFailed{
				BaseEvent: events.NewBaseEvent(events.TaskFailedEvent, workflow.ID),
				TaskID:    task.ID,
				TaskName:  task.Name,
				Error:     taskErr,
			})
		case models.TaskStatusNeedsRevision:
			var feedback string
			if task.Evaluation != nil {
				feedback = task.Evaluation.Feedback
			}

			_ = w.publisher.Publish(ctx, workflow.ID, events.TaskRevisionRequested{
				BaseEvent:     events.NewBaseEvent(events.TaskRevisionRequestedEvent, workflow.ID),
				TaskID:        task.ID,
				TaskName:      task.Name,
				RevisionCount: task.RevisionCount,
				Feedback:      feedback,
			})
		}
	}

	switch {
	case workflow.Status == models.WorkflowStatusPaused:
		done, total := workflow.Progress()
		_ = w.publisher.Publish(ctx, workflow.ID, events.WorkflowPaused{
			BaseEvent:      events.NewBaseEvent(events.WorkflowPausedEvent, workflow.ID),
			TasksCompleted: done,
			TasksRemaining: total - done,
		})
	case result.Success:
		_ = w.publisher.Publish(ctx, workflow.ID, events.WorkflowCompleted{
			BaseEvent:      events.NewBaseEvent(events.WorkflowCompletedEvent, workflow.ID),
			TasksCompleted: result.TasksCompleted,
			TasksFailed:    result.TasksFailed,
			Iterations:     result.TotalIterations,
			Duration:       result.Duration,
		})
	default:
		_ = w.publisher.Publish(ctx, workflow.ID, events.WorkflowFailed{
			BaseEvent: events.NewBaseEvent(events.WorkflowFailedEvent, workflow.ID),
			Errors:    result.Errors,
			Duration:  result.Duration,
		})
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Create validates and stores a new workflow.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	err := w.validateWorkflow(workflow)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusNotStarted
	}

	for _, task := range workflow.Tasks {
		if task.ID == "" {
			task.ID = uuid.New().String()
		}

		if task.Status == "" {
			task.Status = models.TaskStatusPending
		}

		if task.MaxRevisions == 0 {
			task.MaxRevisions = models.DefaultMaxRevisions
		}
	}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow by its ID. Running workflows cannot
// be modified.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusRunning {
		return nil, ErrCannotModifyRunning
	}

	err = w.validateWorkflow(workflow)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	err := w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	return nil
}

// Run executes a stored workflow and persists the outcome. Running an
// already running workflow is a conflict.
func (w *Workflow) Run(ctx context.Context, workflowID string) (*models.WorkflowResult, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusRunning {
		return nil, ErrWorkflowAlreadyRunning
	}

	result := w.runner.RunWorkflow(ctx, workflow)
	w.publishRunEvents(ctx, workflow, result)

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to persist workflow after run: %w", err)
	}

	return result, nil
}

// Resume continues a paused workflow run.
func (w *Workflow) Resume(ctx context.Context, workflowID string) (*models.WorkflowResult, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.Resume() {
		return nil, ErrWorkflowNotPaused
	}

	if w.publisher != nil {
		_ = w.publisher.Publish(ctx, workflow.ID, events.WorkflowResumed{
			BaseEvent: events.NewBaseEvent(events.WorkflowResumedEvent, workflow.ID),
		})
	}

	result := w.runner.RunWorkflow(ctx, workflow)
	w.publishRunEvents(ctx, workflow, result)

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to persist workflow after resume: %w", err)
	}

	return result, nil
}

// CreateStandard stores the built-in five-role development workflow for a
// project description.
func (w *Workflow) CreateStandard(ctx context.Context, projectDescription, name string) (*models.Workflow, error) {
	if projectDescription == "" {
		return nil, NewValidationError(
			"CreateStandard",
			"INVALID_REQUEST",
			"project description is required",
			ErrInvalidRequest,
		)
	}

	workflow := orchestrator.CreateStandardWorkflow(projectDescription, name)

	err := w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Tasks returns the task list of a workflow.
func (w *Workflow) Tasks(ctx context.Context, workflowID string) ([]*models.Task, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return workflow.Tasks, nil
}

// ResultOf returns the final result of a workflow run if one exists.
func (w *Workflow) ResultOf(ctx context.Context, workflowID string) (*models.WorkflowResult, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Result == nil {
		return nil, ErrResultNotAvailable
	}

	return workflow.Result, nil
}

func (w *Workflow) validateWorkflow(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if workflow.Name == "" {
		return ErrWorkflowNameRequired
	}

	if len(workflow.Tasks) == 0 {
		return ErrTasksRequired
	}

	validModes := []models.WorkflowMode{models.ModeSequential, models.ModeParallel, models.ModeHierarchical}
	if workflow.Config.Mode != "" && !slices.Contains(validModes, workflow.Config.Mode) {
		return NewValidationError(
			"validateWorkflow",
			"INVALID_MODE",
			fmt.Sprintf("invalid workflow mode '%s'", workflow.Config.Mode),
			ErrInvalidMode,
		)
	}

	knownRoles := models.BuiltinRoles()
	taskIDs := make(map[string]struct{}, len(workflow.Tasks))

	for _, task := range workflow.Tasks {
		if task.ID != "" {
			taskIDs[task.ID] = struct{}{}
		}
	}

	for _, task := range workflow.Tasks {
		if !slices.Contains(knownRoles, task.AssignedTo) {
			return NewValidationError(
				"validateWorkflow",
				"UNKNOWN_ROLE",
				fmt.Sprintf("task '%s' assigned to unknown role '%s'", task.Name, task.AssignedTo),
				ErrUnknownRole,
			)
		}

		for _, depID := range task.ContextTasks {
			if _, ok := taskIDs[depID]; !ok {
				return NewValidationError(
					"validateWorkflow",
					"UNKNOWN_DEPENDENCY",
					fmt.Sprintf("task '%s' depends on unknown task '%s'", task.Name, depID),
					ErrUnknownDependency,
				)
			}
		}
	}

	return nil
}
