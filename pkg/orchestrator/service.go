// Package orchestrator contains the workflow execution engine: it drives
// workflows through their configured mode, dispatches tasks to role
// agents, evaluates results, and bounds the revision and iteration
// budgets.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/observability"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

const defaultMaxWorkers = 4

// ResultEvaluator judges a task result. Implementations must be pure
// functions of (task, result) with no side effects beyond tracing.
type ResultEvaluator interface {
	Evaluate(ctx context.Context, task *models.Task, result *models.TaskResult) *models.EvaluationResult
}

// Service is the workflow execution engine. It owns no workflow state of
// its own: callers hand it in-memory workflows and are responsible for
// persisting them around the run.
type Service struct {
	logger        *slog.Logger
	factory       protocol.AgentFactory
	observability protocol.Observability
	crew          protocol.CrewRunner
	distributor   *Distributor
	evaluator     ResultEvaluator
	maxWorkers    int
}

// NewService creates the engine. A nil observability defaults to the
// no-op adapter; a nil crew runner makes hierarchical runs fail with an
// explicit reason instead of panicking.
func NewService(logger *slog.Logger, factory protocol.AgentFactory, obs protocol.Observability, crew protocol.CrewRunner) *Service {
	if obs == nil {
		obs = observability.NewNoop()
	}

	return &Service{
		logger:        logger,
		factory:       factory,
		observability: obs,
		crew:          crew,
		distributor:   NewDistributor(factory),
		evaluator:     NewEvaluator(obs),
		maxWorkers:    defaultMaxWorkers,
	}
}

// SetMaxWorkers bounds the parallel-mode worker pool. Values below one
// are ignored.
func (s *Service) SetMaxWorkers(n int) {
	if n >= 1 {
		s.maxWorkers = n
	}
}

// SetEvaluator replaces the baseline evaluator, e.g. with an LLM-backed
// one or a test stub.
func (s *Service) SetEvaluator(evaluator ResultEvaluator) {
	if evaluator != nil {
		s.evaluator = evaluator
	}
}

// InitializeAgents eagerly creates agents for the given roles. Roles
// without a registered backend are logged and skipped; the run will
// report them unavailable when their tasks come up.
func (s *Service) InitializeAgents(ctx context.Context, roles []models.Role) {
	ctx, span := s.observability.StartSpan(ctx, "initialize_agents")
	defer span.End(nil)

	for _, role := range roles {
		_, err := s.factory.CreateAgent(ctx, role, nil)
		if err != nil {
			s.logger.WarnContext(ctx, "No agent available for role", "role", role, "error", err)

			continue
		}

		s.observability.LogEvent(ctx, "agent_initialized", map[string]any{"role": string(role)})
	}
}

// ExecuteTask runs a single task through its assigned agent. When
// withEvaluation is set and the evaluation fails while revision budget
// remains, the task is sent back for rework and the interim result is
// returned; callers distinguish that case by the task's status.
func (s *Service) ExecuteTask(ctx context.Context, task *models.Task, withEvaluation bool) *models.TaskResult {
	ctx, span := s.observability.StartSpan(ctx, "execute_task_"+task.ID)
	defer span.End(nil)

	task.MarkInProgress()

	agent, err := s.distributor.AgentForTask(ctx, task)
	if err != nil || !agent.CanHandle(task) {
		result := &models.TaskResult{
			Success: false,
			Error:   fmt.Sprintf("%s unavailable", task.AssignedTo),
		}
		task.Complete(result)

		s.observability.LogEvent(ctx, "task_agent_unavailable", map[string]any{
			"task_id": task.ID,
			"role":    string(task.AssignedTo),
		})

		return result
	}

	result, err := agent.ExecuteTask(ctx, task)
	if err != nil {
		result = &models.TaskResult{Success: false, Error: err.Error()}
	}

	if withEvaluation && result.Success {
		evaluation := s.evaluator.Evaluate(ctx, task, result)
		if !evaluation.Passed {
			if task.CanBeRevised() {
				task.RequestRevision(evaluation)

				return result
			}

			// Revision budget exhausted: the rejected result fails the task.
			failed := &models.TaskResult{
				Success:  false,
				Error:    fmt.Sprintf("evaluation failed after %d revisions: %s", task.RevisionCount, evaluation.Feedback),
				Feedback: evaluation.Feedback,
			}
			task.Complete(failed)

			return failed
		}
	}

	task.Complete(result)
	s.observability.LogEvent(ctx, "task_completed", map[string]any{
		"task_id": task.ID,
		"success": result.Success,
	})

	return result
}

// ExecuteWithCorrectionLoop retries a task through evaluation-driven
// revisions, up to maxCorrections extra attempts. The loop is local to
// the task; it never touches the workflow's iteration budget.
func (s *Service) ExecuteWithCorrectionLoop(ctx context.Context, task *models.Task, maxCorrections int) *models.TaskResult {
	ctx, span := s.observability.StartSpan(ctx, "correction_loop_"+task.ID)
	defer span.End(nil)

	var result *models.TaskResult

	for attempt := 0; attempt <= maxCorrections; attempt++ {
		result = s.ExecuteTask(ctx, task, true)

		if result.Success && task.Status == models.TaskStatusCompleted {
			return result
		}

		if task.Status != models.TaskStatusNeedsRevision {
			// Failed without a revision path left.
			break
		}

		feedback := ""
		if task.Evaluation != nil {
			feedback = task.Evaluation.Feedback
		}

		s.observability.LogEvent(ctx, "task_revision_requested", map[string]any{
			"task_id":  task.ID,
			"attempt":  attempt + 1,
			"feedback": feedback,
		})

		task.Requeue()
	}

	return result
}

// RunWorkflow drives the workflow to a terminal state under its
// configured mode and returns the aggregate result. Individual task
// failures are folded into the result, never raised.
func (s *Service) RunWorkflow(ctx context.Context, workflow *models.Workflow) *models.WorkflowResult {
	ctx, span := s.observability.StartSpan(ctx, "workflow_"+workflow.ID)
	defer span.End(nil)

	started := time.Now()

	workflow.Start()
	s.InitializeAgents(ctx, workflow.RequiredRoles())

	var tally runTally

	switch workflow.Config.Mode {
	case models.ModeParallel:
		tally = s.runParallel(ctx, workflow)
	case models.ModeHierarchical:
		tally = s.runHierarchical(ctx, workflow)
	default:
		tally = s.runSequential(ctx, workflow)
	}

	duration := time.Since(started)

	if workflow.Status == models.WorkflowStatusPaused {
		// Partial result; completed task progress is kept as-is.
		return &models.WorkflowResult{
			Success:         false,
			TasksCompleted:  tally.completed,
			TasksFailed:     tally.failed,
			TotalIterations: workflow.CurrentIteration,
			Outputs:         tally.outputs,
			Errors:          append(tally.errors, "Workflow paused"),
			Duration:        duration,
		}
	}

	result := &models.WorkflowResult{
		Success:         tally.failed == 0,
		TasksCompleted:  tally.completed,
		TasksFailed:     tally.failed,
		TotalIterations: workflow.CurrentIteration,
		Outputs:         tally.outputs,
		Errors:          tally.errors,
		Duration:        duration,
	}

	workflow.Complete(result)
	s.observability.LogEvent(ctx, "workflow_completed", map[string]any{
		"workflow_id":     workflow.ID,
		"success":         result.Success,
		"tasks_completed": result.TasksCompleted,
		"tasks_failed":    result.TasksFailed,
		"duration":        duration.String(),
	})

	return result
}

// runTally accumulates per-run counters and outputs.
type runTally struct {
	completed int
	failed    int
	outputs   map[string]any
	errors    []string
}

func newRunTally() runTally {
	return runTally{outputs: make(map[string]any)}
}

func (t *runTally) record(task *models.Task, result *models.TaskResult) {
	if result.Success {
		t.completed++
		t.outputs[task.ID] = result.Output

		return
	}

	t.failed++

	if result.Error != "" {
		t.errors = append(t.errors, fmt.Sprintf("Task %s: %s", task.Name, result.Error))
	}
}

func (s *Service) runSequential(ctx context.Context, workflow *models.Workflow) runTally {
	tally := newRunTally()

	for _, task := range workflow.Tasks {
		if workflow.Status == models.WorkflowStatusPaused {
			s.observability.LogEvent(ctx, "workflow_paused", map[string]any{"workflow_id": workflow.ID})

			break
		}

		// Tasks that finished before a pause keep their results on
		// resume instead of being dispatched again.
		if task.Status.Terminal() {
			if task.Result != nil {
				tally.record(task, task.Result)
			}

			continue
		}

		var result *models.TaskResult
		if workflow.Config.EnableCorrectionLoop {
			result = s.ExecuteWithCorrectionLoop(ctx, task, task.MaxRevisions)
		} else {
			result = s.ExecuteTask(ctx, task, workflow.Config.EnableEvaluation)
		}

		tally.record(task, result)

		// The iteration counter is bookkeeping here: reaching the budget
		// does not stop a sequential run.
		workflow.IncrementIteration()
	}

	return tally
}

func (s *Service) runHierarchical(ctx context.Context, workflow *models.Workflow) runTally {
	tally := newRunTally()

	agents := make(map[models.Role]protocol.Agent)

	for _, role := range workflow.RequiredRoles() {
		agent, err := s.factory.CreateAgent(ctx, role, nil)
		if err != nil {
			continue
		}

		agents[role] = agent
	}

	outcome := protocol.CrewOutcome{Succeeded: false, Reason: "no hierarchical collaborator configured"}

	if s.crew != nil {
		var err error

		outcome, err = s.crew.RunCrew(ctx, workflow, agents)
		if err != nil {
			outcome = protocol.CrewOutcome{Succeeded: false, Reason: err.Error()}
		}
	}

	// The whole batch succeeds or fails together.
	if outcome.Succeeded {
		for _, task := range workflow.Tasks {
			task.Complete(&models.TaskResult{Success: true, Output: outcome.Output})
		}

		tally.completed = len(workflow.Tasks)
		tally.outputs["crew_result"] = outcome.Output

		return tally
	}

	for _, task := range workflow.Tasks {
		task.Complete(&models.TaskResult{Success: false, Error: outcome.Reason})
	}

	tally.failed = len(workflow.Tasks)
	tally.errors = append(tally.errors, outcome.Reason)

	return tally
}
