package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

type stubAgent struct {
	role    models.Role
	execute func(task *models.Task) (*models.TaskResult, error)
	blocked bool

	mu       sync.Mutex
	executed []string
}

func (a *stubAgent) Role() models.Role {
	return a.role
}

func (a *stubAgent) Config() models.AgentConfig {
	return models.AgentConfig{Role: a.role}
}

func (a *stubAgent) CanHandle(task *models.Task) bool {
	return !a.blocked && task.AssignedTo == a.role
}

func (a *stubAgent) ExecuteTask(_ context.Context, task *models.Task) (*models.TaskResult, error) {
	a.mu.Lock()
	a.executed = append(a.executed, task.Name)
	a.mu.Unlock()

	if a.execute != nil {
		return a.execute(task)
	}

	return &models.TaskResult{Success: true, Output: "ok"}, nil
}

func (a *stubAgent) executedTasks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.executed...)
}

type stubFactory struct {
	mu     sync.Mutex
	agents map[models.Role]protocol.Agent
}

func newStubFactory(agents ...*stubAgent) *stubFactory {
	factory := &stubFactory{agents: make(map[models.Role]protocol.Agent)}
	for _, agent := range agents {
		factory.agents[agent.role] = agent
	}

	return factory
}

func (f *stubFactory) CreateAgent(_ context.Context, role models.Role, _ *models.AgentConfig) (protocol.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	agent, ok := f.agents[role]
	if !ok {
		return nil, fmt.Errorf("no agent for role '%s'", role)
	}

	return agent, nil
}

func (f *stubFactory) AvailableRoles() []models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	roles := make([]models.Role, 0, len(f.agents))
	for role := range f.agents {
		roles = append(roles, role)
	}

	return roles
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(_ context.Context, _ *models.Task, _ *models.TaskResult) *models.EvaluationResult {
	return &models.EvaluationResult{Passed: false, Score: 10, Feedback: "not good enough"}
}

func newTestService(t *testing.T, factory protocol.AgentFactory) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewService(logger, factory, nil, nil)
}

func TestService_ExecuteTask_Success(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteTask(context.Background(), task, true)

	assert.True(t, result.Success)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, result, task.Result)
}

func TestService_ExecuteTask_AgentUnavailable(t *testing.T) {
	service := newTestService(t, newStubFactory())

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteTask(context.Background(), task, true)

	assert.False(t, result.Success)
	assert.Equal(t, "developer unavailable", result.Error)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
}

func TestService_ExecuteTask_AgentCannotHandle(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev, blocked: true}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteTask(context.Background(), task, true)

	assert.False(t, result.Success)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Empty(t, agent.executedTasks())
}

func TestService_ExecuteTask_AgentErrorBecomesFailure(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			return nil, errors.New("backend exploded")
		},
	}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteTask(context.Background(), task, false)

	assert.False(t, result.Success)
	assert.Equal(t, "backend exploded", result.Error)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
}

func TestService_ExecuteTask_FailedEvaluationRequestsRevision(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			return &models.TaskResult{Success: true, Output: ""}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteTask(context.Background(), task, true)

	// The interim result is returned; completion is deferred to a retry.
	assert.True(t, result.Success)
	assert.Equal(t, models.TaskStatusNeedsRevision, task.Status)
	assert.Equal(t, 1, task.RevisionCount)
	require.NotNil(t, task.Evaluation)
	assert.False(t, task.Evaluation.Passed)
}

func TestService_ExecuteTask_EvaluationSkippedWhenDisabled(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			return &models.TaskResult{Success: true, Output: ""}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	service.ExecuteTask(context.Background(), task, false)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Zero(t, task.RevisionCount)
}

func TestService_ExecuteWithCorrectionLoop_RecoversAfterRevision(t *testing.T) {
	attempts := 0
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			attempts++
			if attempts == 1 {
				return &models.TaskResult{Success: true, Output: ""}, nil
			}

			return &models.TaskResult{Success: true, Output: "fixed"}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	result := service.ExecuteWithCorrectionLoop(context.Background(), task, 3)

	assert.True(t, result.Success)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.RevisionCount)
	assert.Equal(t, 2, attempts)
}

func TestService_ExecuteWithCorrectionLoop_ExhaustsRevisions(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))
	service.SetEvaluator(failingEvaluator{})

	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	task.MaxRevisions = 2

	result := service.ExecuteWithCorrectionLoop(context.Background(), task, task.MaxRevisions)

	assert.False(t, result.Success)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, 2, task.RevisionCount)
}

func TestService_RunWorkflow_SingleTaskSucceeds(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			return &models.TaskResult{Success: true, Output: "x"}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	wf := models.NewWorkflow("One task", "single task workflow", models.DefaultWorkflowConfig())
	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	wf.AddTask(task)

	result := service.RunWorkflow(context.Background(), wf)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TasksCompleted)
	assert.Zero(t, result.TasksFailed)
	assert.Equal(t, "x", result.Outputs[task.ID])
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
	assert.Equal(t, result, wf.Result)
}

func TestService_RunWorkflow_EvaluatorAlwaysFails(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(*models.Task) (*models.TaskResult, error) {
			return &models.TaskResult{Success: true, Output: "solid output"}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))
	service.SetEvaluator(failingEvaluator{})

	wf := models.NewWorkflow("Stubborn evaluator", "revisions exhaust", models.DefaultWorkflowConfig())
	task := models.NewTask("Implementation", "implement it", models.RoleDev)
	task.MaxRevisions = 2
	wf.AddTask(task)

	result := service.RunWorkflow(context.Background(), wf)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.TasksFailed)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, 2, task.RevisionCount)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "Task Implementation:")
}

func TestService_RunWorkflow_SequentialDeterministicOrder(t *testing.T) {
	run := func() []string {
		agent := &stubAgent{role: models.RoleDev}
		service := newTestService(t, newStubFactory(agent))

		wf := models.NewWorkflow("Ordered", "three tasks in order", models.DefaultWorkflowConfig())
		for _, name := range []string{"task-1", "task-2", "task-3"} {
			wf.AddTask(models.NewTask(name, "do "+name, models.RoleDev))
		}

		result := service.RunWorkflow(context.Background(), wf)
		require.True(t, result.Success)

		return agent.executedTasks()
	}

	first := run()
	second := run()

	assert.Equal(t, []string{"task-1", "task-2", "task-3"}, first)
	assert.Equal(t, first, second)
}

func TestService_RunWorkflow_SequentialIterationBudgetIsInformational(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.MaxIterations = 1

	wf := models.NewWorkflow("Tiny budget", "budget smaller than task count", config)
	for _, name := range []string{"task-1", "task-2", "task-3"} {
		wf.AddTask(models.NewTask(name, "do "+name, models.RoleDev))
	}

	result := service.RunWorkflow(context.Background(), wf)

	// Reaching the iteration budget does not stop a sequential run; the
	// counter just saturates.
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TasksCompleted)
	assert.Equal(t, 1, wf.CurrentIteration)
	assert.Equal(t, 1, result.TotalIterations)
}

func TestService_RunWorkflow_SequentialPausePreservesProgress(t *testing.T) {
	wf := models.NewWorkflow("Pausable", "pause after the first task", models.DefaultWorkflowConfig())

	agent := &stubAgent{role: models.RoleDev}
	agent.execute = func(task *models.Task) (*models.TaskResult, error) {
		if task.Name == "task-1" {
			defer wf.Pause()
		}

		return &models.TaskResult{Success: true, Output: "done"}, nil
	}

	service := newTestService(t, newStubFactory(agent))

	var tasks []*models.Task
	for _, name := range []string{"task-1", "task-2", "task-3"} {
		task := models.NewTask(name, "do "+name, models.RoleDev)
		tasks = append(tasks, task)
		wf.AddTask(task)
	}

	result := service.RunWorkflow(context.Background(), wf)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.TasksCompleted)
	assert.Contains(t, result.Errors, "Workflow paused")

	// Task-level progress is preserved, not rolled back.
	assert.Equal(t, models.TaskStatusCompleted, tasks[0].Status)
	assert.Equal(t, models.TaskStatusPending, tasks[1].Status)
	assert.Equal(t, models.TaskStatusPending, tasks[2].Status)
	assert.Equal(t, models.WorkflowStatusPaused, wf.Status)
}

func TestService_RunWorkflow_SequentialResumeSkipsCompletedTasks(t *testing.T) {
	wf := models.NewWorkflow("Resumable", "pause after the first task", models.DefaultWorkflowConfig())

	agent := &stubAgent{role: models.RoleDev}
	pausedOnce := false
	agent.execute = func(task *models.Task) (*models.TaskResult, error) {
		if task.Name == "task-1" && !pausedOnce {
			pausedOnce = true

			defer wf.Pause()
		}

		return &models.TaskResult{Success: true, Output: "done: " + task.Name}, nil
	}

	service := newTestService(t, newStubFactory(agent))

	for _, name := range []string{"task-1", "task-2"} {
		wf.AddTask(models.NewTask(name, "do "+name, models.RoleDev))
	}

	first := service.RunWorkflow(context.Background(), wf)
	require.False(t, first.Success)
	require.Equal(t, 1, first.TasksCompleted)

	startedAt := wf.StartedAt
	require.True(t, wf.Resume())

	second := service.RunWorkflow(context.Background(), wf)

	// The completed task is not dispatched again; its result carries over.
	assert.Equal(t, []string{"task-1", "task-2"}, agent.executedTasks())
	assert.True(t, second.Success)
	assert.Equal(t, 2, second.TasksCompleted)
	assert.Equal(t, "done: task-1", second.Outputs[wf.Tasks[0].ID])
	assert.Same(t, startedAt, wf.StartedAt)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
}

func TestService_RunWorkflow_ParallelDependencyChain(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeParallel

	wf := models.NewWorkflow("Chain", "A then B then C", config)

	taskA := models.NewTask("task-a", "first", models.RoleDev)
	taskB := models.NewTask("task-b", "second", models.RoleDev)
	taskB.ContextTasks = []string{taskA.ID}
	taskC := models.NewTask("task-c", "third", models.RoleDev)
	taskC.ContextTasks = []string{taskB.ID}

	wf.AddTask(taskA)
	wf.AddTask(taskB)
	wf.AddTask(taskC)

	result := service.RunWorkflow(context.Background(), wf)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TasksCompleted)

	// Causal ordering: each task only started after its dependency
	// completed, even though execution is concurrent.
	assert.Equal(t, []string{"task-a", "task-b", "task-c"}, agent.executedTasks())

	for _, task := range wf.Tasks {
		assert.Equal(t, models.TaskStatusCompleted, task.Status)
	}
}

func TestService_RunWorkflow_ParallelIndependentTasks(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeParallel

	wf := models.NewWorkflow("Fan out", "independent tasks", config)
	for _, name := range []string{"task-1", "task-2", "task-3", "task-4"} {
		wf.AddTask(models.NewTask(name, "do "+name, models.RoleDev))
	}

	result := service.RunWorkflow(context.Background(), wf)

	assert.True(t, result.Success)
	assert.Equal(t, 4, result.TasksCompleted)
	assert.Len(t, result.Outputs, 4)
}

func TestService_RunWorkflow_ParallelDeadlockDetected(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeParallel

	wf := models.NewWorkflow("Deadlock", "mutual dependency", config)

	taskA := models.NewTask("task-a", "depends on b", models.RoleDev)
	taskB := models.NewTask("task-b", "depends on a", models.RoleDev)
	taskA.ContextTasks = []string{taskB.ID}
	taskB.ContextTasks = []string{taskA.ID}

	wf.AddTask(taskA)
	wf.AddTask(taskB)

	result := service.RunWorkflow(context.Background(), wf)

	assert.False(t, result.Success)
	assert.Contains(t, result.Errors, "Workflow has unresolvable dependencies or no ready tasks")
	assert.Empty(t, agent.executedTasks())

	// Tasks keep their last status.
	assert.Equal(t, models.TaskStatusPending, taskA.Status)
	assert.Equal(t, models.TaskStatusPending, taskB.Status)
}

func TestService_RunWorkflow_ParallelFailedDependencyStopsRun(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(task *models.Task) (*models.TaskResult, error) {
			if task.Name == "task-a" {
				return &models.TaskResult{Success: false, Error: "agent crashed"}, nil
			}

			return &models.TaskResult{Success: true, Output: "ok"}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeParallel
	config.EnableCorrectionLoop = false
	config.EnableEvaluation = false

	wf := models.NewWorkflow("Blocked by failure", "b gated on failing a", config)

	taskA := models.NewTask("task-a", "will fail", models.RoleDev)
	taskB := models.NewTask("task-b", "gated on a", models.RoleDev)
	taskB.ContextTasks = []string{taskA.ID}

	wf.AddTask(taskA)
	wf.AddTask(taskB)

	result := service.RunWorkflow(context.Background(), wf)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.TasksFailed)
	assert.Equal(t, models.TaskStatusFailed, taskA.Status)
	assert.Equal(t, models.TaskStatusPending, taskB.Status)
	assert.Contains(t, result.Errors, "Task task-a: agent crashed")
	assert.Contains(t, result.Errors, "Workflow has unresolvable dependencies or no ready tasks")
}

func TestService_RunWorkflow_ParallelPanicIsContained(t *testing.T) {
	agent := &stubAgent{
		role: models.RoleDev,
		execute: func(task *models.Task) (*models.TaskResult, error) {
			if task.Name == "task-boom" {
				panic("kaboom")
			}

			return &models.TaskResult{Success: true, Output: "ok"}, nil
		},
	}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeParallel
	config.EnableCorrectionLoop = false
	config.EnableEvaluation = false

	wf := models.NewWorkflow("Panicky", "one task panics", config)
	wf.AddTask(models.NewTask("task-boom", "explodes", models.RoleDev))
	wf.AddTask(models.NewTask("task-fine", "works", models.RoleDev))

	result := service.RunWorkflow(context.Background(), wf)

	// One task's crash never aborts the batch.
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.TasksCompleted)
	assert.Equal(t, 1, result.TasksFailed)

	boom := wf.TaskByID(wf.Tasks[0].ID)
	assert.Equal(t, models.TaskStatusFailed, boom.Status)
}

func TestService_RunWorkflow_HierarchicalWithoutRunnerFailsBatch(t *testing.T) {
	agent := &stubAgent{role: models.RoleDev}
	service := newTestService(t, newStubFactory(agent))

	config := models.DefaultWorkflowConfig()
	config.Mode = models.ModeHierarchical

	wf := models.NewWorkflow("Crewless", "no collaborator wired", config)
	wf.AddTask(models.NewTask("task-1", "first", models.RoleDev))
	wf.AddTask(models.NewTask("task-2", "second", models.RoleDev))

	result := service.RunWorkflow(context.Background(), wf)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.TasksFailed)

	for _, task := range wf.Tasks {
		assert.Equal(t, models.TaskStatusFailed, task.Status)
	}
}

type stubCrew struct {
	outcome protocol.CrewOutcome
	err     error
}

func (c *stubCrew) RunCrew(context.Context, *models.Workflow, map[models.Role]protocol.Agent) (protocol.CrewOutcome, error) {
	return c.outcome, c.err
}

func TestService_RunWorkflow_HierarchicalBatchContract(t *testing.T) {
	tests := []struct {
		name       string
		crew       *stubCrew
		wantOK     bool
		wantStatus models.TaskStatus
	}{
		{
			name:       "batch succeeds together",
			crew:       &stubCrew{outcome: protocol.CrewOutcome{Succeeded: true, Output: "all done"}},
			wantOK:     true,
			wantStatus: models.TaskStatusCompleted,
		},
		{
			name:       "batch fails together",
			crew:       &stubCrew{outcome: protocol.CrewOutcome{Succeeded: false, Reason: "crew collapsed"}},
			wantOK:     false,
			wantStatus: models.TaskStatusFailed,
		},
		{
			name:       "collaborator fault fails batch",
			crew:       &stubCrew{err: errors.New("network down")},
			wantOK:     false,
			wantStatus: models.TaskStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &stubAgent{role: models.RoleDev}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			service := NewService(logger, newStubFactory(agent), nil, tt.crew)

			config := models.DefaultWorkflowConfig()
			config.Mode = models.ModeHierarchical

			wf := models.NewWorkflow("Crew", "hierarchical batch", config)
			wf.AddTask(models.NewTask("task-1", "first", models.RoleDev))
			wf.AddTask(models.NewTask("task-2", "second", models.RoleDev))

			result := service.RunWorkflow(context.Background(), wf)

			assert.Equal(t, tt.wantOK, result.Success)

			for _, task := range wf.Tasks {
				assert.Equal(t, tt.wantStatus, task.Status)
			}

			if tt.wantOK {
				assert.Equal(t, "all done", result.Outputs["crew_result"])
			}
		})
	}
}

func TestCreateStandardWorkflow_Topology(t *testing.T) {
	wf := CreateStandardWorkflow("Build a URL shortener", "")

	require.Len(t, wf.Tasks, 5)
	assert.Equal(t, "Standard Development Workflow", wf.Name)
	assert.Equal(t, models.ModeSequential, wf.Config.Mode)
	assert.True(t, wf.Config.EnableEvaluation)
	assert.True(t, wf.Config.EnableCorrectionLoop)

	pm, dev, qa, security, docs := wf.Tasks[0], wf.Tasks[1], wf.Tasks[2], wf.Tasks[3], wf.Tasks[4]

	assert.Equal(t, models.RolePM, pm.AssignedTo)
	assert.Empty(t, pm.ContextTasks)
	assert.Equal(t, []string{pm.ID}, dev.ContextTasks)
	assert.Equal(t, []string{pm.ID, dev.ID}, qa.ContextTasks)
	assert.Equal(t, []string{dev.ID}, security.ContextTasks)
	assert.Equal(t, []string{pm.ID, dev.ID}, docs.ContextTasks)
}

func TestCreateStandardWorkflow_RunsEndToEnd(t *testing.T) {
	agents := make([]*stubAgent, 0, len(models.BuiltinRoles()))
	for _, role := range models.BuiltinRoles() {
		agents = append(agents, &stubAgent{role: role})
	}

	service := newTestService(t, newStubFactory(agents...))

	wf := CreateStandardWorkflow("Build a URL shortener", "Shortener")
	result := service.RunWorkflow(context.Background(), wf)

	assert.True(t, result.Success)
	assert.Equal(t, 5, result.TasksCompleted)
	assert.Zero(t, result.TasksFailed)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
}
