package orchestrator

import (
	"context"
	"fmt"

	"github.com/conductor-ai/conductor/pkg/models"
)

// taskOutcome is what a worker reports back to the aggregator. Either
// result is set, or panicErr carries a recovered panic.
type taskOutcome struct {
	task     *models.Task
	result   *models.TaskResult
	panicErr error
}

// runParallel repeatedly collects the ready frontier and executes it on a
// bounded worker pool. Workers hand their outcomes to the single
// aggregator loop over a channel, so counters, outputs, and the
// workflow's iteration counter are only ever touched from one goroutine.
func (s *Service) runParallel(ctx context.Context, workflow *models.Workflow) runTally {
	tally := newRunTally()

	// Results from before a pause are folded in so a resumed run
	// reports full totals. ReadyTasks never surfaces terminal tasks.
	for _, task := range workflow.Tasks {
		if task.Status.Terminal() && task.Result != nil {
			tally.record(task, task.Result)
		}
	}

	for !workflow.IsComplete() {
		if workflow.Status == models.WorkflowStatusPaused {
			s.observability.LogEvent(ctx, "workflow_paused", map[string]any{"workflow_id": workflow.ID})

			break
		}

		ready := workflow.ReadyTasks()
		if len(ready) == 0 {
			// Nothing runnable but the workflow is not done: a cycle, or
			// everything left is gated on a failed dependency.
			if len(workflow.PendingTasks()) > 0 {
				tally.errors = append(tally.errors, "Workflow has unresolvable dependencies or no ready tasks")
			}

			break
		}

		outcomes := make(chan taskOutcome, len(ready))
		pool := make(chan struct{}, s.maxWorkers)

		for _, task := range ready {
			pool <- struct{}{}

			go func(task *models.Task) {
				defer func() { <-pool }()
				defer func() {
					if r := recover(); r != nil {
						outcomes <- taskOutcome{task: task, panicErr: fmt.Errorf("%v", r)}
					}
				}()

				outcomes <- taskOutcome{task: task, result: s.executeForWorkflow(ctx, workflow, task)}
			}(task)
		}

		// Single aggregator: collect exactly one outcome per submitted task.
		for range ready {
			outcome := <-outcomes

			if outcome.panicErr != nil {
				outcome.task.Complete(&models.TaskResult{
					Success: false,
					Error:   outcome.panicErr.Error(),
				})

				tally.failed++
				tally.errors = append(tally.errors,
					fmt.Sprintf("Task %s raised exception: %v", outcome.task.Name, outcome.panicErr))

				workflow.IncrementIteration()

				continue
			}

			tally.record(outcome.task, outcome.result)
			workflow.IncrementIteration()
		}
	}

	return tally
}

// executeForWorkflow runs one task under the workflow's configuration.
func (s *Service) executeForWorkflow(ctx context.Context, workflow *models.Workflow, task *models.Task) *models.TaskResult {
	if workflow.Config.EnableCorrectionLoop {
		return s.ExecuteWithCorrectionLoop(ctx, task, task.MaxRevisions)
	}

	return s.ExecuteTask(ctx, task, workflow.Config.EnableEvaluation)
}
