// Package crew provides the built-in hierarchical collaborator. A
// manager walks the task graph in dependency order, delegates each task
// to its role's agent, and folds every output into one shared transcript
// that later tasks receive as context.
package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

var _ protocol.CrewRunner = (*Runner)(nil)

type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger.With("module", "crew")}
}

// RunCrew executes the workflow as one collaborative batch. The first
// task failure aborts the whole batch; partial progress is not reported
// because the batch succeeds or fails together.
func (r *Runner) RunCrew(ctx context.Context, workflow *models.Workflow, agents map[models.Role]protocol.Agent) (protocol.CrewOutcome, error) {
	done := make(map[string]bool, len(workflow.Tasks))

	var transcript []string

	for len(done) < len(workflow.Tasks) {
		progressed := false

		for _, task := range workflow.Tasks {
			if done[task.ID] || !dependenciesDone(task, done) {
				continue
			}

			agent, ok := agents[task.AssignedTo]
			if !ok {
				return protocol.CrewOutcome{
					Reason: fmt.Sprintf("no agent for role '%s'", task.AssignedTo),
				}, nil
			}

			r.logger.InfoContext(ctx, "Delegating task to crew member",
				"task_id", task.ID, "task_name", task.Name, "role", task.AssignedTo)

			result, err := agent.ExecuteTask(ctx, delegated(task, transcript))
			if err != nil {
				return protocol.CrewOutcome{
					Reason: fmt.Sprintf("Task %s: %v", task.Name, err),
				}, nil
			}

			if !result.Success {
				reason := result.Error
				if reason == "" {
					reason = "task failed without an error message"
				}

				return protocol.CrewOutcome{
					Reason: fmt.Sprintf("Task %s: %s", task.Name, reason),
				}, nil
			}

			transcript = append(transcript, fmt.Sprintf("## %s\n%v", task.Name, result.Output))
			done[task.ID] = true
			progressed = true
		}

		if !progressed {
			return protocol.CrewOutcome{
				Reason: "tasks have unresolvable dependencies",
			}, nil
		}
	}

	return protocol.CrewOutcome{
		Succeeded: true,
		Output:    strings.Join(transcript, "\n\n"),
	}, nil
}

func dependenciesDone(task *models.Task, done map[string]bool) bool {
	for _, dep := range task.ContextTasks {
		if !done[dep] {
			return false
		}
	}

	return true
}

// delegated returns a copy of the task carrying the transcript so far,
// so the agent sees what the rest of the crew already produced. The
// workflow's own task is never mutated here.
func delegated(task *models.Task, transcript []string) *models.Task {
	if len(transcript) == 0 {
		return task
	}

	copied := *task

	copied.Metadata = make(map[string]any, len(task.Metadata)+1)
	for key, value := range task.Metadata {
		copied.Metadata[key] = value
	}

	copied.Metadata["context"] = strings.Join(transcript, "\n\n")

	return &copied
}
