package orchestrator

import (
	"context"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

// Evaluator judges task results and produces the verdict the correction
// loop consumes. It is a pure function of (task, result); the only side
// effect is the span around the call.
type Evaluator struct {
	observability protocol.Observability
}

func NewEvaluator(observability protocol.Observability) *Evaluator {
	return &Evaluator{observability: observability}
}

// Evaluate applies the baseline rule chain: execution failure scores 0,
// an empty output scores 30, anything else passes at 80.
func (e *Evaluator) Evaluate(ctx context.Context, task *models.Task, result *models.TaskResult) *models.EvaluationResult {
	_, span := e.observability.StartSpan(ctx, "evaluate_task_"+task.ID)
	defer span.End(nil)

	if !result.Success {
		issue := result.Error
		if issue == "" {
			issue = "Unknown error"
		}

		return &models.EvaluationResult{
			Passed:   false,
			Score:    0,
			Feedback: "Task failed to execute",
			Issues:   []string{issue},
		}
	}

	if isEmptyOutput(result.Output) {
		return &models.EvaluationResult{
			Passed:      false,
			Score:       30,
			Feedback:    "Task produced no output",
			Issues:      []string{"Empty or missing output"},
			Suggestions: []string{"Ensure the task produces meaningful output"},
		}
	}

	return &models.EvaluationResult{
		Passed:   true,
		Score:    80,
		Feedback: "Task completed with output",
	}
}

func isEmptyOutput(output any) bool {
	if output == nil {
		return true
	}

	s, ok := output.(string)

	return ok && s == ""
}
