package models

// TaskResult is the outcome of a single agent invocation. Results are
// immutable once produced; the engine attaches them to tasks but never
// edits them.
type TaskResult struct {
	Success  bool           `json:"success"`
	Output   any            `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EvaluationResult is the verdict the evaluator renders over a TaskResult.
// Passed drives the correction loop; Score is in the [0,100] range.
type EvaluationResult struct {
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Feedback    string   `json:"feedback,omitempty"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
