package protocol

import (
	"context"

	"github.com/conductor-ai/conductor/pkg/models"
)

// CrewOutcome is the explicit result of a hierarchical batch run. The
// whole batch succeeds or fails together; Reason carries the shared
// failure message.
type CrewOutcome struct {
	Succeeded bool
	Output    any
	Reason    string
}

// CrewRunner delegates an entire workflow to an external multi-agent
// collaboration engine. Failures are reported through the outcome, never
// through panics; the error return is reserved for faults reaching the
// collaborator at all.
type CrewRunner interface {
	RunCrew(ctx context.Context, workflow *models.Workflow, agents map[models.Role]Agent) (CrewOutcome, error)
}
