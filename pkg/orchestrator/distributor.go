package orchestrator

import (
	"context"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

// Distributor resolves which agent is responsible for a task. The lookup
// is a pure role-to-agent mapping through the injected factory; the
// factory caches one instance per role.
type Distributor struct {
	factory protocol.AgentFactory
}

func NewDistributor(factory protocol.AgentFactory) *Distributor {
	return &Distributor{factory: factory}
}

// AgentForTask returns the agent assigned to the task's role.
func (d *Distributor) AgentForTask(ctx context.Context, task *models.Task) (protocol.Agent, error) {
	return d.factory.CreateAgent(ctx, task.AssignedTo, nil)
}
