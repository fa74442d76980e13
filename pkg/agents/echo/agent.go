// Package echo provides a deterministic built-in agent backend. It
// acknowledges every task with a canned summary, which makes it useful
// for local runs, demos, and wiring tests without any external backend.
package echo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

const BuilderID = "echo"

type Agent struct {
	role   models.Role
	config models.AgentConfig
	logger *slog.Logger
}

func (a *Agent) Role() models.Role {
	return a.role
}

func (a *Agent) Config() models.AgentConfig {
	return a.config
}

func (a *Agent) CanHandle(task *models.Task) bool {
	return task.AssignedTo == a.role
}

func (a *Agent) ExecuteTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	a.logger.InfoContext(ctx, "Echo agent executing task",
		"task_id", task.ID, "task_name", task.Name, "role", a.role)

	output := fmt.Sprintf("[%s] %s: acknowledged %q", a.role, a.config.Goal, task.Name)

	return &models.TaskResult{
		Success: true,
		Output:  output,
		Metadata: map[string]any{
			"backend": BuilderID,
			"role":    string(a.role),
		},
	}, nil
}

// Builder registers the echo backend for every built-in role.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

func (*Builder) ID() string {
	return BuilderID
}

func (*Builder) Roles() []models.Role {
	return models.BuiltinRoles()
}

func (*Builder) Create(config models.AgentConfig, logger *slog.Logger) (protocol.Agent, error) {
	return &Agent{
		role:   config.Role,
		config: config,
		logger: logger.With("agent", BuilderID, "role", config.Role),
	}, nil
}
