// Package protocol defines the capability interfaces the orchestration
// engine depends on. Agent backends, persistence, and observability all
// plug in through these contracts.
package protocol

import (
	"context"
	"log/slog"

	"github.com/conductor-ai/conductor/pkg/models"
)

// Agent executes tasks for a single role. Implementations wrap an LLM
// backend, a subprocess, or anything else that can turn a task into a
// result.
type Agent interface {
	Role() models.Role
	Config() models.AgentConfig

	// ExecuteTask runs the task and returns its result. A failed task is
	// reported through TaskResult.Success, not through the error return;
	// the error is reserved for backend faults.
	ExecuteTask(ctx context.Context, task *models.Task) (*models.TaskResult, error)

	// CanHandle reports whether this agent is able and available to run
	// the task right now.
	CanHandle(task *models.Task) bool
}

// AgentFactory creates agents per role. CreateAgent is idempotent per
// role: repeat calls return the cached instance.
type AgentFactory interface {
	CreateAgent(ctx context.Context, role models.Role, config *models.AgentConfig) (Agent, error)
	AvailableRoles() []models.Role
}

// AgentBuilder is the registration unit for agent backends: a named
// constructor the registry can instantiate for any of its declared roles.
type AgentBuilder interface {
	ID() string
	Roles() []models.Role
	Create(config models.AgentConfig, logger *slog.Logger) (Agent, error)
}
