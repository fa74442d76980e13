// Package clicmd provides an agent backend that shells out to an
// AI-capable command line tool. The task is rendered as a prompt, passed
// on stdin, and the process's stdout becomes the task output.
package clicmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

const BuilderID = "clicmd"

const defaultTimeout = 5 * time.Minute

type Agent struct {
	role    models.Role
	config  models.AgentConfig
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

func (a *Agent) Role() models.Role {
	return a.role
}

func (a *Agent) Config() models.AgentConfig {
	return a.config
}

// CanHandle is false when the configured binary is not on PATH, so the
// engine can report the role unavailable instead of invoking it.
func (a *Agent) CanHandle(task *models.Task) bool {
	if task.AssignedTo != a.role {
		return false
	}

	_, err := exec.LookPath(a.command)

	return err == nil
}

func (a *Agent) ExecuteTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := formatTaskPrompt(task)

	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.logger.InfoContext(ctx, "Running CLI agent command",
		"command", a.command, "task_id", task.ID)

	err := cmd.Run()
	if err != nil {
		return &models.TaskResult{
			Success: false,
			Error:   fmt.Sprintf("%s failed: %v: %s", a.command, err, strings.TrimSpace(stderr.String())),
			Metadata: map[string]any{
				"backend": BuilderID,
				"command": a.command,
			},
		}, nil
	}

	return &models.TaskResult{
		Success: true,
		Output:  strings.TrimSpace(stdout.String()),
		Metadata: map[string]any{
			"backend": BuilderID,
			"command": a.command,
		},
	}, nil
}

// formatTaskPrompt renders a task as the prompt handed to the CLI tool.
func formatTaskPrompt(task *models.Task) string {
	parts := []string{
		"Task: " + task.Name,
		"Description: " + task.Description,
	}

	if task.ExpectedOutput != "" {
		parts = append(parts, "Expected Output: "+task.ExpectedOutput)
	}

	if task.Evaluation != nil && task.Evaluation.Feedback != "" {
		parts = append(parts, "Revision Feedback: "+task.Evaluation.Feedback)
	}

	if context, ok := task.Metadata["context"].(string); ok && context != "" {
		parts = append(parts, "Context: "+context)
	}

	return strings.Join(parts, "\n\n")
}

// Builder creates CLI-backed agents. The command is shared across roles;
// the role only changes the prompt framing through the agent config.
type Builder struct {
	command string
	args    []string
	timeout time.Duration
	roles   []models.Role
}

func NewBuilder(command string, args []string, roles []models.Role) *Builder {
	if len(roles) == 0 {
		roles = models.BuiltinRoles()
	}

	return &Builder{
		command: command,
		args:    args,
		timeout: defaultTimeout,
		roles:   roles,
	}
}

func (b *Builder) ID() string {
	return BuilderID
}

func (b *Builder) Roles() []models.Role {
	return b.roles
}

func (b *Builder) Create(config models.AgentConfig, logger *slog.Logger) (protocol.Agent, error) {
	if b.command == "" {
		return nil, fmt.Errorf("clicmd backend requires a command")
	}

	return &Agent{
		role:    config.Role,
		config:  config,
		command: b.command,
		args:    b.args,
		timeout: b.timeout,
		logger:  logger.With("agent", BuilderID, "role", config.Role),
	}, nil
}
