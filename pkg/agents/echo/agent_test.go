package echo

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-ai/conductor/pkg/models"
)

func newTestAgent(t *testing.T, role models.Role) *Agent {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	agent, err := NewBuilder().Create(models.DefaultAgentConfigs()[role], logger)
	require.NoError(t, err)

	return agent.(*Agent)
}

func TestBuilderCoversBuiltinRoles(t *testing.T) {
	builder := NewBuilder()

	assert.Equal(t, BuilderID, builder.ID())
	assert.Equal(t, models.BuiltinRoles(), builder.Roles())
}

func TestCanHandleMatchesAssignedRole(t *testing.T) {
	agent := newTestAgent(t, models.RoleDev)

	assert.True(t, agent.CanHandle(&models.Task{AssignedTo: models.RoleDev}))
	assert.False(t, agent.CanHandle(&models.Task{AssignedTo: models.RoleQA}))
}

func TestExecuteTaskAcknowledges(t *testing.T) {
	agent := newTestAgent(t, models.RoleDev)

	result, err := agent.ExecuteTask(context.Background(), &models.Task{
		ID:         "task-1",
		Name:       "Implement login",
		AssignedTo: models.RoleDev,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "Implement login")
	assert.Contains(t, result.Output, string(models.RoleDev))
	assert.Equal(t, BuilderID, result.Metadata["backend"])
}
