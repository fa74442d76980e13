// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/conductor-ai/conductor/pkg/agents/clicmd"
	"github.com/conductor-ai/conductor/pkg/agents/echo"
	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/registry"
)

// AgentCommandEnv selects the external command backing the CLI agent. When
// unset, the deterministic echo agent serves every role.
const AgentCommandEnv = "CONDUCTOR_AGENT_COMMAND"

func registerAgentPlugins(reg *registry.Registry, pluginsPath string) {
	builders, err := reg.LoadAgentPlugins(pluginsPath)
	if err != nil {
		panic(err)
	}

	for _, builder := range builders {
		reg.RegisterAgentBuilder(builder)
	}
}

func registerNativeAgents(reg *registry.Registry) {
	reg.RegisterAgentBuilder(echo.NewBuilder())

	if command := os.Getenv(AgentCommandEnv); command != "" {
		parts := strings.Fields(command)
		reg.RegisterAgentBuilder(clicmd.NewBuilder(parts[0], parts[1:], models.BuiltinRoles()))
	}
}

func NewRegistry(log *slog.Logger, pluginsPath string) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerAgentPlugins(reg, pluginsPath)
	registerNativeAgents(reg)

	return reg
}
