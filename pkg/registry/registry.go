// Package registry maps agent roles to their backends. Builders register
// per backend; agents are created lazily and cached so every task for a
// role reuses the same instance.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"strings"
	"sync"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

var _ protocol.AgentFactory = (*Registry)(nil)

type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	builders map[models.Role]protocol.AgentBuilder
	agents   map[models.Role]protocol.Agent
	configs  map[models.Role]models.AgentConfig
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		builders: make(map[models.Role]protocol.AgentBuilder),
		agents:   make(map[models.Role]protocol.Agent),
		configs:  models.DefaultAgentConfigs(),
	}
}

// RegisterAgentBuilder registers a backend for every role it declares.
// The last registration for a role wins.
func (r *Registry) RegisterAgentBuilder(builder protocol.AgentBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, role := range builder.Roles() {
		r.builders[role] = builder
	}
}

// SetAgentConfig overrides the configuration used when the agent for
// the role is first created.
func (r *Registry) SetAgentConfig(role models.Role, config models.AgentConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[role] = config
}

// AgentForRole returns the cached agent for the role, creating it on
// first use.
func (r *Registry) AgentForRole(role models.Role) (protocol.Agent, error) {
	r.mu.RLock()
	agent, ok := r.agents[role]
	r.mu.RUnlock()

	if ok {
		return agent, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another caller may have created it meanwhile.
	if agent, ok := r.agents[role]; ok {
		return agent, nil
	}

	builder, ok := r.builders[role]
	if !ok {
		return nil, fmt.Errorf("no agent backend registered for role '%s'", role)
	}

	config, ok := r.configs[role]
	if !ok {
		config = models.AgentConfig{Role: role}
	}

	agent, err := builder.Create(config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent for role '%s': %w", role, err)
	}

	r.agents[role] = agent

	return agent, nil
}

// CreateAgent implements protocol.AgentFactory. A non-nil config only
// takes effect before the role's agent has been created; afterwards the
// cached instance is returned unchanged.
func (r *Registry) CreateAgent(_ context.Context, role models.Role, config *models.AgentConfig) (protocol.Agent, error) {
	if config != nil {
		r.mu.Lock()
		if _, exists := r.agents[role]; !exists {
			r.configs[role] = *config
		}
		r.mu.Unlock()
	}

	return r.AgentForRole(role)
}

// AvailableRoles returns every role with a registered backend.
func (r *Registry) AvailableRoles() []models.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]models.Role, 0, len(r.builders))
	for role := range r.builders {
		roles = append(roles, role)
	}

	return roles
}

// AgentConfig returns the effective configuration for a role.
func (r *Registry) AgentConfig(role models.Role) (models.AgentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[role]

	return config, ok
}

// HealthCheck reports whether at least one agent backend is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.builders) == 0 {
		return "no agent backends registered", false
	}

	return fmt.Sprintf("%d agent backends registered", len(r.builders)), true
}

// LoadAgentPlugins loads agent backends from .so files under
// <pluginsPath>/agents.
func (r *Registry) LoadAgentPlugins(pluginsPath string) ([]protocol.AgentBuilder, error) {
	return loadPlugin[protocol.AgentBuilder](r.logger, pluginsPath, "Agent")
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s has no %s symbol: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: %s symbol has the wrong type", p, symbolName)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded agent plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
