package models

// Role identifies which kind of agent a task is assigned to. The five
// built-in roles cover the standard development workflow; plugin backends
// may register additional roles under their own names.
type Role string

const (
	RolePM       Role = "project_manager"
	RoleDev      Role = "developer"
	RoleQA       Role = "quality_assurance"
	RoleSecurity Role = "security"
	RoleDocs     Role = "documentation"
)

// BuiltinRoles returns the roles shipped with the orchestrator, in the
// order the standard workflow runs them.
func BuiltinRoles() []Role {
	return []Role{RolePM, RoleDev, RoleQA, RoleSecurity, RoleDocs}
}

// AgentConfig describes how an agent for a given role should behave.
type AgentConfig struct {
	Role            Role     `json:"role"      validate:"required"`
	Goal            string   `json:"goal"      validate:"required"`
	Backstory       string   `json:"backstory" validate:"required"`
	Verbose         bool     `json:"verbose"`
	AllowDelegation bool     `json:"allow_delegation"`
	Tools           []string `json:"tools,omitempty"`
	Memory          bool     `json:"memory"`
}

// DefaultAgentConfigs returns the built-in configuration for every
// standard role.
func DefaultAgentConfigs() map[Role]AgentConfig {
	return map[Role]AgentConfig{
		RolePM: {
			Role: RolePM,
			Goal: "Coordinate project tasks, manage workflow, and ensure deliverables meet requirements",
			Backstory: "You are an experienced Project Manager with expertise in software development " +
				"workflows. You excel at breaking down complex projects into manageable tasks, " +
				"coordinating between team members, and ensuring quality deliverables.",
			Verbose:         true,
			AllowDelegation: true,
			Memory:          true,
		},
		RoleDev: {
			Role: RoleDev,
			Goal: "Implement high-quality code solutions that meet specifications",
			Backstory: "You are a skilled Software Developer with expertise in multiple programming " +
				"languages and frameworks. You write clean, maintainable, and well-documented " +
				"code while following best practices and design patterns.",
			Verbose: true,
			Memory:  true,
		},
		RoleQA: {
			Role: RoleQA,
			Goal: "Ensure code quality through thorough testing and review",
			Backstory: "You are a meticulous Quality Assurance Engineer who specializes in finding " +
				"bugs, edge cases, and potential issues. You create comprehensive test plans " +
				"and ensure software meets quality standards before release.",
			Verbose: true,
			Memory:  true,
		},
		RoleSecurity: {
			Role: RoleSecurity,
			Goal: "Identify and mitigate security vulnerabilities and ensure compliance",
			Backstory: "You are a Security Expert with deep knowledge of security best practices, " +
				"common vulnerabilities, and compliance requirements. You review code and " +
				"architecture for security issues and provide remediation guidance.",
			Verbose: true,
			Memory:  true,
		},
		RoleDocs: {
			Role: RoleDocs,
			Goal: "Create clear, comprehensive, and maintainable documentation",
			Backstory: "You are a Technical Writer who excels at creating documentation that is " +
				"both thorough and accessible. You understand the importance of good " +
				"documentation for code maintainability and user adoption.",
			Verbose: true,
			Memory:  true,
		},
	}
}
