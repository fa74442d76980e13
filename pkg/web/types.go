// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/conductor-ai/conductor/pkg/models"

// CreateTaskRequest describes one task inside a workflow creation request.
type CreateTaskRequest struct {
	Name           string              `json:"name"            validate:"required,min=1"`
	Description    string              `json:"description"     validate:"required"`
	AssignedTo     models.Role         `json:"assigned_to"     validate:"required"`
	ExpectedOutput string              `json:"expected_output"`
	Priority       models.TaskPriority `json:"priority"`
	DependsOn      []int               `json:"depends_on"`
	MaxRevisions   int                 `json:"max_revisions"   validate:"min=0"`
}

// CreateWorkflowRequest represents the request body for creating a new workflow.
// Task dependencies reference earlier tasks by their index in the list.
type CreateWorkflowRequest struct {
	Name        string                `json:"name"        validate:"required,min=3"`
	Description string                `json:"description" validate:"required"`
	Config      models.WorkflowConfig `json:"config"`
	Tasks       []CreateTaskRequest   `json:"tasks"       validate:"required,min=1,dive"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
}

// StandardWorkflowRequest creates the five-role standard development workflow.
type StandardWorkflowRequest struct {
	ProjectDescription string `json:"project_description" validate:"required"`
	Name               string `json:"name"`
}

// InstantiateTemplateRequest fills a workflow template with parameters.
type InstantiateTemplateRequest struct {
	Params       map[string]string `json:"params"`
	WorkflowName string            `json:"workflow_name"`
	Run          bool              `json:"run"`
}

// AgentResponse describes one registered agent role.
type AgentResponse struct {
	Role      models.Role `json:"role"`
	Goal      string      `json:"goal"`
	Backstory string      `json:"backstory"`
	Available bool        `json:"available"`
}

// RunResponse wraps a workflow run outcome.
type RunResponse struct {
	WorkflowID string                 `json:"workflow_id"`
	Status     models.WorkflowStatus  `json:"status"`
	Result     *models.WorkflowResult `json:"result"`
}
