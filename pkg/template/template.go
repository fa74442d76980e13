// Package template provides reusable workflow templates that are
// instantiated into concrete workflows by parameter substitution.
package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/conductor-ai/conductor/pkg/models"
)

// Category groups templates for discovery.
type Category string

const (
	CategoryDevelopment   Category = "development"
	CategoryReview        Category = "review"
	CategoryTesting       Category = "testing"
	CategoryDocumentation Category = "documentation"
	CategorySecurity      Category = "security"
	CategoryCustom        Category = "custom"
)

// Config carries the workflow configuration a template instantiates with.
type Config struct {
	Mode                 models.WorkflowMode `json:"mode"`
	MaxIterations        int                 `json:"max_iterations"`
	EnableEvaluation     bool                `json:"enable_evaluation"`
	EnableCorrectionLoop bool                `json:"enable_correction_loop"`
	Verbose              bool                `json:"verbose"`
}

// TaskTemplate describes one task with {param} placeholders in its text
// fields. DependsOn references other task template IDs.
type TaskTemplate struct {
	ID                     string              `json:"id"`
	NameTemplate           string              `json:"name_template"`
	DescriptionTemplate    string              `json:"description_template"`
	AssignedTo             models.Role         `json:"assigned_to"`
	ExpectedOutputTemplate string              `json:"expected_output_template,omitempty"`
	Priority               models.TaskPriority `json:"priority"`
	DependsOn              []string            `json:"depends_on,omitempty"`
	Metadata               map[string]any      `json:"metadata,omitempty"`
}

// WorkflowTemplate is a reusable workflow description.
type WorkflowTemplate struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       Category          `json:"category"`
	TaskTemplates  []TaskTemplate    `json:"task_templates"`
	Config         Config            `json:"config"`
	RequiredParams []string          `json:"required_params,omitempty"`
	OptionalParams map[string]string `json:"optional_params,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Version        string            `json:"version"`
}

// render substitutes {param} placeholders with their values.
func render(text string, params map[string]string) string {
	replacements := make([]string, 0, len(params)*2)
	for key, value := range params {
		replacements = append(replacements, "{"+key+"}", value)
	}

	return strings.NewReplacer(replacements...).Replace(text)
}

// ParamsSchema builds a JSON schema describing the template's parameters.
// Required params become required string properties.
func (t *WorkflowTemplate) ParamsSchema() map[string]any {
	properties := make(map[string]any)

	for _, param := range t.RequiredParams {
		properties[param] = map[string]any{"type": "string", "minLength": 1}
	}

	for param, defaultValue := range t.OptionalParams {
		properties[param] = map[string]any{"type": "string", "default": defaultValue}
	}

	required := t.RequiredParams
	if required == nil {
		required = []string{}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// ValidateParams checks the given parameters against the template's schema.
// The returned slice holds one message per violation.
func (t *WorkflowTemplate) ValidateParams(params map[string]string) ([]string, error) {
	document := make(map[string]any, len(params))
	for key, value := range params {
		document[key] = value
	}

	schemaJSON, err := json.Marshal(t.ParamsSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate params: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return violations, nil
}

// Instantiate builds a workflow from the template. Optional parameter
// defaults are merged under the caller's values, then required parameters
// are validated. Template-level task IDs are remapped to fresh task IDs so
// dependencies stay intact.
func (t *WorkflowTemplate) Instantiate(params map[string]string, workflowName string) (*models.Workflow, error) {
	allParams := make(map[string]string, len(t.OptionalParams)+len(params))
	for key, value := range t.OptionalParams {
		allParams[key] = value
	}

	for key, value := range params {
		allParams[key] = value
	}

	violations, err := t.ValidateParams(allParams)
	if err != nil {
		return nil, err
	}

	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParams, strings.Join(violations, "; "))
	}

	name := workflowName
	if name == "" {
		name = render(t.Name, allParams)
	}

	workflow := models.NewWorkflow(name, render(t.Description, allParams), models.WorkflowConfig{
		Mode:                 t.Config.Mode,
		MaxIterations:        t.Config.MaxIterations,
		EnableEvaluation:     t.Config.EnableEvaluation,
		EnableCorrectionLoop: t.Config.EnableCorrectionLoop,
		Verbose:              t.Config.Verbose,
	})
	workflow.Metadata = map[string]any{
		"template_id":      t.ID,
		"template_name":    t.Name,
		"template_version": t.Version,
	}

	templateToTask := make(map[string]string, len(t.TaskTemplates))

	for _, taskTemplate := range t.TaskTemplates {
		task := models.NewTask(
			render(taskTemplate.NameTemplate, allParams),
			render(taskTemplate.DescriptionTemplate, allParams),
			taskTemplate.AssignedTo,
		)
		task.ExpectedOutput = render(taskTemplate.ExpectedOutputTemplate, allParams)
		task.Priority = taskTemplate.Priority
		task.Metadata = map[string]any{"template_task_id": taskTemplate.ID}

		templateToTask[taskTemplate.ID] = task.ID

		for _, depTemplateID := range taskTemplate.DependsOn {
			if taskID, ok := templateToTask[depTemplateID]; ok {
				task.ContextTasks = append(task.ContextTasks, taskID)
			}
		}

		workflow.AddTask(task)
	}

	return workflow, nil
}

// newTaskTemplateID returns a fresh template-scoped task id.
func newTaskTemplateID() string {
	return uuid.New().String()
}
