// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/registry"
	"github.com/conductor-ai/conductor/pkg/services"
	"github.com/conductor-ai/conductor/pkg/template"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
	templates       *template.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
	templates *template.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
		templates:       templates,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOK := h.registry.HealthCheck()
	repositoryCheck, repOK := h.workflowService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !regOK || !repOK {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks": fiber.Map{
			"registry":    registryCheck,
			"persistence": repositoryCheck,
		},
	})
}

// GetAgents lists every registered role with its configuration.
func (h *APIHandlers) GetAgents(c fiber.Ctx) error {
	roles := h.registry.AvailableRoles()
	agents := make([]AgentResponse, 0, len(roles))

	for _, role := range roles {
		response := AgentResponse{Role: role, Available: true}

		if config, ok := h.registry.AgentConfig(role); ok {
			response.Goal = config.Goal
			response.Backstory = config.Backstory
		}

		agents = append(agents, response)
	}

	return c.JSON(fiber.Map{"agents": agents})
}

// GetAgent returns the configuration for one registered role.
func (h *APIHandlers) GetAgent(c fiber.Ctx) error {
	role := models.Role(c.Params("role"))

	if !slices.Contains(h.registry.AvailableRoles(), role) {
		return notFound(c, fmt.Sprintf("no agent registered for role '%s'", role))
	}

	response := AgentResponse{Role: role, Available: true}

	if config, ok := h.registry.AgentConfig(role); ok {
		response.Goal = config.Goal
		response.Backstory = config.Backstory
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest

	err := c.Bind().Body(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := buildWorkflow(&req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateWorkflowRequest

	err := c.Bind().Body(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := buildWorkflow(&req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunWorkflow executes a stored workflow synchronously and returns the result.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.Run(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunResponse{WorkflowID: id, Status: workflow.Status, Result: result})
}

// ResumeWorkflow continues a paused workflow run.
func (h *APIHandlers) ResumeWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.Resume(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunResponse{WorkflowID: id, Status: workflow.Status, Result: result})
}

func (h *APIHandlers) GetWorkflowTasks(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	tasks, err := h.workflowService.Tasks(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *APIHandlers) GetWorkflowResult(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.ResultOf(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// CreateStandardWorkflow stores the built-in five-role development workflow
// for a project description.
func (h *APIHandlers) CreateStandardWorkflow(c fiber.Ctx) error {
	var req StandardWorkflowRequest

	err := c.Bind().Body(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.CreateStandard(c.Context(), req.ProjectDescription, req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": h.templates.List()})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	tpl, err := h.templates.Get(templateName(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tpl)
}

// InstantiateTemplate creates (and optionally runs) a workflow from a template.
func (h *APIHandlers) InstantiateTemplate(c fiber.Ctx) error {
	tpl, err := h.templates.Get(templateName(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	var req InstantiateTemplateRequest

	err = c.Bind().Body(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	workflow, err := tpl.Instantiate(req.Params, req.WorkflowName)
	if err != nil {
		return handleServiceError(c, err)
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !req.Run {
		return c.Status(fiber.StatusCreated).JSON(created)
	}

	result, err := h.workflowService.Run(c.Context(), created.ID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunResponse{WorkflowID: created.ID, Status: created.Status, Result: result})
}

// templateName decodes the :name path segment. Built-in template names
// contain spaces, so clients percent-encode them.
func templateName(c fiber.Ctx) string {
	name := c.Params("name")

	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}

	return decoded
}

// buildWorkflow converts an API request into a workflow model, resolving
// index-based dependencies to task IDs.
func buildWorkflow(req *CreateWorkflowRequest) (*models.Workflow, error) {
	config := req.Config
	if config.Mode == "" {
		config = models.DefaultWorkflowConfig()
	}

	workflow := models.NewWorkflow(req.Name, req.Description, config)
	workflow.Metadata = req.Metadata

	for i, taskReq := range req.Tasks {
		task := models.NewTask(taskReq.Name, taskReq.Description, taskReq.AssignedTo)
		task.ExpectedOutput = taskReq.ExpectedOutput

		if taskReq.Priority != "" {
			task.Priority = taskReq.Priority
		}

		if taskReq.MaxRevisions > 0 {
			task.MaxRevisions = taskReq.MaxRevisions
		}

		for _, depIndex := range taskReq.DependsOn {
			if depIndex < 0 || depIndex >= i {
				return nil, fmt.Errorf("task %d: dependency index %d must reference an earlier task", i, depIndex)
			}

			task.ContextTasks = append(task.ContextTasks, workflow.Tasks[depIndex].ID)
		}

		workflow.AddTask(task)
	}

	return workflow, nil
}
