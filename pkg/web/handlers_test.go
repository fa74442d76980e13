package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-ai/conductor/pkg/agents/echo"
	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/observability"
	"github.com/conductor-ai/conductor/pkg/orchestrator"
	"github.com/conductor-ai/conductor/pkg/persistence/file"
	"github.com/conductor-ai/conductor/pkg/registry"
	"github.com/conductor-ai/conductor/pkg/services"
	"github.com/conductor-ai/conductor/pkg/template"
	"github.com/conductor-ai/conductor/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	registryInstance := registry.NewRegistry(logger)
	registryInstance.RegisterAgentBuilder(echo.NewBuilder())

	persistence := file.NewPersistence(t.TempDir())
	engine := orchestrator.NewService(logger, registryInstance, observability.NewSlog(logger), nil)
	workflowService := services.NewWorkflow(persistence, engine)

	handlers := web.NewAPIHandlers(
		workflowService,
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
		template.DefaultRegistry(),
	)

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)
	app.Get("/agents", handlers.GetAgents)
	app.Get("/agents/:role", handlers.GetAgent)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/standard", handlers.CreateStandardWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)
	w.Post("/:id/resume", handlers.ResumeWorkflow)
	w.Get("/:id/tasks", handlers.GetWorkflowTasks)
	w.Get("/:id/result", handlers.GetWorkflowResult)

	tpl := app.Group("/templates")
	tpl.Get("/", handlers.GetTemplates)
	tpl.Get("/:name", handlers.GetTemplate)
	tpl.Post("/:name/instantiate", handlers.InstantiateTemplate)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		if raw, ok := payload.(string); ok {
			body = bytes.NewBufferString(raw)
		} else {
			encoded, err := json.Marshal(payload)
			require.NoError(t, err)
			body = bytes.NewBuffer(encoded)
		}
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func validCreateRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:        "Feature Workflow",
		Description: "Plan and build a feature",
		Tasks: []web.CreateTaskRequest{
			{
				Name:        "Plan",
				Description: "Break down the feature",
				AssignedTo:  models.RolePM,
			},
			{
				Name:        "Build",
				Description: "Implement the feature",
				AssignedTo:  models.RoleDev,
				DependsOn:   []int{0},
			},
		},
	}
}

func createWorkflow(t *testing.T, app *fiber.App) models.Workflow {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", validCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))

	return workflow
}

func TestCreateWorkflow(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    validCreateRequest(),
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing name",
			requestBody: web.CreateWorkflowRequest{
				Description: "No name",
				Tasks:       validCreateRequest().Tasks,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no tasks",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Empty Workflow",
				Description: "No tasks at all",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forward dependency index",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Bad Deps",
				Description: "Dependency points forward",
				Tasks: []web.CreateTaskRequest{
					{
						Name:        "First",
						Description: "Depends on a later task",
						AssignedTo:  models.RolePM,
						DependsOn:   []int{1},
					},
					{
						Name:        "Second",
						Description: "Comes later",
						AssignedTo:  models.RoleDev,
					},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown role",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Unknown Role",
				Description: "Role is not registered",
				Tasks: []web.CreateTaskRequest{
					{
						Name:        "Consult the stars",
						Description: "Not a real role",
						AssignedTo:  models.Role("astrologer"),
					},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, models.WorkflowStatusNotStarted, workflow.Status)
				assert.Len(t, workflow.Tasks, 2)
				assert.Equal(t, []string{workflow.Tasks[0].ID}, workflow.Tasks[1].ContextTasks)
			}
		})
	}
}

func TestGetWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Feature Workflow", fetched.Name)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetWorkflows(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total_count":0`)

	createWorkflow(t, app)

	resp, body = doJSON(t, app, http.MethodGet, "/workflows/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total_count":1`)
}

func TestUpdateWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	update := validCreateRequest()
	update.Name = "Renamed Workflow"

	resp, body := doJSON(t, app, http.MethodPatch, "/workflows/"+created.ID, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed Workflow", updated.Name)

	resp, _ = doJSON(t, app, http.MethodPatch, "/workflows/missing-id", update)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run web.RunResponse
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, created.ID, run.WorkflowID)
	assert.Equal(t, models.WorkflowStatusCompleted, run.Status)
	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Success)
	assert.Equal(t, 2, run.Result.TasksCompleted)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/missing-id/run", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResumeWorkflowRequiresPausedState(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/resume", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetWorkflowTasksAndResult(t *testing.T) {
	app := setupTestApp(t)
	created := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/"+created.ID+"/result", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+created.ID+"/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasksResponse struct {
		Tasks []models.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(body, &tasksResponse))
	require.Len(t, tasksResponse.Tasks, 2)

	for _, task := range tasksResponse.Tasks {
		assert.Equal(t, models.TaskStatusCompleted, task.Status)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID+"/result", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.WorkflowResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Success)
}

func TestCreateStandardWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/standard", web.StandardWorkflowRequest{
		ProjectDescription: "A link shortener service",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Len(t, workflow.Tasks, 5)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/standard", web.StandardWorkflowRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/templates/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Full Development Workflow")

	resp, _ = doJSON(t, app, http.MethodGet, "/templates/"+url.PathEscape("Quick Implementation"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/templates/no-such-template", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInstantiateTemplate(t *testing.T) {
	app := setupTestApp(t)
	path := "/templates/" + url.PathEscape("Quick Implementation") + "/instantiate"
	params := map[string]string{
		"feature_name":        "Rate limiting",
		"feature_description": "Limit requests per client",
	}

	resp, _ := doJSON(t, app, http.MethodPost, path, web.InstantiateTemplateRequest{
		Params: map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, path, web.InstantiateTemplateRequest{
		Params: params,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.NotEmpty(t, workflow.ID)
	assert.Len(t, workflow.Tasks, 2)

	resp, body = doJSON(t, app, http.MethodPost, path, web.InstantiateTemplateRequest{
		Params: params,
		Run:    true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run web.RunResponse
	require.NoError(t, json.Unmarshal(body, &run))
	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Success)
}

func TestGetAgents(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/agents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response struct {
		Agents []web.AgentResponse `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Len(t, response.Agents, len(models.BuiltinRoles()))

	for _, agent := range response.Agents {
		assert.NotEmpty(t, agent.Goal)
		assert.True(t, agent.Available)
	}
}

func TestGetAgent(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/agents/developer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var agent web.AgentResponse
	require.NoError(t, json.Unmarshal(body, &agent))
	assert.Equal(t, models.RoleDev, agent.Role)
	assert.NotEmpty(t, agent.Backstory)

	resp, _ = doJSON(t, app, http.MethodGet, "/agents/astrologer", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
}
