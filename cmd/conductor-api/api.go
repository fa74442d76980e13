// Package main provides the Conductor API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/conductor-ai/conductor/pkg/cmd"
	"github.com/conductor-ai/conductor/pkg/crew"
	"github.com/conductor-ai/conductor/pkg/eventbus"
	"github.com/conductor-ai/conductor/pkg/orchestrator"
	"github.com/conductor-ai/conductor/pkg/persistence"
	"github.com/conductor-ai/conductor/pkg/registry"
	"github.com/conductor-ai/conductor/pkg/services"
	"github.com/conductor-ai/conductor/pkg/template"
	"github.com/conductor-ai/conductor/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	obs := cmd.NewObservability(context.Background(), a.logger, "conductor-api")
	engine := orchestrator.NewService(a.logger, a.registry, obs, crew.NewRunner(a.logger))

	workflowService := services.NewWorkflow(a.persistence, engine)
	if a.eventBus != nil {
		workflowService.SetEventPublisher(a.eventBus)
	}

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.registry, template.DefaultRegistry())

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Conductor API")
	})

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

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Get("/:name", handlers.GetTemplate)
	t.Post("/:name/instantiate", handlers.InstantiateTemplate)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
