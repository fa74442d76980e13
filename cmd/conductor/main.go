// Package main provides the Conductor command line interface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/conductor-ai/conductor/pkg/cmd"
	"github.com/conductor-ai/conductor/pkg/crew"
	"github.com/conductor-ai/conductor/pkg/log"
	"github.com/conductor-ai/conductor/pkg/models"
	"github.com/conductor-ai/conductor/pkg/orchestrator"
	"github.com/conductor-ai/conductor/pkg/services"
	"github.com/conductor-ai/conductor/pkg/template"
)

func main() {
	command := &cli.Command{
		Name:                  "conductor",
		Usage:                 "Run multi-agent workflows from the command line",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "plugins-path",
				Usage: "Path to the directory containing agent plugins",
				Value: "./plugins",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			workflowCommand(),
			agentsCommand(),
			templatesCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the standard development workflow for a project description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project",
				Usage:    "Project description to plan, build, review, and document",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Workflow name",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Execution mode (sequential, parallel, hierarchical)",
				Value: string(models.ModeSequential),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("cli")

			workflow := orchestrator.CreateStandardWorkflow(command.String("project"), command.String("name"))
			workflow.Config.Mode = models.WorkflowMode(command.String("mode"))

			registry := cmd.NewRegistry(logger, command.String("plugins-path"))
			obs := cmd.NewObservability(ctx, logger, "conductor")
			engine := orchestrator.NewService(logger, registry, obs, crew.NewRunner(logger))

			result := engine.RunWorkflow(ctx, workflow)

			return printJSON(result)
		},
	}
}

func workflowCommand() *cli.Command {
	return &cli.Command{
		Name:    "workflow",
		Aliases: []string{"w"},
		Usage:   "Operate on stored workflows",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a stored workflow and persist its outcome",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "Persistence backend URL (file://, postgres://, redis://)",
						Value:   "file://./data",
						Sources: cli.EnvVars("DATABASE_URL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))
					logger := log.WithModule("cli")

					id := command.Args().First()
					if id == "" {
						return errors.New("workflow id is required")
					}

					store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
					defer func() { _ = store.Close(ctx) }()

					registry := cmd.NewRegistry(logger, command.String("plugins-path"))
					obs := cmd.NewObservability(ctx, logger, "conductor")
					engine := orchestrator.NewService(logger, registry, obs, crew.NewRunner(logger))

					result, err := services.NewWorkflow(store, engine).Run(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(result)
				},
			},
		},
	}
}

func agentsCommand() *cli.Command {
	return &cli.Command{
		Name:    "agents",
		Aliases: []string{"a"},
		Usage:   "List available agent roles and their configurations",
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("cli")

			registry := cmd.NewRegistry(logger, command.String("plugins-path"))

			type agentInfo struct {
				Role models.Role `json:"role"`
				Goal string      `json:"goal"`
			}

			agents := make([]agentInfo, 0)

			for _, role := range registry.AvailableRoles() {
				info := agentInfo{Role: role}
				if config, ok := registry.AgentConfig(role); ok {
					info.Goal = config.Goal
				}

				agents = append(agents, info)
			}

			return printJSON(agents)
		},
	}
}

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"t"},
		Usage:   "List built-in workflow templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tags",
				Usage: "Comma-separated tags to filter by",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			registry := template.DefaultRegistry()

			templates := registry.List()
			if tags := command.String("tags"); tags != "" {
				templates = registry.SearchByTags(strings.Split(tags, ","))
			}

			type templateInfo struct {
				Name           string            `json:"name"`
				Category       template.Category `json:"category"`
				RequiredParams []string          `json:"required_params"`
				Tags           []string          `json:"tags"`
			}

			infos := make([]templateInfo, 0, len(templates))
			for _, tpl := range templates {
				infos = append(infos, templateInfo{
					Name:           tpl.Name,
					Category:       tpl.Category,
					RequiredParams: tpl.RequiredParams,
					Tags:           tpl.Tags,
				})
			}

			return printJSON(infos)
		},
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
