// Package main provides the CinemaOS generation runner, the process that
// executes queued jobs against the local engine and cloud backends.
package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/cmd"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/fal"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/otelhelper"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

func main() {
	command := &cli.Command{
		Name:                  "cinemaos-runner",
		Usage:                 "Start runners to execute queued generations",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "runner-id",
				Aliases: []string{"id"},
				Usage:   "Custom runner ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("RUNNER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Job store URL (postgres://... or a directory path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the resumable ticket store (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "engine-url",
				Usage:   "Local engine URL, overrides the config file",
				Sources: cli.EnvVars("ENGINE_URL"),
			},
			&cli.StringFlag{
				Name:    "fal-key-env",
				Usage:   "Environment variable holding the cloud queue API key",
				Sources: cli.EnvVars("FAL_KEY_ENV"),
			},
			&cli.StringFlag{
				Name:    "catalog-path",
				Usage:   "YAML file of model catalog entries overlaid on the built-ins",
				Sources: cli.EnvVars("CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "templates-path",
				Usage:   "Directory of workflow templates loaded next to the built-ins",
				Sources: cli.EnvVars("TEMPLATES_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	runnerID := command.String("runner-id")
	if runnerID == "" {
		runnerID = "runner-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("cinemaos-runner").With("runner_id", runnerID)
	logger.InfoContext(ctx, "Initializing CinemaOS runner")

	cfg, err := config.LoadOrDefault(command.String("config"))
	if err != nil {
		return err
	}

	if engineURL := command.String("engine-url"); engineURL != "" {
		cfg.Engine.BaseURL = engineURL
	}

	if keyEnv := command.String("fal-key-env"); keyEnv != "" {
		cfg.Cloud.APIKeyEnv = keyEnv
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	ticketStore, err := cmd.NewTicketStore(ctx, logger, command.String("redis-url"), cfg.Retention.MaxAge.Std())
	if err != nil {
		return err
	}

	if ticketStore != nil {
		defer func() {
			if err := ticketStore.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close ticket store", "error", err)
			}
		}()
	}

	cat, err := cmd.NewCatalog(ctx, logger, command.String("catalog-path"))
	if err != nil {
		return err
	}

	store, err := cmd.NewTemplateStore(ctx, logger, command.String("templates-path"))
	if err != nil {
		return err
	}

	orchestratorConfig := orchestrator.Config{
		Catalog:      cat,
		Detector:     hardware.NewSystemDetector(logger),
		Instantiator: templates.NewInstantiator(store, logger),
		Local:        comfyui.NewClient(cfg.Engine.BaseURL, logger),
		Cloud:        fal.NewClient(cfg.Cloud.ClientConfig(), logger),
		Direct:       cmd.NewProviderRegistry(logger),
		EventBus:     eventBus,
		Jobs:         persistence.Jobs(),
		PollTimeout:  cfg.Cloud.Poll.Timeout.Std(),
	}

	if ticketStore != nil {
		orchestratorConfig.Tickets = ticketStore
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tracer, err := otelhelper.NewTracer(ctx, "cinemaos-runner")
		if err != nil {
			return err
		}

		orchestratorConfig.Tracer = tracer
	}

	executor, err := orchestrator.New(logger, orchestratorConfig)
	if err != nil {
		return err
	}

	runner := NewRunnerManager(
		runnerID,
		executor,
		eventBus,
		persistence.Jobs(),
		cfg.Retention,
		logger,
	)

	err = runner.Start(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start runner", "error", err)
	}

	return nil
}
