package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/cmd"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/fal"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/otelhelper"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

const defaultPort = 9090

func main() {
	command := &cli.Command{
		Name:                  "cinemaos-gateway",
		Usage:                 "Serve the generation API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the gateway on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Job store URL (postgres://... or a directory path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
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

	logger := log.WithModule("gateway")
	logger.InfoContext(ctx, "Initializing CinemaOS gateway")

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

	engineClient := comfyui.NewClient(cfg.Engine.BaseURL, logger)
	cloudClient := fal.NewClient(cfg.Cloud.ClientConfig(), logger)
	registry := cmd.NewProviderRegistry(logger)
	detector := hardware.NewSystemDetector(logger)

	orchestratorConfig := orchestrator.Config{
		Catalog:      cat,
		Detector:     detector,
		Instantiator: templates.NewInstantiator(store, logger),
		Local:        engineClient,
		Cloud:        cloudClient,
		Direct:       registry,
		EventBus:     eventBus,
		Jobs:         persistence.Jobs(),
		PollTimeout:  cfg.Cloud.Poll.Timeout.Std(),
	}

	if ticketStore != nil {
		orchestratorConfig.Tickets = ticketStore
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tracer, err := otelhelper.NewTracer(ctx, "cinemaos-gateway")
		if err != nil {
			return err
		}

		orchestratorConfig.Tracer = tracer
	}

	runner, err := orchestrator.New(logger, orchestratorConfig)
	if err != nil {
		return err
	}

	generations := services.NewGenerations(logger, persistence, eventBus, runner)

	api := NewAPI(logger, generations, cat, store, detector, engineClient)

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return api.Start(serveCtx, command.Int("port"))
}
