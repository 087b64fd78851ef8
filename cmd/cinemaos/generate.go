package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/cmd"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/fal"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/router"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "task",
			Usage:    "Task type (chat, image, image_edit, upscale, video, voice, music, 3d, segment)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "model",
			Usage:    "Model id from the catalog",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "prefer-local",
			Usage: "Prefer the local engine when the hardware allows it",
		},
	}
}

func routeCommand() *cli.Command {
	flags := append(requestFlags(), catalogFlag(), logLevelFlag())

	return &cli.Command{
		Name:   "route",
		Usage:  "Print the execution plan for a request without running it",
		Flags:  flags,
		Action: routeRequest,
	}
}

func routeRequest(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	cat, err := cmd.NewCatalog(ctx, logger, command.String("catalog-path"))
	if err != nil {
		return err
	}

	detector := hardware.NewSystemDetector(logger)

	profile, err := detector.Profile(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Hardware detection failed, assuming no local capability", "error", err)

		profile = models.HardwareProfile{}
	}

	plan := router.Route(
		models.ParseTaskType(command.String("task")),
		command.String("model"),
		command.Bool("prefer-local"),
		profile,
		cat,
	)

	return printJSON(struct {
		Plan    models.ExecutionPlan   `json:"plan"`
		Profile models.HardwareProfile `json:"profile"`
	}{Plan: plan, Profile: profile})
}

func runCommand() *cli.Command {
	flags := append(requestFlags(),
		&cli.StringFlag{
			Name:     "prompt",
			Usage:    "Generation prompt",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "negative-prompt",
			Usage: "What the output must avoid",
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "Output width in pixels",
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "Output height in pixels",
		},
		&cli.IntFlag{
			Name:  "duration",
			Usage: "Clip duration in seconds for video and audio tasks",
		},
		&cli.IntFlag{
			Name:  "seed",
			Usage: "Generation seed, -1 leaves it to the backend",
			Value: -1,
		},
		&cli.StringFlag{
			Name:  "input",
			Usage: "URL of an input artifact for image edit and upscale tasks",
		},
		&cli.StringSliceFlag{
			Name:  "param",
			Usage: "Extra template parameter as key=value, repeatable",
		},
		configFlag(),
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
		catalogFlag(),
		templatesFlag(),
		logLevelFlag(),
	)

	return &cli.Command{
		Name:   "run",
		Usage:  "Execute one generation end to end and print the result",
		Flags:  flags,
		Action: runGeneration,
	}
}

func runGeneration(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	request := models.GenerationRequest{
		TaskType:        command.String("task"),
		ModelID:         command.String("model"),
		Prompt:          command.String("prompt"),
		NegativePrompt:  command.String("negative-prompt"),
		Width:           command.Int("width"),
		Height:          command.Int("height"),
		DurationSeconds: float64(command.Int("duration")),
		InputArtifact:   command.String("input"),
		PreferLocal:     command.Bool("prefer-local"),
	}

	if seed := command.Int("seed"); seed >= 0 {
		seed64 := int64(seed)
		request.Seed = &seed64
	}

	params, err := parseParams(command.StringSlice("param"))
	if err != nil {
		return err
	}

	request.Params = params

	executor, _, err := buildExecutor(ctx, logger, command, "")
	if err != nil {
		return err
	}

	result, err := executor.Run(ctx, "", request)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func resumeCommand() *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Resume polling an interrupted cloud job",
		ArgsUsage: "<job-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Job store URL (postgres://... or a directory path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the resumable ticket store (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Poll timeout in seconds, 0 uses the configured value",
			},
			configFlag(),
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
			logLevelFlag(),
		},
		Action: resumeGeneration,
	}
}

func resumeGeneration(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	jobID := command.Args().First()
	if jobID == "" {
		return fmt.Errorf("usage: cinemaos resume <job-id>")
	}

	executor, store, err := buildExecutor(ctx, logger, command, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	generations := services.NewGenerations(logger, store, nil, executor)
	timeout := time.Duration(command.Int("timeout")) * time.Second

	record, result, err := generations.Resume(ctx, jobID, timeout)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Job    *models.JobRecord `json:"job"`
		Result *models.JobResult `json:"result"`
	}{Job: record, Result: result})
}

// buildExecutor assembles a one-shot orchestrator from the command flags. A
// databaseURL wires the job store in; without it the run leaves no record.
func buildExecutor(ctx context.Context, logger *slog.Logger, command *cli.Command, databaseURL string) (*orchestrator.Orchestrator, persistence.Persistence, error) {
	cfg, err := config.LoadOrDefault(command.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if engineURL := command.String("engine-url"); engineURL != "" {
		cfg.Engine.BaseURL = engineURL
	}

	if keyEnv := command.String("fal-key-env"); keyEnv != "" {
		cfg.Cloud.APIKeyEnv = keyEnv
	}

	cat, err := cmd.NewCatalog(ctx, logger, command.String("catalog-path"))
	if err != nil {
		return nil, nil, err
	}

	store, err := cmd.NewTemplateStore(ctx, logger, command.String("templates-path"))
	if err != nil {
		return nil, nil, err
	}

	orchestratorConfig := orchestrator.Config{
		Catalog:      cat,
		Detector:     hardware.NewSystemDetector(logger),
		Instantiator: templates.NewInstantiator(store, logger),
		Local:        comfyui.NewClient(cfg.Engine.BaseURL, logger),
		Cloud:        fal.NewClient(cfg.Cloud.ClientConfig(), logger),
		Direct:       cmd.NewProviderRegistry(logger),
		PollTimeout:  cfg.Cloud.Poll.Timeout.Std(),
	}

	var jobStore persistence.Persistence

	if databaseURL != "" {
		jobStore, err = cmd.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, nil, err
		}

		orchestratorConfig.Jobs = jobStore.Jobs()

		ticketStore, err := cmd.NewTicketStore(ctx, logger, command.String("redis-url"), cfg.Retention.MaxAge.Std())
		if err != nil {
			return nil, nil, err
		}

		if ticketStore != nil {
			orchestratorConfig.Tickets = ticketStore
		}
	}

	executor, err := orchestrator.New(logger, orchestratorConfig)
	if err != nil {
		return nil, nil, err
	}

	return executor, jobStore, nil
}

// parseParams turns repeated key=value flags into template parameters.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}

		params[key] = value
	}

	return params, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))

	return nil
}
