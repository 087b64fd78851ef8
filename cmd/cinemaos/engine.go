package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
)

func engineCommand() *cli.Command {
	engineFlags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:    "engine-url",
			Usage:   "Local engine URL, overrides the config file",
			Sources: cli.EnvVars("ENGINE_URL"),
		},
		logLevelFlag(),
	}

	return &cli.Command{
		Name:    "engine",
		Aliases: []string{"e"},
		Usage:   "Manage the local generation engine process",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Report whether the engine answers its readiness probe",
				Flags:  engineFlags,
				Action: engineStatus,
			},
			{
				Name:   "start",
				Usage:  "Launch the engine, wait until it is ready and leave it running",
				Flags:  engineFlags,
				Action: engineStart,
			},
			{
				Name:   "stop",
				Usage:  "Stop an engine previously launched by this CLI",
				Flags:  engineFlags,
				Action: engineStop,
			},
		},
	}
}

func engineConfig(command *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(command.String("config"))
	if err != nil {
		return nil, err
	}

	if engineURL := command.String("engine-url"); engineURL != "" {
		cfg.Engine.BaseURL = engineURL
	}

	return &cfg, nil
}

func engineStatus(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	cfg, err := engineConfig(command)
	if err != nil {
		return err
	}

	client := comfyui.NewClient(cfg.Engine.BaseURL, logger)

	pid, supervised := readPidfile()

	if err := client.Ping(ctx); err != nil {
		if supervised {
			fmt.Printf("Engine not ready at %s (supervised pid %d): %v\n", cfg.Engine.BaseURL, pid, err)
		} else {
			fmt.Printf("Engine stopped (%s unreachable)\n", cfg.Engine.BaseURL)
		}

		return nil
	}

	if supervised {
		fmt.Printf("Engine ready at %s (supervised pid %d)\n", cfg.Engine.BaseURL, pid)
	} else {
		fmt.Printf("Engine ready at %s (not supervised by this CLI)\n", cfg.Engine.BaseURL)
	}

	return nil
}

func engineStart(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	cfg, err := engineConfig(command)
	if err != nil {
		return err
	}

	client := comfyui.NewClient(cfg.Engine.BaseURL, logger)
	if err := client.Ping(ctx); err == nil {
		fmt.Printf("Engine already ready at %s\n", cfg.Engine.BaseURL)

		return nil
	}

	manager := comfyui.NewProcessManager(cfg.Engine.ProcessConfig(), logger)

	fmt.Printf("Starting engine, waiting up to %s for readiness...\n", cfg.Engine.ReadyTimeout.Std())

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("engine failed to start: %w", err)
	}

	if err := writePidfile(manager.Pid()); err != nil {
		return err
	}

	fmt.Printf("Engine ready at %s (pid %d)\n", cfg.Engine.BaseURL, manager.Pid())

	return nil
}

func engineStop(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	cfg, err := engineConfig(command)
	if err != nil {
		return err
	}

	pid, ok := readPidfile()
	if !ok {
		return fmt.Errorf("no supervised engine found (%s missing)", pidfilePath())
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find engine process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePidfile()
		fmt.Printf("Engine already stopped, removed stale pidfile (pid %d)\n", pid)

		return nil
	}

	client := comfyui.NewClient(cfg.Engine.BaseURL, logger)
	waitGone(ctx, client)

	removePidfile()
	fmt.Printf("Engine stopped (pid %d)\n", pid)

	return nil
}

// waitGone polls the readiness endpoint until it stops answering, bounded so
// a wedged process cannot hang the command.
func waitGone(ctx context.Context, client *comfyui.Client) {
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		if err := client.Ping(ctx); err != nil {
			return
		}

		time.Sleep(250 * time.Millisecond)
	}
}

// The pidfile records the process launched by `engine start` so a later
// `engine stop` can reach it. Engines started by other means are out of
// scope for stop.

func pidfilePath() string {
	return filepath.Join(os.TempDir(), "cinemaos-engine.pid")
}

func writePidfile(pid int) error {
	if err := os.WriteFile(pidfilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}

	return nil
}

func readPidfile() (int, bool) {
	data, err := os.ReadFile(pidfilePath())
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func removePidfile() {
	_ = os.Remove(pidfilePath())
}
