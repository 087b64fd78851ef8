// Package main provides the cinemaos operator CLI for inspecting and driving
// the generation pipeline from a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "cinemaos",
		Usage:                 "Inspect and drive the generation pipeline",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			modelsCommand(),
			templatesCommand(),
			engineCommand(),
			routeCommand(),
			runCommand(),
			resumeCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Flags shared across subcommands. The CLI defaults to error-level logging so
// command output stays readable; --log-level debug restores the full stream.

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration file",
		Sources: cli.EnvVars("CONFIG_PATH"),
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "catalog-path",
		Usage:   "YAML file of model catalog entries overlaid on the built-ins",
		Sources: cli.EnvVars("CATALOG_PATH"),
	}
}

func templatesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "templates-path",
		Usage:   "Directory of workflow templates loaded next to the built-ins",
		Sources: cli.EnvVars("TEMPLATES_PATH"),
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "error",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}
