package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/cmd"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
)

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:    "models",
		Aliases: []string{"m"},
		Usage:   "Inspect the model catalog",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List catalog entries with provider and local capability",
				Flags:   []cli.Flag{catalogFlag(), logLevelFlag()},
				Action:  listModels,
			},
		},
	}
}

func listModels(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	cat, err := cmd.NewCatalog(ctx, logger, command.String("catalog-path"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tLOCAL\tMIN VRAM\tTASKS\tENDPOINT")

	for _, entry := range cat.Entries() {
		minVRAM := "-"
		if entry.MinAcceleratorMemoryGB > 0 {
			minVRAM = fmt.Sprintf("%.0f GB", entry.MinAcceleratorMemoryGB)
		}

		tasks := make([]string, 0, len(entry.Capabilities))
		for _, task := range entry.Capabilities {
			tasks = append(tasks, string(task))
		}

		taskList := strings.Join(tasks, ",")
		if taskList == "" {
			taskList = "-"
		}

		endpoint := entry.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
			entry.ID, entry.Provider, entry.LocalCapable, minVRAM, taskList, endpoint)
	}

	return w.Flush()
}
