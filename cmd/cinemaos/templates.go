package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/cmd"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/log"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"t"},
		Usage:   "Inspect and validate workflow templates",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List available workflow templates",
				Flags:   []cli.Flag{templatesFlag(), logLevelFlag()},
				Action:  listTemplates,
			},
			{
				Name:   "validate",
				Usage:  "Instantiate every template with a probe request and report failures",
				Flags:  []cli.Flag{templatesFlag(), logLevelFlag()},
				Action: validateTemplates,
			},
		},
	}
}

func listTemplates(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	store, err := cmd.NewTemplateStore(ctx, logger, command.String("templates-path"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCAL\tCREDITS\tEST COST")

	for _, id := range store.IDs() {
		tpl, ok := store.Get(id)
		if !ok {
			continue
		}

		cost := "-"
		if tpl.EstimatedCost > 0 {
			cost = fmt.Sprintf("%.2f", tpl.EstimatedCost)
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			tpl.ID, tpl.Name, tpl.LocalCompatible, tpl.RequiresCredits, cost)
	}

	return w.Flush()
}

func validateTemplates(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cinemaos")

	store, err := cmd.NewTemplateStore(ctx, logger, command.String("templates-path"))
	if err != nil {
		return err
	}

	instantiator := templates.NewInstantiator(store, logger)
	probe := probeRequest()
	failures := 0

	for _, id := range store.IDs() {
		payload, err := instantiator.Instantiate(id, probe)
		if err != nil {
			failures++

			fmt.Printf("FAIL  %s: %v\n", id, err)

			continue
		}

		fmt.Printf("OK    %s (%d nodes)\n", id, len(payload.Graph))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d templates failed validation", failures, len(store.IDs()))
	}

	fmt.Printf("All %d templates validated\n", len(store.IDs()))

	return nil
}

// probeRequest fills every standard placeholder so validation proves a
// template instantiates from a fully-populated request. Placeholders outside
// the standard set must carry a default in the template itself.
func probeRequest() models.GenerationRequest {
	seed := int64(42)

	return models.GenerationRequest{
		TaskType:        "image",
		ModelID:         "validation-probe",
		Prompt:          "validation probe",
		NegativePrompt:  "blurry",
		Width:           1024,
		Height:          1024,
		DurationSeconds: 5,
		Seed:            &seed,
		InputArtifact:   "https://example.com/probe.png",
	}
}
