package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

// NewCatalog builds the model catalog: the built-in entries, overlaid with
// the YAML file at path when one is given.
func NewCatalog(ctx context.Context, logger *slog.Logger, path string) (*catalog.Catalog, error) {
	cat := catalog.Default()

	if path == "" {
		return cat, nil
	}

	if err := cat.LoadFile(path); err != nil {
		return nil, fmt.Errorf("failed to load model catalog: %w", err)
	}

	logger.InfoContext(ctx, "Loaded model catalog overlay", "path", path, "models", len(cat.Entries()))

	return cat, nil
}

// NewTemplateStore builds the workflow template store: the built-ins, plus
// every template in the directory at path when one is given. A missing
// directory is not an error, the built-ins still serve.
func NewTemplateStore(ctx context.Context, logger *slog.Logger, path string) (*templates.Store, error) {
	store := templates.NewStore()

	if path == "" {
		return store, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.WarnContext(ctx, "Template directory does not exist, using built-ins only", "path", path)

		return store, nil
	}

	if err := store.LoadDir(path); err != nil {
		return nil, fmt.Errorf("failed to load workflow templates: %w", err)
	}

	logger.InfoContext(ctx, "Loaded workflow templates", "path", path, "templates", len(store.IDs()))

	return store, nil
}
