package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence/file"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence/postgresql"
)

// NewPersistence selects the job store from the database URL scheme.
// postgres:// and postgresql:// connect to PostgreSQL; anything else is
// treated as a directory for file-backed storage.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
