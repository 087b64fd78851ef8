// Package persistence provides the data storage abstraction layer for
// generation job records.
package persistence

import (
	"context"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// ListJobsOptions filters and pages job listings. A zero value lists the
// newest jobs across all statuses.
type ListJobsOptions struct {
	Status models.JobStatus // Empty matches every status
	Limit  int              // Defaults to 50, capped at 200
	Offset int
}

// JobRepository handles job record storage operations. Implementations
// return ErrJobNotFound (wrapped in a JobError) when the identifier does
// not resolve to a record.
type JobRepository interface {
	Create(ctx context.Context, record *models.JobRecord) error
	GetByID(ctx context.Context, id string) (*models.JobRecord, error)
	List(ctx context.Context, opts ListJobsOptions) ([]*models.JobRecord, error)

	// UpdateStatus transitions a job and stores the failure message, if any.
	// Terminal statuses also stamp the completion time.
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error

	// SetPlan records the routing decision for a workflow job.
	SetPlan(ctx context.Context, id, templateID string, target models.ExecutionTarget) error

	// SetTicket records the cloud queue ticket so the job can be resumed
	// after a restart.
	SetTicket(ctx context.Context, id, ticketID string) error

	// SetOutputs stores the artifacts of a completed job.
	SetOutputs(ctx context.Context, id string, outputs []models.Artifact) error

	// DeleteOlderThan removes terminal jobs whose last update is before the
	// cutoff and reports how many records were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Persistence interface {
	Jobs() JobRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
