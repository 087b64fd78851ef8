package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/eventbus"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
)

// Runner executes and resumes generation jobs to a terminal result.
// Implemented by orchestrator.Orchestrator.
type Runner interface {
	Run(ctx context.Context, jobID string, request models.GenerationRequest) (*models.JobResult, error)
	Resume(ctx context.Context, jobID string, timeout time.Duration) (*models.JobResult, error)
}

// Generations owns the job intake flow: validate, persist, then either queue
// for a runner or execute inline.
type Generations struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	runner      Runner
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewGenerations creates a new generations service.
func NewGenerations(logger *slog.Logger, persistence persistence.Persistence, eventBus eventbus.EventPublisher, runner Runner) *Generations {
	return &Generations{
		persistence: persistence,
		eventBus:    eventBus,
		runner:      runner,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "generations"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (g *Generations) HealthCheck(ctx context.Context) (string, bool) {
	if g.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := g.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Enqueue validates the request, persists a queued record and publishes
// job.queued for a runner to pick up.
func (g *Generations) Enqueue(ctx context.Context, request models.GenerationRequest) (*models.JobRecord, error) {
	if err := g.validateRequest("Enqueue", request); err != nil {
		return nil, err
	}

	if g.eventBus == nil {
		return nil, errors.New("event bus not configured, async generation unavailable")
	}

	record := newJobRecord(request)

	if err := g.persistence.Jobs().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	event := events.JobQueued{
		BaseEvent:   events.NewBaseEvent(events.JobQueuedEvent, record.ID),
		TaskType:    request.TaskType,
		ModelID:     request.ModelID,
		PreferLocal: request.PreferLocal,
		Request:     request,
	}

	if err := g.eventBus.Publish(ctx, record.ID, event); err != nil {
		// An unpublished job would sit queued forever, so fail it visibly.
		if updateErr := g.persistence.Jobs().UpdateStatus(ctx, record.ID, models.JobStatusFailed, "failed to publish job event"); updateErr != nil {
			g.logger.ErrorContext(ctx, "Failed to mark unpublished job as failed", "job_id", record.ID, "error", updateErr)
		}

		return nil, fmt.Errorf("failed to publish job event: %w", err)
	}

	g.logger.InfoContext(ctx, "Job queued", "job_id", record.ID, "task_type", request.TaskType, "model_id", request.ModelID)

	return record, nil
}

// RunSync validates the request, persists a record and executes it inline.
// The returned record reflects the terminal state; orchestration errors
// propagate unwrapped so the API can map their codes.
func (g *Generations) RunSync(ctx context.Context, request models.GenerationRequest) (*models.JobRecord, *models.JobResult, error) {
	if err := g.validateRequest("RunSync", request); err != nil {
		return nil, nil, err
	}

	record := newJobRecord(request)

	if err := g.persistence.Jobs().Create(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to create job record: %w", err)
	}

	result, err := g.runner.Run(ctx, record.ID, request)
	if err != nil {
		return nil, nil, err
	}

	return g.refresh(ctx, record), result, nil
}

// Get returns one job record.
func (g *Generations) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	return g.persistence.Jobs().GetByID(ctx, id)
}

// ListJobsRequest contains options for listing jobs.
type ListJobsRequest struct {
	Status string
	Limit  int
	Offset int
}

// List retrieves job records with filtering and pagination, newest first.
func (g *Generations) List(ctx context.Context, req ListJobsRequest) ([]*models.JobRecord, error) {
	status := models.JobStatus(req.Status)
	if req.Status != "" && !status.Valid() {
		return nil, NewValidationError("List", "invalid_status", fmt.Sprintf("unknown job status %q", req.Status), ErrInvalidStatus)
	}

	return g.persistence.Jobs().List(ctx, persistence.ListJobsOptions{
		Status: status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// Resume re-polls the cloud queue for a job whose poll was interrupted.
// Completed and cancelled jobs are not resumable.
func (g *Generations) Resume(ctx context.Context, id string, timeout time.Duration) (*models.JobRecord, *models.JobResult, error) {
	record, err := g.persistence.Jobs().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if record.Status == models.JobStatusCompleted || record.Status == models.JobStatusCancelled {
		return nil, nil, &ServiceError{
			Op:      "Resume",
			Code:    "not_resumable",
			Message: fmt.Sprintf("job %s is already %s", id, record.Status),
			Err:     ErrJobNotResumable,
		}
	}

	result, err := g.runner.Resume(ctx, id, timeout)
	if err != nil {
		return nil, nil, err
	}

	return g.refresh(ctx, record), result, nil
}

func (g *Generations) validateRequest(op string, request models.GenerationRequest) error {
	if err := g.validate.Struct(request); err != nil {
		return NewValidationError(op, "validation_error", err.Error(), ErrInvalidRequest)
	}

	return nil
}

// refresh re-reads the record after a run so callers see the terminal state.
// On a read failure the stale record is still useful, so it is returned.
func (g *Generations) refresh(ctx context.Context, record *models.JobRecord) *models.JobRecord {
	fresh, err := g.persistence.Jobs().GetByID(ctx, record.ID)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to reload job record", "job_id", record.ID, "error", err)

		return record
	}

	return fresh
}

func newJobRecord(request models.GenerationRequest) *models.JobRecord {
	return &models.JobRecord{
		ID:       uuid.New().String(),
		TaskType: request.TaskType,
		ModelID:  request.ModelID,
		Status:   models.JobStatusQueued,
	}
}
