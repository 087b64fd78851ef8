package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/eventbus"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
)

type RunnerManager struct {
	id        string
	logger    *slog.Logger
	executor  services.Runner
	eventBus  eventbus.EventBus
	jobs      persistence.JobRepository
	retention config.RetentionConfig
	cron      *cron.Cron
}

func NewRunnerManager(
	id string,
	executor services.Runner,
	eventBus eventbus.EventBus,
	jobs persistence.JobRepository,
	retention config.RetentionConfig,
	logger *slog.Logger,
) *RunnerManager {
	return &RunnerManager{
		id:        id,
		logger:    logger.With("module", "cinemaos-runner", "runner_id", id),
		executor:  executor,
		eventBus:  eventBus,
		jobs:      jobs,
		retention: retention,
	}
}

func (r *RunnerManager) Start(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Starting runner manager", "runner_id", r.id)

	err := r.eventBus.Handle(events.JobQueuedEvent, r.handleJobQueued)
	if err != nil {
		return err
	}

	err = r.eventBus.Subscribe(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	err = r.startJanitor(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Runner started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	r.logger.InfoContext(ctx, "Shutting down runner...")

	if r.cron != nil {
		r.cron.Stop()
	}

	return nil
}

func (r *RunnerManager) handleJobQueued(ctx context.Context, event any) error {
	queuedEvent, ok := event.(*events.JobQueued)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for JobQueued")

		return nil
	}

	logger := r.logger.With(
		"job_id", queuedEvent.JobID,
		"task_type", queuedEvent.TaskType,
		"model_id", queuedEvent.ModelID,
		"event_id", queuedEvent.ID,
	)
	logger.InfoContext(ctx, "Processing queued generation")

	result, err := r.executor.Run(ctx, queuedEvent.JobID, queuedEvent.Request)
	if err != nil {
		logger.ErrorContext(ctx, "Generation failed", "error", err)

		// The orchestrator already marked the record failed and published the
		// failure event. Nack only transport and availability errors, where a
		// redelivery against a recovered backend can still succeed.
		if jobErr, ok := orchestrator.AsError(err); ok && jobErr.Retryable() {
			return err
		}

		return nil
	}

	logger.InfoContext(ctx, "Generation completed", "outputs", len(result.Outputs))

	return nil
}

// startJanitor schedules the retention sweep that deletes terminal jobs older
// than the configured maximum age.
func (r *RunnerManager) startJanitor(ctx context.Context) error {
	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := r.cron.AddFunc(r.retention.Schedule, r.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	r.logger.InfoContext(ctx, "Scheduled retention sweep",
		"entry_id", id,
		"schedule", r.retention.Schedule,
		"max_age", r.retention.MaxAge.Std().String(),
	)
	r.cron.Start()

	return nil
}

func (r *RunnerManager) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-r.retention.MaxAge.Std())

	deleted, err := r.jobs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "Retention sweep failed", "error", err)

		return
	}

	if deleted > 0 {
		r.logger.InfoContext(ctx, "Retention sweep removed expired jobs", "deleted", deleted)
	}
}
