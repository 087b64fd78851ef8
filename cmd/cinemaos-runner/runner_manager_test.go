package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/config"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence/file"
)

type stubExecutor struct {
	mu     sync.Mutex
	runIDs []string
	result *models.JobResult
	err    error
}

func (s *stubExecutor) Run(ctx context.Context, jobID string, request models.GenerationRequest) (*models.JobResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runIDs = append(s.runIDs, jobID)

	if s.err != nil {
		return nil, s.err
	}

	return s.result, nil
}

func (s *stubExecutor) Resume(ctx context.Context, jobID string, timeout time.Duration) (*models.JobResult, error) {
	return s.result, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testManager(t *testing.T, executor *stubExecutor) (*RunnerManager, persistence.JobRepository) {
	t.Helper()

	jobs := file.NewPersistence(t.TempDir()).Jobs()
	retention := config.RetentionConfig{Schedule: "0 * * * *", MaxAge: config.Duration(720 * time.Hour)}

	return NewRunnerManager("runner-test", executor, nil, jobs, retention, testLogger()), jobs
}

func queuedEvent(jobID string) *events.JobQueued {
	request := models.GenerationRequest{
		TaskType: "image",
		ModelID:  "z-image-turbo",
		Prompt:   "a foggy pier at dawn",
	}

	return &events.JobQueued{
		BaseEvent:   events.NewBaseEvent(events.JobQueuedEvent, jobID),
		TaskType:    request.TaskType,
		ModelID:     request.ModelID,
		PreferLocal: request.PreferLocal,
		Request:     request,
	}
}

func TestRunnerManager_HandleJobQueued(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{result: &models.JobResult{
		Outputs: []models.Artifact{{Name: "out.png", URL: "https://cdn.example.com/out.png", Kind: models.ArtifactImage}},
	}}
	manager, _ := testManager(t, executor)

	err := manager.handleJobQueued(t.Context(), queuedEvent("job-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"job-1"}, executor.runIDs)
}

func TestRunnerManager_HandleJobQueuedWrongType(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	manager, _ := testManager(t, executor)

	// A mistyped message is dropped, not redelivered forever.
	err := manager.handleJobQueued(t.Context(), &events.JobCompleted{})
	require.NoError(t, err)

	assert.Empty(t, executor.runIDs)
}

func TestRunnerManager_HandleJobQueuedFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     orchestrator.Code
		wantNack bool
	}{
		{
			name:     "permanent failure acks the message",
			code:     orchestrator.CodeTemplateNotFound,
			wantNack: false,
		},
		{
			name:     "execution failure acks the message",
			code:     orchestrator.CodeExecutionFailed,
			wantNack: false,
		},
		{
			name:     "local unavailable nacks for redelivery",
			code:     orchestrator.CodeLocalUnavailable,
			wantNack: true,
		},
		{
			name:     "poll timeout nacks for redelivery",
			code:     orchestrator.CodePollTimeout,
			wantNack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			executor := &stubExecutor{err: &orchestrator.Error{
				Code:  tt.code,
				Stage: orchestrator.StageExecute,
				JobID: "job-9",
				Err:   errors.New("backend rejected the job"),
			}}
			manager, _ := testManager(t, executor)

			err := manager.handleJobQueued(t.Context(), queuedEvent("job-9"))

			if tt.wantNack {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, []string{"job-9"}, executor.runIDs)
		})
	}
}

func TestRunnerManager_Sweep(t *testing.T) {
	t.Parallel()

	manager, jobs := testManager(t, &stubExecutor{})
	// A negative age puts the cutoff in the future so fresh terminal jobs
	// qualify without sleeping through a real retention window.
	manager.retention.MaxAge = config.Duration(-time.Hour)

	ctx := t.Context()

	finished := &models.JobRecord{ID: "job-done", TaskType: "image", ModelID: "z-image-turbo", Status: models.JobStatusQueued}
	require.NoError(t, jobs.Create(ctx, finished))
	require.NoError(t, jobs.UpdateStatus(ctx, "job-done", models.JobStatusCompleted, ""))

	waiting := &models.JobRecord{ID: "job-waiting", TaskType: "image", ModelID: "z-image-turbo", Status: models.JobStatusQueued}
	require.NoError(t, jobs.Create(ctx, waiting))

	manager.sweep()

	_, err := jobs.GetByID(ctx, "job-done")
	assert.True(t, persistence.IsJobNotFound(err), "terminal job should be swept")

	_, err = jobs.GetByID(ctx, "job-waiting")
	assert.NoError(t, err, "queued job must survive the sweep")
}

func TestRunnerManager_StartJanitor(t *testing.T) {
	t.Parallel()

	manager, _ := testManager(t, &stubExecutor{})

	require.NoError(t, manager.startJanitor(t.Context()))
	require.NotNil(t, manager.cron)

	manager.cron.Stop()
}

func TestRunnerManager_StartJanitorRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	manager, _ := testManager(t, &stubExecutor{})
	manager.retention.Schedule = "every full moon"

	err := manager.startJanitor(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule retention sweep")
}
