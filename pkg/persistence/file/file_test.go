package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	// Test with regular path
	p := NewPersistence("/tmp/test")
	fp := p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	// Test with file:// prefix
	p = NewPersistence("file:///tmp/test")
	fp = p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence(t.TempDir())
	err := p.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(t.Context()))

	missing := NewPersistence("/nonexistent/cinemaos-data")
	assert.Error(t, missing.HealthCheck(t.Context()))
}

func testRecord(id string) *models.JobRecord {
	return &models.JobRecord{
		ID:       id,
		TaskType: "image",
		ModelID:  "z-image-turbo",
		Status:   models.JobStatusQueued,
	}
}

func TestJobRepository_Create(t *testing.T) {
	testDir := t.TempDir()
	repo := NewJobRepository(testDir)

	record := testRecord("job-1")
	record.TemplateID = "t2i"
	record.Target = models.TargetLocal

	err := repo.Create(t.Context(), record)
	require.NoError(t, err)

	// Verify file was created
	filePath := filepath.Join(testDir, "jobs", "job-1.json")
	assert.FileExists(t, filePath)

	// Verify timestamps were set
	assert.False(t, record.CreatedAt.IsZero())
	assert.False(t, record.UpdatedAt.IsZero())
}

func TestJobRepository_Create_Duplicate(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))

	err := repo.Create(t.Context(), testRecord("job-1"))
	require.Error(t, err)
	assert.True(t, persistence.IsJobAlreadyExists(err))
}

func TestJobRepository_GetByID(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	original := testRecord("fetch-job")
	original.TemplateID = "t2v"
	original.Target = models.TargetCloud

	require.NoError(t, repo.Create(t.Context(), original))

	fetched, err := repo.GetByID(t.Context(), "fetch-job")
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, "fetch-job", fetched.ID)
	assert.Equal(t, "image", fetched.TaskType)
	assert.Equal(t, "z-image-turbo", fetched.ModelID)
	assert.Equal(t, "t2v", fetched.TemplateID)
	assert.Equal(t, models.TargetCloud, fetched.Target)
	assert.Equal(t, models.JobStatusQueued, fetched.Status)
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	record, err := repo.GetByID(t.Context(), "non-existent")
	require.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, persistence.IsJobNotFound(err))
}

func TestJobRepository_UpdateStatus(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))

	err := repo.UpdateStatus(t.Context(), "job-1", models.JobStatusRunning, "")
	require.NoError(t, err)

	record, err := repo.GetByID(t.Context(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, record.Status)
	assert.Nil(t, record.CompletedAt)

	err = repo.UpdateStatus(t.Context(), "job-1", models.JobStatusFailed, "engine exploded")
	require.NoError(t, err)

	record, err = repo.GetByID(t.Context(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, record.Status)
	assert.Equal(t, "engine exploded", record.ErrorMessage)
	require.NotNil(t, record.CompletedAt)
	assert.False(t, record.CompletedAt.IsZero())
}

func TestJobRepository_UpdateStatus_Invalid(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))

	err := repo.UpdateStatus(t.Context(), "job-1", models.JobStatus("exploded"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidJobStatus)
}

func TestJobRepository_UpdateStatus_NotFound(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	err := repo.UpdateStatus(t.Context(), "non-existent", models.JobStatusRunning, "")
	require.Error(t, err)
	assert.True(t, persistence.IsJobNotFound(err))
}

func TestJobRepository_SetPlan(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))
	require.NoError(t, repo.SetPlan(t.Context(), "job-1", "t2i", models.TargetHybrid))

	record, err := repo.GetByID(t.Context(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "t2i", record.TemplateID)
	assert.Equal(t, models.TargetHybrid, record.Target)
}

func TestJobRepository_SetTicket(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))
	require.NoError(t, repo.SetTicket(t.Context(), "job-1", "req-42"))

	record, err := repo.GetByID(t.Context(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "req-42", record.TicketID)
}

func TestJobRepository_SetOutputs(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	require.NoError(t, repo.Create(t.Context(), testRecord("job-1")))

	outputs := []models.Artifact{
		{Name: "out_00001.png", URL: "http://127.0.0.1:8188/view?filename=out_00001.png", Kind: models.ArtifactImage, NodeID: "6"},
	}
	require.NoError(t, repo.SetOutputs(t.Context(), "job-1", outputs))

	record, err := repo.GetByID(t.Context(), "job-1")
	require.NoError(t, err)
	require.Len(t, record.Outputs, 1)
	assert.Equal(t, "out_00001.png", record.Outputs[0].Name)
	assert.Equal(t, models.ArtifactImage, record.Outputs[0].Kind)
}

func TestJobRepository_List(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"job-1", "job-2", "job-3"} {
		record := testRecord(id)
		record.CreatedAt = base.Add(time.Duration(i) * time.Hour)

		require.NoError(t, repo.Create(t.Context(), record))
	}

	require.NoError(t, repo.UpdateStatus(t.Context(), "job-2", models.JobStatusCompleted, ""))

	// Newest first
	records, err := repo.List(t.Context(), persistence.ListJobsOptions{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "job-3", records[0].ID)
	assert.Equal(t, "job-1", records[2].ID)

	// Status filter
	records, err = repo.List(t.Context(), persistence.ListJobsOptions{Status: models.JobStatusCompleted})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "job-2", records[0].ID)

	// Paging
	records, err = repo.List(t.Context(), persistence.ListJobsOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "job-2", records[0].ID)

	// Offset past the end
	records, err = repo.List(t.Context(), persistence.ListJobsOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJobRepository_List_NoDirectory(t *testing.T) {
	repo := NewJobRepository(t.TempDir())

	// fs.Glob on a non-existent directory returns empty slice with no error
	records, err := repo.List(t.Context(), persistence.ListJobsOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJobRepository_DeleteOlderThan(t *testing.T) {
	testDir := t.TempDir()
	repo := NewJobRepository(testDir)

	require.NoError(t, repo.Create(t.Context(), testRecord("done")))
	require.NoError(t, repo.UpdateStatus(t.Context(), "done", models.JobStatusCompleted, ""))

	require.NoError(t, repo.Create(t.Context(), testRecord("active")))
	require.NoError(t, repo.UpdateStatus(t.Context(), "active", models.JobStatusRunning, ""))

	// A cutoff in the past removes nothing
	removed, err := repo.DeleteOlderThan(t.Context(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A cutoff in the future removes terminal records only
	removed, err = repo.DeleteOlderThan(t.Context(), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	assert.NoFileExists(t, filepath.Join(testDir, "jobs", "done.json"))
	assert.FileExists(t, filepath.Join(testDir, "jobs", "active.json"))

	_, err = repo.GetByID(t.Context(), "done")
	assert.True(t, persistence.IsJobNotFound(err))
}
