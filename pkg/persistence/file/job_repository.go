package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
)

// JobRepository stores one JSON document per job record under <root>/jobs.
type JobRepository struct {
	root string
}

// NewJobRepository creates a new job repository.
func NewJobRepository(root string) *JobRepository {
	return &JobRepository{root: root}
}

func (jr *JobRepository) jobPath(id string) string {
	return filepath.Clean(path.Join(jr.root, "jobs", id+".json"))
}

// Create stores a new job record. It fails when a record with the same ID
// already exists.
func (jr *JobRepository) Create(_ context.Context, record *models.JobRecord) error {
	err := os.MkdirAll(path.Join(jr.root, "jobs"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create jobs directory: %w", err)
	}

	if _, err := os.Stat(jr.jobPath(record.ID)); err == nil {
		return persistence.NewJobError("Create", record.ID, persistence.ErrJobAlreadyExists)
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	record.UpdatedAt = now

	if err := jr.write(record); err != nil {
		return persistence.NewJobError("Create", record.ID, err)
	}

	return nil
}

// GetByID retrieves a job record by its ID from the file system.
func (jr *JobRepository) GetByID(_ context.Context, id string) (*models.JobRecord, error) {
	record, err := jr.read(id)
	if err != nil {
		return nil, persistence.NewJobError("GetByID", id, err)
	}

	return record, nil
}

// List returns job records filtered and paged per opts, newest first.
func (jr *JobRepository) List(_ context.Context, opts persistence.ListJobsOptions) ([]*models.JobRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}

	records, err := jr.loadAll()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.JobRecord, 0, len(records))

	for _, record := range records {
		if opts.Status != "" && record.Status != opts.Status {
			continue
		}

		filtered = append(filtered, record)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[j].CreatedAt.Before(filtered[i].CreatedAt)
	})

	if opts.Offset >= len(filtered) {
		return make([]*models.JobRecord, 0), nil
	}

	end := opts.Offset + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[opts.Offset:end], nil
}

// UpdateStatus transitions a job record and stores the failure message, if
// any. Terminal statuses also stamp the completion time.
func (jr *JobRepository) UpdateStatus(_ context.Context, id string, status models.JobStatus, errorMessage string) error {
	if !status.Valid() {
		return persistence.NewJobError("UpdateStatus", id, persistence.ErrInvalidJobStatus)
	}

	record, err := jr.read(id)
	if err != nil {
		return persistence.NewJobError("UpdateStatus", id, err)
	}

	now := time.Now().UTC()

	record.Status = status
	record.ErrorMessage = errorMessage
	record.UpdatedAt = now

	if status.IsTerminal() {
		record.CompletedAt = &now
	}

	if err := jr.write(record); err != nil {
		return persistence.NewJobError("UpdateStatus", id, err)
	}

	return nil
}

// SetPlan records the routing decision on a job record.
func (jr *JobRepository) SetPlan(_ context.Context, id, templateID string, target models.ExecutionTarget) error {
	record, err := jr.read(id)
	if err != nil {
		return persistence.NewJobError("SetPlan", id, err)
	}

	record.TemplateID = templateID
	record.Target = target
	record.UpdatedAt = time.Now().UTC()

	if err := jr.write(record); err != nil {
		return persistence.NewJobError("SetPlan", id, err)
	}

	return nil
}

// SetTicket records the cloud queue ticket on a job record.
func (jr *JobRepository) SetTicket(_ context.Context, id, ticketID string) error {
	record, err := jr.read(id)
	if err != nil {
		return persistence.NewJobError("SetTicket", id, err)
	}

	record.TicketID = ticketID
	record.UpdatedAt = time.Now().UTC()

	if err := jr.write(record); err != nil {
		return persistence.NewJobError("SetTicket", id, err)
	}

	return nil
}

// SetOutputs stores the artifacts of a completed job record.
func (jr *JobRepository) SetOutputs(_ context.Context, id string, outputs []models.Artifact) error {
	record, err := jr.read(id)
	if err != nil {
		return persistence.NewJobError("SetOutputs", id, err)
	}

	record.Outputs = outputs
	record.UpdatedAt = time.Now().UTC()

	if err := jr.write(record); err != nil {
		return persistence.NewJobError("SetOutputs", id, err)
	}

	return nil
}

// DeleteOlderThan removes terminal job records whose last update is before
// the cutoff and reports how many records were removed.
func (jr *JobRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	records, err := jr.loadAll()
	if err != nil {
		return 0, err
	}

	var removed int64

	for _, record := range records {
		if !record.Status.IsTerminal() || !record.UpdatedAt.Before(cutoff) {
			continue
		}

		err := os.Remove(jr.jobPath(record.ID))
		if err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to delete job %s: %w", record.ID, err)
		}

		removed++
	}

	return removed, nil
}

// loadAll reads every job record under the jobs directory. Records removed
// between listing and reading are skipped.
func (jr *JobRepository) loadAll() ([]*models.JobRecord, error) {
	root := os.DirFS(path.Join(jr.root, "jobs"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list job files: %w", err)
	}

	records := make([]*models.JobRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		jobID := file[:len(file)-5] // Remove .json extension

		record, err := jr.read(jobID)
		if err != nil {
			if persistence.IsJobNotFound(err) {
				continue
			}

			return nil, persistence.NewJobError("List", jobID, err)
		}

		records = append(records, record)
	}

	return records, nil
}

func (jr *JobRepository) read(id string) (*models.JobRecord, error) {
	body, err := os.ReadFile(jr.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrJobNotFound
		}

		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var record models.JobRecord

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}

	return &record, nil
}

func (jr *JobRepository) write(record *models.JobRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	return os.WriteFile(jr.jobPath(record.ID), data, 0600)
}
