package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/lib/pq"
)

// JobRepository handles job-related database operations.
type JobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sql.DB, logger *slog.Logger) *JobRepository {
	return &JobRepository{db: db, logger: logger}
}

const jobColumns = `
		id
	  , task_type
	  , model_id
	  , template_id
	  , target
	  , status
	  , ticket_id
	  , outputs
	  , error_message
	  , created_at
	  , updated_at
	  , completed_at
`

// Create inserts a new job record. It fails when a record with the same ID
// already exists.
func (r *JobRepository) Create(ctx context.Context, record *models.JobRecord) error {
	now := time.Now().UTC()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	record.UpdatedAt = now

	outputsJSON, err := json.Marshal(record.Outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := `
		INSERT INTO jobs (id, task_type, model_id, template_id, target,
	status, ticket_id, outputs, error_message, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.TaskType,
		record.ModelID,
		nullString(record.TemplateID),
		nullString(string(record.Target)),
		record.Status,
		nullString(record.TicketID),
		outputsJSON,
		nullString(record.ErrorMessage),
		record.CreatedAt,
		record.UpdatedAt,
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewJobError("Create", record.ID, persistence.ErrJobAlreadyExists)
	}

	return nil
}

// GetByID returns a job record by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.JobRecord, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	record, err := r.scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewJobError("GetByID", id, persistence.ErrJobNotFound)
		}

		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	return record, nil
}

// List returns job records filtered and paged per opts, newest first.
func (r *JobRepository) List(ctx context.Context, opts persistence.ListJobsOptions) ([]*models.JobRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, string(opts.Status), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.JobRecord, 0)

	for rows.Next() {
		record, err := r.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return records, nil
}

// UpdateStatus transitions a job record and stores the failure message, if
// any. Terminal statuses also stamp the completion time.
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	if !status.Valid() {
		return persistence.NewJobError("UpdateStatus", id, persistence.ErrInvalidJobStatus)
	}

	query := `
		UPDATE jobs
		SET status = $2,
			error_message = $3,
			updated_at = $4,
			completed_at = CASE WHEN $5 THEN $4 ELSE completed_at END
		WHERE id = $1
	`

	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query, id, status, nullString(errorMessage), now, status.IsTerminal())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return r.requireRow(result, "UpdateStatus", id)
}

// SetPlan records the routing decision on a job record.
func (r *JobRepository) SetPlan(ctx context.Context, id, templateID string, target models.ExecutionTarget) error {
	query := `UPDATE jobs SET template_id = $2, target = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, nullString(templateID), nullString(string(target)), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set job plan: %w", err)
	}

	return r.requireRow(result, "SetPlan", id)
}

// SetTicket records the cloud queue ticket on a job record.
func (r *JobRepository) SetTicket(ctx context.Context, id, ticketID string) error {
	query := `UPDATE jobs SET ticket_id = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, ticketID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set job ticket: %w", err)
	}

	return r.requireRow(result, "SetTicket", id)
}

// SetOutputs stores the artifacts of a completed job record.
func (r *JobRepository) SetOutputs(ctx context.Context, id string, outputs []models.Artifact) error {
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := `UPDATE jobs SET outputs = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, outputsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set job outputs: %w", err)
	}

	return r.requireRow(result, "SetOutputs", id)
}

// DeleteOlderThan removes terminal job records whose last update is before
// the cutoff and reports how many records were removed.
func (r *JobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM jobs WHERE status = ANY($1) AND updated_at < $2`

	statuses := models.TerminalStatuses()
	terminal := make([]string, len(statuses))

	for i, status := range statuses {
		terminal[i] = string(status)
	}

	result, err := r.db.ExecContext(ctx, query, pq.Array(terminal), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}

// requireRow converts a zero-row update into a job-not-found error.
func (r *JobRepository) requireRow(result sql.Result, op, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewJobError(op, id, persistence.ErrJobNotFound)
	}

	return nil
}

func (r *JobRepository) scanJob(row interface{ Scan(...any) error }) (*models.JobRecord, error) {
	var (
		record       models.JobRecord
		templateID   sql.NullString
		target       sql.NullString
		ticketID     sql.NullString
		errorMessage sql.NullString
		outputsJSON  []byte
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&record.ID,
		&record.TaskType,
		&record.ModelID,
		&templateID,
		&target,
		&record.Status,
		&ticketID,
		&outputsJSON,
		&errorMessage,
		&record.CreatedAt,
		&record.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.TemplateID = templateID.String
	record.Target = models.ExecutionTarget(target.String)
	record.TicketID = ticketID.String
	record.ErrorMessage = errorMessage.String

	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}

	if outputsJSON != nil {
		err := json.Unmarshal(outputsJSON, &record.Outputs)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
		}
	}

	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
