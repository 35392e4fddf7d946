package screeninginfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresJobRepository struct {
	db *sqlx.DB
}

func NewPostgresJobRepository(db *sqlx.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// EnsureSchema creates the screening_jobs table if it does not exist.
func (r *PostgresJobRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS screening_jobs (
			id TEXT PRIMARY KEY,
			screening_id TEXT,
			status TEXT NOT NULL,
			attempt_count INT NOT NULL DEFAULT 0,
			max_attempts INT NOT NULL DEFAULT 3,
			error_message TEXT NOT NULL DEFAULT '',
			error_details JSONB,
			current_step TEXT,
			progress_percentage INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			failed_at TIMESTAMPTZ,
			next_retry_at TIMESTAMPTZ,
			request_payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_screening_jobs_status ON screening_jobs (status);
		CREATE INDEX IF NOT EXISTS idx_screening_jobs_retry ON screening_jobs (next_retry_at) WHERE next_retry_at IS NOT NULL;
	`)
	return err
}

const jobColumns = `
	id, screening_id, status, attempt_count, max_attempts,
	error_message, error_details, current_step, progress_percentage,
	created_at, started_at, completed_at, failed_at, next_retry_at,
	request_payload`

// jobRow is the database model with proper JSON handling
type jobRow struct {
	ID          string  `db:"id"`
	ScreeningID *string `db:"screening_id"`
	Status      string  `db:"status"`

	AttemptCount int `db:"attempt_count"`
	MaxAttempts  int `db:"max_attempts"`

	ErrorMessage string         `db:"error_message"`
	ErrorDetails sql.NullString `db:"error_details"`

	CurrentStep        *string `db:"current_step"`
	ProgressPercentage int     `db:"progress_percentage"`

	CreatedAt   time.Time  `db:"created_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	NextRetryAt *time.Time `db:"next_retry_at"`

	RequestPayload string `db:"request_payload"`
}

// Create creates a new job record
func (r *PostgresJobRepository) Create(ctx context.Context, job *screening.ScreeningJob) error {
	row, err := toJobRow(job)
	if err != nil {
		return fmt.Errorf("convert job %s: %w", job.ID, err)
	}

	query := `
		INSERT INTO screening_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.ScreeningID, row.Status, row.AttemptCount, row.MaxAttempts,
		row.ErrorMessage, row.ErrorDetails, row.CurrentStep, row.ProgressPercentage,
		row.CreatedAt, row.StartedAt, row.CompletedAt, row.FailedAt, row.NextRetryAt,
		row.RequestPayload,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("job already exists: %w", err)
		}
		return fmt.Errorf("create job: %w", err)
	}

	logx.Infof("Created job: %s", job.ID)
	return nil
}

// Update updates an existing job
func (r *PostgresJobRepository) Update(ctx context.Context, job *screening.ScreeningJob) error {
	row, err := toJobRow(job)
	if err != nil {
		return fmt.Errorf("convert job %s: %w", job.ID, err)
	}

	query := `
		UPDATE screening_jobs SET
			screening_id = $2,
			status = $3,
			attempt_count = $4,
			error_message = $5,
			error_details = $6,
			current_step = $7,
			progress_percentage = $8,
			started_at = $9,
			completed_at = $10,
			failed_at = $11,
			next_retry_at = $12,
			request_payload = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		row.ID, row.ScreeningID, row.Status, row.AttemptCount,
		row.ErrorMessage, row.ErrorDetails, row.CurrentStep, row.ProgressPercentage,
		row.StartedAt, row.CompletedAt, row.FailedAt, row.NextRetryAt,
		row.RequestPayload,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	return requireRow(result, job.ID)
}

// GetByID retrieves a job by ID
func (r *PostgresJobRepository) GetByID(ctx context.Context, jobID kernel.JobID) (*screening.ScreeningJob, error) {
	var row jobRow
	err := r.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM screening_jobs WHERE id = $1`, jobID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	return toDomainJob(&row)
}

// List retrieves jobs newest first with pagination
func (r *PostgresJobRepository) List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.ScreeningJob], error) {
	pagination = pagination.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM screening_jobs`); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM screening_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, pagination.PageSize, pagination.Offset()); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]screening.ScreeningJob, 0, len(rows))
	for i := range rows {
		job, err := toDomainJob(&rows[i])
		if err != nil {
			logx.Errorf("Failed to convert job %s: %v", rows[i].ID, err)
			continue
		}
		jobs = append(jobs, *job)
	}

	result := kernel.NewPaginated(jobs, pagination.Page, pagination.PageSize, total)
	return &result, nil
}

// GetFailedJobsForRetry retrieves failed jobs whose retry time has passed
func (r *PostgresJobRepository) GetFailedJobsForRetry(ctx context.Context, limit int) ([]*screening.ScreeningJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM screening_jobs
		WHERE status = $1
			AND next_retry_at IS NOT NULL
			AND next_retry_at <= $2
			AND attempt_count < max_attempts
		ORDER BY next_retry_at ASC
		LIMIT $3
	`

	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, string(screening.JobStatusFailed), time.Now(), limit); err != nil {
		return nil, fmt.Errorf("get failed jobs: %w", err)
	}

	jobs := make([]*screening.ScreeningJob, 0, len(rows))
	for i := range rows {
		job, err := toDomainJob(&rows[i])
		if err != nil {
			logx.Errorf("Failed to convert job %s: %v", rows[i].ID, err)
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// MarkAsProcessing marks a pending job as processing
func (r *PostgresJobRepository) MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE screening_jobs
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4
	`,
		jobID.String(),
		string(screening.JobStatusProcessing),
		time.Now(),
		string(screening.JobStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark as processing: %w", err)
	}

	return requireRow(result, jobID)
}

// MarkAsCompleted marks a job as completed
func (r *PostgresJobRepository) MarkAsCompleted(ctx context.Context, jobID kernel.JobID, screeningID kernel.ScreeningID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE screening_jobs
		SET
			status = $2,
			screening_id = $3,
			completed_at = $4,
			progress_percentage = 100,
			error_message = '',
			error_details = NULL,
			next_retry_at = NULL
		WHERE id = $1
	`,
		jobID.String(),
		string(screening.JobStatusCompleted),
		screeningID.String(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("mark as completed: %w", err)
	}

	logx.Infof("Marked job as completed: %s, ScreeningID: %s", jobID, screeningID)
	return requireRow(result, jobID)
}

// MarkAsFailed marks a job as failed
func (r *PostgresJobRepository) MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE screening_jobs
		SET
			status = $2,
			failed_at = $3,
			error_message = $4,
			error_details = $5
		WHERE id = $1
	`,
		jobID.String(),
		string(screening.JobStatusFailed),
		time.Now(),
		errorMsg,
		marshalDetails(errorDetails),
	)
	if err != nil {
		return fmt.Errorf("mark as failed: %w", err)
	}

	logx.Warnf("Marked job as failed: %s, Error: %s", jobID, errorMsg)
	return requireRow(result, jobID)
}

// UpdateProgress updates the current step and progress of a job
func (r *PostgresJobRepository) UpdateProgress(ctx context.Context, jobID kernel.JobID, step screening.ProcessingStep, percentage int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE screening_jobs
		SET current_step = $2, progress_percentage = $3
		WHERE id = $1
	`,
		jobID.String(),
		string(step),
		percentage,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	return requireRow(result, jobID)
}

// ============================================================================
// Helpers
// ============================================================================

func requireRow(result sql.Result, jobID kernel.JobID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}

func marshalDetails(details map[string]any) sql.NullString {
	if len(details) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		logx.Warnf("Failed to marshal error details: %v", err)
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func toJobRow(job *screening.ScreeningJob) (*jobRow, error) {
	payload, err := json.Marshal(job.RequestPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}

	var currentStep *string
	if job.CurrentStep != nil {
		step := string(*job.CurrentStep)
		currentStep = &step
	}

	var screeningID *string
	if job.ScreeningID != nil {
		id := job.ScreeningID.String()
		screeningID = &id
	}

	return &jobRow{
		ID:                 job.ID.String(),
		ScreeningID:        screeningID,
		Status:             string(job.Status),
		AttemptCount:       job.AttemptCount,
		MaxAttempts:        job.MaxAttempts,
		ErrorMessage:       job.ErrorMessage,
		ErrorDetails:       marshalDetails(job.ErrorDetails),
		CurrentStep:        currentStep,
		ProgressPercentage: job.ProgressPercentage,
		CreatedAt:          job.CreatedAt,
		StartedAt:          job.StartedAt,
		CompletedAt:        job.CompletedAt,
		FailedAt:           job.FailedAt,
		NextRetryAt:        job.NextRetryAt,
		RequestPayload:     string(payload),
	}, nil
}

func toDomainJob(row *jobRow) (*screening.ScreeningJob, error) {
	var payload screening.RunScreeningRequest
	if err := json.Unmarshal([]byte(row.RequestPayload), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal request payload: %w", err)
	}

	var errorDetails map[string]any
	if row.ErrorDetails.Valid && row.ErrorDetails.String != "" {
		if err := json.Unmarshal([]byte(row.ErrorDetails.String), &errorDetails); err != nil {
			logx.Warnf("Failed to unmarshal error details for job %s: %v", row.ID, err)
			errorDetails = nil
		}
	}

	var currentStep *screening.ProcessingStep
	if row.CurrentStep != nil {
		step := screening.ProcessingStep(*row.CurrentStep)
		currentStep = &step
	}

	var screeningID *kernel.ScreeningID
	if row.ScreeningID != nil {
		id := kernel.NewScreeningID(*row.ScreeningID)
		screeningID = &id
	}

	return &screening.ScreeningJob{
		ID:                 kernel.NewJobID(row.ID),
		ScreeningID:        screeningID,
		Status:             screening.JobStatus(row.Status),
		AttemptCount:       row.AttemptCount,
		MaxAttempts:        row.MaxAttempts,
		ErrorMessage:       row.ErrorMessage,
		ErrorDetails:       errorDetails,
		CurrentStep:        currentStep,
		ProgressPercentage: row.ProgressPercentage,
		CreatedAt:          row.CreatedAt,
		StartedAt:          row.StartedAt,
		CompletedAt:        row.CompletedAt,
		FailedAt:           row.FailedAt,
		NextRetryAt:        row.NextRetryAt,
		RequestPayload:     payload,
	}, nil
}
