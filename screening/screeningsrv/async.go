package screeningsrv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
	"github.com/google/uuid"
)

// RunScreeningAsync queues a screening for background processing.
func (s *Service) RunScreeningAsync(ctx context.Context, req screening.RunScreeningRequest) (*screening.EnqueueScreeningResponse, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, screening.ErrInvalidInput().WithDetail("field", "resume_text")
	}
	if strings.TrimSpace(req.JDText) == "" {
		return nil, screening.ErrInvalidInput().WithDetail("field", "jd_text")
	}

	jobID := kernel.NewJobID(uuid.NewString())
	job := &screening.ScreeningJob{
		ID:                 jobID,
		Status:             screening.JobStatusPending,
		AttemptCount:       0,
		MaxAttempts:        3,
		ProgressPercentage: 0,
		CreatedAt:          time.Now(),
		RequestPayload:     req,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, screening.ErrJobCreationFailed().
			WithDetail("candidate_name", req.CandidateName).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		// Mark job as failed if we can't queue it
		_ = s.jobRepo.MarkAsFailed(ctx, jobID, "failed to enqueue", map[string]any{
			"error": err.Error(),
		})

		return nil, screening.ErrQueueEnqueueFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Screening job queued: JobID=%s, Candidate=%s", jobID, req.CandidateName)

	return &screening.EnqueueScreeningResponse{
		JobID:   jobID,
		Status:  screening.JobStatusPending,
		Message: "Screening queued for processing",
	}, nil
}

// ProcessScreeningJob - Worker function to process a job
func (s *Service) ProcessScreeningJob(ctx context.Context, job *screening.ScreeningJob) error {
	logx.Infof("Processing job: JobID=%s, Attempt=%d/%d", job.ID, job.AttemptCount+1, job.MaxAttempts)

	if err := s.jobRepo.MarkAsProcessing(ctx, job.ID); err != nil {
		return screening.ErrJobUpdateFailed().
			WithDetail("job_id", job.ID).
			WithDetail("status", "processing").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepChunking, 25)

	result, err := s.RunScreening(ctx, job.RequestPayload)
	if err != nil {
		return s.handleJobError(ctx, job, "screening_failed", err)
	}

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepSaving, 90)

	if err := s.jobRepo.MarkAsCompleted(ctx, job.ID, result.ID); err != nil {
		logx.Errorf("Failed to mark job as completed: %v", err)
		// The screening itself was saved; don't fail the job over bookkeeping
	}

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepSaving, 100)

	logx.Infof("Job completed: JobID=%s, ScreeningID=%s, Recommendation=%s", job.ID, result.ID, result.Recommendation)
	return nil
}

// handleJobError handles job processing errors with retry logic
func (s *Service) handleJobError(ctx context.Context, job *screening.ScreeningJob, errorType string, err error) error {
	job.AttemptCount++

	errorDetails := map[string]any{
		"error":          err.Error(),
		"error_type":     errorType,
		"attempt":        job.AttemptCount,
		"max_attempts":   job.MaxAttempts,
		"candidate_name": job.RequestPayload.CandidateName,
	}

	if job.CanRetry() {
		// Exponential backoff: 2^attempt minutes
		retryDelay := time.Duration(1<<uint(job.AttemptCount)) * time.Minute
		nextRetry := time.Now().Add(retryDelay)
		job.NextRetryAt = &nextRetry

		logx.Warnf("Job failed, will retry: JobID=%s, Attempt=%d/%d, NextRetry=%v, Error=%s",
			job.ID, job.AttemptCount, job.MaxAttempts, nextRetry, errorType)

		if queueErr := s.queue.EnqueueDelayed(ctx, job.ID, job, retryDelay); queueErr != nil {
			logx.Errorf("Failed to enqueue for retry: %v", queueErr)

			_ = s.jobRepo.MarkAsFailed(ctx, job.ID,
				fmt.Sprintf("%s (retry enqueue failed)", errorType),
				errorDetails)

			return screening.ErrJobRetryFailed().
				WithDetail("job_id", job.ID).
				WithDetail("error_type", errorType).
				WithDetails(errorDetails)
		}

		job.ErrorMessage = fmt.Sprintf("%s (will retry)", errorType)
		job.ErrorDetails = errorDetails
		job.Status = screening.JobStatusPending // Reset to pending for retry

		if updateErr := s.jobRepo.Update(ctx, job); updateErr != nil {
			logx.Errorf("Failed to update job for retry: %v", updateErr)
		}

		return screening.ErrJobFailed().
			WithDetail("job_id", job.ID).
			WithDetail("error_type", errorType).
			WithDetail("will_retry", true).
			WithDetail("next_retry_at", nextRetry).
			WithDetails(errorDetails)
	}

	logx.Errorf("Job permanently failed: JobID=%s, Error=%s, Attempts=%d/%d",
		job.ID, errorType, job.AttemptCount, job.MaxAttempts)

	_ = s.jobRepo.MarkAsFailed(ctx, job.ID, errorType, errorDetails)

	return screening.ErrJobMaxRetriesReached().
		WithDetail("job_id", job.ID).
		WithDetail("error_type", errorType).
		WithDetail("final_attempt", job.AttemptCount).
		WithDetails(errorDetails)
}

// RecoverFailedJobs re-enqueues failed jobs whose retry window has
// passed and that still have attempts left. The delayed queue carries
// normal retries; this sweep catches jobs stranded when the retry
// enqueue itself failed.
func (s *Service) RecoverFailedJobs(ctx context.Context, limit int) (int, error) {
	jobs, err := s.jobRepo.GetFailedJobsForRetry(ctx, limit)
	if err != nil {
		return 0, screening.ErrJobRetryFailed().
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	recovered := 0
	for _, job := range jobs {
		job.Status = screening.JobStatusPending
		if err := s.queue.Enqueue(ctx, job.ID, job); err != nil {
			logx.Warnf("Failed to re-enqueue stranded job: JobID=%s, Error=%v", job.ID, err)
			continue
		}
		if err := s.jobRepo.Update(ctx, job); err != nil {
			logx.Errorf("Failed to update recovered job: JobID=%s, Error=%v", job.ID, err)
		}
		recovered++
	}

	if recovered > 0 {
		logx.Infof("Recovered %d stranded jobs", recovered)
	}
	return recovered, nil
}

// GetJobStatus retrieves the current status of a job
func (s *Service) GetJobStatus(ctx context.Context, jobID kernel.JobID) (*screening.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, screening.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	response := screening.ToJobStatusResponse(job)
	if job.Status == screening.JobStatusPending && job.AttemptCount > 0 {
		response.Message = fmt.Sprintf("Job pending retry (attempt %d/%d)", job.AttemptCount, job.MaxAttempts)
	}
	return response, nil
}

// ListJobs retrieves screening jobs with pagination
func (s *Service) ListJobs(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.ScreeningJob], error) {
	jobs, err := s.jobRepo.List(ctx, pagination.Normalize())
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeJobNotFound, err)
	}
	return jobs, nil
}
