package screening

import (
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
)

// ============================================================================
// Request DTOs
// ============================================================================

// RunScreeningRequest - Screen one resume against one job description
type RunScreeningRequest struct {
	CandidateName string `json:"candidate_name,omitempty"` // Extracted from resume when empty
	ResumeText    string `json:"resume_text" validate:"required"`
	JDText        string `json:"jd_text" validate:"required"`
}

// UploadScreeningRequest - Screen an uploaded resume file against a JD
type UploadScreeningRequest struct {
	CandidateName string `json:"candidate_name,omitempty"`
	FilePath      string `json:"file_path" validate:"required"`
	FileName      string `json:"file_name" validate:"required"`
	JDText        string `json:"jd_text" validate:"required"`
}

// ListScreeningsRequest - List past screenings
type ListScreeningsRequest struct {
	CandidateName string                   `json:"candidate_name,omitempty"`
	Pagination    kernel.PaginationOptions `json:"pagination"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// ScreeningResponse - Full result of one screening run
type ScreeningResponse struct {
	ID            kernel.ScreeningID `json:"id"`
	CandidateName string             `json:"candidate_name"`

	Requirements      StructuredRequirements `json:"requirements"`
	CategoryScores    map[Category]float64   `json:"category_scores"`
	ConsolidatedScore float64                `json:"consolidated_score"`
	Recommendation    Recommendation         `json:"recommendation"`
	SummaryText       string                 `json:"summary_text"`

	Incomplete   bool     `json:"incomplete"`
	Degradations []string `json:"degradations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ScreeningSummaryResponse - Lightweight list entry
type ScreeningSummaryResponse struct {
	ID                kernel.ScreeningID `json:"id"`
	CandidateName     string             `json:"candidate_name"`
	ConsolidatedScore float64            `json:"consolidated_score"`
	Recommendation    Recommendation     `json:"recommendation"`
	Incomplete        bool               `json:"incomplete"`
	CreatedAt         time.Time          `json:"created_at"`
}

// EnqueueScreeningResponse - Acknowledgement for async runs
type EnqueueScreeningResponse struct {
	JobID   kernel.JobID `json:"job_id"`
	Status  JobStatus    `json:"status"`
	Message string       `json:"message"`
}

// ============================================================================
// Mapper Functions
// ============================================================================

// ToScreeningResponse converts a Screening record to its response DTO
func ToScreeningResponse(s *Screening) *ScreeningResponse {
	return &ScreeningResponse{
		ID:                s.ID,
		CandidateName:     s.CandidateName,
		Requirements:      s.Requirements,
		CategoryScores:    s.CategoryScores,
		ConsolidatedScore: s.ConsolidatedScore,
		Recommendation:    s.Recommendation,
		SummaryText:       s.SummaryText,
		Incomplete:        s.Incomplete,
		Degradations:      s.Degradations,
		CreatedAt:         s.CreatedAt,
	}
}

// ToScreeningSummaryResponse converts a Screening to its list entry
func ToScreeningSummaryResponse(s *Screening) ScreeningSummaryResponse {
	return ScreeningSummaryResponse{
		ID:                s.ID,
		CandidateName:     s.CandidateName,
		ConsolidatedScore: s.ConsolidatedScore,
		Recommendation:    s.Recommendation,
		Incomplete:        s.Incomplete,
		CreatedAt:         s.CreatedAt,
	}
}

// ToJobStatusResponse converts a ScreeningJob to its status response
func ToJobStatusResponse(j *ScreeningJob) *JobStatusResponse {
	resp := &JobStatusResponse{
		JobID:        j.ID,
		Status:       j.Status,
		Progress:     j.ProgressPercentage,
		CurrentStep:  j.CurrentStep,
		ScreeningID:  j.ScreeningID,
		AttemptCount: j.AttemptCount,
		NextRetryAt:  j.NextRetryAt,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		FailedAt:     j.FailedAt,
	}

	switch j.Status {
	case JobStatusPending:
		resp.Message = "Screening is queued for processing"
	case JobStatusProcessing:
		resp.Message = "Screening is being processed"
	case JobStatusCompleted:
		resp.Message = "Screening completed successfully"
	case JobStatusFailed:
		resp.Message = "Screening failed"
		resp.Error = &JobError{
			Message: j.ErrorMessage,
			Details: j.ErrorDetails,
		}
	}

	return resp
}
