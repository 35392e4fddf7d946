package screeningsrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/screener/internal/pdf"
	"github.com/Abraxas-365/screener/pkg/fsx"
	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
)

type Service struct {
	workflow   *Workflow
	summarizer *Summarizer
	repo       screening.Repository
	jobRepo    screening.JobRepository
	queue      screening.JobQueue
	index      screening.VectorIndex
	fileReader fsx.FileReader
}

// NewService creates the screening service.
func NewService(
	workflow *Workflow,
	summarizer *Summarizer,
	repo screening.Repository,
	jobRepo screening.JobRepository,
	queue screening.JobQueue,
	index screening.VectorIndex,
	fileReader fsx.FileReader,
) *Service {
	return &Service{
		workflow:   workflow,
		summarizer: summarizer,
		repo:       repo,
		jobRepo:    jobRepo,
		queue:      queue,
		index:      index,
		fileReader: fileReader,
	}
}

// ============================================================================
// Run Screening
// ============================================================================

// RunScreening screens one resume against one job description and
// persists the result.
func (s *Service) RunScreening(ctx context.Context, req screening.RunScreeningRequest) (*screening.ScreeningResponse, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, screening.ErrInvalidInput().WithDetail("field", "resume_text")
	}
	if strings.TrimSpace(req.JDText) == "" {
		return nil, screening.ErrInvalidInput().WithDetail("field", "jd_text")
	}

	candidateName := strings.TrimSpace(req.CandidateName)
	if candidateName == "" {
		candidateName = s.summarizer.ExtractCandidateName(ctx, req.ResumeText)
	}

	state := screening.NewState(candidateName, req.ResumeText, req.JDText)

	state, err := s.workflow.Run(ctx, state)
	if err != nil {
		return nil, err
	}

	// Run-scoped vectors are only needed during the run itself, and a
	// partial result from a cancelled run must still land in storage.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.index.DeleteNamespace(persistCtx, state.Namespace()); err != nil {
		logx.Warnf("Failed to clean up vector namespace %s: %v", state.Namespace(), err)
	}

	record := screening.FromState(state)
	if err := s.repo.Create(persistCtx, record); err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeScreeningNotFound, err).
			WithDetail("screening_id", record.ID)
	}

	return screening.ToScreeningResponse(record), nil
}

// RunScreeningFromFile reads an uploaded PDF from storage, extracts its
// text, and screens it.
func (s *Service) RunScreeningFromFile(ctx context.Context, req screening.UploadScreeningRequest) (*screening.ScreeningResponse, error) {
	if !strings.HasSuffix(strings.ToLower(req.FileName), ".pdf") {
		return nil, screening.ErrInvalidFileFormat().
			WithDetail("file_name", req.FileName).
			WithDetail("supported_formats", []string{"pdf"})
	}

	fileData, err := s.fileReader.ReadFile(ctx, req.FilePath)
	if err != nil {
		return nil, screening.ErrFileReadFailed().
			WithDetail("file_path", req.FilePath).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	resumeText, err := pdf.ExtractText(fileData)
	if err != nil {
		return nil, screening.ErrPDFExtractFailed(err).
			WithDetail("file_name", req.FileName)
	}

	return s.RunScreening(ctx, screening.RunScreeningRequest{
		CandidateName: req.CandidateName,
		ResumeText:    resumeText,
		JDText:        req.JDText,
	})
}

// ============================================================================
// Queries
// ============================================================================

// GetScreening retrieves a screening by ID.
func (s *Service) GetScreening(ctx context.Context, id kernel.ScreeningID) (*screening.ScreeningResponse, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, screening.ErrScreeningNotFound().
			WithDetail("screening_id", id)
	}
	return screening.ToScreeningResponse(record), nil
}

// ListScreenings lists past screenings, optionally filtered by candidate.
func (s *Service) ListScreenings(ctx context.Context, req screening.ListScreeningsRequest) (*kernel.Paginated[screening.ScreeningSummaryResponse], error) {
	pagination := req.Pagination.Normalize()

	var (
		page *kernel.Paginated[screening.Screening]
		err  error
	)
	if req.CandidateName != "" {
		page, err = s.repo.ListByCandidate(ctx, req.CandidateName, pagination)
	} else {
		page, err = s.repo.List(ctx, pagination)
	}
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeScreeningNotFound, err)
	}

	summaries := make([]screening.ScreeningSummaryResponse, len(page.Items))
	for i := range page.Items {
		summaries[i] = screening.ToScreeningSummaryResponse(&page.Items[i])
	}

	result := kernel.NewPaginated(summaries, page.Page.Number, page.Page.Size, page.Page.Total)
	return &result, nil
}

// DeleteScreening removes a screening record.
func (s *Service) DeleteScreening(ctx context.Context, id kernel.ScreeningID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return screening.ErrScreeningNotFound().
			WithDetail("screening_id", id)
	}
	return s.repo.Delete(ctx, id)
}
