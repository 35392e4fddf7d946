package screening

import (
	"net/http"

	"github.com/Abraxas-365/screener/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("SCREENING")

// Error codes - Screening Pipeline
var (
	CodeScreeningNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Screening not found")
	CodeInvalidInput      = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid screening input")
	CodeChunkingFailed    = ErrRegistry.Register("CHUNKING_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to chunk resume into sections")
	CodeExtractionFailed  = ErrRegistry.Register("EXTRACTION_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to extract job requirements")
	CodeEmbeddingFailed   = ErrRegistry.Register("EMBEDDING_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to generate embeddings")
	CodeSummaryFailed     = ErrRegistry.Register("SUMMARY_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to generate summary")
	CodeScoringConfig     = ErrRegistry.Register("SCORING_CONFIG", errx.TypeInternal, http.StatusInternalServerError, "Scoring configuration is invalid")
	CodeLLMTimeout        = ErrRegistry.Register("LLM_TIMEOUT", errx.TypeExternal, http.StatusGatewayTimeout, "Text service timed out")
	CodeVectorIndexFailed = ErrRegistry.Register("VECTOR_INDEX_FAILED", errx.TypeExternal, http.StatusBadGateway, "Vector index operation failed")
	CodeFileReadFailed    = ErrRegistry.Register("FILE_READ_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to read file")
	CodeInvalidFileFormat = ErrRegistry.Register("INVALID_FILE_FORMAT", errx.TypeValidation, http.StatusBadRequest, "Invalid file format")
	CodePDFExtractFailed  = ErrRegistry.Register("PDF_EXTRACT_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Could not extract text from PDF")
)

// Error codes - Job/Queue Operations
var (
	CodeJobNotFound          = ErrRegistry.Register("JOB_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Screening job not found")
	CodeJobFailed            = ErrRegistry.Register("JOB_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Job processing failed")
	CodeJobMaxRetriesReached = ErrRegistry.Register("JOB_MAX_RETRIES", errx.TypeInternal, http.StatusInternalServerError, "Job exceeded maximum retry attempts")
	CodeQueueEnqueueFailed   = ErrRegistry.Register("QUEUE_ENQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to enqueue job")
	CodeQueueDequeueFailed   = ErrRegistry.Register("QUEUE_DEQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to dequeue job")
	CodeJobCreationFailed    = ErrRegistry.Register("JOB_CREATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to create job record")
	CodeJobUpdateFailed      = ErrRegistry.Register("JOB_UPDATE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to update job status")
	CodeJobRetryFailed       = ErrRegistry.Register("JOB_RETRY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to schedule job retry")
)

// Helper functions - Screening Pipeline
func ErrScreeningNotFound() *errx.Error {
	return ErrRegistry.New(CodeScreeningNotFound)
}

func ErrInvalidInput() *errx.Error {
	return ErrRegistry.New(CodeInvalidInput)
}

func ErrChunkingFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeChunkingFailed, cause)
}

func ErrExtractionFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeExtractionFailed, cause)
}

func ErrEmbeddingFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeEmbeddingFailed, cause)
}

func ErrSummaryFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeSummaryFailed, cause)
}

func ErrScoringConfig(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeScoringConfig, cause)
}

func ErrLLMTimeout(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeLLMTimeout, cause)
}

func ErrVectorIndexFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeVectorIndexFailed, cause)
}

func ErrFileReadFailed() *errx.Error {
	return ErrRegistry.New(CodeFileReadFailed)
}

func ErrInvalidFileFormat() *errx.Error {
	return ErrRegistry.New(CodeInvalidFileFormat)
}

func ErrPDFExtractFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodePDFExtractFailed, cause)
}

// Helper functions - Job/Queue Operations
func ErrJobNotFound() *errx.Error {
	return ErrRegistry.New(CodeJobNotFound)
}

func ErrJobFailed() *errx.Error {
	return ErrRegistry.New(CodeJobFailed)
}

func ErrJobMaxRetriesReached() *errx.Error {
	return ErrRegistry.New(CodeJobMaxRetriesReached)
}

func ErrQueueEnqueueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueEnqueueFailed)
}

func ErrQueueDequeueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueDequeueFailed)
}

func ErrJobCreationFailed() *errx.Error {
	return ErrRegistry.New(CodeJobCreationFailed)
}

func ErrJobUpdateFailed() *errx.Error {
	return ErrRegistry.New(CodeJobUpdateFailed)
}

func ErrJobRetryFailed() *errx.Error {
	return ErrRegistry.New(CodeJobRetryFailed)
}
