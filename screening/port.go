package screening

import (
	"context"
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
)

// TextService is the LLM-like text capability. Responses are untrusted
// free text; callers must validate whatever comes back.
type TextService interface {
	// Generate produces free text for an instruction + input pair.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateJSON is Generate with a JSON-output hint to the backend.
	// The result may still be malformed.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder maps text to a fixed-dimension vector, deterministic for
// identical input. No normalization guarantee; cosine similarity
// normalizes locally.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts in one call, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorMatch is one ranked result of a similarity query.
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorIndex is the external vector store. Namespaces isolate
// screening runs from each other.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error

	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]VectorMatch, error)

	// DeleteNamespace removes every vector in a namespace, used to
	// clean up after a run.
	DeleteNamespace(ctx context.Context, namespace string) error
}

type Repository interface {
	// Create persists a finished screening record
	Create(ctx context.Context, screening *Screening) error

	// GetByID retrieves a screening by ID
	GetByID(ctx context.Context, id kernel.ScreeningID) (*Screening, error)

	// List retrieves screenings with pagination, newest first
	List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[Screening], error)

	// ListByCandidate retrieves screenings for one candidate name
	ListByCandidate(ctx context.Context, candidateName string, pagination kernel.PaginationOptions) (*kernel.Paginated[Screening], error)

	// Delete removes a screening record
	Delete(ctx context.Context, id kernel.ScreeningID) error
}

type JobRepository interface {
	Create(ctx context.Context, job *ScreeningJob) error
	Update(ctx context.Context, job *ScreeningJob) error
	GetByID(ctx context.Context, jobID kernel.JobID) (*ScreeningJob, error)
	List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[ScreeningJob], error)

	// For retry mechanism
	GetFailedJobsForRetry(ctx context.Context, limit int) ([]*ScreeningJob, error)

	// Update status helpers
	MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error
	MarkAsCompleted(ctx context.Context, jobID kernel.JobID, screeningID kernel.ScreeningID) error
	MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error
	UpdateProgress(ctx context.Context, jobID kernel.JobID, step ProcessingStep, percentage int) error
}

// JobQueue defines the interface for job queue operations
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error

	// Dequeue gets a job from the queue (blocking with timeout)
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)

	// EnqueueDelayed schedules a job for later processing (for retries)
	EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error

	// MoveDelayedToReady moves delayed jobs that are ready to the main queue
	MoveDelayedToReady(ctx context.Context) (int, error)

	// GetQueueSize returns the number of jobs in the queue
	GetQueueSize(ctx context.Context) (int64, error)

	// GetDelayedQueueSize returns the number of delayed jobs
	GetDelayedQueueSize(ctx context.Context) (int64, error)

	// Clear removes all jobs from the queue (use with caution)
	Clear(ctx context.Context) error
}
