package screeningsrv

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Abraxas-365/screener/pkg/errx"
	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory screening.Repository.
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*screening.Screening
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*screening.Screening)}
}

func (r *memoryRepo) Create(ctx context.Context, record *screening.Screening) error {
	// Real drivers refuse cancelled contexts; the fake must too.
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID.String()] = record
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id kernel.ScreeningID) (*screening.Screening, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id.String()]
	if !ok {
		return nil, errors.New("no rows")
	}
	return record, nil
}

func (r *memoryRepo) List(_ context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Screening], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]screening.Screening, 0, len(r.records))
	for _, record := range r.records {
		items = append(items, *record)
	}
	page := kernel.NewPaginated(items, pagination.Page, pagination.PageSize, len(items))
	return &page, nil
}

func (r *memoryRepo) ListByCandidate(_ context.Context, candidateName string, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Screening], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]screening.Screening, 0)
	for _, record := range r.records {
		if record.CandidateName == candidateName {
			items = append(items, *record)
		}
	}
	page := kernel.NewPaginated(items, pagination.Page, pagination.PageSize, len(items))
	return &page, nil
}

func (r *memoryRepo) Delete(_ context.Context, id kernel.ScreeningID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id.String()]; !ok {
		return errors.New("no rows")
	}
	delete(r.records, id.String())
	return nil
}

func newTestService(text *fakeTextService) (*Service, *memoryRepo, *memoryIndex) {
	repo := newMemoryRepo()
	index := newMemoryIndex()
	embedder := &hashEmbedder{}
	return NewService(
		newTestWorkflow(text, embedder, index),
		NewSummarizer(text),
		repo,
		nil,
		nil,
		index,
		nil,
	), repo, index
}

func TestRunScreeningRejectsBlankInputs(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{})

	_, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
		ResumeText: "   ",
		JDText:     "jd",
	})
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, screening.CodeInvalidInput))

	_, err = service.RunScreening(context.Background(), screening.RunScreeningRequest{
		ResumeText: "resume",
		JDText:     "",
	})
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, screening.CodeInvalidInput))
}

func TestRunScreeningExtractsNameWhenMissing(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
		nameResponse:    "Ada Lovelace",
	})

	resp, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
		ResumeText: "resume text",
		JDText:     "jd text",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", resp.CandidateName)
}

func TestRunScreeningKeepsProvidedName(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
		nameResponse:    "Someone Else",
	})

	resp, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
		CandidateName: "Jane Doe",
		ResumeText:    "resume text",
		JDText:        "jd text",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resp.CandidateName)
}

func TestRunScreeningPersistsAndCleansUpVectors(t *testing.T) {
	service, repo, index := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
	})

	resp, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
		CandidateName: "Jane Doe",
		ResumeText:    "resume text",
		JDText:        "jd text",
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Recommendation, stored.Recommendation)
	assert.Equal(t, resp.ConsolidatedScore, stored.ConsolidatedScore)

	// Run-scoped vectors must not outlive the run
	assert.Equal(t, 0, index.count("screening:"+resp.ID.String()))
}

func TestRunScreeningPersistsResultFromCancelledRun(t *testing.T) {
	service, repo, _ := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := service.RunScreening(ctx, screening.RunScreeningRequest{
		CandidateName: "Jane Doe",
		ResumeText:    "resume text",
		JDText:        "jd text",
	})
	require.NoError(t, err)
	assert.True(t, resp.Incomplete)

	// The partial result outlives the cancelled request context
	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Incomplete)
	assert.NotEmpty(t, stored.Degradations)
}

func TestGetScreeningUnknownID(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{})

	_, err := service.GetScreening(context.Background(), kernel.NewScreeningID("missing"))
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, screening.CodeScreeningNotFound))
}

func TestDeleteScreeningRoundTrip(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
	})

	resp, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
		CandidateName: "Jane Doe",
		ResumeText:    "resume text",
		JDText:        "jd text",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteScreening(context.Background(), resp.ID))

	_, err = service.GetScreening(context.Background(), resp.ID)
	assert.True(t, errx.HasCode(err, screening.CodeScreeningNotFound))

	err = service.DeleteScreening(context.Background(), resp.ID)
	assert.True(t, errx.HasCode(err, screening.CodeScreeningNotFound))
}

func TestListScreeningsFiltersByCandidate(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{
		chunkResponse:   goodChunkResponse,
		extractResponse: extractResponse,
	})

	for _, name := range []string{"Jane Doe", "Jane Doe", "John Smith"} {
		_, err := service.RunScreening(context.Background(), screening.RunScreeningRequest{
			CandidateName: name,
			ResumeText:    "resume text",
			JDText:        "jd text",
		})
		require.NoError(t, err)
	}

	page, err := service.ListScreenings(context.Background(), screening.ListScreeningsRequest{
		CandidateName: "Jane Doe",
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Total)
	for _, item := range page.Items {
		assert.Equal(t, "Jane Doe", item.CandidateName)
	}

	all, err := service.ListScreenings(context.Background(), screening.ListScreeningsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
}

func TestRunScreeningFromFileRejectsNonPDF(t *testing.T) {
	service, _, _ := newTestService(&fakeTextService{})

	_, err := service.RunScreeningFromFile(context.Background(), screening.UploadScreeningRequest{
		FilePath: "uploads/resume.docx",
		FileName: "resume.docx",
		JDText:   "jd",
	})
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, screening.CodeInvalidFileFormat))
}
