package screeningapi

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abraxas-365/screener/pkg/fsx"
	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/screening"
	"github.com/Abraxas-365/screener/screening/screeningsrv"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScreeningHandlers struct {
	service    *screeningsrv.Service
	fileSystem fsx.FileSystem
}

func NewScreeningHandlers(service *screeningsrv.Service, fileSystem fsx.FileSystem) *ScreeningHandlers {
	return &ScreeningHandlers{
		service:    service,
		fileSystem: fileSystem,
	}
}

func (h *ScreeningHandlers) RegisterRoutes(app *fiber.App) {
	screenings := app.Group("/api/v1/screenings")

	screenings.Post("/", h.RunScreening)         // Screen resume text vs JD (sync)
	screenings.Post("/upload", h.UploadAndRun)   // Screen an uploaded PDF vs JD (sync)
	screenings.Post("/async", h.RunAsync)        // Queue a screening (202)
	screenings.Get("/jobs/:job_id", h.JobStatus) // Job status
	screenings.Get("/:id", h.GetScreening)       // Get result by ID
	screenings.Get("/", h.ListScreenings)        // List past results
	screenings.Delete("/:id", h.DeleteScreening) // Delete result
}

// ============================================================================
// Screening Handlers
// ============================================================================

// RunScreening screens resume text against a job description
// POST /api/v1/screenings
func (h *ScreeningHandlers) RunScreening(c *fiber.Ctx) error {
	var req screening.RunScreeningRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.service.RunScreening(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// UploadAndRun screens an uploaded resume PDF against a job description
// POST /api/v1/screenings/upload
func (h *ScreeningHandlers) UploadAndRun(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	maxSize := int64(10 * 1024 * 1024) // 10MB
	if file.Size > maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "file too large",
			"max_size": "10MB",
			"size":     file.Size,
		})
	}

	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":           "unsupported file type",
			"supported_types": []string{"pdf"},
		})
	}

	jdText := c.FormValue("jd_text")
	if jdText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "jd_text is required",
		})
	}

	uploadedFile, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer uploadedFile.Close()

	// Format: screenings/{year}/{month}/{uuid}.pdf
	now := time.Now()
	filePath := h.fileSystem.Join(
		"screenings",
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		uuid.NewString()+".pdf",
	)

	if err := h.fileSystem.WriteFileStream(c.Context(), filePath, uploadedFile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "failed to upload file to storage",
			"details": err.Error(),
		})
	}

	result, err := h.service.RunScreeningFromFile(c.Context(), screening.UploadScreeningRequest{
		CandidateName: c.FormValue("candidate_name"),
		FilePath:      filePath,
		FileName:      file.Filename,
		JDText:        jdText,
	})
	if err != nil {
		_ = h.fileSystem.Delete(c.Context(), filePath)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// RunAsync queues a screening for background processing
// POST /api/v1/screenings/async
func (h *ScreeningHandlers) RunAsync(c *fiber.Ctx) error {
	var req screening.RunScreeningRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	job, err := h.service.RunScreeningAsync(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "Screening queued",
		"job":        job,
		"status_url": fmt.Sprintf("/api/v1/screenings/jobs/%s", job.JobID),
	})
}

// JobStatus returns the status of a queued screening
// GET /api/v1/screenings/jobs/:job_id
func (h *ScreeningHandlers) JobStatus(c *fiber.Ctx) error {
	jobID := kernel.NewJobID(c.Params("job_id"))
	if jobID.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_id is required",
		})
	}

	status, err := h.service.GetJobStatus(c.Context(), jobID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// GetScreening returns one screening result
// GET /api/v1/screenings/:id
func (h *ScreeningHandlers) GetScreening(c *fiber.Ctx) error {
	id := kernel.NewScreeningID(c.Params("id"))
	if id.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "screening id is required",
		})
	}

	result, err := h.service.GetScreening(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// ListScreenings lists past screenings
// GET /api/v1/screenings?candidate_name=&page=&page_size=
func (h *ScreeningHandlers) ListScreenings(c *fiber.Ctx) error {
	req := screening.ListScreeningsRequest{
		CandidateName: c.Query("candidate_name"),
		Pagination: kernel.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", 20),
		},
	}

	results, err := h.service.ListScreenings(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(results)
}

// DeleteScreening removes a screening result
// DELETE /api/v1/screenings/:id
func (h *ScreeningHandlers) DeleteScreening(c *fiber.Ctx) error {
	id := kernel.NewScreeningID(c.Params("id"))
	if id.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "screening id is required",
		})
	}

	if err := h.service.DeleteScreening(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
