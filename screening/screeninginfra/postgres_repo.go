package screeninginfra

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/screening"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresScreeningRepository struct {
	db *sqlx.DB
}

func NewPostgresScreeningRepository(db *sqlx.DB) *PostgresScreeningRepository {
	return &PostgresScreeningRepository{db: db}
}

// EnsureSchema creates the screenings table if it does not exist.
func (r *PostgresScreeningRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS screenings (
			id TEXT PRIMARY KEY,
			candidate_name TEXT NOT NULL,
			resume_text TEXT NOT NULL,
			jd_text TEXT NOT NULL,
			requirements JSONB NOT NULL,
			category_scores JSONB NOT NULL,
			consolidated_score DOUBLE PRECISION NOT NULL,
			recommendation TEXT NOT NULL,
			summary_text TEXT NOT NULL,
			incomplete BOOLEAN NOT NULL DEFAULT FALSE,
			degradations JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_screenings_candidate ON screenings (candidate_name);
		CREATE INDEX IF NOT EXISTS idx_screenings_created_at ON screenings (created_at DESC);
	`)
	return err
}

// screeningRow is the flat row shape; JSONB columns unmarshal separately.
type screeningRow struct {
	ID                string         `db:"id"`
	CandidateName     string         `db:"candidate_name"`
	ResumeText        string         `db:"resume_text"`
	JDText            string         `db:"jd_text"`
	Requirements      []byte         `db:"requirements"`
	CategoryScores    []byte         `db:"category_scores"`
	ConsolidatedScore float64        `db:"consolidated_score"`
	Recommendation    string         `db:"recommendation"`
	SummaryText       string         `db:"summary_text"`
	Incomplete        bool           `db:"incomplete"`
	Degradations      []byte         `db:"degradations"`
	CreatedAt         sql.NullTime   `db:"created_at"`
}

func (row screeningRow) toDomain() (*screening.Screening, error) {
	s := &screening.Screening{
		ID:                kernel.NewScreeningID(row.ID),
		CandidateName:     row.CandidateName,
		ResumeText:        row.ResumeText,
		JDText:            row.JDText,
		ConsolidatedScore: row.ConsolidatedScore,
		Recommendation:    screening.Recommendation(row.Recommendation),
		SummaryText:       row.SummaryText,
		Incomplete:        row.Incomplete,
	}
	if row.CreatedAt.Valid {
		s.CreatedAt = row.CreatedAt.Time
	}
	if err := json.Unmarshal(row.Requirements, &s.Requirements); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.CategoryScores, &s.CategoryScores); err != nil {
		return nil, err
	}
	if len(row.Degradations) > 0 {
		if err := json.Unmarshal(row.Degradations, &s.Degradations); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create persists a finished screening record
func (r *PostgresScreeningRepository) Create(ctx context.Context, s *screening.Screening) error {
	query := `
		INSERT INTO screenings (
			id, candidate_name, resume_text, jd_text,
			requirements, category_scores, consolidated_score,
			recommendation, summary_text, incomplete, degradations, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12
		)`

	requirements, err := json.Marshal(s.Requirements)
	if err != nil {
		return screening.ErrInvalidInput().
			WithDetail("field", "requirements").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	categoryScores, err := json.Marshal(s.CategoryScores)
	if err != nil {
		return screening.ErrInvalidInput().
			WithDetail("field", "category_scores").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	degradations, err := json.Marshal(s.Degradations)
	if err != nil {
		return screening.ErrInvalidInput().
			WithDetail("field", "degradations").
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.CandidateName, s.ResumeText, s.JDText,
		requirements, categoryScores, s.ConsolidatedScore,
		s.Recommendation, s.SummaryText, s.Incomplete, degradations, s.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return screening.ErrRegistry.NewWithCause(screening.CodeInvalidInput, err).
				WithDetail("screening_id", s.ID).
				WithDetail("operation", "duplicate insert")
		}
		return screening.ErrRegistry.NewWithCause(screening.CodeScreeningNotFound, err).
			WithDetail("screening_id", s.ID).
			WithDetail("operation", "insert")
	}

	return nil
}

// GetByID retrieves a screening by ID
func (r *PostgresScreeningRepository) GetByID(ctx context.Context, id kernel.ScreeningID) (*screening.Screening, error) {
	var row screeningRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM screenings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, screening.ErrScreeningNotFound().
				WithDetail("screening_id", id)
		}
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeScreeningNotFound, err).
			WithDetail("screening_id", id)
	}
	return row.toDomain()
}

// List retrieves screenings newest first
func (r *PostgresScreeningRepository) List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Screening], error) {
	return r.list(ctx, pagination, "", nil)
}

// ListByCandidate retrieves screenings for one candidate name
func (r *PostgresScreeningRepository) ListByCandidate(ctx context.Context, candidateName string, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Screening], error) {
	return r.list(ctx, pagination, "WHERE candidate_name = $3", []any{candidateName})
}

func (r *PostgresScreeningRepository) list(ctx context.Context, pagination kernel.PaginationOptions, where string, filterArgs []any) (*kernel.Paginated[screening.Screening], error) {
	pagination = pagination.Normalize()

	countQuery := "SELECT COUNT(*) FROM screenings"
	countArgs := []any{}
	if where != "" {
		countQuery += " WHERE candidate_name = $1"
		countArgs = filterArgs
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, err
	}

	query := "SELECT * FROM screenings " + where + " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	args := append([]any{pagination.PageSize, pagination.Offset()}, filterArgs...)

	var rows []screeningRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	items := make([]screening.Screening, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}

	result := kernel.NewPaginated(items, pagination.Page, pagination.PageSize, total)
	return &result, nil
}

// Delete removes a screening record
func (r *PostgresScreeningRepository) Delete(ctx context.Context, id kernel.ScreeningID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM screenings WHERE id = $1`, id)
	if err != nil {
		return screening.ErrRegistry.NewWithCause(screening.CodeScreeningNotFound, err).
			WithDetail("screening_id", id).
			WithDetail("operation", "delete")
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return screening.ErrScreeningNotFound().
			WithDetail("screening_id", id)
	}
	return nil
}
