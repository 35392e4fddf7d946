package screeninginfra

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/screener/screening"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// PgVectorIndex implements screening.VectorIndex on Postgres with the
// pgvector extension. Namespaces map to a column so one table serves
// every run; the composite key keeps upserts idempotent.
type PgVectorIndex struct {
	db        *sqlx.DB
	dimension int
}

// NewPgVectorIndex creates a pgvector-backed index for vectors of the
// given dimension.
func NewPgVectorIndex(db *sqlx.DB, dimension int) *PgVectorIndex {
	return &PgVectorIndex{
		db:        db,
		dimension: dimension,
	}
}

// EnsureSchema creates the extension and vector table if missing.
func (x *PgVectorIndex) EnsureSchema(ctx context.Context) error {
	_, err := x.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS screening_vectors (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB,
			PRIMARY KEY (namespace, id)
		);
	`, x.dimension))
	return err
}

// Upsert stores or replaces one vector within a namespace.
func (x *PgVectorIndex) Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error {
	if len(vector) != x.dimension {
		return screening.ErrVectorIndexFailed(
			fmt.Errorf("vector has dimension %d, index expects %d", len(vector), x.dimension))
	}

	var metadataJSON []byte
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return screening.ErrVectorIndexFailed(fmt.Errorf("marshal metadata: %w", err))
		}
		metadataJSON = data
	}

	_, err := x.db.ExecContext(ctx, `
		INSERT INTO screening_vectors (namespace, id, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, id)
		DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata
	`, namespace, id, pgvector.NewVector(vector), metadataJSON)
	if err != nil {
		return screening.ErrVectorIndexFailed(fmt.Errorf("upsert %s/%s: %w", namespace, id, err))
	}

	return nil
}

type vectorRow struct {
	ID       string  `db:"id"`
	Score    float64 `db:"score"`
	Metadata []byte  `db:"metadata"`
}

// Query returns the topK most similar vectors in a namespace, scored by
// cosine similarity descending.
func (x *PgVectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]screening.VectorMatch, error) {
	if topK < 1 {
		topK = 1
	}

	var rows []vectorRow
	err := x.db.SelectContext(ctx, &rows, `
		SELECT id, 1 - (embedding <=> $2) AS score, metadata
		FROM screening_vectors
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, screening.ErrVectorIndexFailed(fmt.Errorf("query %s: %w", namespace, err))
	}

	matches := make([]screening.VectorMatch, 0, len(rows))
	for _, row := range rows {
		match := screening.VectorMatch{
			ID:    row.ID,
			Score: row.Score,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &match.Metadata); err != nil {
				return nil, screening.ErrVectorIndexFailed(fmt.Errorf("unmarshal metadata for %s: %w", row.ID, err))
			}
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// DeleteNamespace removes every vector stored for one screening run.
func (x *PgVectorIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := x.db.ExecContext(ctx, `DELETE FROM screening_vectors WHERE namespace = $1`, namespace)
	if err != nil {
		return screening.ErrVectorIndexFailed(fmt.Errorf("delete namespace %s: %w", namespace, err))
	}
	return nil
}
