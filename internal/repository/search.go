package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// SearchRepository implements case-scoped vector search over chunks.
type SearchRepository struct {
	pool *pgxpool.Pool
}

func NewSearchRepository(pool *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{pool: pool}
}

// SearchByEmbedding returns the top chunks of a case ranked by similarity to
// the query vector. Audio chunks have their score multiplied by audioBoost
// before ranking so transcribed evidence surfaces in the context. Ties are
// broken by source file then chunk ordinal, a total order that keeps results
// stable for a fixed index snapshot even when duplicate content appears in
// more than one file.
func (r *SearchRepository) SearchByEmbedding(ctx context.Context, caseID string, embedding []float32, audioBoost float64, limit int) ([]*domain.RetrievalHit, error) {
	if limit <= 0 {
		limit = 6
	}
	if audioBoost <= 0 {
		audioBoost = 1.0
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`SELECT id, case_id, document_id, source_file, source_type, ordinal, content, start_char, end_char, embedding_status, created_at,
		        (1.0 / (1.0 + (embedding <=> $1))) *
		        (CASE WHEN source_type = $2 THEN $3::float8 ELSE 1.0 END) AS score
		 FROM chunks
		 WHERE case_id = $4 AND embedding IS NOT NULL AND embedding_status = $5
		 ORDER BY score DESC, source_file ASC, ordinal ASC
		 LIMIT $6`,
		vec, domain.SourceTypeAudio, audioBoost, caseID, domain.EmbeddingStatusReady, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*domain.RetrievalHit
	for rows.Next() {
		var hit domain.RetrievalHit
		if err := rows.Scan(
			&hit.Chunk.ID,
			&hit.Chunk.CaseID,
			&hit.Chunk.DocumentID,
			&hit.Chunk.SourceFile,
			&hit.Chunk.SourceType,
			&hit.Chunk.Ordinal,
			&hit.Chunk.Text,
			&hit.Chunk.StartChar,
			&hit.Chunk.EndChar,
			&hit.Chunk.EmbeddingStatus,
			&hit.Chunk.CreatedAt,
			&hit.Score,
		); err != nil {
			return nil, err
		}
		hits = append(hits, &hit)
	}
	return hits, rows.Err()
}
