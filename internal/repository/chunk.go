package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// ChunkRepository handles persistence of document chunks and their vectors.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes the existing chunks for a file within a case and
// inserts the new ones. Run inside a transaction so a cancelled ingest
// leaves the prior state intact.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, caseID, sourceFile string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM chunks WHERE case_id = $1 AND source_file = $2`,
		caseID, sourceFile,
	)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		var embedding any
		status := c.EmbeddingStatus
		if len(c.Embedding) > 0 {
			embedding = pgvector.NewVector(c.Embedding)
		} else if status == "" {
			status = domain.EmbeddingStatusPending
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, case_id, document_id, source_file, source_type, ordinal, content, start_char, end_char, embedding, embedding_status, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			c.ID,
			c.CaseID,
			c.DocumentID,
			c.SourceFile,
			c.SourceType,
			c.Ordinal,
			c.Text,
			c.StartChar,
			c.EndChar,
			embedding,
			status,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListPendingByDocument returns the chunks of a document that still need an
// embedding, in ordinal order. Vectors are not loaded.
func (r *ChunkRepository) ListPendingByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, case_id, document_id, source_file, source_type, ordinal, content, start_char, end_char, embedding_status, created_at
		 FROM chunks
		 WHERE document_id = $1 AND embedding_status = $2
		 ORDER BY ordinal ASC`,
		documentID, domain.EmbeddingStatusPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.CaseID, &c.DocumentID, &c.SourceFile, &c.SourceType, &c.Ordinal, &c.Text, &c.StartChar, &c.EndChar, &c.EmbeddingStatus, &c.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

// UpdateEmbedding stores a chunk's vector and marks it ready.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunks SET embedding = $1, embedding_status = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), domain.EmbeddingStatusReady, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

// MarkEmbeddingFailed records that a chunk's embedding could not be produced.
func (r *ChunkRepository) MarkEmbeddingFailed(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunks SET embedding_status = $1 WHERE id = $2`,
		domain.EmbeddingStatusFailed, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

// CountByCaseAndStatus reports how many chunks of a case are in the given
// embedding status.
func (r *ChunkRepository) CountByCaseAndStatus(ctx context.Context, caseID string, status domain.EmbeddingStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE case_id = $1 AND embedding_status = $2`,
		caseID, status,
	).Scan(&count)
	return count, err
}
