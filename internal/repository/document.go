package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

const documentColumns = `id, case_id, file_name, source_type, status, chunk_count, error, metadata, storage_key, created_at`

// Upsert inserts a document record, replacing the existing record for the
// same (case, file name). The persisted row ID is written back to d.ID, so a
// re-ingest keeps the original document identity.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	metadataJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO documents (id, case_id, file_name, source_type, status, chunk_count, error, metadata, storage_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (case_id, file_name) DO UPDATE
		 SET source_type = EXCLUDED.source_type,
		     status = EXCLUDED.status,
		     chunk_count = EXCLUDED.chunk_count,
		     error = EXCLUDED.error,
		     metadata = EXCLUDED.metadata,
		     storage_key = EXCLUDED.storage_key,
		     created_at = EXCLUDED.created_at
		 RETURNING id`,
		d.ID, d.CaseID, d.FileName, d.SourceType, d.Status, d.ChunkCount,
		nullableString(d.Error), metadataJSON, nullableString(d.StorageKey), d.CreatedAt,
	).Scan(&d.ID)
}

func (r *DocumentRepository) GetByID(ctx context.Context, caseID, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = $1 AND id = $2`,
		caseID, id,
	)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepository) GetByCaseAndFile(ctx context.Context, caseID, fileName string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = $1 AND file_name = $2`,
		caseID, fileName,
	)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+`
		 FROM documents
		 WHERE case_id = $1
		 ORDER BY created_at ASC, file_name ASC`,
		caseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// ListFileNames returns the file names of all ingested documents for a case
// in insertion order.
func (r *DocumentRepository) ListFileNames(ctx context.Context, caseID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT file_name
		 FROM documents
		 WHERE case_id = $1 AND status = $2
		 ORDER BY created_at ASC, file_name ASC`,
		caseID, domain.DocumentStatusIngested,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *DocumentRepository) UpdateChunkCount(ctx context.Context, id string, chunkCount int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET chunk_count = $1 WHERE id = $2`,
		chunkCount, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, caseID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE case_id = $1 AND id = $2`,
		caseID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var errMsg, storageKey *string
	var metadataJSON []byte
	err := row.Scan(&d.ID, &d.CaseID, &d.FileName, &d.SourceType, &d.Status, &d.ChunkCount, &errMsg, &metadataJSON, &storageKey, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if errMsg != nil {
		d.Error = *errMsg
	}
	if storageKey != nil {
		d.StorageKey = *storageKey
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &d.Metadata); err != nil {
			return nil, err
		}
	}
	return &d, nil
}
