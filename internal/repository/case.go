package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/pagination"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
)

type CaseRepository struct {
	db dbtx
}

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: pool}
}

func NewCaseRepositoryWithTx(tx pgx.Tx) *CaseRepository {
	return &CaseRepository{db: tx}
}

const caseColumns = `id, title, status, overview, people, organizations, terms, additional_context, created_at, updated_at`

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cases (id, title, status, overview, people, organizations, terms, additional_context, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Title, c.Status,
		nullableString(c.Metadata.Overview),
		nullableString(c.Metadata.People),
		nullableString(c.Metadata.Organizations),
		nullableString(c.Metadata.Terms),
		nullableString(c.Metadata.AdditionalContext),
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`,
		id,
	)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCaseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CaseRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.CasePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+caseColumns+`
			 FROM cases
			 WHERE (updated_at, id) < ($1, $2)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+caseColumns+`
			 FROM cases
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanCaseRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}

	return &service.CasePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *CaseRepository) UpdateMetadata(ctx context.Context, id string, meta domain.CaseMetadata) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cases
		 SET overview = $1, people = $2, organizations = $3, terms = $4, additional_context = $5, updated_at = $6
		 WHERE id = $7`,
		nullableString(meta.Overview),
		nullableString(meta.People),
		nullableString(meta.Organizations),
		nullableString(meta.Terms),
		nullableString(meta.AdditionalContext),
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

func (r *CaseRepository) UpdateStatus(ctx context.Context, id string, status domain.CaseStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cases SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

// Touch bumps updated_at so case listings surface recent ingest activity.
func (r *CaseRepository) Touch(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE cases SET updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return err
}

// Delete removes the case row. Documents, chunks, analyses and question logs
// go with it through ON DELETE CASCADE.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM cases WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

func scanCase(row pgx.Row) (*domain.Case, error) {
	var c domain.Case
	var overview, people, organizations, terms, additionalContext *string
	err := row.Scan(&c.ID, &c.Title, &c.Status, &overview, &people, &organizations, &terms, &additionalContext, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if overview != nil {
		c.Metadata.Overview = *overview
	}
	if people != nil {
		c.Metadata.People = *people
	}
	if organizations != nil {
		c.Metadata.Organizations = *organizations
	}
	if terms != nil {
		c.Metadata.Terms = *terms
	}
	if additionalContext != nil {
		c.Metadata.AdditionalContext = *additionalContext
	}
	return &c, nil
}

func scanCaseRows(rows pgx.Rows) ([]*domain.Case, error) {
	var results []*domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
