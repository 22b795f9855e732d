//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/pagination"
	"github.com/Aashrithhh/Legal-Assistant/internal/testutil"
)

func createTestCase(ctx context.Context, t *testing.T, repo *CaseRepository, title string) *domain.Case {
	t.Helper()
	c := domain.NewCase(uuid.NewString(), title, domain.CaseMetadata{}, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, c))
	return c
}

func createTestDocument(ctx context.Context, t *testing.T, repo *DocumentRepository, caseID, fileName string, sourceType domain.SourceType) *domain.Document {
	t.Helper()
	d := domain.NewDocument(uuid.NewString(), caseID, fileName, sourceType, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Upsert(ctx, d))
	return d
}

func TestCaseRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCaseRepository(pool)

	c := domain.NewCase(uuid.NewString(), "Doe v. Acme Corp", domain.CaseMetadata{
		Overview:      "Wrongful termination after whistleblower report",
		People:        "Jane Doe (claimant), R. Smith ('Bobby')",
		Organizations: "Acme Corp",
		Terms:         "non-compete",
	}, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, c))

	retrieved, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, retrieved.ID)
	assert.Equal(t, c.Title, retrieved.Title)
	assert.Equal(t, domain.CaseStatusOpen, retrieved.Status)
	assert.Equal(t, c.Metadata.Overview, retrieved.Metadata.Overview)
	assert.Equal(t, c.Metadata.People, retrieved.Metadata.People)
	assert.Equal(t, c.Metadata.Organizations, retrieved.Metadata.Organizations)
	assert.Equal(t, c.Metadata.Terms, retrieved.Metadata.Terms)
}

func TestCaseRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCaseRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestCaseRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCaseRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 3; i++ {
		c := domain.NewCase(uuid.NewString(), "Case", domain.CaseMetadata{}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, c))
	}

	page1, err := repo.ListWithCursor(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	assert.True(t, page1.HasMore)
	assert.NotEmpty(t, page1.NextCursor)

	// Newest first.
	assert.True(t, page1.Items[0].UpdatedAt.After(page1.Items[1].UpdatedAt))

	cursor, err := pagination.DecodeCursor(page1.NextCursor)
	require.NoError(t, err)

	page2, err := repo.ListWithCursor(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)

	// No overlap between pages.
	seen := map[string]bool{}
	for _, c := range page1.Items {
		seen[c.ID] = true
	}
	assert.False(t, seen[page2.Items[0].ID])
}

func TestCaseRepository_UpdateMetadata(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCaseRepository(pool)
	c := createTestCase(ctx, t, repo, "Metadata case")

	err := repo.UpdateMetadata(ctx, c.ID, domain.CaseMetadata{
		Overview: "revised overview",
		Terms:    "severance",
	})
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised overview", retrieved.Metadata.Overview)
	assert.Equal(t, "severance", retrieved.Metadata.Terms)
	assert.Empty(t, retrieved.Metadata.People)
	assert.True(t, retrieved.UpdatedAt.After(c.UpdatedAt))
}

func TestCaseRepository_UpdateMetadata_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCaseRepository(pool)

	err := repo.UpdateMetadata(ctx, uuid.NewString(), domain.CaseMetadata{Overview: "x"})
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestCaseRepository_Delete_CascadesToDocumentsAndChunks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Cascade case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.txt", domain.SourceTypeText)
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, []domain.Chunk{
		{ID: uuid.NewString(), CaseID: c.ID, DocumentID: d.ID, SourceFile: d.FileName, SourceType: domain.SourceTypeText, Ordinal: 0, Text: "body"},
	}))

	require.NoError(t, caseRepo.Delete(ctx, c.ID))

	_, err := caseRepo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)

	docs, err := docRepo.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	count := countChunks(ctx, t, pool, c.ID)
	assert.Zero(t, count)
}

func countChunks(ctx context.Context, t *testing.T, pool *pgxpool.Pool, caseID string) int {
	t.Helper()
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunks WHERE case_id = $1", caseID).Scan(&count))
	return count
}
