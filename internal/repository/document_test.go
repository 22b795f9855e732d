//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/testutil"
)

func TestDocumentRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Upsert case")

	d := domain.NewDocument(uuid.NewString(), c.ID, "deposition.mp3", domain.SourceTypeAudio, time.Now().UTC().Truncate(time.Microsecond))
	d.ChunkCount = 4
	d.StorageKey = "cases/" + c.ID + "/" + d.ID + "/deposition.mp3"
	d.Metadata = map[string]string{"duration": "00:42:17"}
	require.NoError(t, docRepo.Upsert(ctx, d))

	retrieved, err := docRepo.GetByID(ctx, c.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.FileName, retrieved.FileName)
	assert.Equal(t, domain.SourceTypeAudio, retrieved.SourceType)
	assert.Equal(t, domain.DocumentStatusIngested, retrieved.Status)
	assert.Equal(t, 4, retrieved.ChunkCount)
	assert.Equal(t, d.StorageKey, retrieved.StorageKey)
	assert.Equal(t, "00:42:17", retrieved.Metadata["duration"])
}

func TestDocumentRepository_Upsert_SameFileKeepsID(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Replace case")

	first := createTestDocument(ctx, t, docRepo, c.ID, "contract.pdf", domain.SourceTypePDF)

	// Re-uploading the same file name must update the existing row, not
	// create a second document.
	second := domain.NewDocument(uuid.NewString(), c.ID, "contract.pdf", domain.SourceTypePDF, time.Now().UTC().Truncate(time.Microsecond))
	second.ChunkCount = 9
	require.NoError(t, docRepo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	docs, err := docRepo.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 9, docs[0].ChunkCount)
}

func TestDocumentRepository_ListByCase_ScopedToCase(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)

	c1 := createTestCase(ctx, t, caseRepo, "Case one")
	c2 := createTestCase(ctx, t, caseRepo, "Case two")
	createTestDocument(ctx, t, docRepo, c1.ID, "a.txt", domain.SourceTypeText)
	createTestDocument(ctx, t, docRepo, c1.ID, "b.txt", domain.SourceTypeText)
	createTestDocument(ctx, t, docRepo, c2.ID, "other.txt", domain.SourceTypeText)

	docs, err := docRepo.ListByCase(ctx, c1.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, c1.ID, d.CaseID)
	}

	names, err := docRepo.ListFileNames(ctx, c1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
}

func TestDocumentRepository_GetByCaseAndFile(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Lookup case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.eml", domain.SourceTypeEmail)

	found, err := docRepo.GetByCaseAndFile(ctx, c.ID, "memo.eml")
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	_, err = docRepo.GetByCaseAndFile(ctx, c.ID, "missing.eml")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_UpdateChunkCountAndDelete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Count case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "slides.pptx", domain.SourceTypePptx)

	require.NoError(t, docRepo.UpdateChunkCount(ctx, d.ID, 7))
	retrieved, err := docRepo.GetByID(ctx, c.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, retrieved.ChunkCount)

	require.NoError(t, docRepo.Delete(ctx, c.ID, d.ID))
	_, err = docRepo.GetByID(ctx, c.ID, d.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	err = docRepo.Delete(ctx, c.ID, d.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
