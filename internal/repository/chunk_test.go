//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/testutil"
)

func makeChunk(caseID, documentID, sourceFile string, ordinal int, text string) domain.Chunk {
	return domain.Chunk{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		DocumentID: documentID,
		SourceFile: sourceFile,
		SourceType: domain.SourceTypeText,
		Ordinal:    ordinal,
		Text:       text,
	}
}

func TestChunkRepository_ReplaceChunks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Replace chunks case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.txt", domain.SourceTypeText)

	first := []domain.Chunk{
		makeChunk(c.ID, d.ID, d.FileName, 0, "first version part one"),
		makeChunk(c.ID, d.ID, d.FileName, 1, "first version part two"),
		makeChunk(c.ID, d.ID, d.FileName, 2, "first version part three"),
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, first))
	assert.Equal(t, 3, countChunks(ctx, t, pool, c.ID))

	second := []domain.Chunk{
		makeChunk(c.ID, d.ID, d.FileName, 0, "second version"),
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, second))
	assert.Equal(t, 1, countChunks(ctx, t, pool, c.ID))

	pending, err := chunkRepo.ListPendingByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "second version", pending[0].Text)
	assert.Equal(t, domain.EmbeddingStatusPending, pending[0].EmbeddingStatus)
}

func TestChunkRepository_ReplaceChunks_EmptyClears(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Clear chunks case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.txt", domain.SourceTypeText)

	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, []domain.Chunk{
		makeChunk(c.ID, d.ID, d.FileName, 0, "content"),
	}))
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, nil))
	assert.Zero(t, countChunks(ctx, t, pool, c.ID))
}

func TestChunkRepository_UpdateEmbedding(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Embedding case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.txt", domain.SourceTypeText)

	chunk := makeChunk(c.ID, d.ID, d.FileName, 0, "embed me")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, []domain.Chunk{chunk}))

	require.NoError(t, chunkRepo.UpdateEmbedding(ctx, chunk.ID, unitVector(0)))

	pending, err := chunkRepo.ListPendingByDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	ready, err := chunkRepo.CountByCaseAndStatus(ctx, c.ID, domain.EmbeddingStatusReady)
	require.NoError(t, err)
	assert.Equal(t, 1, ready)
}

func TestChunkRepository_UpdateEmbedding_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	chunkRepo := NewChunkRepository(pool)

	err := chunkRepo.UpdateEmbedding(ctx, uuid.NewString(), unitVector(0))
	assert.ErrorIs(t, err, domain.ErrChunkNotFound)
}

func TestChunkRepository_MarkEmbeddingFailed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	caseRepo := NewCaseRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	c := createTestCase(ctx, t, caseRepo, "Failed embedding case")
	d := createTestDocument(ctx, t, docRepo, c.ID, "memo.txt", domain.SourceTypeText)

	chunk := makeChunk(c.ID, d.ID, d.FileName, 0, "cannot embed")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, c.ID, d.FileName, []domain.Chunk{chunk}))
	require.NoError(t, chunkRepo.MarkEmbeddingFailed(ctx, chunk.ID))

	failed, err := chunkRepo.CountByCaseAndStatus(ctx, c.ID, domain.EmbeddingStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	pendingCount, err := chunkRepo.CountByCaseAndStatus(ctx, c.ID, domain.EmbeddingStatusPending)
	require.NoError(t, err)
	assert.Zero(t, pendingCount)
}
