package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
)

// DefaultEmbedConcurrency bounds concurrent embedding calls per document.
const DefaultEmbedConcurrency = 4

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService embeds the pending chunks of ingested documents.
// It is driven by the background worker and by the synchronous ingest path.
type EmbeddingService struct {
	client    EmbeddingClient
	chunkRepo ChunkRepositoryInterface
	pool      *ants.Pool
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(client EmbeddingClient, chunkRepo ChunkRepositoryInterface) (*EmbeddingService, error) {
	return NewEmbeddingServiceWithConcurrency(client, chunkRepo, DefaultEmbedConcurrency)
}

// NewEmbeddingServiceWithConcurrency creates an EmbeddingService with an
// explicit chunk-level concurrency cap
func NewEmbeddingServiceWithConcurrency(client EmbeddingClient, chunkRepo ChunkRepositoryInterface, concurrency int) (*EmbeddingService, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{
		client:    client,
		chunkRepo: chunkRepo,
		pool:      pool,
	}, nil
}

// Release frees the worker pool. The service must not be used afterwards.
func (s *EmbeddingService) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// EmbedOutcome counts how a document's pending chunks fared
type EmbedOutcome struct {
	Ready  int
	Failed int
}

// ProcessDocument embeds every pending chunk of one document under the
// concurrency cap. A chunk that fails both attempts is marked failed and the
// rest continue; the error return is reserved for infrastructure failures.
func (s *EmbeddingService) ProcessDocument(ctx context.Context, documentID string) (*EmbedOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.ProcessDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "embed",
	})
	defer span.End()

	chunks, err := s.chunkRepo.ListPendingByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	outcome := &EmbedOutcome{}
	if len(chunks) == 0 {
		return outcome, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		chunk := chunk
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			ok := s.embedChunk(ctx, chunk)
			mu.Lock()
			if ok {
				outcome.Ready++
			} else {
				outcome.Failed++
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			outcome.Failed++
			mu.Unlock()
		}
	}
	wg.Wait()

	return outcome, nil
}

func (s *EmbeddingService) embedChunk(ctx context.Context, chunk *domain.Chunk) bool {
	vec, err := embedWithRetry(ctx, s.client, chunk.Text)
	if err != nil {
		log.Printf("embedding chunk %d of %s: %v", chunk.Ordinal, chunk.SourceFile, err)
		if markErr := s.chunkRepo.MarkEmbeddingFailed(ctx, chunk.ID); markErr != nil {
			log.Printf("failed to mark chunk %s failed: %v", chunk.ID, markErr)
		}
		return false
	}

	if err := s.chunkRepo.UpdateEmbedding(ctx, chunk.ID, vec); err != nil {
		log.Printf("failed to store embedding for chunk %s: %v", chunk.ID, err)
		return false
	}
	return true
}

// embedWithRetry calls the embedding client and retries once on failure.
// Cancellation is not retried.
func embedWithRetry(ctx context.Context, client EmbeddingClient, text string) ([]float32, error) {
	vec, err := client.GenerateEmbedding(ctx, text)
	if err == nil {
		return vec, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	vec, retryErr := client.GenerateEmbedding(ctx, text)
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingExhausted, retryErr)
	}
	return vec, nil
}
