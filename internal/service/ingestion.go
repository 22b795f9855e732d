package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
)

// DefaultIngestWorkers bounds how many files of one batch are processed
// concurrently when no explicit worker count is configured.
const DefaultIngestWorkers = 4

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Upsert(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, caseID, id string) (*domain.Document, error)
	GetByCaseAndFile(ctx context.Context, caseID, fileName string) (*domain.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]*domain.Document, error)
	ListFileNames(ctx context.Context, caseID string) ([]string, error)
	UpdateChunkCount(ctx context.Context, id string, chunkCount int) error
	Delete(ctx context.Context, caseID, id string) error
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence
type ChunkRepositoryInterface interface {
	ReplaceChunks(ctx context.Context, caseID, sourceFile string, chunks []domain.Chunk) error
	ListPendingByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	MarkEmbeddingFailed(ctx context.Context, id string) error
	CountByCaseAndStatus(ctx context.Context, caseID string, status domain.EmbeddingStatus) (int, error)
}

// EmbeddingJobRepositoryInterface defines the repository interface for embedding job persistence
type EmbeddingJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.EmbeddingJob) error
}

// DocumentExtractor turns one uploaded file into text. Failures are carried
// in the result's Err field, never as a Go error, so a batch can collect
// them per file.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) domain.ExtractedDocument
}

// StorageClientInterface archives raw uploads in object storage
type StorageClientInterface interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func buildStorageKey(caseID, documentID, fileName string) string {
	return fmt.Sprintf("cases/%s/%s/%s", caseID, documentID, fileName)
}

func caseStoragePrefix(caseID string) string {
	return "cases/" + caseID + "/"
}

// IngestionService runs the upload pipeline: extract, chunk, store, and
// either queue the chunks for asynchronous embedding or embed them inline.
type IngestionService struct {
	extractor    DocumentExtractor
	caseRepo     CaseRepositoryInterface
	documentRepo DocumentRepositoryInterface
	chunkRepo    ChunkRepositoryInterface
	txRunner     TxRunner
	storage      StorageClientInterface
	embedder     EmbeddingClient
	chunkCfg     ChunkConfig
	pool         *ants.Pool
	uuidGen      UUIDGenerator
}

// IngestionOptions configures optional collaborators and pipeline knobs
type IngestionOptions struct {
	ChunkConfig ChunkConfig
	// Workers bounds per-batch file concurrency; zero means DefaultIngestWorkers.
	Workers int
	// Storage, when set, receives the raw upload bytes under
	// cases/{caseID}/{documentID}/{fileName}.
	Storage StorageClientInterface
	// Embedder, when set, embeds chunks inline during ingest instead of
	// queueing a background job.
	Embedder EmbeddingClient
	// UUIDGen overrides ID generation (for testing).
	UUIDGen UUIDGenerator
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	extractor DocumentExtractor,
	caseRepo CaseRepositoryInterface,
	documentRepo DocumentRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	txRunner TxRunner,
	opts IngestionOptions,
) (*IngestionService, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	chunkCfg := opts.ChunkConfig
	if chunkCfg.MaxWords <= 0 {
		chunkCfg = DefaultChunkConfig()
	}

	uuidGen := opts.UUIDGen
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}

	return &IngestionService{
		extractor:    extractor,
		caseRepo:     caseRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		txRunner:     txRunner,
		storage:      opts.Storage,
		embedder:     opts.Embedder,
		chunkCfg:     chunkCfg,
		pool:         pool,
		uuidGen:      uuidGen,
	}, nil
}

// Release frees the worker pool. The service must not be used afterwards.
func (s *IngestionService) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// IngestFile is one uploaded file of a batch
type IngestFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// IngestedFile reports one successfully processed file
type IngestedFile struct {
	DocumentID string
	FileName   string
	SourceType domain.SourceType
	ChunkCount int
}

// FailedFile reports one file the pipeline could not process
type FailedFile struct {
	FileName string
	Error    string
}

// IngestResult is the partial-failure outcome of one upload batch
type IngestResult struct {
	Ingested []IngestedFile
	Failed   []FailedFile
}

type fileOutcome struct {
	ingested *IngestedFile
	failed   *FailedFile
}

// IngestBatch processes the files of one upload independently on the worker
// pool. One file's failure never aborts the others; the result lists both
// outcomes in upload order.
func (s *IngestionService) IngestBatch(ctx context.Context, caseID string, files []IngestFile) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestBatch", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "ingest",
	})
	defer span.End()

	if _, err := s.caseRepo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return &IngestResult{}, nil
	}

	outcomes := make([]fileOutcome, len(files))
	var wg sync.WaitGroup
	for i := range files {
		i := i
		file := files[i]
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = s.ingestFile(ctx, caseID, file)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = fileOutcome{failed: &FailedFile{FileName: file.FileName, Error: err.Error()}}
		}
	}
	wg.Wait()

	result := &IngestResult{}
	for _, outcome := range outcomes {
		if outcome.ingested != nil {
			result.Ingested = append(result.Ingested, *outcome.ingested)
		}
		if outcome.failed != nil {
			result.Failed = append(result.Failed, *outcome.failed)
		}
	}

	if err := s.caseRepo.Touch(ctx, caseID); err != nil {
		log.Printf("failed to touch case %s after ingest: %v", caseID, err)
	}

	return result, nil
}

func (s *IngestionService) ingestFile(ctx context.Context, caseID string, file IngestFile) fileOutcome {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.ingestFile", telemetry.SpanAttributes{
		CaseID:    caseID,
		FileName:  file.FileName,
		Operation: "ingest",
	})
	defer span.End()

	extracted := s.extractor.Extract(ctx, file.FileName, file.Data)
	if extracted.Failed() {
		s.recordFailure(ctx, caseID, file.FileName, extracted)
		return fileOutcome{failed: &FailedFile{FileName: file.FileName, Error: extracted.Err}}
	}

	now := time.Now().UTC()
	chunks := s.buildChunks(caseID, file.FileName, extracted, now)
	if len(chunks) == 0 {
		failure := domain.NewExtractionFailure(extracted.SourceType, "no content to index")
		s.recordFailure(ctx, caseID, file.FileName, failure)
		return fileOutcome{failed: &FailedFile{FileName: file.FileName, Error: failure.Err}}
	}

	if s.embedder != nil {
		s.embedInline(ctx, file.FileName, chunks)
	}

	doc := domain.NewDocument(s.resolveDocumentID(ctx, caseID, file.FileName), caseID, file.FileName, extracted.SourceType, now)
	doc.ChunkCount = len(chunks)
	doc.Metadata = extracted.Metadata

	if s.storage != nil {
		key := buildStorageKey(caseID, doc.ID, file.FileName)
		if err := s.storage.Upload(ctx, key, file.Data, file.ContentType); err != nil {
			log.Printf("failed to archive upload %s: %v", file.FileName, err)
		} else {
			doc.StorageKey = key
		}
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("failed to store document record: %w", err)
		}

		// Upsert resolves the persisted row ID on a re-ingest conflict;
		// chunks must reference that ID, not the provisional one.
		for i := range chunks {
			chunks[i].DocumentID = doc.ID
		}

		if err := repos.Chunks().ReplaceChunks(ctx, caseID, file.FileName, chunks); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}

		if s.embedder == nil {
			job := domain.NewEmbeddingJob(
				s.uuidGen.NewString(), doc.ID,
				domain.EmbeddingJobStatusPending, 0, "", now, nil,
			)
			if err := repos.EmbeddingJobs().Create(ctx, job); err != nil {
				return fmt.Errorf("failed to queue embedding job: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fileOutcome{failed: &FailedFile{FileName: file.FileName, Error: err.Error()}}
	}

	return fileOutcome{ingested: &IngestedFile{
		DocumentID: doc.ID,
		FileName:   file.FileName,
		SourceType: extracted.SourceType,
		ChunkCount: len(chunks),
	}}
}

// buildChunks windows the extracted text and assigns chunk identities.
// Ordinals are fixed here, before any concurrent embedding work.
func (s *IngestionService) buildChunks(caseID, fileName string, extracted domain.ExtractedDocument, now time.Time) []domain.Chunk {
	pieces := chunkText(extracted.Text, s.chunkCfg)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:              s.uuidGen.NewString(),
			CaseID:          caseID,
			SourceFile:      fileName,
			SourceType:      extracted.SourceType,
			Ordinal:         i,
			Text:            piece.Text,
			StartChar:       piece.StartChar,
			EndChar:         piece.EndChar,
			EmbeddingStatus: domain.EmbeddingStatusPending,
			CreatedAt:       now,
		})
	}
	return chunks
}

// embedInline embeds chunks synchronously. A chunk whose embedding fails
// after the retry is stored without a vector and marked failed; the rest of
// the file still goes through.
func (s *IngestionService) embedInline(ctx context.Context, fileName string, chunks []domain.Chunk) {
	for i := range chunks {
		vec, err := embedWithRetry(ctx, s.embedder, chunks[i].Text)
		if err != nil {
			log.Printf("embedding failed for %s chunk %d: %v", fileName, chunks[i].Ordinal, err)
			chunks[i].EmbeddingStatus = domain.EmbeddingStatusFailed
			continue
		}
		chunks[i].Embedding = vec
		chunks[i].EmbeddingStatus = domain.EmbeddingStatusReady
	}
}

// resolveDocumentID reuses the existing document row ID for a re-ingested
// file so the archive key stays stable, and mints a new ID otherwise.
func (s *IngestionService) resolveDocumentID(ctx context.Context, caseID, fileName string) string {
	existing, err := s.documentRepo.GetByCaseAndFile(ctx, caseID, fileName)
	if err == nil {
		return existing.ID
	}
	return s.uuidGen.NewString()
}

// recordFailure persists a failed document row and clears any chunks left
// over from a previously successful ingest of the same file.
func (s *IngestionService) recordFailure(ctx context.Context, caseID, fileName string, extracted domain.ExtractedDocument) {
	doc := &domain.Document{
		ID:         s.resolveDocumentID(ctx, caseID, fileName),
		CaseID:     caseID,
		FileName:   fileName,
		SourceType: extracted.SourceType,
		Status:     domain.DocumentStatusFailed,
		Error:      extracted.Err,
		Metadata:   extracted.Metadata,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Upsert(ctx, doc); err != nil {
			return err
		}
		return repos.Chunks().ReplaceChunks(ctx, caseID, fileName, nil)
	})
	if err != nil {
		log.Printf("failed to record ingest failure for %s: %v", fileName, err)
	}
}

// ListDocuments returns per-file ingest outcomes for a case
func (s *IngestionService) ListDocuments(ctx context.Context, caseID string) ([]*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.ListDocuments", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "list",
	})
	defer span.End()

	if _, err := s.caseRepo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}

	return s.documentRepo.ListByCase(ctx, caseID)
}

// DeleteDocument removes one file's record and chunks from a case, plus its
// archived upload when storage is configured
func (s *IngestionService) DeleteDocument(ctx context.Context, caseID, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.DeleteDocument", telemetry.SpanAttributes{
		CaseID:     caseID,
		DocumentID: documentID,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.documentRepo.GetByID(ctx, caseID, documentID)
	if err != nil {
		return err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().ReplaceChunks(ctx, caseID, doc.FileName, nil); err != nil {
			return err
		}
		return repos.Documents().Delete(ctx, caseID, documentID)
	})
	if err != nil {
		return err
	}

	if s.storage != nil && doc.StorageKey != "" {
		if err := s.storage.DeleteObject(ctx, doc.StorageKey); err != nil {
			log.Printf("failed to delete archived upload %s: %v", doc.StorageKey, err)
		}
	}

	return nil
}

// CaseIngestStatus aggregates per-case ingest and embedding progress
type CaseIngestStatus struct {
	Documents     []*domain.Document
	ChunksReady   int
	ChunksPending int
	ChunksFailed  int
}

// Status reports the documents of a case together with how far embedding has
// progressed over its chunks
func (s *IngestionService) Status(ctx context.Context, caseID string) (*CaseIngestStatus, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Status", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "status",
	})
	defer span.End()

	if _, err := s.caseRepo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}

	docs, err := s.documentRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	status := &CaseIngestStatus{Documents: docs}
	for _, pair := range []struct {
		state domain.EmbeddingStatus
		dst   *int
	}{
		{domain.EmbeddingStatusReady, &status.ChunksReady},
		{domain.EmbeddingStatusPending, &status.ChunksPending},
		{domain.EmbeddingStatusFailed, &status.ChunksFailed},
	} {
		count, err := s.chunkRepo.CountByCaseAndStatus(ctx, caseID, pair.state)
		if err != nil {
			return nil, err
		}
		*pair.dst = count
	}

	return status, nil
}
