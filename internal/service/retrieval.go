package service

import (
	"context"
	"fmt"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
)

// SearchRepositoryInterface defines case-scoped vector search over chunks
type SearchRepositoryInterface interface {
	SearchByEmbedding(ctx context.Context, caseID string, embedding []float32, audioBoost float64, limit int) ([]*domain.RetrievalHit, error)
}

// RetrievalConfig holds the retrieval knobs
type RetrievalConfig struct {
	// AnalysisTopK is the retrieval depth for case analysis.
	AnalysisTopK int
	// QuestionTopK is the retrieval depth for Q&A.
	QuestionTopK int
	// AudioBoost multiplies the score of transcription chunks before
	// ranking; 1.0 disables the boost.
	AudioBoost float64
}

// DefaultRetrievalConfig returns the default retrieval knobs
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		AnalysisTopK: 6,
		QuestionTopK: 4,
		AudioBoost:   2.0,
	}
}

// RetrievalService embeds queries and ranks a case's chunks against them
type RetrievalService struct {
	embedder   EmbeddingClient
	searchRepo SearchRepositoryInterface
	chunkRepo  ChunkRepositoryInterface
	cfg        RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(
	embedder EmbeddingClient,
	searchRepo SearchRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	cfg RetrievalConfig,
) *RetrievalService {
	defaults := DefaultRetrievalConfig()
	if cfg.AnalysisTopK <= 0 {
		cfg.AnalysisTopK = defaults.AnalysisTopK
	}
	if cfg.QuestionTopK <= 0 {
		cfg.QuestionTopK = defaults.QuestionTopK
	}
	if cfg.AudioBoost <= 0 {
		cfg.AudioBoost = defaults.AudioBoost
	}

	return &RetrievalService{
		embedder:   embedder,
		searchRepo: searchRepo,
		chunkRepo:  chunkRepo,
		cfg:        cfg,
	}
}

// Retrieve returns the top chunks of a case for a query, ordered by
// descending score with ties broken by source file then chunk ordinal. An
// empty index yields an empty slice, not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, caseID, query string, limit int) ([]*domain.RetrievalHit, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		CaseID:    caseID,
		Operation: "retrieve",
	})
	defer span.End()

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedderUnavailable, err)
	}

	return s.searchRepo.SearchByEmbedding(ctx, caseID, embedding, s.cfg.AudioBoost, limit)
}

// RetrieveForAnalysis retrieves at the analysis depth
func (s *RetrievalService) RetrieveForAnalysis(ctx context.Context, caseID, query string) ([]*domain.RetrievalHit, error) {
	return s.Retrieve(ctx, caseID, query, s.cfg.AnalysisTopK)
}

// RetrieveForQuestion retrieves at the Q&A depth
func (s *RetrievalService) RetrieveForQuestion(ctx context.Context, caseID, query string) ([]*domain.RetrievalHit, error) {
	return s.Retrieve(ctx, caseID, query, s.cfg.QuestionTopK)
}

// EnsureIndexed reports ErrNoChunksIndexed when a case has no embedded
// chunks to ground an answer in.
func (s *RetrievalService) EnsureIndexed(ctx context.Context, caseID string) error {
	count, err := s.chunkRepo.CountByCaseAndStatus(ctx, caseID, domain.EmbeddingStatusReady)
	if err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNoChunksIndexed
	}
	return nil
}
