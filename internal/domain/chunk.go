package domain

import "time"

// EmbeddingStatus tracks whether a chunk's vector has been computed
type EmbeddingStatus string

const (
	EmbeddingStatusPending EmbeddingStatus = "pending"
	EmbeddingStatusReady   EmbeddingStatus = "ready"
	EmbeddingStatusFailed  EmbeddingStatus = "failed"
)

// Chunk represents one bounded text window of a document, prepared for
// embedding and retrieval. Ordinal is stable within a file; sliding windows
// may overlap in text but never in (CaseID, SourceFile, Ordinal) identity.
type Chunk struct {
	ID              string
	CaseID          string
	DocumentID      string
	SourceFile      string
	SourceType      SourceType
	Ordinal         int
	Text            string
	StartChar       int
	EndChar         int
	Embedding       []float32
	EmbeddingStatus EmbeddingStatus
	CreatedAt       time.Time
}

// RetrievalHit pairs a chunk with its similarity score for one query.
// Ephemeral; produced per query and never persisted.
type RetrievalHit struct {
	Chunk Chunk
	Score float64
}
