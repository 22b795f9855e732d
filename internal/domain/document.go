package domain

import (
	"fmt"
	"time"
)

// SourceType identifies which extraction strategy produced a document's text
type SourceType string

const (
	SourceTypeText     SourceType = "text"
	SourceTypeEmail    SourceType = "email"
	SourceTypePDF      SourceType = "pdf"
	SourceTypeDocx     SourceType = "docx"
	SourceTypePptx     SourceType = "pptx"
	SourceTypeHTML     SourceType = "html"
	SourceTypeAudio    SourceType = "audio"
	SourceTypeFallback SourceType = "fallback"
)

// DocumentStatus represents the ingestion outcome for an uploaded file
type DocumentStatus string

const (
	DocumentStatusIngested DocumentStatus = "ingested"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// ExtractedDocument is the uniform result of running one extractor over one
// file. Exactly one of Text or Err carries content: a successful extraction
// has non-empty Text and empty Err, a failed one has empty Text and a
// non-empty Err. Immutable once produced.
type ExtractedDocument struct {
	Text       string
	SourceType SourceType
	Metadata   map[string]string
	Err        string
}

// Failed reports whether the extraction produced an error instead of text
func (d ExtractedDocument) Failed() bool {
	return d.Err != ""
}

// NewExtractedDocument creates a successful extraction result
func NewExtractedDocument(text string, sourceType SourceType, metadata map[string]string) ExtractedDocument {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return ExtractedDocument{
		Text:       text,
		SourceType: sourceType,
		Metadata:   metadata,
	}
}

// NewExtractionFailure creates a failed extraction result
func NewExtractionFailure(sourceType SourceType, errMsg string) ExtractedDocument {
	return ExtractedDocument{
		SourceType: sourceType,
		Metadata:   map[string]string{},
		Err:        errMsg,
	}
}

// Document represents one uploaded file within a case
type Document struct {
	ID         string
	CaseID     string
	FileName   string
	SourceType SourceType
	Status     DocumentStatus
	ChunkCount int
	Error      string
	Metadata   map[string]string
	StorageKey string
	CreatedAt  time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, caseID, fileName string, sourceType SourceType, createdAt time.Time) *Document {
	return &Document{
		ID:         id,
		CaseID:     caseID,
		FileName:   fileName,
		SourceType: sourceType,
		Status:     DocumentStatusIngested,
		Metadata:   map[string]string{},
		CreatedAt:  createdAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.CaseID == "" {
		return fmt.Errorf("document CaseID is required")
	}

	if d.FileName == "" {
		return fmt.Errorf("document FileName is required")
	}

	if !isValidSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	if d.Status == DocumentStatusFailed && d.Error == "" {
		return fmt.Errorf("failed document must carry an error message")
	}

	return nil
}

// isValidSourceType checks if a SourceType is valid
func isValidSourceType(s SourceType) bool {
	switch s {
	case SourceTypeText, SourceTypeEmail, SourceTypePDF, SourceTypeDocx,
		SourceTypePptx, SourceTypeHTML, SourceTypeAudio, SourceTypeFallback:
		return true
	}
	return false
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusIngested, DocumentStatusFailed:
		return true
	}
	return false
}
