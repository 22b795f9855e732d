package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeExtraction          = "EXTRACTION_ERROR"
	ErrCodeTranscription       = "TRANSCRIPTION_ERROR"
	ErrCodeEmbedding           = "EMBEDDING_ERROR"
	ErrCodeRetrieval           = "RETRIEVAL_ERROR"
	ErrCodeSchemaValidation    = "SCHEMA_VALIDATION_ERROR"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidRiskLevel     = NewDomainError(ErrCodeValidation, "invalid risk level")
	ErrInvalidIssueCategory = NewDomainError(ErrCodeValidation, "invalid issue category")
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrCaseNotFound     = NewDomainError(ErrCodeNotFound, "case not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrAnalysisNotFound = NewDomainError(ErrCodeNotFound, "no analysis recorded for case")
)

// Pipeline errors
var (
	ErrEmptyFile          = NewDomainError(ErrCodeExtraction, "empty file")
	ErrNoExtractableText  = NewDomainError(ErrCodeExtraction, "no extractable text; document may be a scanned image")
	ErrTranscriptionFail  = NewDomainError(ErrCodeTranscription, "all transcription stages failed")
	ErrEmbeddingExhausted = NewDomainError(ErrCodeEmbedding, "embedding failed after retry")
	ErrNoChunksIndexed    = NewDomainError(ErrCodeInvalidOperation, "case has no indexed content")
)

// Provider errors
var (
	ErrChatUnavailable      = NewDomainError(ErrCodeProviderUnavailable, "language model provider unavailable")
	ErrEmbedderUnavailable  = NewDomainError(ErrCodeProviderUnavailable, "embedding provider unavailable")
	ErrMalformedModelOutput = NewDomainError(ErrCodeSchemaValidation, "language model returned malformed structured output")
)
