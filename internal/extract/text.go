package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// TextExtractor handles the plain-text family (.txt, .md, .csv, .log)
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract decodes the file as UTF-8. Invalid byte sequences are replaced
// rather than failing the file; the result is flagged lossy in metadata.
func (e *TextExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	text, lossy := decodeUTF8(data)

	metadata := map[string]string{"lossy": "false"}
	if lossy {
		metadata["lossy"] = "true"
	}

	return domain.NewExtractedDocument(text, domain.SourceTypeText, metadata)
}

// FallbackExtractor handles unrecognized extensions with a best-effort
// decode. It always succeeds so arbitrary uploads are never rejected.
type FallbackExtractor struct{}

// NewFallbackExtractor creates a new FallbackExtractor
func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{}
}

// Extract decodes the file as UTF-8, replacing anything invalid
func (e *FallbackExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	text, lossy := decodeUTF8(data)

	metadata := map[string]string{"lossy": "false"}
	if lossy {
		metadata["lossy"] = "true"
	}

	return domain.NewExtractedDocument(text, domain.SourceTypeFallback, metadata)
}

// decodeUTF8 returns the input as a string, substituting U+FFFD for invalid
// sequences, and reports whether any substitution happened
func decodeUTF8(data []byte) (string, bool) {
	if utf8.Valid(data) {
		return string(data), false
	}
	return strings.ToValidUTF8(string(data), "�"), true
}
