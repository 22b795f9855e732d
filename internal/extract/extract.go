// Package extract turns uploaded case files into plain text. One extractor
// per format, registered in a Router that dispatches by file extension and
// never rejects a file outright: unknown formats fall through to a lossy
// UTF-8 decode.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// Extractor converts one uploaded file into an ExtractedDocument. Extractors
// never return a Go error: failures are carried in the document's Err field
// so a batch can collect them per file.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) domain.ExtractedDocument
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, filename string, data []byte) domain.ExtractedDocument

// Extract implements the Extractor interface
func (f ExtractorFunc) Extract(ctx context.Context, filename string, data []byte) domain.ExtractedDocument {
	return f(ctx, filename, data)
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".wma":  true,
	".webm": true,
}

// DetectFormat classifies a file by its extension, case-insensitively.
// Unrecognized extensions map to SourceTypeFallback; detection never fails.
func DetectFormat(filename string) domain.SourceType {
	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".txt" || ext == ".md" || ext == ".csv" || ext == ".log":
		return domain.SourceTypeText
	case ext == ".eml":
		return domain.SourceTypeEmail
	case ext == ".pdf":
		return domain.SourceTypePDF
	case ext == ".docx":
		return domain.SourceTypeDocx
	case ext == ".pptx":
		return domain.SourceTypePptx
	case ext == ".html" || ext == ".htm":
		return domain.SourceTypeHTML
	case audioExtensions[ext]:
		return domain.SourceTypeAudio
	default:
		return domain.SourceTypeFallback
	}
}

// RouterConfig configures the extraction router
type RouterConfig struct {
	// Audio handles transcription; when nil, audio uploads fail with a
	// per-file error instead of being rejected at the router.
	Audio Extractor

	// PDFMinTextChars is the minimum extracted character count below which
	// a PDF counts as having no extractable text.
	PDFMinTextChars int
}

// Router dispatches files to per-format extraction strategies
type Router struct {
	strategies map[domain.SourceType]Extractor
	fallback   Extractor
}

// NewRouter creates a Router with the default strategy set registered
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		strategies: make(map[domain.SourceType]Extractor),
		fallback:   NewFallbackExtractor(),
	}

	r.Register(domain.SourceTypeText, NewTextExtractor())
	r.Register(domain.SourceTypeEmail, NewEmailExtractor())
	r.Register(domain.SourceTypePDF, NewPDFExtractor(cfg.PDFMinTextChars))
	r.Register(domain.SourceTypeDocx, NewDocxExtractor())
	r.Register(domain.SourceTypePptx, NewPptxExtractor())
	r.Register(domain.SourceTypeHTML, NewHTMLExtractor())

	if cfg.Audio != nil {
		r.Register(domain.SourceTypeAudio, cfg.Audio)
	} else {
		r.Register(domain.SourceTypeAudio, ExtractorFunc(func(_ context.Context, _ string, _ []byte) domain.ExtractedDocument {
			return domain.NewExtractionFailure(domain.SourceTypeAudio, "transcription is not configured")
		}))
	}

	return r
}

// Register installs a strategy for a format, replacing any existing one
func (r *Router) Register(t domain.SourceType, e Extractor) {
	r.strategies[t] = e
}

// Extract runs the strategy for the file's detected format. Empty files fail
// uniformly regardless of format.
func (r *Router) Extract(ctx context.Context, filename string, data []byte) domain.ExtractedDocument {
	format := DetectFormat(filename)

	if len(data) == 0 {
		return domain.NewExtractionFailure(format, "empty file")
	}

	strategy, ok := r.strategies[format]
	if !ok {
		strategy = r.fallback
	}

	return strategy.Extract(ctx, filename, data)
}
