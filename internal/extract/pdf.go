package extract

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// PDFExtractor handles .pdf files with a two-strategy chain: MuPDF rendering
// first, then a content-stream parse for documents MuPDF cannot open or
// yields nothing from. A page without text contributes an empty string; the
// whole file fails only when every page is empty under both strategies.
type PDFExtractor struct {
	minTextChars int
}

// NewPDFExtractor creates a new PDFExtractor. minTextChars is the threshold
// below which the combined page text counts as empty; values below 1 are
// raised to 1.
func NewPDFExtractor(minTextChars int) *PDFExtractor {
	if minTextChars < 1 {
		minTextChars = 1
	}
	return &PDFExtractor{minTextChars: minTextChars}
}

// Extract runs the strategy chain
func (e *PDFExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	text, pageCount, err := extractWithFitz(data)
	strategy := "mupdf"

	if err != nil || len(strings.TrimSpace(text)) < e.minTextChars {
		fallbackText, fallbackPages, fallbackErr := extractWithContentStream(data)
		if fallbackErr == nil && len(strings.TrimSpace(fallbackText)) >= e.minTextChars {
			text = fallbackText
			pageCount = fallbackPages
			strategy = "contentstream"
		} else if err != nil && fallbackErr != nil {
			return domain.NewExtractionFailure(domain.SourceTypePDF, "failed to open PDF with any strategy")
		} else if fallbackPages > pageCount {
			pageCount = fallbackPages
		}
	}

	if len(strings.TrimSpace(text)) < e.minTextChars {
		return domain.NewExtractionFailure(domain.SourceTypePDF, "no extractable text; document may be a scanned image")
	}

	metadata := map[string]string{
		"pageCount": strconv.Itoa(pageCount),
		"strategy":  strategy,
	}

	return domain.NewExtractedDocument(strings.TrimSpace(text), domain.SourceTypePDF, metadata)
}

// extractWithFitz extracts per-page text through MuPDF
func extractWithFitz(data []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, err
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var parts []string
	for i := 0; i < pageCount; i++ {
		pageText, pageErr := doc.Text(i)
		if pageErr != nil {
			continue
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return strings.Join(parts, "\n\n"), pageCount, nil
}

// extractWithContentStream parses PDF content-stream text operators directly,
// which recovers text from some files MuPDF rejects
func extractWithContentStream(data []byte) (string, int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, err
	}

	var parts []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, pageErr := pdfcpu.ExtractPageContent(ctx, pageNr)
		if pageErr != nil {
			continue
		}
		stream, readErr := io.ReadAll(r)
		if readErr != nil || len(stream) == 0 {
			continue
		}
		if pageText := parseContentStream(stream); pageText != "" {
			parts = append(parts, pageText)
		}
	}

	return strings.Join(parts, "\n\n"), ctx.PageCount, nil
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// parseContentStream collects the arguments of Tj/TJ/' show-text operators
func parseContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		showsText := bytes.HasSuffix(line, []byte("Tj")) ||
			bytes.HasSuffix(line, []byte("TJ")) ||
			(bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")))
		if showsText {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
			sb.WriteByte(' ')
			continue
		}

		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return squeezeSpaces(sb.String())
}

// decodePDFString handles backslash escapes, including octal byte values
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}

		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// squeezeSpaces drops unprintable runes and collapses whitespace runs
func squeezeSpaces(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
