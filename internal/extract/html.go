package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// HTMLExtractor handles .html and .htm files
type HTMLExtractor struct {
	conv *converter.Converter
}

// NewHTMLExtractor creates a new HTMLExtractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Extract converts the page to markdown, which drops script and style
// content, then collapses runs of blank lines. The chunker treats markdown
// as plain text.
func (e *HTMLExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	markdown, err := e.conv.ConvertString(string(data))
	if err != nil {
		return domain.NewExtractionFailure(domain.SourceTypeHTML, fmt.Sprintf("failed to convert HTML: %v", err))
	}

	return domain.NewExtractedDocument(collapseBlankLines(markdown), domain.SourceTypeHTML, map[string]string{})
}

// collapseBlankLines trims every line and squeezes runs of blank lines down
// to single paragraph breaks
func collapseBlankLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}
