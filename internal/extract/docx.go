package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// DocxExtractor handles Word .docx files
type DocxExtractor struct{}

// NewDocxExtractor creates a new DocxExtractor
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Extract concatenates paragraph text from word/document.xml in document
// order. A document with no text is valid empty output, not a failure.
func (e *DocxExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.NewExtractionFailure(domain.SourceTypeDocx, fmt.Sprintf("not a valid docx archive: %v", err))
	}

	content, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return domain.NewExtractionFailure(domain.SourceTypeDocx, "docx archive has no word/document.xml")
	}

	paragraphs := parseDocxParagraphs(content)

	metadata := map[string]string{
		"paragraphCount": strconv.Itoa(len(paragraphs)),
	}

	return domain.NewExtractedDocument(strings.Join(paragraphs, "\n\n"), domain.SourceTypeDocx, metadata)
}

// wordDocument mirrors the paragraph/run/text nesting of word/document.xml
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Texts []wordText `xml:"t"`
}

type wordText struct {
	Value string `xml:",chardata"`
}

// parseDocxParagraphs extracts non-empty paragraph strings in order
func parseDocxParagraphs(content []byte) []string {
	var doc wordDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil
	}

	var paragraphs []string
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs {
			for _, text := range run.Texts {
				sb.WriteString(text.Value)
			}
		}
		if p := strings.TrimSpace(sb.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// readZipFile reads one named entry out of a zip archive
func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found", name)
}
