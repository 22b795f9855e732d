package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// PptxExtractor handles PowerPoint .pptx files
type PptxExtractor struct{}

// NewPptxExtractor creates a new PptxExtractor
func NewPptxExtractor() *PptxExtractor {
	return &PptxExtractor{}
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extract concatenates shape text from each slide in slide order. A deck with
// no text is valid empty output, not a failure.
func (e *PptxExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.NewExtractionFailure(domain.SourceTypePptx, fmt.Sprintf("not a valid pptx archive: %v", err))
	}

	// Zip entry order is not slide order; sort by slide number.
	type slideEntry struct {
		name   string
		number int
	}
	var slides []slideEntry
	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			continue
		}
		slides = append(slides, slideEntry{name: file.Name, number: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var parts []string
	for _, slide := range slides {
		content, readErr := readZipFile(reader, slide.name)
		if readErr != nil {
			continue
		}
		if text := parseSlideText(content); text != "" {
			parts = append(parts, text)
		}
	}

	metadata := map[string]string{
		"slideCount": strconv.Itoa(len(slides)),
	}

	return domain.NewExtractedDocument(strings.Join(parts, "\n\n"), domain.SourceTypePptx, metadata)
}

// parseSlideText walks a slide's XML collecting DrawingML text runs,
// flushing a line per paragraph element. Shape nesting varies too much for a
// struct unmarshal, so this streams tokens instead.
func parseSlideText(content []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var lines []string
	var current strings.Builder
	inTextRun := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" && strings.Contains(t.Name.Space, "drawingml") {
				inTextRun = true
			}
		case xml.CharData:
			if inTextRun {
				current.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "t":
				inTextRun = false
			case t.Name.Local == "p" && strings.Contains(t.Name.Space, "drawingml"):
				if line := strings.TrimSpace(current.String()); line != "" {
					lines = append(lines, line)
				}
				current.Reset()
			}
		}
	}

	if line := strings.TrimSpace(current.String()); line != "" {
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
