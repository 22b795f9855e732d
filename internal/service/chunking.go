package service

import (
	"strings"
	"unicode"
)

// ChunkConfig controls how extracted text is split before embedding.
type ChunkConfig struct {
	MaxWords     int
	OverlapWords int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxWords:     200,
		OverlapWords: 50,
	}
}

// TextChunk is one chunker window. Offsets are rune positions into the
// newline-normalized source text, spanning the first to the last word of
// the window.
type TextChunk struct {
	Text      string
	StartChar int
	EndChar   int
}

type textWord struct {
	text  string
	start int
	end   int
}

// chunkText splits text paragraph-first, then windows long paragraphs over
// words with overlap. Paragraph boundaries are blank lines, so email blocks
// and document sections stay intact. Chunk text is the window's words joined
// by single spaces.
func chunkText(text string, cfg ChunkConfig) []TextChunk {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(normalized) == "" {
		return nil
	}
	if cfg.MaxWords <= 0 {
		cfg = DefaultChunkConfig()
	}

	overlap := cfg.OverlapWords
	if overlap < 0 {
		overlap = 0
	}
	// Keep the stride positive, otherwise the window never advances.
	if overlap >= cfg.MaxWords {
		overlap = cfg.MaxWords - 1
	}

	chunks := make([]TextChunk, 0, 8)
	for _, words := range paragraphWords(normalized) {
		if len(words) <= cfg.MaxWords {
			chunks = append(chunks, windowChunk(words))
			continue
		}

		start := 0
		n := len(words)
		for start < n {
			end := start + cfg.MaxWords
			if end > n {
				end = n
			}
			chunks = append(chunks, windowChunk(words[start:end]))
			if end == n {
				break
			}
			start = end - overlap
		}
	}
	return chunks
}

// paragraphWords tokenizes text into words grouped by paragraph. A run of
// whitespace containing two or more newlines ends the current paragraph.
func paragraphWords(text string) [][]textWord {
	runes := []rune(text)
	n := len(runes)

	var paragraphs [][]textWord
	var current []textWord

	i := 0
	for i < n {
		if unicode.IsSpace(runes[i]) {
			newlines := 0
			for i < n && unicode.IsSpace(runes[i]) {
				if runes[i] == '\n' {
					newlines++
				}
				i++
			}
			if newlines >= 2 && len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}

		start := i
		for i < n && !unicode.IsSpace(runes[i]) {
			i++
		}
		current = append(current, textWord{
			text:  string(runes[start:i]),
			start: start,
			end:   i,
		})
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	return paragraphs
}

func windowChunk(words []textWord) TextChunk {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.text
	}
	return TextChunk{
		Text:      strings.Join(parts, " "),
		StartChar: words[0].start,
		EndChar:   words[len(words)-1].end,
	}
}
