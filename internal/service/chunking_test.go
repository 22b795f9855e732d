package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(words, " ")
}

func chunkWords(c TextChunk) []string {
	return strings.Fields(c.Text)
}

func TestChunkTextEmpty(t *testing.T) {
	cfg := DefaultChunkConfig()

	assert.Nil(t, chunkText("", cfg))
	assert.Nil(t, chunkText("   \n\t  ", cfg))
}

func TestChunkTextShortParagraph(t *testing.T) {
	chunks := chunkText("  Hello   brave\tworld ", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello brave world", chunks[0].Text)
}

func TestChunkTextParagraphBoundaries(t *testing.T) {
	text := "alpha beta\n\ngamma"

	chunks := chunkText(text, DefaultChunkConfig())

	require.Len(t, chunks, 2)
	assert.Equal(t, "alpha beta", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 10, chunks[0].EndChar)
	assert.Equal(t, "gamma", chunks[1].Text)
	assert.Equal(t, 12, chunks[1].StartChar)
	assert.Equal(t, 17, chunks[1].EndChar)
}

func TestChunkTextNormalizesCRLF(t *testing.T) {
	chunks := chunkText("first block\r\n\r\nsecond block", DefaultChunkConfig())

	require.Len(t, chunks, 2)
	assert.Equal(t, "first block", chunks[0].Text)
	assert.Equal(t, "second block", chunks[1].Text)
}

func TestChunkTextSingleNewlineStaysInParagraph(t *testing.T) {
	chunks := chunkText("line one\nline two", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "line one line two", chunks[0].Text)
}

func TestChunkTextExactMaxIsSingleChunk(t *testing.T) {
	cfg := ChunkConfig{MaxWords: 200, OverlapWords: 50}

	chunks := chunkText(numberedWords(200), cfg)

	require.Len(t, chunks, 1)
	assert.Len(t, chunkWords(chunks[0]), 200)
}

func TestChunkTextWindowsLongParagraph(t *testing.T) {
	cfg := ChunkConfig{MaxWords: 200, OverlapWords: 50}

	chunks := chunkText(numberedWords(500), cfg)

	// Windows start at words 0, 150 and 300.
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(chunkWords(c)), cfg.MaxWords, "chunk %d too wide", i)
	}

	first := chunkWords(chunks[0])
	second := chunkWords(chunks[1])
	third := chunkWords(chunks[2])

	assert.Equal(t, "w1", first[0])
	assert.Equal(t, "w151", second[0])
	assert.Equal(t, "w301", third[0])
	assert.Equal(t, "w500", third[len(third)-1])

	// Adjacent windows share exactly the overlap.
	assert.Equal(t, first[len(first)-cfg.OverlapWords:], second[:cfg.OverlapWords])
}

func TestChunkTextOffsetsAreOrdered(t *testing.T) {
	cfg := ChunkConfig{MaxWords: 10, OverlapWords: 3}

	chunks := chunkText(numberedWords(40), cfg)

	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].StartChar, chunks[i-1].StartChar)
		assert.Greater(t, chunks[i].EndChar, chunks[i].StartChar)
	}
}

func TestChunkTextClampsOverlap(t *testing.T) {
	cfg := ChunkConfig{MaxWords: 5, OverlapWords: 10}

	chunks := chunkText(numberedWords(12), cfg)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(chunkWords(c)), 5)
	}
	last := chunkWords(chunks[len(chunks)-1])
	assert.Equal(t, "w12", last[len(last)-1])
}

func TestChunkTextZeroConfigFallsBackToDefaults(t *testing.T) {
	chunks := chunkText(numberedWords(250), ChunkConfig{})

	// 250 words under the 200-word default splits into two windows.
	require.Len(t, chunks, 2)
}

func TestChunkTextStableOnRechunk(t *testing.T) {
	cfg := DefaultChunkConfig()

	first := chunkText("A short settlement paragraph about the dispute.", cfg)
	require.Len(t, first, 1)

	second := chunkText(first[0].Text, cfg)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Text, second[0].Text)
}
