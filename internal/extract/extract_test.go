package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     domain.SourceType
	}{
		{name: "txt", filename: "notes.txt", want: domain.SourceTypeText},
		{name: "markdown", filename: "README.md", want: domain.SourceTypeText},
		{name: "csv", filename: "export.csv", want: domain.SourceTypeText},
		{name: "log", filename: "server.log", want: domain.SourceTypeText},
		{name: "eml", filename: "complaint.eml", want: domain.SourceTypeEmail},
		{name: "pdf", filename: "contract.pdf", want: domain.SourceTypePDF},
		{name: "docx", filename: "memo.docx", want: domain.SourceTypeDocx},
		{name: "pptx", filename: "deck.pptx", want: domain.SourceTypePptx},
		{name: "html", filename: "page.html", want: domain.SourceTypeHTML},
		{name: "htm", filename: "page.htm", want: domain.SourceTypeHTML},
		{name: "mp3", filename: "interview.mp3", want: domain.SourceTypeAudio},
		{name: "wav", filename: "call.wav", want: domain.SourceTypeAudio},
		{name: "m4a", filename: "voicemail.m4a", want: domain.SourceTypeAudio},
		{name: "webm", filename: "recording.webm", want: domain.SourceTypeAudio},
		{name: "uppercase extension", filename: "SCAN.PDF", want: domain.SourceTypePDF},
		{name: "unknown extension", filename: "data.xyz", want: domain.SourceTypeFallback},
		{name: "no extension", filename: "LICENSE", want: domain.SourceTypeFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename))
		})
	}
}

func TestRouterEmptyFile(t *testing.T) {
	router := NewRouter(RouterConfig{})

	doc := router.Extract(context.Background(), "empty.txt", nil)

	require.True(t, doc.Failed())
	assert.Equal(t, "empty file", doc.Err)
	assert.Equal(t, domain.SourceTypeText, doc.SourceType)
}

func TestRouterUnknownExtensionUsesFallback(t *testing.T) {
	router := NewRouter(RouterConfig{})

	doc := router.Extract(context.Background(), "blob.xyz", []byte("arbitrary bytes that happen to be text"))

	require.False(t, doc.Failed())
	assert.Equal(t, domain.SourceTypeFallback, doc.SourceType)
	assert.Equal(t, "arbitrary bytes that happen to be text", doc.Text)
}

func TestRouterAudioWithoutTranscriber(t *testing.T) {
	router := NewRouter(RouterConfig{})

	doc := router.Extract(context.Background(), "call.mp3", []byte{0xff, 0xfb, 0x90})

	require.True(t, doc.Failed())
	assert.Contains(t, doc.Err, "transcription is not configured")
}

func TestRouterRegisterOverridesStrategy(t *testing.T) {
	router := NewRouter(RouterConfig{})
	router.Register(domain.SourceTypeText, ExtractorFunc(func(_ context.Context, _ string, _ []byte) domain.ExtractedDocument {
		return domain.NewExtractedDocument("replaced", domain.SourceTypeText, nil)
	}))

	doc := router.Extract(context.Background(), "notes.txt", []byte("original"))

	assert.Equal(t, "replaced", doc.Text)
}

func TestTextExtractorValidUTF8(t *testing.T) {
	e := NewTextExtractor()

	doc := e.Extract(context.Background(), "notes.txt", []byte("Le témoin a confirmé."))

	require.False(t, doc.Failed())
	assert.Equal(t, "Le témoin a confirmé.", doc.Text)
	assert.Equal(t, "false", doc.Metadata["lossy"])
}

func TestTextExtractorLossyDecode(t *testing.T) {
	e := NewTextExtractor()

	// 0xFF is never valid UTF-8.
	doc := e.Extract(context.Background(), "notes.txt", []byte{'o', 'k', 0xff, '!', 0xfe})

	require.False(t, doc.Failed())
	assert.Equal(t, "true", doc.Metadata["lossy"])
	assert.Contains(t, doc.Text, "ok")
	assert.Contains(t, doc.Text, "�")
}

func TestFallbackExtractorAlwaysSucceeds(t *testing.T) {
	e := NewFallbackExtractor()

	doc := e.Extract(context.Background(), "blob.bin", []byte{0x00, 0xff, 'h', 'i', 0xfe})

	require.False(t, doc.Failed())
	assert.Equal(t, domain.SourceTypeFallback, doc.SourceType)
	assert.NotEmpty(t, doc.Text)
}
