package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// Transcription is the result of one successful transcription attempt
type Transcription struct {
	Text            string
	Language        string
	DurationSeconds float64
	Model           string
}

// Transcriber converts audio bytes into text. Remote and local transcription
// services implement it interchangeably.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, filename string, data []byte) (*Transcription, error)
}

// AudioExtractor runs an ordered chain of transcribers. Each stage is tried
// in turn; the first success wins and later stages are never invoked. The
// extractor fails only when every stage has failed.
type AudioExtractor struct {
	stages []Transcriber
}

// NewAudioExtractor creates a new AudioExtractor over the given stages
func NewAudioExtractor(stages ...Transcriber) *AudioExtractor {
	return &AudioExtractor{stages: stages}
}

// Extract transcribes the audio file through the stage chain
func (e *AudioExtractor) Extract(ctx context.Context, filename string, data []byte) domain.ExtractedDocument {
	if len(e.stages) == 0 {
		return domain.NewExtractionFailure(domain.SourceTypeAudio, "transcription is not configured")
	}

	var failures []string
	for _, stage := range e.stages {
		if ctx.Err() != nil {
			return domain.NewExtractionFailure(domain.SourceTypeAudio, fmt.Sprintf("transcription cancelled: %v", ctx.Err()))
		}

		result, err := stage.Transcribe(ctx, filename, data)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stage.Name(), err))
			continue
		}
		if strings.TrimSpace(result.Text) == "" {
			failures = append(failures, fmt.Sprintf("%s: empty transcript", stage.Name()))
			continue
		}

		metadata := map[string]string{
			"method": stage.Name(),
			"format": strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		}
		if result.Language != "" {
			metadata["language"] = result.Language
		}
		if result.DurationSeconds > 0 {
			metadata["durationSeconds"] = strconv.FormatFloat(result.DurationSeconds, 'f', 2, 64)
		}
		if result.Model != "" {
			metadata["model"] = result.Model
		}

		return domain.NewExtractedDocument(strings.TrimSpace(result.Text), domain.SourceTypeAudio, metadata)
	}

	return domain.NewExtractionFailure(domain.SourceTypeAudio,
		fmt.Sprintf("all transcription stages failed: %s", strings.Join(failures, "; ")))
}
