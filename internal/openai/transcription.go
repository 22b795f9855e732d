package openai

import (
	"bytes"
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Aashrithhh/Legal-Assistant/internal/extract"
)

// DefaultLocalWhisperModel is the model size requested from a self-hosted server
const DefaultLocalWhisperModel = "base"

// WhisperTranscriber is one stage of the audio transcription chain, backed by
// an OpenAI-compatible transcription endpoint.
type WhisperTranscriber struct {
	name   string
	client *openai.Client
	model  string
}

// NewRemoteTranscriber targets the hosted Whisper API.
func NewRemoteTranscriber(apiKey, baseURL, model string) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		name:   "remote",
		client: newAPIClient(apiKey, baseURL),
		model:  model,
	}
}

// NewLocalTranscriber targets a self-hosted OpenAI-compatible transcription
// server, for example a faster-whisper container. No API key is sent.
func NewLocalTranscriber(baseURL, model string) *WhisperTranscriber {
	if model == "" {
		model = DefaultLocalWhisperModel
	}
	return &WhisperTranscriber{
		name:   "local",
		client: newAPIClient("", baseURL),
		model:  model,
	}
}

func (t *WhisperTranscriber) Name() string { return t.name }

// Transcribe sends the audio bytes for transcription. The verbose response
// format carries language and duration alongside the text.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (*extract.Transcription, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}

	return &extract.Transcription{
		Text:            strings.TrimSpace(resp.Text),
		Language:        resp.Language,
		DurationSeconds: resp.Duration,
		Model:           t.model,
	}, nil
}
