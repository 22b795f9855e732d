package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

const (
	// DefaultChatModel is the model used for analysis and Q&A prompts
	DefaultChatModel = "gpt-4o-mini"
	// DefaultChatTemperature is applied when the config leaves it unset
	DefaultChatTemperature = 0.2
)

// Chat roles accepted by the completion API.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ErrEmptyPrompt is returned when a completion is requested without a user prompt
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, messages []ChatMessage, jsonObject bool) (string, error)
}

// ChatClient wraps chat completions for analysis and Q&A prompts
type ChatClient struct {
	api ChatAPI
}

type ChatAdapter struct {
	client      *openai.Client
	model       string
	temperature float32
}

type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

func NewChatAdapter(cfg ChatConfig) *ChatAdapter {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultChatTemperature
	}
	return &ChatAdapter{
		client:      newAPIClient(cfg.APIKey, cfg.BaseURL),
		model:       model,
		temperature: temperature,
	}
}

// CreateChatCompletion calls the OpenAI API and returns the first choice.
func (a *ChatAdapter) CreateChatCompletion(ctx context.Context, messages []ChatMessage, jsonObject bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	if jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewChatClient creates a chat client backed by the OpenAI API.
func NewChatClient(cfg ChatConfig) *ChatClient {
	return &ChatClient{api: NewChatAdapter(cfg)}
}

// NewChatClientWithAPI creates a chat client with a custom API implementation (for testing)
func NewChatClientWithAPI(api ChatAPI) *ChatClient {
	return &ChatClient{api: api}
}

// Complete answers the user prompt with free text. Prior exchanges are
// replayed as alternating user and assistant turns between the system prompt
// and the final question, so follow-ups can refer to earlier answers.
func (c *ChatClient) Complete(ctx context.Context, system, user string, history []domain.Exchange) (string, error) {
	return c.complete(ctx, buildMessages(system, user, history), false)
}

// CompleteJSON answers the user prompt in JSON-object response mode.
func (c *ChatClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, buildMessages(system, user, nil), true)
}

func (c *ChatClient) complete(ctx context.Context, messages []ChatMessage, jsonObject bool) (string, error) {
	last := messages[len(messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return "", ErrEmptyPrompt
	}

	content, err := c.api.CreateChatCompletion(ctx, messages, jsonObject)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	return content, nil
}

func buildMessages(system, user string, history []domain.Exchange) []ChatMessage {
	messages := make([]ChatMessage, 0, 2*len(history)+2)
	if system != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: system})
	}
	for _, turn := range history {
		messages = append(messages, ChatMessage{Role: RoleUser, Content: turn.Question})
		messages = append(messages, ChatMessage{Role: RoleAssistant, Content: turn.Answer})
	}
	return append(messages, ChatMessage{Role: RoleUser, Content: user})
}
