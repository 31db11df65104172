package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// ChatBackend generates text through any OpenAI-compatible chat completions
// endpoint (OpenAI itself, or self-hosted gateways exposing the same API).
type ChatBackend struct {
	chatModel *openai.ChatModel
	model     string
}

// NewChatBackend creates an OpenAI-compatible backend. baseURL may be empty to
// use the official OpenAI endpoint.
func NewChatBackend(ctx context.Context, apiKey, baseURL, model string) (*ChatBackend, error) {
	if apiKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "OpenAI API key is not configured", nil)
	}
	if model == "" {
		model = "gpt-4o"
	}

	temperature := float32(GenTemperature)
	topP := float32(GenTopP)
	maxTokens := GenMaxOutputTokens

	chatModelConfig := &openai.ChatModelConfig{
		Model:       model,
		APIKey:      apiKey,
		Temperature: &temperature,
		TopP:        &topP,
		MaxTokens:   &maxTokens,
	}
	if baseURL != "" {
		chatModelConfig.BaseURL = baseURL
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}

	return &ChatBackend{chatModel: chatModel, model: model}, nil
}

// Generate sends the prompt as a single user message and returns the reply.
func (c *ChatBackend) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage("You are a JSON generator. Respond with valid JSON only, no markdown fences."),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", classifyChatError(err)
	}
	if response == nil || response.Content == "" {
		return "", types.NewAppError(types.ErrAPICall, "chat model returned an empty response", nil)
	}
	return response.Content, nil
}

// Name identifies the backend for logging.
func (c *ChatBackend) Name() string {
	return fmt.Sprintf("openai:%s", c.model)
}

// classifyChatError maps chat completion failures onto application error codes.
// The eino client surfaces HTTP status in the error text, so classification is
// by substring.
func classifyChatError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return types.NewAppError(types.ErrAPIRateLimit, "API rate limit exceeded", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return types.NewAppError(types.ErrAPICall, "API authentication failed", err)
	case strings.Contains(msg, "status 5") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return types.NewAppErrorWithDetails(types.ErrAPICall, "API server error", "status 5xx", err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") || strings.Contains(msg, "no such host"):
		return types.NewAppError(types.ErrNetwork, "API request failed", err)
	default:
		return types.NewAppError(types.ErrAPICall, "API request failed", err)
	}
}
