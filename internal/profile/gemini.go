package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// GeminiBackend generates text through the Google Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend with the given API key and model.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "Gemini API key is not configured", nil)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create Gemini client", err)
	}

	return &GeminiBackend{client: client, model: model}, nil
}

// Generate sends the prompt and returns the model's text response.
// JSON response mode is requested so the model skips prose wrappers.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](GenTemperature),
		TopP:             genai.Ptr[float32](GenTopP),
		TopK:             genai.Ptr[float32](GenTopK),
		MaxOutputTokens:  GenMaxOutputTokens,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", types.NewAppError(types.ErrAPICall, "Gemini returned an empty response", nil)
	}
	return text, nil
}

// Name identifies the backend for logging.
func (g *GeminiBackend) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}

// classifyGeminiError maps Gemini API failures onto application error codes so
// the retry policy can distinguish rate limits from hard failures.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return types.NewAppErrorWithDetails(types.ErrAPIRateLimit, "Gemini rate limit exceeded", apiErr.Message, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return types.NewAppErrorWithDetails(types.ErrAPICall, "Gemini authentication failed", apiErr.Message, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return types.NewAppErrorWithDetails(types.ErrAPICall, "Gemini server error",
				fmt.Sprintf("status %d: %s", apiErr.Code, apiErr.Message), err)
		default:
			return types.NewAppErrorWithDetails(types.ErrAPICall, "Gemini request failed",
				fmt.Sprintf("status %d: %s", apiErr.Code, apiErr.Message), err)
		}
	}
	return types.NewAppError(types.ErrNetwork, "Gemini request failed", err)
}
