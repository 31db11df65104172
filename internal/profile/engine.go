// Package profile generates fictional corporate profile data using LLM backends.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

const (
	// MaxRetries is the maximum number of attempts for a single generation call
	MaxRetries = 3
	// RateLimitWait is how long to wait before retrying after a rate limit response
	RateLimitWait = 20 * time.Second
	// BaseRetryDelay is the base delay between retries for transient errors
	BaseRetryDelay = 2 * time.Second

	// Generation parameters shared by all backends
	GenTemperature     = 0.8
	GenTopP            = 0.95
	GenTopK            = 40
	GenMaxOutputTokens = 4096
)

// Backend is a minimal text-generation interface implemented by each LLM provider.
type Backend interface {
	// Generate sends a single prompt and returns the raw model output.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend for logging.
	Name() string
}

// Engine wraps a Backend with prompt construction, retry logic and JSON cleanup.
type Engine struct {
	backend        Backend
	maxRetries     int
	requestTimeout time.Duration
}

// NewEngine creates a profile engine on top of the given backend.
func NewEngine(backend Backend) *Engine {
	return &Engine{backend: backend, maxRetries: MaxRetries}
}

// SetMaxRetries overrides the attempt count per generation call.
// Values below 1 are ignored.
func (e *Engine) SetMaxRetries(n int) {
	if n >= 1 {
		e.maxRetries = n
	}
}

// SetRequestTimeout bounds each individual backend call. Zero means no
// per-call limit beyond the caller's context.
func (e *Engine) SetRequestTimeout(d time.Duration) {
	e.requestTimeout = d
}

// BuildPrompt constructs the generation prompt for one company. The field list
// comes from scanning the selected HTML template, so the model produces exactly
// the keys the template needs. With no fields the model picks its own default
// set of profile keys.
func BuildPrompt(company string, fields []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Generate a comprehensive, realistic but fictional corporate profile for a company named '%s'.\n", company))
	b.WriteString("The output must be a single JSON object.\n\n")
	if len(fields) == 0 {
		b.WriteString("Choose an appropriate default set of JSON keys for a corporate profile.\n")
	} else {
		b.WriteString("Include exactly these JSON keys:\n")
		for _, f := range fields {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Information must be realistic enough for training scenarios.\n")
	b.WriteString("- For address fields, provide full plausible addresses.\n")
	b.WriteString("- For lists (like key_technologies or aliases), provide 3-5 items.\n")
	b.WriteString("- If you cannot find real data, invent realistic details consistent with the company's industry.\n")
	b.WriteString("- Return ONLY the JSON object.\n")
	return b.String()
}

// ExtractJSONObject strips markdown code fences and any surrounding prose from
// a model response, returning the outermost JSON object.
func ExtractJSONObject(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```json") {
		clean = clean[len("```json"):]
	} else if strings.HasPrefix(clean, "```") {
		clean = clean[len("```"):]
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end == -1 || end < start {
		return "", types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"model response contains no JSON object",
			truncateForLog(raw, 100),
			nil,
		)
	}
	return clean[start : end+1], nil
}

// GenerateProfile asks the backend for a company profile and parses the result.
// Rate limit responses wait RateLimitWait before retrying; other transient
// errors back off linearly. Non-retryable errors fail immediately.
func (e *Engine) GenerateProfile(ctx context.Context, company string, fields []string) (map[string]interface{}, error) {
	prompt := BuildPrompt(company, fields)
	logger.Debug("generating profile",
		logger.String("company", company),
		logger.String("backend", e.backend.Name()),
		logger.Int("fieldCount", len(fields)))

	raw, err := e.generateWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	jsonText, err := ExtractJSONObject(raw)
	if err != nil {
		logger.Error("failed to locate JSON in model response", err,
			logger.String("company", company))
		return nil, err
	}

	var profile map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &profile); err != nil {
		logger.Error("failed to parse profile JSON", err, logger.String("company", company))
		return nil, types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"model returned invalid JSON",
			truncateForLog(jsonText, 100),
			err,
		)
	}

	for _, f := range fields {
		if _, ok := profile[f]; !ok {
			logger.Warn("model response missing field",
				logger.String("company", company),
				logger.String("field", f))
		}
	}

	return profile, nil
}

// generateWithRetry runs the backend call with the retry policy.
func (e *Engine) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", types.NewAppError(types.ErrInternal, "generation cancelled", err)
		}

		raw, err := e.generateOnce(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		logger.Warn("generation attempt failed", logger.Int("attempt", attempt), logger.Err(err))

		if !isRetryableError(err) {
			return "", err
		}
		if attempt == e.maxRetries {
			break
		}

		delay := BaseRetryDelay * time.Duration(attempt)
		if appErr, ok := err.(*types.AppError); ok && appErr.Code == types.ErrAPIRateLimit {
			delay = RateLimitWait
		}
		logger.Debug("retrying after delay", logger.String("delay", delay.String()))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", types.NewAppError(types.ErrInternal, "generation cancelled", ctx.Err())
		}
	}

	return "", types.NewAppErrorWithDetails(
		types.ErrAPICall,
		"profile generation failed after multiple retries",
		fmt.Sprintf("attempted %d times", e.maxRetries),
		lastErr,
	)
}

// generateOnce runs a single backend call under the per-request timeout.
func (e *Engine) generateOnce(ctx context.Context, prompt string) (string, error) {
	if e.requestTimeout > 0 {
		callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
		ctx = callCtx
	}
	return e.backend.Generate(ctx, prompt)
}

// TestConnection sends a minimal request to verify the backend is reachable
// and the API key works.
func (e *Engine) TestConnection(ctx context.Context) error {
	logger.Info("testing LLM connection", logger.String("backend", e.backend.Name()))

	raw, err := e.backend.Generate(ctx, "Reply with only the word 'ok', nothing else.")
	if err != nil {
		logger.Error("LLM connection test failed", err)
		return err
	}

	reply := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(reply, "ok") {
		logger.Error("LLM returned unexpected test response", nil, logger.String("response", reply))
		return types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"unexpected model response",
			fmt.Sprintf("expected 'ok', got: %s", truncateForLog(reply, 50)),
			nil,
		)
	}

	logger.Info("LLM connection test successful")
	return nil
}

// SaveProfile writes the parsed profile as indented JSON into outputDir and
// returns the file path.
func SaveProfile(profile map[string]interface{}, company, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to encode profile JSON", err)
	}

	path := filepath.Join(outputDir, parser.DataFileName(parser.SafeName(company)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to write profile file", err)
	}

	logger.Info("profile saved", logger.String("company", company), logger.String("path", path))
	return path, nil
}

// isRetryableError reports whether a failed generation call should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*types.AppError); ok {
		switch appErr.Code {
		case types.ErrNetwork, types.ErrAPIRateLimit:
			return true
		case types.ErrAPICall:
			return strings.Contains(appErr.Details, "status 5")
		default:
			return false
		}
	}
	return false
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
