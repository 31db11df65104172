// Package types defines core data types and enums shared across the
// profile generator application.
package types

// Provider identifies which LLM backend generates profile data.
type Provider string

const (
	// ProviderGemini uses the Google Gemini API (the default).
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI uses any OpenAI-compatible chat completions endpoint.
	ProviderOpenAI Provider = "openai"
)

// Config is the persisted application configuration.
type Config struct {
	Provider       Provider `json:"provider"`
	GeminiAPIKey   string   `json:"gemini_api_key"`
	OpenAIAPIKey   string   `json:"openai_api_key"`
	OpenAIBaseURL  string   `json:"openai_base_url"`
	Model          string   `json:"model"`
	OutputDir      string   `json:"output_dir"`
	TemplateDir    string   `json:"template_dir"`
	RequestTimeout int      `json:"request_timeout_seconds"`
	MaxRetries     int      `json:"max_retries"`
	CooldownSecs   int      `json:"cooldown_seconds"`
	ChromePath     string   `json:"chrome_path"`
	LastCompanies  string   `json:"last_companies"`
	LastTemplate   string   `json:"last_template"`
}

// ProcessPhase enumerates pipeline phases.
type ProcessPhase string

const (
	PhaseIdle      ProcessPhase = "idle"
	PhaseScanning  ProcessPhase = "scanning"
	PhaseProfiling ProcessPhase = "profiling"
	PhaseLogos     ProcessPhase = "logos"
	PhaseBuilding  ProcessPhase = "building"
	PhaseRendering ProcessPhase = "rendering"
	PhaseComplete  ProcessPhase = "complete"
	PhaseError     ProcessPhase = "error"
)

// Status describes the current pipeline state reported to the UI.
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// CompanyReport records the per-company outcome of a pipeline run.
type CompanyReport struct {
	Company     string `json:"company"`
	SafeName    string `json:"safe_name"`
	DataPath    string `json:"data_path,omitempty"`
	LogoPath    string `json:"logo_path,omitempty"`
	HTMLPath    string `json:"html_path,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty"`
	ProfileOK   bool   `json:"profile_ok"`
	LogoOK      bool   `json:"logo_ok"`
	HTMLOK      bool   `json:"html_ok"`
	PDFOK       bool   `json:"pdf_ok"`
	FailureNote string `json:"failure_note,omitempty"`
}

// PipelineResult is the summary returned when a run finishes.
type PipelineResult struct {
	OutputDir string          `json:"output_dir"`
	Template  string          `json:"template"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Reports   []CompanyReport `json:"reports"`
}

// ErrorCode classifies application errors.
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrDownload     ErrorCode = "DOWNLOAD_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrTemplate     ErrorCode = "TEMPLATE_ERROR"
	ErrRender       ErrorCode = "RENDER_ERROR"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error type carrying a classification code.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause.
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// NewAppErrorWithDetails creates a new AppError with a details string.
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Details: details, Cause: cause}
}
