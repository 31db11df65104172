// Package config provides configuration management for the profile
// generator application.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "profile-forge-config.json"
	// EnvGeminiAPIKey is the environment variable for the Gemini API key
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	// EnvOpenAIAPIKey is the environment variable for the OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable for the OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// DefaultBaseURL is the default OpenAI-compatible API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultGeminiModel is the default Gemini model
	DefaultGeminiModel = "gemini-2.5-flash"
	// DefaultOpenAIModel is the default model for OpenAI-compatible endpoints
	DefaultOpenAIModel = "gpt-4o"
	// DefaultOutputDir is the default directory for generated dossiers
	DefaultOutputDir = "output"
	// DefaultTemplateDir is the default directory scanned for HTML templates
	DefaultTemplateDir = "templates"
	// DefaultRequestTimeout is the default LLM request timeout in seconds
	DefaultRequestTimeout = 120
	// DefaultMaxRetries is the default number of LLM call attempts
	DefaultMaxRetries = 3
	// DefaultCooldownSecs is the default pause between companies in seconds
	DefaultCooldownSecs = 10
)

// Manager manages the application configuration file.
type Manager struct {
	configPath string
	config     *types.Config
}

// NewManager creates a Manager with the specified config path.
// If configPath is empty, the default path under the user's home directory
// is used.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "profile-forge", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *types.Config {
	return &types.Config{
		Provider:       types.ProviderGemini,
		OpenAIBaseURL:  DefaultBaseURL,
		Model:          "",
		OutputDir:      DefaultOutputDir,
		TemplateDir:    DefaultTemplateDir,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		CooldownSecs:   DefaultCooldownSecs,
	}
}

// Load loads configuration from the config file. A missing file or invalid
// JSON falls back to defaults. Defaults are applied to any empty field.
func (m *Manager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("provider", string(config.Provider)),
				logger.String("model", config.Model),
				logger.Int("geminiKeyLength", len(config.GeminiAPIKey)),
				logger.Int("openaiKeyLength", len(config.OpenAIAPIKey)))
			m.config = config
		}
	}

	if m.config.Provider == "" {
		m.config.Provider = types.ProviderGemini
	}
	if m.config.OpenAIBaseURL == "" {
		m.config.OpenAIBaseURL = DefaultBaseURL
	}
	if m.config.OutputDir == "" {
		m.config.OutputDir = DefaultOutputDir
	}
	if m.config.TemplateDir == "" {
		m.config.TemplateDir = DefaultTemplateDir
	}
	if m.config.RequestTimeout <= 0 {
		m.config.RequestTimeout = DefaultRequestTimeout
	}
	if m.config.MaxRetries <= 0 {
		m.config.MaxRetries = DefaultMaxRetries
	}
	if m.config.CooldownSecs < 0 {
		m.config.CooldownSecs = DefaultCooldownSecs
	}

	return nil
}

// Save saves the current configuration to the config file.
func (m *Manager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig replaces the entire configuration.
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetProvider returns the configured LLM provider.
func (m *Manager) GetProvider() types.Provider {
	if m.config != nil && m.config.Provider != "" {
		return m.config.Provider
	}
	return types.ProviderGemini
}

// GetAPIKey returns the API key for the active provider. The config file
// value wins; the matching environment variable is the fallback.
func (m *Manager) GetAPIKey() string {
	switch m.GetProvider() {
	case types.ProviderOpenAI:
		if m.config != nil && m.config.OpenAIAPIKey != "" {
			return m.config.OpenAIAPIKey
		}
		return os.Getenv(EnvOpenAIAPIKey)
	default:
		if m.config != nil && m.config.GeminiAPIKey != "" {
			return m.config.GeminiAPIKey
		}
		return os.Getenv(EnvGeminiAPIKey)
	}
}

// GetModel returns the model for the active provider, falling back to the
// provider default when unset.
func (m *Manager) GetModel() string {
	if m.config != nil && m.config.Model != "" {
		return m.config.Model
	}
	if m.GetProvider() == types.ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// GetBaseURL returns the OpenAI-compatible API base URL. The config file
// value wins, then the environment variable, then the default.
func (m *Manager) GetBaseURL() string {
	if m.config != nil && m.config.OpenAIBaseURL != "" {
		return m.config.OpenAIBaseURL
	}
	if envURL := os.Getenv(EnvOpenAIBaseURL); envURL != "" {
		return envURL
	}
	return DefaultBaseURL
}

// GetOutputDir returns the configured output directory.
func (m *Manager) GetOutputDir() string {
	if m.config != nil && m.config.OutputDir != "" {
		return m.config.OutputDir
	}
	return DefaultOutputDir
}

// GetTemplateDir returns the configured template directory.
func (m *Manager) GetTemplateDir() string {
	if m.config != nil && m.config.TemplateDir != "" {
		return m.config.TemplateDir
	}
	return DefaultTemplateDir
}

// GetRequestTimeout returns the LLM request timeout in seconds.
func (m *Manager) GetRequestTimeout() int {
	if m.config != nil && m.config.RequestTimeout > 0 {
		return m.config.RequestTimeout
	}
	return DefaultRequestTimeout
}

// GetMaxRetries returns the number of LLM call attempts per company.
func (m *Manager) GetMaxRetries() int {
	if m.config != nil && m.config.MaxRetries > 0 {
		return m.config.MaxRetries
	}
	return DefaultMaxRetries
}

// GetCooldownSecs returns the pause between companies in seconds.
func (m *Manager) GetCooldownSecs() int {
	if m.config != nil && m.config.CooldownSecs >= 0 {
		return m.config.CooldownSecs
	}
	return DefaultCooldownSecs
}

// GetChromePath returns the configured Chrome/Chromium binary path, empty
// when the renderer should locate one itself.
func (m *Manager) GetChromePath() string {
	if m.config != nil {
		return m.config.ChromePath
	}
	return ""
}

// GetLastCompanies returns the last companies text entered in the UI.
func (m *Manager) GetLastCompanies() string {
	if m.config != nil {
		return m.config.LastCompanies
	}
	return ""
}

// SetLastCompanies persists the last companies text. Save failures are
// ignored: losing the convenience value is not worth failing a run.
func (m *Manager) SetLastCompanies(text string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.LastCompanies = text
	_ = m.Save()
}

// GetLastTemplate returns the last selected template name.
func (m *Manager) GetLastTemplate() string {
	if m.config != nil {
		return m.config.LastTemplate
	}
	return ""
}

// SetLastTemplate persists the last selected template name.
func (m *Manager) SetLastTemplate(name string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.LastTemplate = name
	_ = m.Save()
}

// UpdateConfig updates the configuration with new values and saves it.
// Empty strings and non-positive numbers leave the current value in place.
func (m *Manager) UpdateConfig(provider types.Provider, geminiKey, openaiKey, baseURL, model, outputDir, templateDir, chromePath string, timeout, maxRetries, cooldown int) error {
	logger.Info("updating configuration")
	if m.config == nil {
		m.config = defaultConfig()
	}

	if provider != "" {
		m.config.Provider = provider
	}
	if geminiKey != "" {
		m.config.GeminiAPIKey = geminiKey
	}
	if openaiKey != "" {
		m.config.OpenAIAPIKey = openaiKey
	}
	if baseURL != "" {
		m.config.OpenAIBaseURL = baseURL
	}
	if model != "" {
		m.config.Model = model
	}
	if outputDir != "" {
		m.config.OutputDir = outputDir
	}
	if templateDir != "" {
		m.config.TemplateDir = templateDir
	}
	if chromePath != "" {
		m.config.ChromePath = chromePath
	}
	if timeout > 0 {
		m.config.RequestTimeout = timeout
	}
	if maxRetries > 0 {
		m.config.MaxRetries = maxRetries
	}
	if cooldown >= 0 {
		m.config.CooldownSecs = cooldown
	}

	return m.Save()
}
