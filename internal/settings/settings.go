// Package settings provides local settings file management.
// Settings are stored in settings.json in the program directory and hold
// the image-search credentials, which are machine-local and kept out of
// the main configuration file.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// SettingsFileName is the name of the settings file.
const SettingsFileName = "settings.json"

// LocalSettings represents settings stored next to the executable.
type LocalSettings struct {
	// SearchAPIKey is the Google Custom Search API key used for logo lookup.
	SearchAPIKey string `json:"search_api_key"`
	// SearchEngineID is the Custom Search engine ID (cx).
	SearchEngineID string `json:"search_engine_id"`
}

// Manager manages the local settings file.
type Manager struct {
	filePath string
	settings *LocalSettings
	mu       sync.RWMutex
}

// NewManager creates a settings manager reading settings.json from the
// program's directory.
func NewManager() (*Manager, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		filePath: filepath.Join(filepath.Dir(exePath), SettingsFileName),
		settings: &LocalSettings{},
	}
	_ = m.Load() // Missing file is fine
	return m, nil
}

// NewManagerWithPath creates a settings manager with a custom path.
// Useful for testing.
func NewManagerWithPath(filePath string) *Manager {
	m := &Manager{
		filePath: filePath,
		settings: &LocalSettings{},
	}
	_ = m.Load()
	return m
}

// Load loads settings from the file.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.settings = &LocalSettings{}
			return nil
		}
		return err
	}

	var settings LocalSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		m.settings = &LocalSettings{}
		return err
	}

	m.settings = &settings
	return nil
}

// Save saves settings to the file.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0600)
}

// GetSearchAPIKey returns the search API key.
func (m *Manager) GetSearchAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.SearchAPIKey
}

// GetSearchEngineID returns the search engine ID.
func (m *Manager) GetSearchEngineID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.SearchEngineID
}

// SetSearchCredentials sets the search credentials and saves.
func (m *Manager) SetSearchCredentials(apiKey, engineID string) error {
	m.mu.Lock()
	m.settings.SearchAPIKey = apiKey
	m.settings.SearchEngineID = engineID
	m.mu.Unlock()

	return m.Save()
}

// HasSearchCredentials reports whether the Custom Search API is configured.
func (m *Manager) HasSearchCredentials() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.SearchAPIKey != "" && m.settings.SearchEngineID != ""
}

// GetFilePath returns the settings file path.
func (m *Manager) GetFilePath() string {
	return m.filePath
}
