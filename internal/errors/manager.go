// Package errors provides persistent error tracking for dossier generation runs.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrorStage identifies the pipeline phase a failure happened in.
type ErrorStage string

const (
	// StageProfile covers profile data generation failures
	StageProfile ErrorStage = "profile"
	// StageLogo covers logo search and download failures
	StageLogo ErrorStage = "logo"
	// StageBuild covers template substitution failures
	StageBuild ErrorStage = "build"
	// StageRender covers HTML-to-PDF rendering failures
	StageRender ErrorStage = "render"
)

// ErrorRecord describes one failed company.
type ErrorRecord struct {
	Company    string     `json:"company"`
	Stage      ErrorStage `json:"stage"`
	ErrorMsg   string     `json:"error_msg"`
	Timestamp  time.Time  `json:"timestamp"`
	CanRetry   bool       `json:"can_retry"`
	RetryCount int        `json:"retry_count"`
	LastRetry  time.Time  `json:"last_retry,omitempty"`
}

// ErrorManager keeps failed companies across runs so they can be retried or
// exported as a new input list.
type ErrorManager struct {
	baseDir string
	mu      sync.RWMutex
	errors  map[string]*ErrorRecord // key: company name
}

// NewErrorManager creates an ErrorManager rooted at baseDir. An empty baseDir
// uses the default location in the user's home directory.
func NewErrorManager(baseDir string) (*ErrorManager, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", "profile-forge", "errors")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create errors directory: %w", err)
	}

	em := &ErrorManager{
		baseDir: baseDir,
		errors:  make(map[string]*ErrorRecord),
	}

	if err := em.load(); err != nil {
		return nil, err
	}

	return em, nil
}

// RecordError stores a failure for a company. A pre-existing record keeps its
// retry counters.
func (em *ErrorManager) RecordError(company string, stage ErrorStage, errorMsg string) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	record := &ErrorRecord{
		Company:   company,
		Stage:     stage,
		ErrorMsg:  errorMsg,
		Timestamp: time.Now(),
		CanRetry:  true,
	}

	if existing, ok := em.errors[company]; ok {
		record.RetryCount = existing.RetryCount
		record.LastRetry = existing.LastRetry
	}

	em.errors[company] = record

	return em.save()
}

// IncrementRetry bumps the retry counter for a company.
func (em *ErrorManager) IncrementRetry(company string) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if record, ok := em.errors[company]; ok {
		record.RetryCount++
		record.LastRetry = time.Now()
		return em.save()
	}

	return fmt.Errorf("error record not found: %s", company)
}

// RemoveError clears a company's record after a successful run.
func (em *ErrorManager) RemoveError(company string) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	delete(em.errors, company)
	return em.save()
}

// ListErrors returns copies of all records, sorted by company name.
func (em *ErrorManager) ListErrors() []*ErrorRecord {
	em.mu.RLock()
	defer em.mu.RUnlock()

	records := make([]*ErrorRecord, 0, len(em.errors))
	for _, record := range em.errors {
		recordCopy := *record
		records = append(records, &recordCopy)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Company < records[j].Company
	})

	return records
}

// GetError returns a copy of the record for one company.
func (em *ErrorManager) GetError(company string) (*ErrorRecord, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	record, ok := em.errors[company]
	if !ok {
		return nil, false
	}

	recordCopy := *record
	return &recordCopy, true
}

// ClearAll removes every record.
func (em *ErrorManager) ClearAll() error {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.errors = make(map[string]*ErrorRecord)
	return em.save()
}

// ExportCompanyList writes the failed company names to a text file, one per
// line, in the same format the pipeline accepts as input.
func (em *ErrorManager) ExportCompanyList(outputPath string) error {
	em.mu.RLock()
	defer em.mu.RUnlock()

	names := make([]string, 0, len(em.errors))
	for company := range em.errors {
		names = append(names, company)
	}
	sort.Strings(names)

	content := ""
	if len(names) > 0 {
		content = strings.Join(names, "\n") + "\n"
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write company list file: %w", err)
	}

	return nil
}

// GetStageDisplayName returns a human-readable phase name for the UI.
func GetStageDisplayName(stage ErrorStage) string {
	switch stage {
	case StageProfile:
		return "Profile generation"
	case StageLogo:
		return "Logo retrieval"
	case StageBuild:
		return "Dossier assembly"
	case StageRender:
		return "PDF rendering"
	default:
		return string(stage)
	}
}

func (em *ErrorManager) load() error {
	filePath := filepath.Join(em.baseDir, "errors.json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read errors file: %w", err)
	}

	var records []*ErrorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal errors: %w", err)
	}

	for _, record := range records {
		em.errors[record.Company] = record
	}

	return nil
}

func (em *ErrorManager) save() error {
	records := make([]*ErrorRecord, 0, len(em.errors))
	for _, record := range em.errors {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Company < records[j].Company
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	filePath := filepath.Join(em.baseDir, "errors.json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write errors file: %w", err)
	}

	return nil
}
