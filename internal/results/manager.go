// Package results manages the library of generated company dossiers.
// It handles storing, listing, and tracking dossiers by company name.
package results

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"
)

// DossierStatus represents how far a company got through the pipeline.
type DossierStatus string

const (
	// StatusPending indicates generation has not started
	StatusPending DossierStatus = "pending"
	// StatusProfiling indicates profile data is being generated
	StatusProfiling DossierStatus = "profiling"
	// StatusProfiled indicates profile data exists but no logo yet
	StatusProfiled DossierStatus = "profiled"
	// StatusLogoFetched indicates the logo phase finished
	StatusLogoFetched DossierStatus = "logo_fetched"
	// StatusBuilt indicates the HTML dossier has been assembled
	StatusBuilt DossierStatus = "built"
	// StatusComplete indicates the PDF has been rendered
	StatusComplete DossierStatus = "complete"
	// StatusError indicates a phase failed for this company
	StatusError DossierStatus = "error"
)

// DossierInfo represents metadata about one company's dossier.
type DossierInfo struct {
	Company      string        `json:"company"`
	SafeName     string        `json:"safe_name"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Template     string        `json:"template"`
	DataJSON     string        `json:"data_json,omitempty"`
	LogoPNG      string        `json:"logo_png,omitempty"`
	HTMLFile     string        `json:"html_file,omitempty"`
	PDFFile      string        `json:"pdf_file,omitempty"`
	Status       DossierStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	LastPhase    string        `json:"last_phase,omitempty"`
	// DataMD5 identifies the profile JSON so re-runs can detect unchanged data
	DataMD5 string `json:"data_md5,omitempty"`
}

// LibraryManager manages dossiers stored in the user directory.
type LibraryManager struct {
	baseDir string
}

// NewLibraryManager creates a LibraryManager rooted at baseDir. An empty
// baseDir uses the default location in the user's home directory.
func NewLibraryManager(baseDir string) (*LibraryManager, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(homeDir, "profile-forge-dossiers")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LibraryManager{baseDir: baseDir}, nil
}

// GetBaseDir returns the base directory of the library.
func (m *LibraryManager) GetBaseDir() string {
	return m.baseDir
}

// GetDossierDir returns the directory path for one company's dossier.
func (m *LibraryManager) GetDossierDir(company string) string {
	return filepath.Join(m.baseDir, parser.SafeName(company))
}

// SaveDossierInfo saves dossier metadata into the company's directory.
func (m *LibraryManager) SaveDossierInfo(info *DossierInfo) error {
	if info.SafeName == "" {
		info.SafeName = parser.SafeName(info.Company)
	}
	dossierDir := m.GetDossierDir(info.Company)

	if err := os.MkdirAll(dossierDir, 0755); err != nil {
		return err
	}

	metaPath := filepath.Join(dossierDir, "metadata.json")
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(metaPath, data, 0644)
}

// LoadDossierInfo loads dossier metadata for a company.
func (m *LibraryManager) LoadDossierInfo(company string) (*DossierInfo, error) {
	metaPath := filepath.Join(m.GetDossierDir(company), "metadata.json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var info DossierInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// ListDossiers returns all dossiers in the library, newest first.
func (m *LibraryManager) ListDossiers() ([]*DossierInfo, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*DossierInfo{}, nil
		}
		return nil, err
	}

	var dossiers []*DossierInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(m.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue // Skip directories without metadata
		}

		var info DossierInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}

		dossiers = append(dossiers, &info)
	}

	sort.Slice(dossiers, func(i, j int) bool {
		return dossiers[i].GeneratedAt.After(dossiers[j].GeneratedAt)
	})

	return dossiers, nil
}

// DeleteDossier removes a company's dossier and all its files.
func (m *LibraryManager) DeleteDossier(company string) error {
	return os.RemoveAll(m.GetDossierDir(company))
}

// DossierExists checks whether the library already holds a dossier for the
// company.
func (m *LibraryManager) DossierExists(company string) bool {
	metaPath := filepath.Join(m.GetDossierDir(company), "metadata.json")
	_, err := os.Stat(metaPath)
	return err == nil
}

// UpdateDossierStatus updates the status (and error message) of a dossier.
func (m *LibraryManager) UpdateDossierStatus(company string, status DossierStatus, errorMsg string) error {
	info, err := m.LoadDossierInfo(company)
	if err != nil {
		return err
	}

	info.Status = status
	info.ErrorMessage = errorMsg
	info.GeneratedAt = time.Now()

	return m.SaveDossierInfo(info)
}

// GetIncompleteDossiers returns dossiers that never reached the complete state.
func (m *LibraryManager) GetIncompleteDossiers() ([]*DossierInfo, error) {
	dossiers, err := m.ListDossiers()
	if err != nil {
		return nil, err
	}

	var incomplete []*DossierInfo
	for _, d := range dossiers {
		if d.Status != StatusComplete {
			incomplete = append(incomplete, d)
		}
	}

	return incomplete, nil
}

// ImportArtifacts copies a company's pipeline artifacts from the working
// output directory into the library and records their paths. Missing files
// are skipped so partial runs can still be archived.
func (m *LibraryManager) ImportArtifacts(info *DossierInfo, outputDir string) error {
	safeName := parser.SafeName(info.Company)
	info.SafeName = safeName
	dossierDir := m.GetDossierDir(info.Company)
	if err := os.MkdirAll(dossierDir, 0755); err != nil {
		return err
	}

	artifacts := []struct {
		name string
		dest *string
	}{
		{parser.DataFileName(safeName), &info.DataJSON},
		{parser.LogoFileName(safeName), &info.LogoPNG},
		{parser.HTMLFileName(safeName), &info.HTMLFile},
		{parser.PDFFileName(safeName), &info.PDFFile},
	}

	for _, a := range artifacts {
		src := filepath.Join(outputDir, a.name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dest := filepath.Join(dossierDir, a.name)
		if err := copyFile(src, dest); err != nil {
			return err
		}
		*a.dest = dest
	}

	if info.DataJSON != "" {
		if sum, err := fileMD5(info.DataJSON); err == nil {
			info.DataMD5 = sum
		}
	}

	return m.SaveDossierInfo(info)
}

// GetPDFPath returns the library path of a company's rendered PDF.
func (m *LibraryManager) GetPDFPath(company string) string {
	safeName := parser.SafeName(company)
	return filepath.Join(m.GetDossierDir(company), parser.PDFFileName(safeName))
}

// GetHTMLPath returns the library path of a company's dossier HTML.
func (m *LibraryManager) GetHTMLPath(company string) string {
	safeName := parser.SafeName(company)
	return filepath.Join(m.GetDossierDir(company), parser.HTMLFileName(safeName))
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// fileMD5 computes the MD5 digest of a file's content.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
