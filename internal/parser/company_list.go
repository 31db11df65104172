// Package parser provides company-list parsing and file naming helpers for
// the profile generator.
package parser

import (
	"os"
	"strings"
	"unicode"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// MaxCompanyNameLength caps what we accept as a single company name.
// Anything longer is almost certainly a paste accident.
const MaxCompanyNameLength = 120

// ParseCompanyList parses raw UI text into a clean list of company names.
// Input is one name per line; blank lines are skipped, surrounding
// whitespace is trimmed, and duplicates (case-insensitive) are dropped
// while preserving first-seen order.
func ParseCompanyList(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		logger.Warn("parse company list failed: empty input")
		return nil, types.NewAppError(types.ErrInvalidInput, "company list cannot be empty", nil)
	}

	seen := make(map[string]bool)
	var companies []string
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if name == "" {
			continue
		}
		if len(name) > MaxCompanyNameLength {
			logger.Warn("company name too long, skipping", logger.Int("length", len(name)))
			return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
				"company name too long", name[:40]+"...", nil)
		}
		key := strings.ToLower(name)
		if seen[key] {
			logger.Debug("skipping duplicate company", logger.String("name", name))
			continue
		}
		seen[key] = true
		companies = append(companies, name)
	}

	if len(companies) == 0 {
		logger.Warn("parse company list failed: no usable names")
		return nil, types.NewAppError(types.ErrInvalidInput, "no usable company names found", nil)
	}

	logger.Info("parsed company list", logger.Int("count", len(companies)))
	return companies, nil
}

// LoadCompanyListFile reads a company list from a text file, one name per
// line, and parses it with ParseCompanyList.
func LoadCompanyListFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "company list file not found", err)
		}
		return nil, types.NewAppError(types.ErrInternal, "failed to read company list file", err)
	}
	return ParseCompanyList(string(data))
}

// SafeName converts a company name into a filesystem-safe stem shared by
// every artifact of that company (data JSON, logo, HTML, PDF). Letters,
// digits, spaces, hyphens, and underscores are kept; spaces collapse to
// single underscores; everything else is dropped.
func SafeName(company string) string {
	var b strings.Builder
	for _, r := range company {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	return name
}

// DisplayName reverses SafeName well enough for logging and lookups:
// underscores become spaces.
func DisplayName(safeName string) string {
	return strings.ReplaceAll(safeName, "_", " ")
}

// Artifact file naming. Every phase derives paths from the same stem so the
// pipeline can resume from whatever files already exist on disk.

const (
	// DataSuffix is the common suffix of profile data files.
	DataSuffix = "_data.json"
	// LogoSuffix is the common suffix of logo image files.
	LogoSuffix = "_logo.png"
	// HTMLSuffix is the common suffix of dossier HTML files.
	HTMLSuffix = "_profile.html"
	// PDFSuffix is the common suffix of dossier PDF files.
	PDFSuffix = "_profile.pdf"
)

// DataFileName returns the profile JSON file name for a company.
func DataFileName(safeName string) string { return safeName + DataSuffix }

// LogoFileName returns the logo image file name for a company.
func LogoFileName(safeName string) string { return safeName + LogoSuffix }

// HTMLFileName returns the dossier HTML file name for a company.
func HTMLFileName(safeName string) string { return safeName + HTMLSuffix }

// PDFFileName returns the dossier PDF file name for a company.
func PDFFileName(safeName string) string { return safeName + PDFSuffix }

// StemFromDataFile extracts the safe-name stem from a data file name, or
// returns an empty string when the name does not follow the convention.
func StemFromDataFile(fileName string) string {
	if !strings.HasSuffix(fileName, DataSuffix) {
		return ""
	}
	return strings.TrimSuffix(fileName, DataSuffix)
}
