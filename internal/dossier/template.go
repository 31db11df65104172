// Package dossier turns generated company data into HTML dossiers by
// substituting values into user-editable templates.
package dossier

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// DefaultTemplateName is the template used when the user has not chosen one.
const DefaultTemplateName = "profile_template.html"

// placeholderPattern matches ${identifier} template variables.
var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}`)

// systemVariables are filled in by the application, never requested from the
// model: timestamp and case_number are computed, logo_filename points at the
// downloaded logo.
var systemVariables = map[string]bool{
	"timestamp":     true,
	"case_number":   true,
	"logo_filename": true,
}

// IsSystemVariable reports whether the application provides this variable.
func IsSystemVariable(name string) bool {
	return systemVariables[name]
}

// Generator merges company data into an HTML template.
type Generator struct {
	templatePath string
}

// NewGenerator creates a Generator for the given template file.
func NewGenerator(templatePath string) *Generator {
	return &Generator{templatePath: templatePath}
}

// SetTemplate switches the active template. A missing file is logged but not
// an error here; loading will fail later with a clear message.
func (g *Generator) SetTemplate(templatePath string) {
	g.templatePath = templatePath
	if _, err := os.Stat(templatePath); err != nil {
		logger.Warn("template file not found", logger.String("path", templatePath))
	}
}

// TemplatePath returns the active template file path.
func (g *Generator) TemplatePath() string {
	return g.templatePath
}

// loadTemplate reads and normalizes the template content.
func (g *Generator) loadTemplate() (string, error) {
	data, err := os.ReadFile(g.templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewAppErrorWithDetails(
				types.ErrFileNotFound,
				"template file not found",
				g.templatePath,
				err,
			)
		}
		return "", types.NewAppError(types.ErrTemplate, "failed to read template", err)
	}

	normalized, err := NormalizeToUTF8(data)
	if err != nil {
		return "", err
	}
	return string(normalized), nil
}

// TemplateVariables scans the template for ${name} placeholders and returns
// the sorted unique names the model must generate. System variables are
// excluded.
func (g *Generator) TemplateVariables() ([]string, error) {
	content, err := g.loadTemplate()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var fields []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if seen[name] || IsSystemVariable(name) {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	sort.Strings(fields)

	logger.Debug("template variables scanned",
		logger.String("template", g.templatePath),
		logger.Int("count", len(fields)))
	return fields, nil
}

// FlattenValue converts arbitrary JSON values into display text. Lists become
// comma-joined items, objects become comma-joined values, nil becomes "N/A".
func FlattenValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FlattenValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			if v[k] == nil {
				continue
			}
			s := FlattenValue(v[k])
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// systemContext computes the application-provided variables at generation time.
func systemContext(now time.Time) map[string]string {
	return map[string]string{
		"timestamp":   now.Format("2006-01-02 15:04"),
		"case_number": "OP-D-V-" + now.Format("1504"),
	}
}

// Substitute replaces ${name} placeholders with context values. Unknown
// placeholders are left intact so a partially filled template still renders.
func Substitute(template string, context map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := context[name]; ok {
			return value
		}
		return match
	})
}

// GenerateHTML merges the company data into the template. logoFilename is the
// relative logo file name injected as the logo_filename variable.
func (g *Generator) GenerateHTML(companyData map[string]interface{}, logoFilename string) (string, error) {
	content, err := g.loadTemplate()
	if err != nil {
		return "", err
	}

	context := systemContext(time.Now())
	context["logo_filename"] = logoFilename
	for key, value := range companyData {
		context[key] = FlattenValue(value)
	}

	return Substitute(content, context), nil
}

// WriteDossier generates the HTML for one company and writes it to outputDir.
// Returns the written file path.
func (g *Generator) WriteDossier(company string, companyData map[string]interface{}, outputDir string) (string, error) {
	safeName := parser.SafeName(company)
	html, err := g.GenerateHTML(companyData, parser.LogoFileName(safeName))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}

	destPath := filepath.Join(outputDir, parser.HTMLFileName(safeName))
	if err := os.WriteFile(destPath, []byte(html), 0644); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to write dossier HTML", err)
	}

	logger.Info("dossier HTML written", logger.String("company", company), logger.String("path", destPath))
	return destPath, nil
}

// ListTemplates returns the HTML template files in templateDir, sorted by name.
func ListTemplates(templateDir string) ([]string, error) {
	entries, err := os.ReadDir(templateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrInternal, "failed to read template directory", err)
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), ".html") {
			templates = append(templates, name)
		}
	}
	sort.Strings(templates)
	return templates, nil
}
