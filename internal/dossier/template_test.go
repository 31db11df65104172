package dossier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempTemplate(t *testing.T, content string) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "dossier-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	path := filepath.Join(tempDir, "template.html")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}
	return path
}

func TestTemplateVariables(t *testing.T) {
	path := writeTempTemplate(t,
		`<h1>${company_name}</h1><p>${industry}</p><img src="${logo_filename}">`+
			`<span>${timestamp}</span><span>${company_name}</span>`)

	gen := NewGenerator(path)
	fields, err := gen.TemplateVariables()
	if err != nil {
		t.Fatalf("TemplateVariables() returned error: %v", err)
	}

	// System variables and duplicates are excluded, result is sorted.
	expected := []string{"company_name", "industry"}
	if len(fields) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, fields)
	}
	for i, want := range expected {
		if fields[i] != want {
			t.Errorf("Field %d: expected %q, got %q", i, want, fields[i])
		}
	}
}

func TestTemplateVariables_MissingFile(t *testing.T) {
	gen := NewGenerator("/nonexistent/template.html")
	if _, err := gen.TemplateVariables(); err == nil {
		t.Fatal("Expected error for missing template")
	}
}

func TestIsSystemVariable(t *testing.T) {
	for _, name := range []string{"timestamp", "case_number", "logo_filename"} {
		if !IsSystemVariable(name) {
			t.Errorf("IsSystemVariable(%q) should be true", name)
		}
	}
	if IsSystemVariable("company_name") {
		t.Error("company_name should not be a system variable")
	}
}

func TestFlattenValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil", nil, "N/A"},
		{"string", "hello", "hello"},
		{"whole float", float64(42), "42"},
		{"fraction", 2.5, "2.5"},
		{"bool", true, "true"},
		{"list", []interface{}{"a", "b", "c"}, "a, b, c"},
		{"list with numbers", []interface{}{"a", float64(7)}, "a, 7"},
		{"map", map[string]interface{}{"street": "1 Main St", "city": "Springfield"}, "Springfield, 1 Main St"},
		{"map skips nil", map[string]interface{}{"a": "x", "b": nil}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenValue(tt.input); got != tt.expected {
				t.Errorf("FlattenValue(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	template := "Name: ${name}, Unknown: ${mystery}, Again: ${name}"
	result := Substitute(template, map[string]string{"name": "Acme"})

	if result != "Name: Acme, Unknown: ${mystery}, Again: Acme" {
		t.Errorf("Substitute() = %q", result)
	}
}

func TestSystemContext(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 42, 30, 0, time.UTC)
	ctx := systemContext(now)

	if ctx["timestamp"] != "2026-03-15 09:42" {
		t.Errorf("timestamp = %q", ctx["timestamp"])
	}
	if ctx["case_number"] != "OP-D-V-0942" {
		t.Errorf("case_number = %q", ctx["case_number"])
	}
}

func TestGenerateHTML(t *testing.T) {
	path := writeTempTemplate(t,
		`<h1>${company_name}</h1><img src="${logo_filename}"><p>${techs}</p><span>${missing}</span>`)

	gen := NewGenerator(path)
	data := map[string]interface{}{
		"company_name": "Acme Corp",
		"techs":        []interface{}{"robotics", "AI"},
	}

	html, err := gen.GenerateHTML(data, "Acme_Corp_logo.png")
	if err != nil {
		t.Fatalf("GenerateHTML() returned error: %v", err)
	}

	if !strings.Contains(html, "<h1>Acme Corp</h1>") {
		t.Error("HTML should contain the substituted company name")
	}
	if !strings.Contains(html, `src="Acme_Corp_logo.png"`) {
		t.Error("HTML should reference the logo file")
	}
	if !strings.Contains(html, "robotics, AI") {
		t.Error("HTML should contain the flattened list")
	}
	if !strings.Contains(html, "${missing}") {
		t.Error("Unknown placeholders should be left intact")
	}
}

func TestWriteDossier(t *testing.T) {
	path := writeTempTemplate(t, `<h1>${company_name}</h1>`)
	outputDir, err := os.MkdirTemp("", "dossier-out-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(outputDir)

	gen := NewGenerator(path)
	dest, err := gen.WriteDossier("Acme Corp", map[string]interface{}{"company_name": "Acme Corp"}, outputDir)
	if err != nil {
		t.Fatalf("WriteDossier() returned error: %v", err)
	}

	if filepath.Base(dest) != "Acme_Corp_profile.html" {
		t.Errorf("Unexpected dossier file name: %s", filepath.Base(dest))
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read dossier: %v", err)
	}
	if !strings.Contains(string(content), "Acme Corp") {
		t.Error("Dossier should contain the company name")
	}
}

func TestListTemplates(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "templates-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	for _, name := range []string{"zeta.html", "alpha.html", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	templates, err := ListTemplates(tempDir)
	if err != nil {
		t.Fatalf("ListTemplates() returned error: %v", err)
	}
	if len(templates) != 2 || templates[0] != "alpha.html" || templates[1] != "zeta.html" {
		t.Errorf("ListTemplates() = %v", templates)
	}
}

func TestListTemplates_MissingDir(t *testing.T) {
	templates, err := ListTemplates("/nonexistent/templates")
	if err != nil {
		t.Fatalf("ListTemplates() on missing dir should not error, got: %v", err)
	}
	if templates != nil {
		t.Errorf("Expected nil, got %v", templates)
	}
}
