package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/config"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/errors"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app == nil {
		t.Fatal("NewApp() returned nil")
	}

	status := app.GetStatus()
	if status.Phase != types.PhaseIdle {
		t.Errorf("Initial phase = %q, expected idle", status.Phase)
	}
	if app.IsProcessing() {
		t.Error("Fresh app should not be processing")
	}
}

func TestNewAppWithConfig(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	if app.config == nil {
		t.Fatal("App config should not be nil")
	}
}

func TestApp_Startup(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}

	ctx := context.Background()
	app.startup(ctx)

	if app.ctx != ctx {
		t.Error("Context was not set correctly")
	}
	if app.config == nil {
		t.Error("Config manager should be initialized after startup")
	}
	if app.library == nil {
		t.Error("Dossier library should be initialized after startup")
	}
	if app.errorMgr == nil {
		t.Error("Error manager should be initialized after startup")
	}
}

func TestGetStatus_ReturnsCopy(t *testing.T) {
	app := NewApp()

	status := app.GetStatus()
	status.Phase = types.PhaseRendering
	status.Progress = 99

	if app.GetStatus().Phase != types.PhaseIdle {
		t.Error("Mutating the returned status should not affect the app")
	}
}

func TestIsProcessing(t *testing.T) {
	app := NewApp()

	tests := []struct {
		phase      types.ProcessPhase
		processing bool
	}{
		{types.PhaseIdle, false},
		{types.PhaseScanning, true},
		{types.PhaseProfiling, true},
		{types.PhaseLogos, true},
		{types.PhaseBuilding, true},
		{types.PhaseRendering, true},
		{types.PhaseComplete, false},
		{types.PhaseError, false},
	}

	for _, tt := range tests {
		app.statusMu.Lock()
		app.status.Phase = tt.phase
		app.statusMu.Unlock()

		if got := app.IsProcessing(); got != tt.processing {
			t.Errorf("IsProcessing() in phase %q = %v, expected %v", tt.phase, got, tt.processing)
		}
	}
}

func TestStatusCallback(t *testing.T) {
	app := NewApp()

	var received *types.Status
	app.SetStatusCallback(func(status *types.Status) {
		received = status
	})

	app.updateStatus(types.PhaseProfiling, 40, "Generating profile 2/5")

	if received == nil {
		t.Fatal("Callback was not invoked")
	}
	if received.Phase != types.PhaseProfiling {
		t.Errorf("Callback phase = %q", received.Phase)
	}
	if received.Progress != 40 {
		t.Errorf("Callback progress = %d", received.Progress)
	}
}

func TestUpdateStatusError(t *testing.T) {
	app := NewApp()
	app.updateStatusError("browser launch failed")

	status := app.GetStatus()
	if status.Phase != types.PhaseError {
		t.Errorf("Phase = %q, expected error", status.Phase)
	}
	if status.Error != "browser launch failed" {
		t.Errorf("Error = %q", status.Error)
	}
	if app.IsProcessing() {
		t.Error("Error state should not count as processing")
	}
}

func TestCancelPipeline_NoRun(t *testing.T) {
	app := NewApp()
	if err := app.CancelPipeline(); err == nil {
		t.Fatal("CancelPipeline() without a run should return an error")
	}
}

func TestGenerateDossiers_EmptyInput(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	app.startup(context.Background())

	if _, err := app.GenerateDossiers("", ""); err == nil {
		t.Fatal("Expected error for empty company list")
	}
	if app.GetStatus().Phase != types.PhaseError {
		t.Errorf("Phase after failure = %q", app.GetStatus().Phase)
	}
}

func TestGenerateDossiers_RejectsConcurrentRun(t *testing.T) {
	app := NewApp()

	app.statusMu.Lock()
	app.status.Phase = types.PhaseProfiling
	app.statusMu.Unlock()

	if _, err := app.GenerateDossiers("Acme Corp", ""); err == nil {
		t.Fatal("Expected error while another run is in progress")
	}
}

func TestResolveTemplate(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	templateDir := filepath.Join(tempDir, "templates")
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		t.Fatalf("Failed to create template dir: %v", err)
	}
	templatePath := filepath.Join(templateDir, "modern.html")
	if err := os.WriteFile(templatePath, []byte(`<h1>${company_name}</h1>`), 0644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	if err := app.config.UpdateConfig("", "", "", "", "", "", templateDir, "", 0, 0, -1); err != nil {
		t.Fatalf("UpdateConfig() returned error: %v", err)
	}

	resolved, err := app.resolveTemplate("modern.html")
	if err != nil {
		t.Fatalf("resolveTemplate() returned error: %v", err)
	}
	if resolved != templatePath {
		t.Errorf("resolveTemplate() = %q, expected %q", resolved, templatePath)
	}

	// The template name is remembered and reused when no name is given.
	resolved, err = app.resolveTemplate("")
	if err != nil {
		t.Fatalf("resolveTemplate(\"\") returned error: %v", err)
	}
	if resolved != templatePath {
		t.Errorf("resolveTemplate(\"\") = %q, expected last template", resolved)
	}
}

func TestResolveTemplate_Missing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}

	if _, err := app.resolveTemplate("missing.html"); err == nil {
		t.Fatal("Expected error for missing template")
	}
}

func TestGetTemplateVariables(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	templateDir := filepath.Join(tempDir, "templates")
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		t.Fatalf("Failed to create template dir: %v", err)
	}
	content := `<h1>${company_name}</h1><p>${industry}</p><img src="${logo_filename}">`
	if err := os.WriteFile(filepath.Join(templateDir, "t.html"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	if err := app.config.UpdateConfig("", "", "", "", "", "", templateDir, "", 0, 0, -1); err != nil {
		t.Fatalf("UpdateConfig() returned error: %v", err)
	}

	fields, err := app.GetTemplateVariables("t.html")
	if err != nil {
		t.Fatalf("GetTemplateVariables() returned error: %v", err)
	}
	if len(fields) != 2 || fields[0] != "company_name" || fields[1] != "industry" {
		t.Errorf("GetTemplateVariables() = %v", fields)
	}
}

func TestSafeEmit_SkippedOutsideWails(t *testing.T) {
	app := NewApp()
	// Without the Wails runtime flag this must not panic even though ctx is nil.
	app.safeEmit(EventPipelineLog, "hello")
}

func TestCancellableSleep_Cancelled(t *testing.T) {
	app := NewApp()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := app.cancellableSleep(ctx, 5); err == nil {
		t.Fatal("Expected error from cancelled sleep")
	}
}

func TestGenerateDossiers_NoVariableTemplate(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	templateDir := filepath.Join(tempDir, "templates")
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		t.Fatalf("Failed to create template dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(templateDir, "plain.html"), []byte(`<h1>Static dossier</h1>`), 0644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	outputDir := filepath.Join(tempDir, "out")
	if err := app.config.UpdateConfig("", "", "", "", "", outputDir, templateDir, "", 0, 0, -1); err != nil {
		t.Fatalf("UpdateConfig() returned error: %v", err)
	}
	t.Setenv(config.EnvGeminiAPIKey, "")

	// A template without placeholders is a warning, not an abort: the run
	// proceeds into profile generation and fails there on the missing key.
	_, err = app.GenerateDossiers("Acme Corp", "plain.html")
	if err == nil {
		t.Fatal("Expected error without an API key")
	}
	appErr, ok := err.(*types.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code == types.ErrTemplate {
		t.Fatalf("Variable-less template should not abort the run, got %v", err)
	}
	if appErr.Code != types.ErrConfig {
		t.Errorf("Expected ErrConfig from the missing API key, got %v", appErr.Code)
	}
}

func TestExportFailedCompanies(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "app-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	app, err := NewAppWithConfig(filepath.Join(tempDir, "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	outputDir := filepath.Join(tempDir, "out")
	if err := app.config.UpdateConfig("", "", "", "", "", outputDir, "", "", 0, 0, -1); err != nil {
		t.Fatalf("UpdateConfig() returned error: %v", err)
	}

	app.errorMgr, err = errors.NewErrorManager(filepath.Join(tempDir, "errors"))
	if err != nil {
		t.Fatalf("NewErrorManager() returned error: %v", err)
	}
	if err := app.errorMgr.RecordError("Zeta Inc", errors.StageProfile, "boom"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}
	if err := app.errorMgr.RecordError("Acme Corp", errors.StageRender, "boom"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}

	exportPath, err := app.ExportFailedCompanies()
	if err != nil {
		t.Fatalf("ExportFailedCompanies() returned error: %v", err)
	}
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read exported list: %v", err)
	}
	if string(data) != "Acme Corp\nZeta Inc\n" {
		t.Errorf("Exported list = %q", string(data))
	}
}

func TestLastResult_ConcurrentAccess(t *testing.T) {
	app := NewApp()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			app.GetLastResult()
		}()
		go func() {
			defer wg.Done()
			app.statusMu.Lock()
			app.lastResult = &types.PipelineResult{Total: 1}
			app.statusMu.Unlock()
		}()
		go func() {
			defer wg.Done()
			app.shutdown(context.Background())
		}()
	}
	wg.Wait()

	if app.GetLastResult() == nil {
		t.Error("lastResult should be visible after the writers finish")
	}
}
