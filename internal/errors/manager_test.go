package errors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *ErrorManager {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "errors-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	em, err := NewErrorManager(tempDir)
	if err != nil {
		t.Fatalf("NewErrorManager() returned error: %v", err)
	}
	return em
}

func TestRecordAndGetError(t *testing.T) {
	em := newTestManager(t)

	if err := em.RecordError("Acme Corp", StageProfile, "model returned invalid JSON"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}

	record, ok := em.GetError("Acme Corp")
	if !ok {
		t.Fatal("GetError() should find the record")
	}
	if record.Stage != StageProfile {
		t.Errorf("Stage = %q", record.Stage)
	}
	if record.ErrorMsg != "model returned invalid JSON" {
		t.Errorf("ErrorMsg = %q", record.ErrorMsg)
	}
	if !record.CanRetry {
		t.Error("New records should be retryable")
	}
}

func TestRecordError_KeepsRetryCount(t *testing.T) {
	em := newTestManager(t)

	if err := em.RecordError("Acme Corp", StageProfile, "first failure"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}
	if err := em.IncrementRetry("Acme Corp"); err != nil {
		t.Fatalf("IncrementRetry() returned error: %v", err)
	}
	if err := em.RecordError("Acme Corp", StageRender, "second failure"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}

	record, _ := em.GetError("Acme Corp")
	if record.RetryCount != 1 {
		t.Errorf("RetryCount = %d, expected 1", record.RetryCount)
	}
	if record.Stage != StageRender {
		t.Errorf("Stage should be updated, got %q", record.Stage)
	}
}

func TestIncrementRetry_Unknown(t *testing.T) {
	em := newTestManager(t)
	if err := em.IncrementRetry("Nobody Inc"); err == nil {
		t.Fatal("Expected error for unknown company")
	}
}

func TestRemoveError(t *testing.T) {
	em := newTestManager(t)

	if err := em.RecordError("Acme Corp", StageLogo, "404"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}
	if err := em.RemoveError("Acme Corp"); err != nil {
		t.Fatalf("RemoveError() returned error: %v", err)
	}
	if _, ok := em.GetError("Acme Corp"); ok {
		t.Error("Record should be gone after remove")
	}
}

func TestListErrors_Sorted(t *testing.T) {
	em := newTestManager(t)

	for _, company := range []string{"Zeta Inc", "Acme Corp", "Midway LLC"} {
		if err := em.RecordError(company, StageProfile, "failure"); err != nil {
			t.Fatalf("RecordError() returned error: %v", err)
		}
	}

	records := em.ListErrors()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	expected := []string{"Acme Corp", "Midway LLC", "Zeta Inc"}
	for i, want := range expected {
		if records[i].Company != want {
			t.Errorf("Record %d: expected %q, got %q", i, want, records[i].Company)
		}
	}
}

func TestPersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "errors-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	em, err := NewErrorManager(tempDir)
	if err != nil {
		t.Fatalf("NewErrorManager() returned error: %v", err)
	}
	if err := em.RecordError("Acme Corp", StageBuild, "template error"); err != nil {
		t.Fatalf("RecordError() returned error: %v", err)
	}

	// A fresh manager over the same directory sees the saved records.
	em2, err := NewErrorManager(tempDir)
	if err != nil {
		t.Fatalf("NewErrorManager() reload returned error: %v", err)
	}
	record, ok := em2.GetError("Acme Corp")
	if !ok {
		t.Fatal("Reloaded manager should find the persisted record")
	}
	if record.Stage != StageBuild {
		t.Errorf("Stage = %q", record.Stage)
	}
}

func TestClearAll(t *testing.T) {
	em := newTestManager(t)

	em.RecordError("A", StageProfile, "x")
	em.RecordError("B", StageProfile, "y")
	if err := em.ClearAll(); err != nil {
		t.Fatalf("ClearAll() returned error: %v", err)
	}
	if len(em.ListErrors()) != 0 {
		t.Error("ClearAll() should remove every record")
	}
}

func TestExportCompanyList(t *testing.T) {
	em := newTestManager(t)

	em.RecordError("Zeta Inc", StageProfile, "x")
	em.RecordError("Acme Corp", StageRender, "y")

	outPath := filepath.Join(em.baseDir, "retry.txt")
	if err := em.ExportCompanyList(outPath); err != nil {
		t.Fatalf("ExportCompanyList() returned error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if string(data) != "Acme Corp\nZeta Inc\n" {
		t.Errorf("Export content = %q", string(data))
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(lines))
	}
}

func TestGetStageDisplayName(t *testing.T) {
	tests := []struct {
		stage    ErrorStage
		expected string
	}{
		{StageProfile, "Profile generation"},
		{StageLogo, "Logo retrieval"},
		{StageBuild, "Dossier assembly"},
		{StageRender, "PDF rendering"},
		{ErrorStage("custom"), "custom"},
	}

	for _, tt := range tests {
		if got := GetStageDisplayName(tt.stage); got != tt.expected {
			t.Errorf("GetStageDisplayName(%q) = %q, expected %q", tt.stage, got, tt.expected)
		}
	}
}
