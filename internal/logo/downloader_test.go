package logo

import (
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// pngHeader is a minimal valid-looking PNG payload for signature checks.
var pngHeader = []byte("\x89PNG\r\n\x1a\n" + "fakeimagedata")

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer server.Close()

	tempDir, err := os.MkdirTemp("", "logo-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	d := NewDownloader()
	path, err := d.DownloadImage(server.URL, tempDir, "Acme_logo.png")
	if err != nil {
		t.Fatalf("DownloadImage() returned error: %v", err)
	}
	if filepath.Base(path) != "Acme_logo.png" {
		t.Errorf("Unexpected file name: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if len(data) != len(pngHeader) {
		t.Errorf("Downloaded %d bytes, expected %d", len(data), len(pngHeader))
	}
}

func TestDownloadImage_InvalidURL(t *testing.T) {
	d := NewDownloader()
	for _, url := range []string{"", "ftp://example.com/logo.png", "not-a-url"} {
		if _, err := d.DownloadImage(url, os.TempDir(), "x.png"); err == nil {
			t.Errorf("DownloadImage(%q) should return error", url)
		}
	}
}

func TestDownloadImage_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tempDir, err := os.MkdirTemp("", "logo-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	d := NewDownloader()
	_, err = d.DownloadImage(server.URL, tempDir, "x.png")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	appErr, ok := err.(*types.AppError)
	if !ok || appErr.Code != types.ErrDownload {
		t.Errorf("Expected ErrDownload, got %v", err)
	}
}

func TestDownloadImage_NotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	tempDir, err := os.MkdirTemp("", "logo-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	d := NewDownloader()
	if _, err := d.DownloadImage(server.URL, tempDir, "x.png"); err == nil {
		t.Fatal("Expected error for non-image payload")
	}
}

func TestLooksLikeImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		expected    bool
	}{
		{"png magic", "application/octet-stream", pngHeader, true},
		{"jpeg magic", "", []byte("\xff\xd8\xff\xe0JFIFxxxx"), true},
		{"gif magic", "", []byte("GIF89a trailing"), true},
		{"webp magic", "", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), true},
		{"content type only", "image/svg+xml", []byte("<svg></svg>x"), true},
		{"html", "text/html", []byte("<html></html>"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeImage(tt.contentType, tt.data); got != tt.expected {
				t.Errorf("looksLikeImage() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		status int
		code   types.ErrorCode
	}{
		{http.StatusNotFound, types.ErrDownload},
		{http.StatusForbidden, types.ErrDownload},
		{http.StatusTooManyRequests, types.ErrAPIRateLimit},
		{http.StatusInternalServerError, types.ErrNetwork},
		{http.StatusBadGateway, types.ErrNetwork},
		{http.StatusTeapot, types.ErrDownload},
	}

	for _, tt := range tests {
		err := handleHTTPError(tt.status, "https://example.com/x.png")
		appErr, ok := err.(*types.AppError)
		if !ok {
			t.Errorf("Status %d: expected *types.AppError, got %T", tt.status, err)
			continue
		}
		if appErr.Code != tt.code {
			t.Errorf("Status %d: expected %s, got %s", tt.status, tt.code, appErr.Code)
		}
	}
}

func TestWritePlaceholder(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logo-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path, err := WritePlaceholder(tempDir, "Acme_logo.png")
	if err != nil {
		t.Fatalf("WritePlaceholder() returned error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open placeholder: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Placeholder is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 128 || bounds.Dy() != 128 {
		t.Errorf("Placeholder size = %dx%d, expected 128x128", bounds.Dx(), bounds.Dy())
	}
}
