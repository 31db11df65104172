package logo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

const (
	// DownloadTimeout bounds a single image download
	DownloadTimeout = 60 * time.Second
	// MaxRetries is the maximum number of download attempts
	MaxRetries = 3
	// BaseRetryDelay is the base delay between retries, scaled by attempt number
	BaseRetryDelay = 2 * time.Second
	// MaxImageSize caps how many bytes a logo download may occupy
	MaxImageSize = 10 << 20
)

// Downloader fetches logo images over HTTP with retries and validates that the
// payload is actually an image before writing it to disk.
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a Downloader with redirect protection.
func NewDownloader() *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: DownloadTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return types.NewAppError(types.ErrNetwork, "too many redirects", nil)
				}
				return nil
			},
		},
	}
}

// DownloadImage fetches the image at url and saves it as destDir/filename.
// Returns the written file path.
func (d *Downloader) DownloadImage(url, destDir, filename string) (string, error) {
	if url == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "image URL cannot be empty", nil)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", types.NewAppError(types.ErrInvalidInput, "invalid image URL format", nil)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}

	destPath := filepath.Join(destDir, filename)
	if err := d.downloadWithRetry(url, destPath); err != nil {
		return "", err
	}

	logger.Info("logo downloaded", logger.String("url", url), logger.String("path", destPath))
	return destPath, nil
}

func (d *Downloader) downloadWithRetry(url, destPath string) error {
	var lastErr error

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		err := d.downloadFile(url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warn("logo download attempt failed", logger.Int("attempt", attempt), logger.Err(err))

		if !isRetryableError(err) {
			return err
		}
		if attempt < MaxRetries {
			time.Sleep(BaseRetryDelay * time.Duration(attempt))
		}
	}

	return types.NewAppErrorWithDetails(
		types.ErrNetwork,
		"logo download failed after multiple retries",
		fmt.Sprintf("attempted %d times", MaxRetries),
		lastErr,
	)
}

func (d *Downloader) downloadFile(url, destPath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to create HTTP request", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return types.NewAppError(types.ErrNetwork, "network request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return handleHTTPError(resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return types.NewAppError(types.ErrNetwork, "failed to read image content", err)
	}
	if len(data) > MaxImageSize {
		return types.NewAppError(types.ErrDownload, "image exceeds size limit", nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !looksLikeImage(contentType, data) {
		return types.NewAppErrorWithDetails(
			types.ErrDownload,
			"downloaded content is not an image",
			fmt.Sprintf("content type %q", contentType),
			nil,
		)
	}

	if err := os.WriteFile(destPath, data, 0644); err != nil {
		os.Remove(destPath)
		return types.NewAppError(types.ErrInternal, "failed to save image", err)
	}
	return nil
}

// looksLikeImage accepts a payload when either the Content-Type declares an
// image or the leading bytes match a known image signature. Some CDNs serve
// images with generic content types, so the magic bytes take priority.
func looksLikeImage(contentType string, data []byte) bool {
	if len(data) >= 8 {
		switch {
		case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
			return true
		case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
			return true
		case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
			return true
		case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP")):
			return true
		}
	}
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

func handleHTTPError(statusCode int, url string) error {
	switch statusCode {
	case http.StatusNotFound:
		return types.NewAppErrorWithDetails(
			types.ErrDownload,
			"image not found",
			fmt.Sprintf("URL: %s returned 404", url),
			nil,
		)
	case http.StatusForbidden:
		return types.NewAppErrorWithDetails(
			types.ErrDownload,
			"access forbidden",
			fmt.Sprintf("URL: %s returned 403", url),
			nil,
		)
	case http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(
			types.ErrAPIRateLimit,
			"rate limit exceeded",
			"too many requests, please try again later",
			nil,
		)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return types.NewAppErrorWithDetails(
			types.ErrNetwork,
			"server error",
			fmt.Sprintf("URL: %s returned %d", url, statusCode),
			nil,
		)
	default:
		return types.NewAppErrorWithDetails(
			types.ErrDownload,
			"download failed",
			fmt.Sprintf("URL: %s returned status %d", url, statusCode),
			nil,
		)
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*types.AppError); ok {
		switch appErr.Code {
		case types.ErrNetwork, types.ErrAPIRateLimit:
			return true
		default:
			return false
		}
	}
	return false
}

// WritePlaceholder generates a neutral placeholder PNG so the dossier template
// always has a logo file to reference when search or download fails.
func WritePlaceholder(destDir, filename string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}

	const size = 128
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := color.RGBA{R: 0xe8, G: 0xea, B: 0xed, A: 0xff}
	border := color.RGBA{R: 0x9a, G: 0xa0, B: 0xa6, A: 0xff}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x < 4 || y < 4 || x >= size-4 || y >= size-4 {
				img.Set(x, y, border)
			} else {
				img.Set(x, y, bg)
			}
		}
	}

	destPath := filepath.Join(destDir, filename)
	file, err := os.Create(destPath)
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create placeholder file", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		os.Remove(destPath)
		return "", types.NewAppError(types.ErrInternal, "failed to encode placeholder image", err)
	}

	logger.Info("placeholder logo written", logger.String("path", destPath))
	return destPath, nil
}
