// Package renderer converts dossier HTML files into PDFs with headless Chrome.
package renderer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

const (
	// PageLoadTimeout bounds loading a single dossier page
	PageLoadTimeout = 30 * time.Second
	// RenderTimeout bounds printing a single page to PDF
	RenderTimeout = 60 * time.Second
)

// FileResult records the outcome for one rendered HTML file.
type FileResult struct {
	HTMLPath string
	PDFPath  string
	Err      error
}

// Report summarizes a render run over a directory.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []FileResult
}

// ProgressFunc receives per-file progress while rendering a batch.
type ProgressFunc func(current, total int, name string)

// ChromeRenderer drives a detached headless Chrome instance. Start it once,
// render any number of files, then Stop it.
type ChromeRenderer struct {
	chromePath string

	mu      sync.Mutex
	browser *rod.Browser
	cleanup func()
}

// NewChromeRenderer creates a renderer. chromePath may be empty to let the
// launcher resolve or download a managed browser.
func NewChromeRenderer(chromePath string) *ChromeRenderer {
	return &ChromeRenderer{chromePath: chromePath}
}

// Start launches the browser and connects to its DevTools endpoint.
func (r *ChromeRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return nil
	}

	launch := launcher.New().Headless(true)
	if r.chromePath != "" {
		if _, err := os.Stat(r.chromePath); err != nil {
			return types.NewAppErrorWithDetails(
				types.ErrConfig,
				"configured browser binary not found",
				r.chromePath,
				err,
			)
		}
		launch = launch.Bin(r.chromePath)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return types.NewAppError(types.ErrRender, "failed to launch headless browser", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return types.NewAppError(types.ErrRender, "failed to connect to browser", err)
	}

	r.browser = browser
	r.cleanup = launch.Cleanup
	logger.Info("headless browser started", logger.String("controlURL", controlURL))
	return nil
}

// Stop closes the browser and releases the launcher resources.
func (r *ChromeRenderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			logger.Warn("browser close failed", logger.Err(err))
		}
		r.browser = nil
	}
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// RenderFile prints one HTML file to PDF. The file is loaded over a file://
// URL so relative logo references resolve against the output directory.
func (r *ChromeRenderer) RenderFile(ctx context.Context, htmlPath, pdfPath string) error {
	r.mu.Lock()
	browser := r.browser
	r.mu.Unlock()
	if browser == nil {
		return types.NewAppError(types.ErrRender, "renderer is not started", nil)
	}

	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to resolve HTML path", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return types.NewAppErrorWithDetails(types.ErrFileNotFound, "dossier HTML not found", absPath, err)
	}

	fileURL := "file://" + filepath.ToSlash(absPath)
	logger.Debug("rendering dossier", logger.String("url", fileURL), logger.String("pdf", pdfPath))

	page, err := browser.Page(proto.TargetCreateTarget{URL: fileURL})
	if err != nil {
		return types.NewAppError(types.ErrRender, "failed to open dossier page", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.Warn("page close failed", logger.Err(closeErr))
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, PageLoadTimeout)
	defer cancel()
	if err := page.Context(loadCtx).WaitLoad(); err != nil {
		return types.NewAppError(types.ErrRender, "dossier page failed to load", err)
	}

	renderCtx, cancelRender := context.WithTimeout(ctx, RenderTimeout)
	defer cancelRender()

	stream, err := page.Context(renderCtx).PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return types.NewAppError(types.ErrRender, "PDF generation failed", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return types.NewAppError(types.ErrRender, "failed to read PDF stream", err)
	}
	if len(data) == 0 {
		return types.NewAppError(types.ErrRender, "browser produced an empty PDF", nil)
	}

	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		os.Remove(pdfPath)
		return types.NewAppError(types.ErrInternal, "failed to write PDF file", err)
	}

	logger.Info("dossier rendered", logger.String("pdf", pdfPath), logger.Int("bytes", len(data)))
	return nil
}

// RenderDir renders every dossier HTML file in sourceDir to a sibling PDF and
// returns a per-file report. Individual failures do not stop the batch.
func (r *ChromeRenderer) RenderDir(ctx context.Context, sourceDir string, progress ProgressFunc) (*Report, error) {
	htmlFiles, err := findDossierFiles(sourceDir)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(htmlFiles)}
	logger.Info("rendering dossier batch", logger.String("dir", sourceDir), logger.Int("count", len(htmlFiles)))

	for i, htmlPath := range htmlFiles {
		if ctx.Err() != nil {
			return report, types.NewAppError(types.ErrInternal, "rendering cancelled", ctx.Err())
		}

		name := filepath.Base(htmlPath)
		if progress != nil {
			progress(i+1, len(htmlFiles), name)
		}

		pdfPath := strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".pdf"
		renderErr := r.RenderFile(ctx, htmlPath, pdfPath)

		result := FileResult{HTMLPath: htmlPath, PDFPath: pdfPath, Err: renderErr}
		if renderErr != nil {
			report.Failed++
			logger.Error("dossier render failed", renderErr, logger.String("file", name))
		} else {
			report.Succeeded++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// Summary formats the report the way the batch log presents it.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("COMPILATION REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Total files: %d\n", r.Total)
	fmt.Fprintf(&b, "Successful:  %d\n", r.Succeeded)
	fmt.Fprintf(&b, "Failed:      %d\n", r.Failed)
	if r.Failed > 0 {
		b.WriteString("\nErrors:\n")
		for _, result := range r.Results {
			if result.Err != nil {
				fmt.Fprintf(&b, "- %s: %v\n", filepath.Base(result.HTMLPath), result.Err)
			}
		}
	}
	return b.String()
}

// findDossierFiles lists the *_profile.html files in dir, sorted by name.
func findDossierFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound, "output directory does not exist", dir, err)
	}

	pattern := filepath.Join(dir, "*"+parser.HTMLSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to scan output directory", err)
	}
	sort.Strings(matches)
	return matches, nil
}
