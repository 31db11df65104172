package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/config"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/dossier"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/errors"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logo"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/profile"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/renderer"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/results"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/settings"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Event names for frontend communication
const (
	EventPipelineLog     = "pipeline-log"
	EventStatusUpdate    = "status-update"
	EventProfileReady    = "profile-ready"
	EventLogoReady       = "logo-ready"
	EventDossierHTML     = "dossier-html-ready"
	EventDossierPDF      = "dossier-pdf-ready"
	EventProcessComplete = "process-complete"
	EventProcessError    = "process-error"
)

// LogoPolitenessDelay is the pause between logo searches to avoid hammering
// the image search endpoint.
const LogoPolitenessDelay = 1 * time.Second

// StatusCallback is called whenever the pipeline status changes.
type StatusCallback func(status *types.Status)

// App is the main Wails application controller. It wires the configuration,
// settings, dossier library and error tracking together and drives the
// five-phase generation pipeline.
type App struct {
	ctx      context.Context
	config   *config.Manager
	settings *settings.Manager
	library  *results.LibraryManager
	errorMgr *errors.ErrorManager

	// Status tracking. statusMu also guards cancelFunc and lastResult,
	// which bound methods touch from concurrent goroutines.
	status         *types.Status
	statusMu       sync.RWMutex
	statusCallback StatusCallback

	// Cancellation support
	cancelFunc context.CancelFunc

	// Last pipeline result for the library view
	lastResult *types.PipelineResult

	// isWailsRuntime indicates if the app is running in a Wails environment.
	// EventsEmit calls are skipped during tests.
	isWailsRuntime bool
}

// NewApp creates a new App with an idle status.
func NewApp() *App {
	return &App{
		status: &types.Status{
			Phase:    types.PhaseIdle,
			Progress: 0,
			Message:  "",
		},
	}
}

// NewAppWithConfig creates a new App with a custom config path, useful for
// tests or portable installs.
func NewAppWithConfig(configPath string) (*App, error) {
	app := NewApp()

	configMgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = configMgr

	return app, nil
}

// safeEmit emits an event to the frontend, but only inside a Wails runtime.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// SetWailsRuntime sets the Wails runtime flag. Called from main.go when the
// app starts in GUI mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// startup is called when the app starts. The context is saved so runtime
// methods can be called, and all managers are initialized.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		configMgr, err := config.NewManager("")
		if err != nil {
			logger.Error("failed to create config manager", err)
			return
		}
		a.config = configMgr
	}

	if err := a.config.Load(); err != nil {
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	if a.settings == nil {
		settingsMgr, err := settings.NewManager()
		if err != nil {
			logger.Warn("failed to create settings manager", logger.Err(err))
		} else {
			a.settings = settingsMgr
			if err := a.settings.Load(); err != nil {
				logger.Warn("failed to load settings", logger.Err(err))
			}
		}
	}

	library, err := results.NewLibraryManager("")
	if err != nil {
		logger.Error("failed to initialize dossier library", err)
	} else {
		a.library = library
	}

	errorMgr, err := errors.NewErrorManager("")
	if err != nil {
		logger.Error("failed to initialize error manager", err)
	} else {
		a.errorMgr = errorMgr
	}

	logger.Info("application startup complete",
		logger.String("outputDir", a.config.GetOutputDir()),
		logger.String("provider", string(a.config.GetProvider())))
}

// shutdown is called when the app terminates.
func (a *App) shutdown(ctx context.Context) {
	logger.Info("application shutting down")
	a.statusMu.RLock()
	cancel := a.cancelFunc
	a.statusMu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// GetConfig returns the configuration manager (mainly for tests).
func (a *App) GetConfig() *config.Manager {
	return a.config
}

// SetStatusCallback registers a callback invoked on every status change.
func (a *App) SetStatusCallback(callback StatusCallback) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.statusCallback = callback
}

// GetStatus returns a copy of the current pipeline status.
func (a *App) GetStatus() *types.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	return &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
}

// IsProcessing reports whether a generation run is in progress.
func (a *App) IsProcessing() bool {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	switch a.status.Phase {
	case types.PhaseIdle, types.PhaseComplete, types.PhaseError:
		return false
	default:
		return true
	}
}

// updateStatus updates the current status and notifies the callback and the
// frontend.
func (a *App) updateStatus(phase types.ProcessPhase, progress int, message string) {
	a.statusMu.Lock()
	a.status.Phase = phase
	a.status.Progress = progress
	a.status.Message = message
	a.status.Error = ""

	callback := a.statusCallback
	statusCopy := &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
	a.statusMu.Unlock()

	// Call callback outside of lock to prevent deadlocks
	if callback != nil {
		callback(statusCopy)
	}
	a.safeEmit(EventStatusUpdate, statusCopy)
}

// updateStatusError moves the pipeline into the error state.
func (a *App) updateStatusError(errorMsg string) {
	a.statusMu.Lock()
	a.status.Phase = types.PhaseError
	a.status.Error = errorMsg

	callback := a.statusCallback
	statusCopy := &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
	a.statusMu.Unlock()

	if callback != nil {
		callback(statusCopy)
	}
	a.safeEmit(EventStatusUpdate, statusCopy)
}

// emitLog sends a log line to the frontend activity panel.
func (a *App) emitLog(message string) {
	logger.Info(message)
	a.safeEmit(EventPipelineLog, message)
}

// CancelPipeline cancels a running generation pipeline.
func (a *App) CancelPipeline() error {
	logger.Info("cancel pipeline requested")
	a.statusMu.RLock()
	cancel := a.cancelFunc
	a.statusMu.RUnlock()
	if cancel != nil {
		cancel()
		a.updateStatusError("cancelled")
		logger.Info("pipeline cancelled")
		return nil
	}
	logger.Warn("no pipeline to cancel")
	return types.NewAppError(types.ErrInternal, "no generation run in progress", nil)
}

// GenerateDossiers runs the full pipeline for a newline separated list of
// company names using the named template. Per-company failures are recorded
// but do not stop the batch.
func (a *App) GenerateDossiers(companiesText, templateName string) (*types.PipelineResult, error) {
	logger.Info("starting dossier generation",
		logger.Int("inputLength", len(companiesText)),
		logger.String("template", templateName))

	if a.IsProcessing() {
		logger.Warn("GenerateDossiers called while already processing")
		return nil, types.NewAppError(types.ErrInternal, "a generation run is already in progress", nil)
	}

	parentCtx := a.ctx
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	a.statusMu.Lock()
	a.cancelFunc = cancel
	a.statusMu.Unlock()
	defer func() {
		a.statusMu.Lock()
		a.cancelFunc = nil
		a.statusMu.Unlock()
	}()

	result, err := a.runPipeline(ctx, companiesText, templateName)
	if err != nil {
		a.updateStatusError(err.Error())
		a.safeEmit(EventProcessError, err.Error())
		return nil, err
	}

	a.statusMu.Lock()
	a.lastResult = result
	a.statusMu.Unlock()
	a.updateStatus(types.PhaseComplete, 100,
		fmt.Sprintf("Done: %d of %d dossiers complete", result.Succeeded, result.Total))
	a.safeEmit(EventProcessComplete, result)
	return result, nil
}

// runPipeline executes the five phases: scan, profile, logos, build, render.
func (a *App) runPipeline(ctx context.Context, companiesText, templateName string) (*types.PipelineResult, error) {
	// Phase 1: scan input and template
	a.updateStatus(types.PhaseScanning, 0, "Scanning template and company list...")

	companies, err := parser.ParseCompanyList(companiesText)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, types.NewAppError(types.ErrInvalidInput, "no company names provided", nil)
	}
	a.config.SetLastCompanies(companiesText)

	templatePath, err := a.resolveTemplate(templateName)
	if err != nil {
		return nil, err
	}
	generator := dossier.NewGenerator(templatePath)

	fields, err := generator.TemplateVariables()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		a.emitLog("Warning: no variables found in template, a default profile will be generated")
	} else {
		preview := fields
		if len(preview) > 5 {
			preview = preview[:5]
		}
		a.emitLog(fmt.Sprintf("Found %d fields to collect: %s...", len(fields), strings.Join(preview, ", ")))
	}

	outputDir := a.config.GetOutputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}

	result := &types.PipelineResult{
		OutputDir: outputDir,
		Template:  filepath.Base(templatePath),
		Total:     len(companies),
	}
	reports := make(map[string]*types.CompanyReport, len(companies))
	for _, company := range companies {
		reports[company] = &types.CompanyReport{
			Company:  company,
			SafeName: parser.SafeName(company),
		}
	}

	// Phase 2: profiles
	if err := a.runProfilePhase(ctx, companies, fields, outputDir, reports); err != nil {
		return nil, err
	}

	// Phase 3: logos
	if err := a.runLogoPhase(ctx, outputDir, reports); err != nil {
		return nil, err
	}

	// Phase 4: HTML dossiers
	if err := a.runBuildPhase(ctx, generator, outputDir, reports); err != nil {
		return nil, err
	}

	// Phase 5: PDF rendering
	if err := a.runRenderPhase(ctx, outputDir, reports); err != nil {
		return nil, err
	}

	for _, company := range companies {
		report := reports[company]
		result.Reports = append(result.Reports, *report)
		if report.PDFOK {
			result.Succeeded++
			a.clearCompanyError(company)
		} else {
			result.Failed++
		}
		a.archiveDossier(report, outputDir, result.Template)
	}

	return result, nil
}

// runProfilePhase generates and saves profile data for every company. A
// cancellable cooldown runs between companies to respect API rate limits.
func (a *App) runProfilePhase(ctx context.Context, companies, fields []string, outputDir string, reports map[string]*types.CompanyReport) error {
	engine, err := a.buildProfileEngine(ctx)
	if err != nil {
		return err
	}

	cooldown := a.config.GetCooldownSecs()
	total := len(companies)

	for i, company := range companies {
		if ctx.Err() != nil {
			return types.NewAppError(types.ErrInternal, "cancelled", ctx.Err())
		}

		progress := i * 100 / total
		a.updateStatus(types.PhaseProfiling, progress,
			fmt.Sprintf("Generating profile %d/%d: %s", i+1, total, company))
		a.emitLog(fmt.Sprintf("AI searching for data: %s...", company))

		report := reports[company]
		data, err := engine.GenerateProfile(ctx, company, fields)
		if err != nil {
			a.recordCompanyFailure(report, errors.StageProfile, err)
			a.emitLog(fmt.Sprintf("Failed to generate data for %s: %v", company, err))
		} else {
			path, err := profile.SaveProfile(data, company, outputDir)
			if err != nil {
				a.recordCompanyFailure(report, errors.StageProfile, err)
			} else {
				report.DataPath = path
				report.ProfileOK = true
				a.emitLog(fmt.Sprintf("Data saved for %s", company))
				a.safeEmit(EventProfileReady, map[string]interface{}{
					"company": company,
					"path":    path,
				})
			}
		}

		// Cooldown between companies, skipped after the last one
		if i < total-1 && cooldown > 0 {
			a.emitLog(fmt.Sprintf("Cooling down %ds before next company...", cooldown))
			if err := a.cancellableSleep(ctx, cooldown); err != nil {
				return err
			}
		}
	}

	return nil
}

// cancellableSleep waits the given number of seconds in one-second steps so a
// cancel request takes effect quickly.
func (a *App) cancellableSleep(ctx context.Context, seconds int) error {
	for i := 0; i < seconds; i++ {
		select {
		case <-ctx.Done():
			return types.NewAppError(types.ErrInternal, "cancelled", ctx.Err())
		case <-time.After(time.Second):
		}
	}
	return nil
}

// runLogoPhase fetches a logo for every company that has profile data.
// Existing logos are kept; a placeholder is written when search or download
// fails so the template always has an image to reference.
func (a *App) runLogoPhase(ctx context.Context, outputDir string, reports map[string]*types.CompanyReport) error {
	var searchKey, engineID string
	if a.settings != nil {
		searchKey = a.settings.GetSearchAPIKey()
		engineID = a.settings.GetSearchEngineID()
	}
	finder := logo.NewFinder(searchKey, engineID)
	downloader := logo.NewDownloader()

	ordered := orderedReports(reports)
	total := len(ordered)

	for i, report := range ordered {
		if ctx.Err() != nil {
			return types.NewAppError(types.ErrInternal, "cancelled", ctx.Err())
		}
		if !report.ProfileOK {
			continue
		}

		a.updateStatus(types.PhaseLogos, i*100/total,
			fmt.Sprintf("Fetching logo %d/%d: %s", i+1, total, report.Company))

		logoName := parser.LogoFileName(report.SafeName)
		logoPath := filepath.Join(outputDir, logoName)
		if _, err := os.Stat(logoPath); err == nil {
			a.emitLog(fmt.Sprintf("Logo exists for %s", report.Company))
			report.LogoPath = logoPath
			report.LogoOK = true
			continue
		}

		a.emitLog(fmt.Sprintf("Searching logo: %s", report.Company))
		imgURL, err := finder.FindLogoURL(ctx, report.Company)
		if err != nil {
			logger.Warn("logo search failed", logger.String("company", report.Company), logger.Err(err))
		}

		downloaded := false
		if imgURL != "" {
			if path, err := downloader.DownloadImage(imgURL, outputDir, logoName); err != nil {
				a.emitLog(fmt.Sprintf("Failed logo download for %s: %v", report.Company, err))
			} else {
				report.LogoPath = path
				report.LogoOK = true
				downloaded = true
				a.emitLog(fmt.Sprintf("Downloaded logo for %s", report.Company))
			}
		} else {
			a.emitLog(fmt.Sprintf("No logo URL found for %s", report.Company))
		}

		if !downloaded {
			// A placeholder keeps the dossier renderable
			if path, err := logo.WritePlaceholder(outputDir, logoName); err != nil {
				a.recordCompanyFailure(report, errors.StageLogo, err)
			} else {
				report.LogoPath = path
				report.LogoOK = true
				a.emitLog(fmt.Sprintf("Placeholder logo written for %s", report.Company))
			}
		}

		if report.LogoOK {
			a.safeEmit(EventLogoReady, map[string]interface{}{
				"company": report.Company,
				"path":    report.LogoPath,
			})
		}

		// Be polite to the search engine
		if i < total-1 {
			select {
			case <-ctx.Done():
				return types.NewAppError(types.ErrInternal, "cancelled", ctx.Err())
			case <-time.After(LogoPolitenessDelay):
			}
		}
	}

	return nil
}

// runBuildPhase merges saved profile data into the template for every company
// that has data on disk.
func (a *App) runBuildPhase(ctx context.Context, generator *dossier.Generator, outputDir string, reports map[string]*types.CompanyReport) error {
	ordered := orderedReports(reports)
	total := len(ordered)

	for i, report := range ordered {
		if ctx.Err() != nil {
			return types.NewAppError(types.ErrInternal, "cancelled", ctx.Err())
		}
		if !report.ProfileOK {
			continue
		}

		a.updateStatus(types.PhaseBuilding, i*100/total,
			fmt.Sprintf("Building dossier %d/%d: %s", i+1, total, report.Company))

		data, err := loadProfileData(report.DataPath)
		if err != nil {
			a.recordCompanyFailure(report, errors.StageBuild, err)
			continue
		}

		htmlPath, err := generator.WriteDossier(report.Company, data, outputDir)
		if err != nil {
			a.recordCompanyFailure(report, errors.StageBuild, err)
			a.emitLog(fmt.Sprintf("Failed to build dossier for %s: %v", report.Company, err))
			continue
		}

		report.HTMLPath = htmlPath
		report.HTMLOK = true
		a.emitLog(fmt.Sprintf("Dossier HTML built for %s", report.Company))
		a.safeEmit(EventDossierHTML, map[string]interface{}{
			"company": report.Company,
			"path":    htmlPath,
		})
	}

	return nil
}

// runRenderPhase prints every built dossier to PDF with headless Chrome and
// validates the output files.
func (a *App) runRenderPhase(ctx context.Context, outputDir string, reports map[string]*types.CompanyReport) error {
	chrome := renderer.NewChromeRenderer(a.config.GetChromePath())

	a.updateStatus(types.PhaseRendering, 0, "Starting browser...")
	if err := chrome.Start(ctx); err != nil {
		return err
	}
	defer chrome.Stop()

	report, err := chrome.RenderDir(ctx, outputDir, func(current, total int, name string) {
		a.updateStatus(types.PhaseRendering, current*100/total,
			fmt.Sprintf("Rendering %d/%d: %s", current, total, name))
		a.emitLog(fmt.Sprintf("Compiling: %s...", name))
	})
	if err != nil {
		return err
	}

	bySafeName := make(map[string]*types.CompanyReport, len(reports))
	for _, r := range reports {
		bySafeName[r.SafeName] = r
	}

	for _, fileResult := range report.Results {
		stem := strings.TrimSuffix(filepath.Base(fileResult.HTMLPath), parser.HTMLSuffix)
		companyReport, ok := bySafeName[stem]
		if !ok {
			continue
		}
		if fileResult.Err != nil {
			a.recordCompanyFailure(companyReport, errors.StageRender, fileResult.Err)
			continue
		}

		if _, err := renderer.ValidatePDF(fileResult.PDFPath); err != nil {
			a.recordCompanyFailure(companyReport, errors.StageRender, err)
			continue
		}
		if found, err := renderer.ContainsText(fileResult.PDFPath, companyReport.Company); err != nil {
			logger.Warn("could not spot-check PDF text",
				logger.String("company", companyReport.Company), logger.Err(err))
		} else if !found {
			a.emitLog(fmt.Sprintf("Warning: rendered PDF for %s does not mention the company name", companyReport.Company))
		}

		companyReport.PDFPath = fileResult.PDFPath
		companyReport.PDFOK = true
		a.safeEmit(EventDossierPDF, map[string]interface{}{
			"company": companyReport.Company,
			"path":    fileResult.PDFPath,
		})
	}

	a.emitLog(report.Summary())
	return nil
}

// buildProfileEngine creates the LLM engine for the configured provider.
func (a *App) buildProfileEngine(ctx context.Context) (*profile.Engine, error) {
	provider := a.config.GetProvider()
	apiKey := a.config.GetAPIKey()
	model := a.config.GetModel()

	var backend profile.Backend
	var err error
	switch provider {
	case types.ProviderOpenAI:
		backend, err = profile.NewChatBackend(ctx, apiKey, a.config.GetBaseURL(), model)
	default:
		backend, err = profile.NewGeminiBackend(ctx, apiKey, model)
	}
	if err != nil {
		return nil, err
	}

	engine := profile.NewEngine(backend)
	engine.SetMaxRetries(a.config.GetMaxRetries())
	engine.SetRequestTimeout(time.Duration(a.config.GetRequestTimeout()) * time.Second)
	return engine, nil
}

// recordCompanyFailure marks the report and persists the failure for later
// retry.
func (a *App) recordCompanyFailure(report *types.CompanyReport, stage errors.ErrorStage, err error) {
	note := fmt.Sprintf("%s: %v", errors.GetStageDisplayName(stage), err)
	if report.FailureNote != "" {
		report.FailureNote += "; " + note
	} else {
		report.FailureNote = note
	}

	if a.errorMgr != nil {
		if recordErr := a.errorMgr.RecordError(report.Company, stage, err.Error()); recordErr != nil {
			logger.Warn("failed to persist error record", logger.Err(recordErr))
		}
	}
}

// clearCompanyError removes a persisted failure after a successful run.
func (a *App) clearCompanyError(company string) {
	if a.errorMgr == nil {
		return
	}
	if err := a.errorMgr.RemoveError(company); err != nil {
		logger.Warn("failed to clear error record", logger.Err(err))
	}
}

// archiveDossier imports the company's artifacts into the dossier library.
func (a *App) archiveDossier(report *types.CompanyReport, outputDir, template string) {
	if a.library == nil {
		return
	}

	status := results.StatusError
	switch {
	case report.PDFOK:
		status = results.StatusComplete
	case report.HTMLOK:
		status = results.StatusBuilt
	case report.LogoOK:
		status = results.StatusLogoFetched
	case report.ProfileOK:
		status = results.StatusProfiled
	}

	info := &results.DossierInfo{
		Company:      report.Company,
		SafeName:     report.SafeName,
		GeneratedAt:  time.Now(),
		Template:     template,
		Status:       status,
		ErrorMessage: report.FailureNote,
	}

	if err := a.library.ImportArtifacts(info, outputDir); err != nil {
		logger.Warn("failed to archive dossier",
			logger.String("company", report.Company), logger.Err(err))
	}
}

// resolveTemplate turns a template name into an absolute path. An empty name
// falls back to the last used template, then to the default.
func (a *App) resolveTemplate(templateName string) (string, error) {
	if templateName == "" {
		templateName = a.config.GetLastTemplate()
	}
	if templateName == "" {
		templateName = dossier.DefaultTemplateName
	}

	templatePath := templateName
	if !filepath.IsAbs(templatePath) {
		templatePath = filepath.Join(a.config.GetTemplateDir(), templateName)
	}

	if _, err := os.Stat(templatePath); err != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrFileNotFound,
			"template file not found",
			templatePath,
			err,
		)
	}

	a.config.SetLastTemplate(templateName)
	return templatePath, nil
}

// loadProfileData reads a saved profile JSON file.
func loadProfileData(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrFileNotFound, "profile data file not found", err)
	}

	var profileData map[string]interface{}
	if err := json.Unmarshal(data, &profileData); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "profile data file is corrupt", err)
	}
	return profileData, nil
}

// orderedReports returns the reports sorted by company name for stable phase
// ordering.
func orderedReports(reports map[string]*types.CompanyReport) []*types.CompanyReport {
	ordered := make([]*types.CompanyReport, 0, len(reports))
	for _, r := range reports {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Company < ordered[j].Company
	})
	return ordered
}

// ListTemplates returns the available template file names.
func (a *App) ListTemplates() ([]string, error) {
	return dossier.ListTemplates(a.config.GetTemplateDir())
}

// GetTemplateVariables returns the data fields a template requires.
func (a *App) GetTemplateVariables(templateName string) ([]string, error) {
	templatePath, err := a.resolveTemplate(templateName)
	if err != nil {
		return nil, err
	}
	return dossier.NewGenerator(templatePath).TemplateVariables()
}

// TestAPIConnection verifies LLM credentials without starting a pipeline.
func (a *App) TestAPIConnection(provider, apiKey, baseURL, model string) error {
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if a.config != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.config.GetRequestTimeout())*time.Second)
		defer cancel()
	}

	var backend profile.Backend
	var err error
	switch types.Provider(provider) {
	case types.ProviderOpenAI:
		backend, err = profile.NewChatBackend(ctx, apiKey, baseURL, model)
	default:
		backend, err = profile.NewGeminiBackend(ctx, apiKey, model)
	}
	if err != nil {
		return err
	}

	return profile.NewEngine(backend).TestConnection(ctx)
}

// GetSettings returns the current configuration for the settings dialog.
func (a *App) GetSettings() *types.Config {
	if a.config == nil {
		return nil
	}
	return a.config.GetConfig()
}

// SaveSettings persists configuration changes from the settings dialog.
func (a *App) SaveSettings(provider, geminiKey, openaiKey, baseURL, model, outputDir, templateDir, chromePath string, timeout, maxRetries, cooldown int) error {
	logger.Info("saving settings", logger.String("provider", provider))
	return a.config.UpdateConfig(
		types.Provider(provider),
		geminiKey, openaiKey, baseURL, model,
		outputDir, templateDir, chromePath,
		timeout, maxRetries, cooldown,
	)
}

// GetSearchSettings returns the image search credentials.
func (a *App) GetSearchSettings() map[string]string {
	creds := map[string]string{"api_key": "", "engine_id": ""}
	if a.settings != nil {
		creds["api_key"] = a.settings.GetSearchAPIKey()
		creds["engine_id"] = a.settings.GetSearchEngineID()
	}
	return creds
}

// SaveSearchSettings persists the image search credentials.
func (a *App) SaveSearchSettings(apiKey, engineID string) error {
	if a.settings == nil {
		return types.NewAppError(types.ErrConfig, "settings manager is not initialized", nil)
	}
	return a.settings.SetSearchCredentials(apiKey, engineID)
}

// GetLastCompanies returns the previously entered company list.
func (a *App) GetLastCompanies() string {
	if a.config == nil {
		return ""
	}
	return a.config.GetLastCompanies()
}

// GetLastResult returns the result of the most recent pipeline run.
func (a *App) GetLastResult() *types.PipelineResult {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.lastResult
}

// ListDossiers returns the dossier library contents, newest first.
func (a *App) ListDossiers() ([]*results.DossierInfo, error) {
	if a.library == nil {
		return nil, types.NewAppError(types.ErrInternal, "dossier library is not initialized", nil)
	}
	return a.library.ListDossiers()
}

// DeleteDossier removes a company from the dossier library.
func (a *App) DeleteDossier(company string) error {
	if a.library == nil {
		return types.NewAppError(types.ErrInternal, "dossier library is not initialized", nil)
	}
	logger.Info("deleting dossier", logger.String("company", company))
	return a.library.DeleteDossier(company)
}

// ListFailedCompanies returns the persisted failure records.
func (a *App) ListFailedCompanies() []*errors.ErrorRecord {
	if a.errorMgr == nil {
		return nil
	}
	return a.errorMgr.ListErrors()
}

// RetryFailedCompanies re-runs the pipeline for every failed company.
func (a *App) RetryFailedCompanies(templateName string) (*types.PipelineResult, error) {
	if a.errorMgr == nil {
		return nil, types.NewAppError(types.ErrInternal, "error manager is not initialized", nil)
	}

	records := a.errorMgr.ListErrors()
	if len(records) == 0 {
		return nil, types.NewAppError(types.ErrInvalidInput, "no failed companies to retry", nil)
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Company)
		if err := a.errorMgr.IncrementRetry(record.Company); err != nil {
			logger.Warn("failed to bump retry counter", logger.Err(err))
		}
	}

	return a.GenerateDossiers(strings.Join(names, "\n"), templateName)
}

// ClearFailedCompanies drops all persisted failure records.
func (a *App) ClearFailedCompanies() error {
	if a.errorMgr == nil {
		return types.NewAppError(types.ErrInternal, "error manager is not initialized", nil)
	}
	return a.errorMgr.ClearAll()
}

// ExportFailedCompanies writes the failed company names to a text file in the
// output directory, in the same format the generator accepts as input, and
// returns the file path.
func (a *App) ExportFailedCompanies() (string, error) {
	if a.errorMgr == nil {
		return "", types.NewAppError(types.ErrInternal, "error manager is not initialized", nil)
	}
	outputDir := a.config.GetOutputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}
	exportPath := filepath.Join(outputDir, "failed_companies.txt")
	if err := a.errorMgr.ExportCompanyList(exportPath); err != nil {
		return "", err
	}
	a.emitLog(fmt.Sprintf("Exported failed company list to %s", exportPath))
	return exportPath, nil
}

// GetPDFDataURL returns the PDF as a base64 data URL for inline preview.
func (a *App) GetPDFDataURL(pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", types.NewAppError(types.ErrFileNotFound, "PDF file not found", err)
	}
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// OpenPDFInSystem opens the PDF with the system's default viewer.
func (a *App) OpenPDFInSystem(pdfPath string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return types.NewAppError(types.ErrFileNotFound, "PDF file not found", err)
	}

	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", pdfPath)
	case "darwin":
		cmd = exec.Command("open", pdfPath)
	default:
		cmd = exec.Command("xdg-open", pdfPath)
	}

	if err := cmd.Start(); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to open PDF viewer", err)
	}
	return nil
}
