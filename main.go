package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/config"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/parser"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	companiesFlag = flag.String("companies", "", "Comma separated company names (e.g., \"Acme Corp, Globex\")")
	listFlag      = flag.String("list", "", "Path to a text file with one company name per line")
	templateFlag  = flag.String("template", "", "Template file name to use (defaults to the last used template)")
	outputFlag    = flag.String("output", "", "Output directory for generated dossiers")
	cliFlag       = flag.Bool("cli", false, "Run in CLI mode without GUI")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("Company Profile Generator - build AI-written corporate dossiers as PDF")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  profile-forge [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --companies <NAMES>  Comma separated company names")
	fmt.Println("  --list <PATH>        Text file with one company name per line")
	fmt.Println("  --template <NAME>    Template file to fill (from the template directory)")
	fmt.Println("  --output <PATH>      Output directory for data, logos, HTML and PDF files")
	fmt.Println("  --cli                Run in the terminal without starting the GUI")
	fmt.Println("  -h, --help           Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  profile-forge                                    # start the GUI")
	fmt.Println("  profile-forge --companies \"Acme Corp\" --cli")
	fmt.Println("  profile-forge --list companies.txt --cli")
	fmt.Println("  profile-forge --list companies.txt --template modern.html --cli")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  Without arguments the graphical interface starts.")
	fmt.Println("  With --companies or --list but without --cli, the GUI starts and")
	fmt.Println("  begins generating automatically.")
}

// getCompaniesFromFlags returns the newline separated company list built from
// the command line flags. Returns an empty string when no input flag is set.
func getCompaniesFromFlags() (string, error) {
	if *companiesFlag != "" && *listFlag != "" {
		return "", fmt.Errorf("only one input source may be given (--companies or --list)")
	}

	if *companiesFlag != "" {
		parts := strings.Split(*companiesFlag, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return strings.Join(parts, "\n"), nil
	}

	if *listFlag != "" {
		companies, err := parser.LoadCompanyListFile(*listFlag)
		if err != nil {
			return "", fmt.Errorf("failed to read company list file: %w", err)
		}
		return strings.Join(companies, "\n"), nil
	}

	return "", nil
}

// PDFHandler serves generated PDF files from the local filesystem so the
// frontend can preview them in an iframe.
type PDFHandler struct{}

func (h *PDFHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle /pdf/ requests
	if !strings.HasPrefix(r.URL.Path, "/pdf/") {
		http.NotFound(w, r)
		return
	}

	// URL format: /pdf/C:/path/to/file.pdf or /pdf/path/to/file.pdf
	filePath := strings.TrimPrefix(r.URL.Path, "/pdf/")

	// URL decode the path
	filePath = strings.ReplaceAll(filePath, "%20", " ")
	filePath = strings.ReplaceAll(filePath, "%3A", ":")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filePath)
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	companiesText, err := getCompaniesFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Println()
		printHelp()
		os.Exit(1)
	}

	// CLI mode
	if *cliFlag {
		if companiesText == "" {
			fmt.Fprintln(os.Stderr, "Error: --cli requires --companies or --list")
			fmt.Println()
			printHelp()
			os.Exit(1)
		}
		runGenerationCLI(companiesText, *templateFlag, *outputFlag)
		return
	}

	// Create an instance of the app structure
	app := NewApp()
	app.SetWailsRuntime(true)

	// Wrap the startup function to handle command line input
	startupFunc := func(ctx context.Context) {
		app.startup(ctx)

		if *outputFlag != "" {
			applyOutputOverride(app.config, *outputFlag)
		}

		// If company names were given on the command line, start generating
		// automatically once the UI is up.
		if companiesText != "" {
			go func() {
				result, err := app.GenerateDossiers(companiesText, *templateFlag)
				if err != nil {
					runtime.EventsEmit(ctx, EventProcessError, err.Error())
					fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
				} else {
					fmt.Printf("Generation complete: %d/%d dossiers\n", result.Succeeded, result.Total)
				}
			}()
		}
	}

	err = wails.Run(&options.App{
		Title:  "Company Profile Generator",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: &PDFHandler{},
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        startupFunc,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			// Confirm before killing a generation run in progress
			if app.IsProcessing() {
				result, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
					Type:          runtime.QuestionDialog,
					Title:         "Confirm Exit",
					Message:       "A generation run is in progress. Quit anyway?\nThe current run will be cancelled.",
					Buttons:       []string{"Cancel", "Quit"},
					DefaultButton: "Cancel",
					CancelButton:  "Cancel",
				})
				if err != nil {
					return false
				}
				if result == "Cancel" {
					return true
				}
				app.CancelPipeline()
			}
			return false
		},
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// applyOutputOverride points the configured output directory at the given
// path without persisting the change.
func applyOutputOverride(configMgr *config.Manager, outputDir string) {
	if configMgr == nil {
		return
	}
	cfg := configMgr.GetConfig()
	cfg.OutputDir = outputDir
	configMgr.SetConfig(cfg)
}

// runGenerationCLI runs the full pipeline in CLI mode without GUI.
func runGenerationCLI(companiesText, templateName, outputDir string) {
	// Initialize logger with console output for CLI mode
	logger.Init(&logger.Config{
		LogFilePath:   "profile-forge-cli.log",
		Level:         logger.LevelInfo,
		EnableConsole: true,
	})
	defer logger.Close()

	fmt.Println("=== Company Profile Generation (CLI mode) ===")

	companies, err := parser.ParseCompanyList(companiesText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Companies: %d\n", len(companies))
	for _, c := range companies {
		fmt.Printf("  - %s\n", c)
	}

	// Create app and initialize
	app := NewApp()
	app.startup(context.Background())

	if outputDir != "" {
		applyOutputOverride(app.config, outputDir)
	}

	if app.config != nil {
		fmt.Printf("Provider: %s\n", app.config.GetProvider())
		fmt.Printf("Model: %s\n", app.config.GetModel())
		fmt.Printf("Output directory: %s\n", app.config.GetOutputDir())
	}

	// Start a goroutine to monitor progress
	done := make(chan bool)
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		lastProgress := -1
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				status := app.GetStatus()
				if status != nil && status.Progress != lastProgress {
					fmt.Printf("  [%d%%] %s: %s\n", status.Progress, status.Phase, status.Message)
					lastProgress = status.Progress
				}
			}
		}
	}()

	result, err := app.GenerateDossiers(companiesText, templateName)
	close(done)

	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=== Generation Complete ===")
	fmt.Printf("Output directory: %s\n", result.OutputDir)
	fmt.Printf("Template:         %s\n", result.Template)
	fmt.Printf("Total:            %d\n", result.Total)
	fmt.Printf("Succeeded:        %d\n", result.Succeeded)
	fmt.Printf("Failed:           %d\n", result.Failed)

	for _, report := range result.Reports {
		if report.PDFOK {
			fmt.Printf("  OK   %s -> %s\n", report.Company, report.PDFPath)
		} else {
			fmt.Printf("  FAIL %s: %s\n", report.Company, report.FailureNote)
		}
	}

	app.shutdown(context.Background())

	if result.Failed > 0 {
		os.Exit(1)
	}
}
