package renderer

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

// PDFInfo holds the validation summary for a rendered dossier.
type PDFInfo struct {
	FilePath  string
	FileName  string
	PageCount int
	FileSize  int64
}

// ValidatePDF checks that a rendered file is a structurally sound PDF with at
// least one page, returning its summary.
func ValidatePDF(pdfPath string) (*PDFInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound, "PDF file does not exist", pdfPath, err)
		}
		return nil, types.NewAppError(types.ErrRender, "cannot access PDF file", err)
	}
	if fileInfo.IsDir() {
		return nil, types.NewAppError(types.ErrRender, "path points to a directory, not a file", nil)
	}

	if err := api.ValidateFile(pdfPath, nil); err != nil {
		return nil, types.NewAppError(types.ErrRender, "PDF failed structural validation", err)
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "cannot open PDF file", err)
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount < 1 {
		return nil, types.NewAppError(types.ErrRender, "PDF contains no pages", nil)
	}

	logger.Debug("PDF validated",
		logger.String("file", pdfPath),
		logger.Int("pages", pageCount))

	return &PDFInfo{
		FilePath:  pdfPath,
		FileName:  filepath.Base(pdfPath),
		PageCount: pageCount,
		FileSize:  fileInfo.Size(),
	}, nil
}

// ContainsText reports whether the PDF's extractable text contains needle.
// Used as a spot check that the company data actually made it into the render.
func ContainsText(pdfPath, needle string) (bool, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return false, types.NewAppError(types.ErrRender, "cannot open PDF file", err)
	}
	defer f.Close()

	needleLower := strings.ToLower(normalizeSpace(needle))
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(normalizeSpace(content)), needleLower) {
			return true, nil
		}
	}
	return false, nil
}

// normalizeSpace collapses runs of whitespace so text extracted with odd line
// breaks still matches.
func normalizeSpace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteRune(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
