package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// PDFOptions controls page layout of generated receipts.
type PDFOptions struct {
	PageSize              string // A4, Letter, ...
	Orientation           string // Portrait | Landscape
	MarginTopMm           uint
	MarginRightMm         uint
	MarginBottomMm        uint
	MarginLeftMm          uint
	EnableLocalFileAccess bool
}

// DefaultPDFOptions returns the layout used for rent receipts.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:              wkhtmltopdf.PageSizeA4,
		Orientation:           wkhtmltopdf.OrientationPortrait,
		MarginTopMm:           10,
		MarginRightMm:         10,
		MarginBottomMm:        10,
		MarginLeftMm:          10,
		EnableLocalFileAccess: true,
	}
}

// PDFGenerator renders HTML to a PDF file on disk.
type PDFGenerator interface {
	// Generate writes the rendered PDF to outputPath, creating parent
	// directories as needed.
	Generate(html string, outputPath string, opts PDFOptions) error
}

// WkhtmltopdfGenerator renders PDFs through the wkhtmltopdf binary.
// The binary is resolved from PATH or the WKHTMLTOPDF_PATH environment
// variable.
type WkhtmltopdfGenerator struct{}

// Generate implements PDFGenerator.
func (WkhtmltopdfGenerator) Generate(html string, outputPath string, opts PDFOptions) error {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfg.PageSize.Set(opts.PageSize)
	pdfg.Orientation.Set(opts.Orientation)
	pdfg.MarginTop.Set(opts.MarginTopMm)
	pdfg.MarginRight.Set(opts.MarginRightMm)
	pdfg.MarginBottom.Set(opts.MarginBottomMm)
	pdfg.MarginLeft.Set(opts.MarginLeftMm)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(html))
	page.EnableLocalFileAccess.Set(opts.EnableLocalFileAccess)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrPDFGeneration, dir, err)
	}

	if err := pdfg.WriteFile(outputPath); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPDFGeneration, outputPath, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: pdf not created or empty: %s", ErrPDFGeneration, outputPath)
	}
	return nil
}
