package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

// GradeLine is one student entry of the PDF summary.
type GradeLine struct {
	Identifier     string
	OverallAverage float64
	Rank           int
}

// GradeReport is the content of the exported PDF summary.
type GradeReport struct {
	Title     string
	Lines     []GradeLine
	ClassMean float64
	ClassMax  float64
	ClassMin  float64
}

// PDFExporter renders grade reports with the core Arial font, which only
// covers ISO-8859-1 text.
type PDFExporter struct {
	uncompressed bool
}

// PDFOption configures a PDFExporter.
type PDFOption func(*PDFExporter)

// WithoutCompression writes plain content streams.
func WithoutCompression() PDFOption {
	return func(e *PDFExporter) {
		e.uncompressed = true
	}
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RenderGradeReport writes the centered title, one line per student and the class figures.
// Text outside ISO-8859-1 fails with an encoding error instead of being transliterated.
func (e *PDFExporter) RenderGradeReport(report GradeReport) ([]byte, error) {
	enc := newLatin1()

	title := enc.text(report.Title)
	lines := make([]string, 0, len(report.Lines)+3)
	for _, line := range report.Lines {
		lines = append(lines, enc.text(FormatGradeLine(line)))
	}
	footer := []string{
		enc.text(fmt.Sprintf("Class average: %.2f", report.ClassMean)),
		enc.text(fmt.Sprintf("Highest average: %.2f", report.ClassMax)),
		enc.text(fmt.Sprintf("Lowest average: %.2f", report.ClassMin)),
	}
	if enc.err != nil {
		return nil, enc.err
	}

	pdf := e.newDocument("P", title)
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(10)
	for _, line := range lines {
		pdf.CellFormat(0, 10, line, "", 1, "", false, 0, "")
	}
	pdf.Ln(10)
	for _, line := range footer {
		pdf.CellFormat(0, 10, line, "", 1, "", false, 0, "")
	}
	return output(pdf)
}

// RenderTable creates a landscape PDF with a bordered table of the dataset.
func (e *PDFExporter) RenderTable(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	enc := newLatin1()
	title = enc.text(title)
	headers := make([]string, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = enc.text(h)
	}
	rows := make([][]string, len(data.Rows))
	for i, row := range data.Rows {
		rows[i] = make([]string, len(headers))
		for j := range headers {
			if j < len(row) {
				rows[i][j] = enc.text(row[j])
			}
		}
	}
	if enc.err != nil {
		return nil, enc.err
	}

	pdf := e.newDocument("L", title)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	colWidth := 277.0 / float64(len(headers))
	pdf.SetFont("Arial", "B", 9)
	for _, header := range headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for _, value := range row {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return output(pdf)
}

// FormatGradeLine renders "{identifier} | Average: {avg} | Rank: {rank}".
func FormatGradeLine(line GradeLine) string {
	return fmt.Sprintf("%s | Average: %.2f | Rank: %d", line.Identifier, line.OverallAverage, line.Rank)
}

func (e *PDFExporter) newDocument(orientation, title string) *gofpdf.Fpdf {
	if title == "" {
		title = "Report"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetCompression(!e.uncompressed)
	pdf.SetTitle(title, false)
	pdf.SetCreator("notabilis", false)
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// latin1 encodes strings and remembers the first failure.
type latin1 struct {
	err error
}

func newLatin1() *latin1 {
	return &latin1{}
}

func (l *latin1) text(s string) string {
	if l.err != nil {
		return ""
	}
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		l.err = appErrors.Encoding(s, err)
		return ""
	}
	return out
}
