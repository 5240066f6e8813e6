// Package parser turns uploaded grade files into string tables.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/noah-isme/notabilis-api/internal/models"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

var extensionFormats = map[string]models.SourceFormat{
	".csv":  models.SourceFormatDelimited,
	".txt":  models.SourceFormatDelimited,
	".tsv":  models.SourceFormatDelimited,
	".docx": models.SourceFormatDocument,
	".xlsx": models.SourceFormatSpreadsheet,
}

// DetectFormat maps a filename to its format family by extension.
func DetectFormat(filename string) (models.SourceFormat, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	format, ok := extensionFormats[ext]
	if !ok {
		return "", appErrors.UnsupportedFormat(ext)
	}
	return format, nil
}

// SupportedExtensions lists accepted extensions for upload forms.
func SupportedExtensions() []string {
	return []string{".csv", ".txt", ".tsv", ".docx", ".xlsx"}
}

// Parse reads data according to the extension of filename.
func Parse(filename string, data []byte) (*models.Table, models.SourceFormat, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, "", err
	}

	var lines [][]string
	switch format {
	case models.SourceFormatDelimited:
		lines, err = readDelimited(data)
	case models.SourceFormatDocument:
		lines, err = readDocument(data)
	case models.SourceFormatSpreadsheet:
		lines, err = readSpreadsheet(data)
	}
	if err != nil {
		return nil, format, err
	}

	table, err := buildTable(lines)
	if err != nil {
		return nil, format, err
	}
	return table, format, nil
}

// buildTable treats the first non-blank line as headers and fits every other line to its width.
func buildTable(lines [][]string) (*models.Table, error) {
	var headers []string
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		cells := trimCells(line)
		if isBlank(cells) {
			continue
		}
		if headers == nil {
			headers = cells
			continue
		}
		rows = append(rows, fit(cells, len(headers)))
	}
	if headers == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file has no header row")
	}
	return &models.Table{Headers: headers, Rows: rows}, nil
}

func trimCells(line []string) []string {
	cells := make([]string, len(line))
	for i, cell := range line {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}

func fit(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}
