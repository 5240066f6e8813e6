package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gocarina/gocsv"
)

// Dataset defines tabular export content with ordered headers.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// ResultRow is the compact per-student CSV line.
type ResultRow struct {
	Identifier      string  `csv:"identifier"`
	QuizAverage     float64 `csv:"quiz_average"`
	OverallAverage  float64 `csv:"overall_average"`
	Coefficient     float64 `csv:"coefficient"`
	WeightedAverage float64 `csv:"weighted_average"`
	Rank            int     `csv:"rank"`
}

// CSVExporter renders datasets and result rows into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the dataset with its header line first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderResults marshals compact result rows using their csv tags.
func (e *CSVExporter) RenderResults(rows []ResultRow) ([]byte, error) {
	if rows == nil {
		rows = []ResultRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal result rows: %w", err)
	}
	return out, nil
}
