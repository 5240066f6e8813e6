package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/noah-isme/notabilis-api/internal/models"
	"github.com/noah-isme/notabilis-api/internal/service"
	"github.com/noah-isme/notabilis-api/pkg/config"
)

func main() {
	var (
		inPath    string
		outPath   string
		csvPath   string
		csvLayout string
		chartPath string
	)

	flag.StringVar(&inPath, "in", "", "Grade file (.csv, .txt, .tsv, .docx, .xlsx)")
	flag.StringVar(&outPath, "out", "report.pdf", "PDF report destination, empty to skip")
	flag.StringVar(&csvPath, "csv", "", "Optional results CSV destination")
	flag.StringVar(&csvLayout, "csv-layout", string(service.CSVLayoutTable), "CSV layout: table or compact")
	flag.StringVar(&chartPath, "chart", "", "Optional averages chart PNG destination")
	flag.Parse()

	if inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := run(cfg, inPath, outPath, csvPath, service.CSVLayout(csvLayout), chartPath); err != nil {
		log.Fatalf("An error occurred: %v", err)
	}
}

func run(cfg *config.Config, inPath, outPath, csvPath string, layout service.CSVLayout, chartPath string) error {
	file, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck

	analyses := service.NewAnalysisService(service.AnalysisConfig{
		MaxFileSize: cfg.Upload.MaxFileSizeBytes,
		Keywords: service.ColumnKeywords{
			Name:        cfg.Columns.NameKeywords,
			Quiz:        cfg.Columns.QuizKeywords,
			Homework:    cfg.Columns.HomeworkKeywords,
			Coefficient: cfg.Columns.CoefficientKeywords,
		},
		Report: service.ReportOptions{ChartTitle: cfg.Report.ChartTitle, ChartColor: cfg.Report.ChartColor},
		Scores: service.ScoreParsing{DecimalComma: cfg.Analysis.DecimalComma},
	}, nil, nil, nil, nil)
	exports := service.NewExportService(service.ExportConfig{Title: cfg.Report.Title, PDFFilename: cfg.Report.Filename}, nil, nil, nil, nil, nil, nil, nil)

	analysis, _, err := analyses.Analyze(context.Background(), service.Upload{Filename: filepath.Base(inPath), Content: file})
	if err != nil {
		return err
	}
	view := analyses.Report(analysis)

	if outPath != "" {
		if err := writeExport(outPath, func() ([]byte, error) { return exports.PDF(analysis) }); err != nil {
			return err
		}
	}
	if csvPath != "" {
		if err := writeExport(csvPath, func() ([]byte, error) { return exports.CSV(analysis, view, layout) }); err != nil {
			return err
		}
	}
	if chartPath != "" {
		if err := writeExport(chartPath, func() ([]byte, error) { return exports.Chart(view.Chart) }); err != nil {
			return err
		}
	}

	printSummary(view)
	return nil
}

func writeExport(path string, render func() ([]byte, error)) error {
	payload, err := render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printSummary(view models.ReportView) {
	fmt.Println(view.SummaryLine)
	for _, row := range view.Table.Rows {
		fmt.Printf("%-20s average %-8s rank %s\n", row[0], row[len(row)-3], row[len(row)-1])
	}
}
