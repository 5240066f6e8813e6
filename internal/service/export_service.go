package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/notabilis-api/internal/models"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
	"github.com/noah-isme/notabilis-api/pkg/export"
	"github.com/noah-isme/notabilis-api/pkg/storage"
)

// CSVLayout selects which CSV flavour to render.
type CSVLayout string

const (
	// CSVLayoutTable mirrors the on-screen results table.
	CSVLayoutTable CSVLayout = "table"
	// CSVLayoutCompact keeps identifier, averages, coefficient and rank only.
	CSVLayoutCompact CSVLayout = "compact"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tokenSigner interface {
	Generate(reportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error)
}

type pdfRenderer interface {
	RenderGradeReport(report export.GradeReport) ([]byte, error)
	RenderTable(data export.Dataset, title string) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	RenderResults(rows []export.ResultRow) ([]byte, error)
}

type chartRenderer interface {
	Render(spec export.BarChart) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix   string
	Title       string
	PDFFilename string
	ResultTTL   time.Duration
}

// StoredReport describes a PDF kept on disk behind a signed link.
type StoredReport struct {
	RelativePath string    `json:"-"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ReportDownload is an opened stored report ready for streaming.
type ReportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportService renders PDF, CSV and chart exports and optionally stores PDFs.
type ExportService struct {
	pdf     pdfRenderer
	csv     csvRenderer
	chart   chartRenderer
	storage fileStorage
	signer  tokenSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. Storage and signer are only
// needed for Store and Download; nil renderers fall back to the defaults.
func NewExportService(cfg ExportConfig, storage fileStorage, signer tokenSigner, metrics *MetricsService, logger *zap.Logger, pdf pdfRenderer, csv csvRenderer, chart chartRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if cfg.PDFFilename == "" {
		cfg.PDFFilename = "report.pdf"
	}
	if cfg.Title == "" {
		cfg.Title = "Grade report - Notabilis"
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if chart == nil {
		chart = export.NewChartRenderer()
	}
	return &ExportService{
		pdf:     pdf,
		csv:     csv,
		chart:   chart,
		storage: storage,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// PDFFilename is the download name of PDF reports.
func (s *ExportService) PDFFilename() string {
	return s.cfg.PDFFilename
}

// StorageEnabled reports whether PDFs can be stored behind signed links.
func (s *ExportService) StorageEnabled() bool {
	return s.storage != nil && s.signer != nil
}

// PDF renders the one-page-per-overflow grade summary.
func (s *ExportService) PDF(analysis *models.Analysis) ([]byte, error) {
	report := export.GradeReport{
		Title:     s.cfg.Title,
		Lines:     make([]export.GradeLine, len(analysis.Results)),
		ClassMean: analysis.Summary.Mean,
		ClassMax:  analysis.Summary.Max,
		ClassMin:  analysis.Summary.Min,
	}
	for i, res := range analysis.Results {
		report.Lines[i] = export.GradeLine{Identifier: res.Identifier, OverallAverage: res.OverallAverage, Rank: res.Rank}
	}
	payload, err := s.pdf.RenderGradeReport(report)
	return s.observe("pdf", payload, err)
}

// TablePDF renders the full results table as a landscape PDF.
func (s *ExportService) TablePDF(view models.ReportView) ([]byte, error) {
	payload, err := s.pdf.RenderTable(export.Dataset{Headers: view.Table.Headers, Rows: view.Table.Rows}, s.cfg.Title)
	return s.observe("pdf_table", payload, err)
}

// CSV renders results in the requested layout.
func (s *ExportService) CSV(analysis *models.Analysis, view models.ReportView, layout CSVLayout) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch layout {
	case CSVLayoutCompact:
		rows := make([]export.ResultRow, len(analysis.Results))
		for i, res := range analysis.Results {
			rows[i] = export.ResultRow{
				Identifier:      res.Identifier,
				QuizAverage:     Round2(res.QuizAverage),
				OverallAverage:  Round2(res.OverallAverage),
				Coefficient:     res.Coefficient,
				WeightedAverage: Round2(res.WeightedAverage),
				Rank:            res.Rank,
			}
		}
		payload, err = s.csv.RenderResults(rows)
	case CSVLayoutTable, "":
		payload, err = s.csv.Render(export.Dataset{Headers: view.Table.Headers, Rows: view.Table.Rows})
	default:
		err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown csv layout %q", layout))
	}
	return s.observe("csv", payload, err)
}

// Chart draws the averages bar chart as PNG.
func (s *ExportService) Chart(spec models.ChartSpec) ([]byte, error) {
	chart := export.BarChart{
		Title:         spec.Title,
		Color:         spec.Color,
		LabelRotation: spec.LabelRotation,
		Bars:          make([]export.Bar, len(spec.Bars)),
	}
	for i, bar := range spec.Bars {
		chart.Bars[i] = export.Bar{Label: bar.Label, Value: bar.Value}
	}
	payload, err := s.chart.Render(chart)
	return s.observe("chart", payload, err)
}

// Store renders the PDF, saves it and returns a signed download link.
func (s *ExportService) Store(analysis *models.Analysis) (*StoredReport, error) {
	if !s.StorageEnabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report storage disabled")
	}
	payload, err := s.PDF(analysis)
	if err != nil {
		return nil, err
	}

	relPath := path.Join("reports", analysis.ID, s.cfg.PDFFilename)
	relPath, err = s.storage.Save(relPath, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(analysis.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &StoredReport{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Filename:     s.cfg.PDFFilename,
		ExpiresAt:    expiresAt,
	}, nil
}

// Download resolves a signed token to an open stored report.
func (s *ExportService) Download(token string) (*ReportDownload, error) {
	if !s.StorageEnabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report storage disabled")
	}
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	return &ReportDownload{File: file, Filename: path.Base(relPath), ExpiresAt: expiresAt}, nil
}

// Cleanup deletes stored reports older than the link TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (s *ExportService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.storage == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(); err != nil {
				s.logger.Warn("report cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *ExportService) observe(kind string, payload []byte, err error) ([]byte, error) {
	if err != nil {
		s.metrics.ObserveExport(kind, appErrors.FromError(err).Code)
		return nil, err
	}
	s.metrics.ObserveExport(kind, outcomeOK)
	return payload, nil
}
