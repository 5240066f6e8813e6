package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/notabilis-api/internal/models"
	"github.com/noah-isme/notabilis-api/internal/parser"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

const (
	outcomeOK           = "ok"
	defaultMaxFileSize  = 5 * 1024 * 1024
	analysisCachePrefix = "analysis:"
)

// Upload is a grade file submitted for analysis.
type Upload struct {
	Filename string    `validate:"required"`
	Content  io.Reader `validate:"required"`
}

// AnalysisConfig tunes the analysis pipeline.
type AnalysisConfig struct {
	MaxFileSize int64
	Keywords    ColumnKeywords
	Report      ReportOptions
	CacheTTL    time.Duration
	Scores      ScoreParsing
}

// AnalysisService runs parse, column resolution and calculation for one upload.
type AnalysisService struct {
	resolver  *ColumnResolver
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AnalysisConfig
	now       func() time.Time
}

// NewAnalysisService constructs the pipeline. cache and metrics may be nil.
func NewAnalysisService(cfg AnalysisConfig, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AnalysisService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		resolver:  NewColumnResolver(cfg.Keywords),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Analyze computes results for the upload. The boolean reports a cache hit.
func (s *AnalysisService) Analyze(ctx context.Context, upload Upload) (*models.Analysis, bool, error) {
	start := s.now()
	format := formatLabel(upload.Filename)

	analysis, hit, err := s.analyze(ctx, upload)
	outcome := outcomeOK
	students := 0
	if err != nil {
		outcome = appErrors.FromError(err).Code
		s.logger.Warn("analysis failed",
			zap.String("filename", upload.Filename),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	} else {
		students = len(analysis.Results)
		s.logger.Info("analysis completed",
			zap.String("analysis_id", analysis.ID),
			zap.String("filename", upload.Filename),
			zap.String("format", string(analysis.Format)),
			zap.Int("students", students),
			zap.Bool("cache_hit", hit),
			zap.Duration("duration", s.now().Sub(start)),
		)
	}
	s.metrics.ObserveAnalysis(format, outcome, students, s.now().Sub(start))
	return analysis, hit, err
}

func (s *AnalysisService) analyze(ctx context.Context, upload Upload) (*models.Analysis, bool, error) {
	if err := s.validator.Struct(upload); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a grade file is required")
	}
	if _, err := parser.DetectFormat(upload.Filename); err != nil {
		return nil, false, err
	}

	data, err := s.readLimited(upload.Content)
	if err != nil {
		return nil, false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}

	key := cacheKey(upload.Filename, data, s.cfg.Scores)
	var cached models.Analysis
	if s.cache.Get(ctx, key, &cached) {
		cached.Filename = upload.Filename
		return &cached, true, nil
	}

	analysis, err := s.compute(upload.Filename, data)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, analysis, s.cfg.CacheTTL)
	return analysis, false, nil
}

func (s *AnalysisService) compute(filename string, data []byte) (*models.Analysis, error) {
	table, format, err := parser.Parse(filename, data)
	if err != nil {
		return nil, err
	}
	mapping, err := s.resolver.Resolve(table.Headers)
	if err != nil {
		return nil, err
	}
	results, summary, err := Calculate(table, mapping, s.cfg.Scores)
	if err != nil {
		return nil, err
	}
	return &models.Analysis{
		ID:        uuid.NewString(),
		Filename:  filename,
		Format:    format,
		Mapping:   *mapping,
		Results:   results,
		Summary:   summary,
		CreatedAt: s.now().UTC(),
	}, nil
}

// Report builds the summary line, table and chart description for an analysis.
func (s *AnalysisService) Report(analysis *models.Analysis) models.ReportView {
	return BuildReport(analysis.Results, analysis.Summary, analysis.Mapping, s.cfg.Report)
}

// MaxFileSize reports the upload limit in bytes.
func (s *AnalysisService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// InvalidateCache drops every cached analysis.
func (s *AnalysisService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, analysisCachePrefix+"*")
}

func (s *AnalysisService) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	return data, nil
}

func cacheKey(filename string, data []byte, scores ScoreParsing) string {
	sum := sha256.New()
	_, _ = sum.Write([]byte(strings.ToLower(filepath.Ext(filename))))
	_, _ = sum.Write([]byte{0})
	if scores.DecimalComma {
		_, _ = sum.Write([]byte("decimal-comma"))
	}
	_, _ = sum.Write([]byte{0})
	_, _ = sum.Write(data)
	return analysisCachePrefix + hex.EncodeToString(sum.Sum(nil))
}

func formatLabel(filename string) string {
	format, err := parser.DetectFormat(filename)
	if err != nil {
		return "unsupported"
	}
	return strings.ToLower(string(format))
}
