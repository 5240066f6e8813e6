package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notabilis-api/internal/middleware"
	"github.com/noah-isme/notabilis-api/internal/models"
	"github.com/noah-isme/notabilis-api/internal/service"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
	"github.com/noah-isme/notabilis-api/pkg/logger"
	"github.com/noah-isme/notabilis-api/pkg/response"
)

const uploadField = "file"

type analysisService interface {
	Analyze(ctx context.Context, upload service.Upload) (*models.Analysis, bool, error)
	Report(analysis *models.Analysis) models.ReportView
	InvalidateCache(ctx context.Context) error
}

type exportService interface {
	PDF(analysis *models.Analysis) ([]byte, error)
	TablePDF(view models.ReportView) ([]byte, error)
	CSV(analysis *models.Analysis, view models.ReportView, layout service.CSVLayout) ([]byte, error)
	Chart(spec models.ChartSpec) ([]byte, error)
	Store(analysis *models.Analysis) (*service.StoredReport, error)
	Download(token string) (*service.ReportDownload, error)
	PDFFilename() string
}

// AnalysisResponse is the JSON body of a completed analysis.
type AnalysisResponse struct {
	Analysis *models.Analysis  `json:"analysis"`
	Report   models.ReportView `json:"report"`
}

// AnalysisHandler exposes the grade analysis API.
type AnalysisHandler struct {
	analyses analysisService
	exports  exportService
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(analyses analysisService, exports exportService) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses, exports: exports}
}

// Analyze godoc
// @Summary Analyse a grade file
// @Tags Analyses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Grade file (.csv, .txt, .tsv, .docx, .xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	analysis, ok := h.run(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis, Report: h.analyses.Report(analysis)}, middleware.ExtractMeta(c))
}

// ReportPDF godoc
// @Summary Download the PDF grade report
// @Tags Analyses
// @Accept multipart/form-data
// @Produce application/pdf
// @Param file formData file true "Grade file"
// @Param layout query string false "summary (default) or table"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /analyses/report.pdf [post]
func (h *AnalysisHandler) ReportPDF(c *gin.Context) {
	layout := strings.ToLower(strings.TrimSpace(c.DefaultQuery("layout", "summary")))
	if layout != "summary" && layout != "table" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "layout must be summary or table"))
		return
	}
	analysis, ok := h.run(c)
	if !ok {
		return
	}
	var (
		payload []byte
		err     error
	)
	if layout == "table" {
		payload, err = h.exports.TablePDF(h.analyses.Report(analysis))
	} else {
		payload, err = h.exports.PDF(analysis)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, h.exports.PDFFilename(), "application/pdf", payload)
}

// ResultsCSV godoc
// @Summary Download results as CSV
// @Tags Analyses
// @Accept multipart/form-data
// @Produce text/csv
// @Param file formData file true "Grade file"
// @Param layout query string false "table (default) or compact"
// @Success 200 {file} file
// @Router /analyses/results.csv [post]
func (h *AnalysisHandler) ResultsCSV(c *gin.Context) {
	layout := service.CSVLayout(strings.ToLower(strings.TrimSpace(c.DefaultQuery("layout", string(service.CSVLayoutTable)))))
	analysis, ok := h.run(c)
	if !ok {
		return
	}
	payload, err := h.exports.CSV(analysis, h.analyses.Report(analysis), layout)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "results.csv", "text/csv; charset=utf-8", payload)
}

// Chart godoc
// @Summary Render the averages bar chart
// @Tags Analyses
// @Accept multipart/form-data
// @Produce image/png
// @Param file formData file true "Grade file"
// @Success 200 {file} file
// @Router /analyses/chart.png [post]
func (h *AnalysisHandler) Chart(c *gin.Context) {
	analysis, ok := h.run(c)
	if !ok {
		return
	}
	payload, err := h.exports.Chart(h.analyses.Report(analysis).Chart)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", payload)
}

// StoreReport godoc
// @Summary Store the PDF report behind a signed link
// @Tags Analyses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Grade file"
// @Success 201 {object} response.Envelope
// @Router /analyses/exports [post]
func (h *AnalysisHandler) StoreReport(c *gin.Context) {
	analysis, ok := h.run(c)
	if !ok {
		return
	}
	stored, err := h.exports.Store(analysis)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// Download godoc
// @Summary Download a stored report
// @Tags Analyses
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /export/{token} [get]
func (h *AnalysisHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", result.File, nil)
}

// InvalidateCache godoc
// @Summary Drop cached analyses
// @Tags Analyses
// @Success 204
// @Router /analyses/cache [delete]
func (h *AnalysisHandler) InvalidateCache(c *gin.Context) {
	if err := h.analyses.InvalidateCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// run analyses the uploaded file and writes the error response on failure.
func (h *AnalysisHandler) run(c *gin.Context) (*models.Analysis, bool) {
	analysis, hit, err := analyzeUpload(c, h.analyses)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetAnalysisID(c, analysis.ID)
	return analysis, true
}

func analyzeUpload(c *gin.Context, analyses analysisService) (*models.Analysis, bool, error) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "a grade file is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer closeUpload(file)

	analysis, hit, err := analyses.Analyze(c.Request.Context(), service.Upload{Filename: header.Filename, Content: file})
	if err != nil {
		return nil, false, err
	}
	c.Set(logger.AnalysisIDKey, analysis.ID)
	return analysis, hit, nil
}

func closeUpload(file multipart.File) {
	_ = file.Close()
}
