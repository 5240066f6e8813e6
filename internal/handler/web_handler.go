package handler

import (
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/noah-isme/notabilis-api/internal/models"
	"github.com/noah-isme/notabilis-api/internal/parser"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Accept      string
	Error       string
	Report      models.ReportView
	ChartURI    template.URL
	PDFURI      template.URL
	PDFFilename string
}

// WebHandler serves the upload form and the rendered results page.
type WebHandler struct {
	analyses analysisService
	exports  exportService
}

// NewWebHandler constructs the HTML UI handler.
func NewWebHandler(analyses analysisService, exports exportService) *WebHandler {
	return &WebHandler{analyses: analyses, exports: exports}
}

// Index renders the upload form.
func (h *WebHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index", h.page())
}

// Analyze runs the pipeline and renders the summary, table, chart and PDF link.
func (h *WebHandler) Analyze(c *gin.Context) {
	page := h.page()

	analysis, _, err := analyzeUpload(c, h.analyses)
	if err != nil {
		h.fail(c, page, err)
		return
	}
	page.Report = h.analyses.Report(analysis)

	chart, err := h.exports.Chart(page.Report.Chart)
	if err != nil {
		h.fail(c, page, err)
		return
	}
	pdf, err := h.exports.PDF(analysis)
	if err != nil {
		h.fail(c, page, err)
		return
	}

	page.ChartURI = dataURI("image/png", chart)
	page.PDFURI = dataURI("application/pdf", pdf)
	page.PDFFilename = h.exports.PDFFilename()
	h.render(c, http.StatusOK, "result", page)
}

func (h *WebHandler) fail(c *gin.Context, page pageData, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	page.Error = appErr.Message
	page.Report = models.ReportView{}
	h.render(c, appErr.Status, "result", page)
}

func (h *WebHandler) page() pageData {
	return pageData{Accept: strings.Join(parser.SupportedExtensions(), ",")}
}

func (h *WebHandler) render(c *gin.Context, status int, name string, data pageData) {
	c.Header("Cache-Control", "no-store")
	c.Render(status, render.HTML{Template: pageTemplates, Name: name, Data: data})
}

func dataURI(mime string, payload []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload))
}
