package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the service mounts.
type Handlers struct {
	Web      *WebHandler
	Analysis *AnalysisHandler
	Metrics  *MetricsHandler
}

// RouteOptions toggles optional route groups.
type RouteOptions struct {
	APIPrefix      string
	MetricsEnabled bool
	StorageEnabled bool
	CacheEnabled   bool
}

// RegisterRoutes mounts the UI, API and health routes on r.
func RegisterRoutes(r *gin.Engine, h Handlers, opts RouteOptions) {
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}

	r.GET("/", h.Web.Index)
	r.POST("/analyze", h.Web.Analyze)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.MetricsEnabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	analyses := api.Group("/analyses")
	analyses.POST("", h.Analysis.Analyze)
	analyses.POST("/report.pdf", h.Analysis.ReportPDF)
	analyses.POST("/results.csv", h.Analysis.ResultsCSV)
	analyses.POST("/chart.png", h.Analysis.Chart)
	if opts.CacheEnabled {
		analyses.DELETE("/cache", h.Analysis.InvalidateCache)
	}
	if opts.StorageEnabled {
		analyses.POST("/exports", h.Analysis.StoreReport)
		api.GET("/export/:token", h.Analysis.Download)
	}
}
