package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and pipeline runs.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	studentsPerRun   prometheus.Histogram
	exportsTotal     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	analysesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_analyses_total",
		Help: "Grade file analyses by source format and outcome code",
	}, []string{"format", "outcome"})

	analysisDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grade_analysis_duration_seconds",
		Help:    "Time spent parsing and computing one grade file",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	studentsPerRun := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grade_analysis_students",
		Help:    "Number of student rows per analysed file",
		Buckets: []float64{5, 10, 20, 40, 80, 160, 320},
	})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_exports_total",
		Help: "Rendered exports by kind and outcome code",
	}, []string{"kind", "outcome"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_cache_lookups_total",
		Help: "Analysis cache lookups by result",
	}, []string{"result"})

	registry.MustRegister(
		requestDuration, requestTotal, analysesTotal, analysisDuration, studentsPerRun, exportsTotal, cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		analysesTotal:    analysesTotal,
		analysisDuration: analysisDuration,
		studentsPerRun:   studentsPerRun,
		exportsTotal:     exportsTotal,
		cacheLookups:     cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAnalysis records one pipeline run; outcome is "ok" or an error code.
func (m *MetricsService) ObserveAnalysis(format, outcome string, students int, duration time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.analysesTotal.WithLabelValues(format, outcome).Inc()
	m.analysisDuration.WithLabelValues(format).Observe(duration.Seconds())
	if outcome == outcomeOK {
		m.studentsPerRun.Observe(float64(students))
	}
}

// ObserveExport records one rendered export.
func (m *MetricsService) ObserveExport(kind, outcome string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheOperation counts analysis cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
