package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// MetricsService owns the Prometheus registry and all application counters.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	reportsGenerated *prometheus.CounterVec
	renderFailures   prometheus.Counter
	exportJobs       *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetricsService builds the registry and registers all collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rapor_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rapor_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rapor_report_cards_generated_total",
			Help: "Report card snapshots generated, by curriculum track.",
		}, []string{"track"}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rapor_render_failures_total",
			Help: "PDF render failures.",
		}),
		exportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rapor_export_jobs_total",
			Help: "Recap export jobs, by terminal status.",
		}, []string{"status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rapor_snapshot_cache_hits_total",
			Help: "Snapshot preview cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rapor_snapshot_cache_misses_total",
			Help: "Snapshot preview cache misses.",
		}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.reportsGenerated,
		m.renderFailures,
		m.exportJobs,
		m.cacheHits,
		m.cacheMisses,
	)
	return m
}

// ObserveHTTP records one finished HTTP request.
func (m *MetricsService) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordReportGenerated counts one snapshot generation.
func (m *MetricsService) RecordReportGenerated(track models.CurriculumTrack) {
	m.reportsGenerated.WithLabelValues(string(track)).Inc()
}

// RecordRenderFailure counts one failed PDF render.
func (m *MetricsService) RecordRenderFailure() {
	m.renderFailures.Inc()
}

// RecordExportJob counts one export job reaching a terminal status.
func (m *MetricsService) RecordExportJob(status models.ExportStatus) {
	m.exportJobs.WithLabelValues(string(status)).Inc()
}

// RecordCacheHit counts one preview cache hit.
func (m *MetricsService) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss counts one preview cache miss.
func (m *MetricsService) RecordCacheMiss() {
	m.cacheMisses.Inc()
}

// Handler exposes the registry for scraping.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
