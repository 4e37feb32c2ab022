// Package metrics provides Prometheus metrics for spectoc.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Parse runs
	ParseRunsTotal     *prometheus.CounterVec
	ParseDuration      prometheus.Histogram
	SectionsTotal      prometheus.Counter
	EmptySectionsTotal prometheus.Counter
	PageErrorsTotal    prometheus.Counter
	ImagesTotal        prometheus.Counter
	TablesTotal        prometheus.Counter
	SectionDuration    prometheus.Histogram
	JobsQueued         prometheus.Gauge

	// Search
	SearchQueriesTotal *prometheus.CounterVec
	SearchResultsTotal prometheus.Counter
	IndexBuildsTotal   prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectoc_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectoc_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		ParseRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectoc_parse_runs_total",
			Help: "Total number of parse runs by outcome",
		}, []string{"status"}),
		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectoc_parse_duration_seconds",
			Help:    "Duration of parse runs in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		SectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_sections_extracted_total",
			Help: "Total number of sections extracted",
		}),
		EmptySectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_sections_empty_total",
			Help: "Total number of sections with no extractable text",
		}),
		PageErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_page_errors_total",
			Help: "Total number of page read failures",
		}),
		ImagesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_images_total",
			Help: "Total number of image descriptors recorded",
		}),
		TablesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_tables_total",
			Help: "Total number of tables detected",
		}),
		SectionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectoc_section_extract_duration_seconds",
			Help:    "Per-section extraction time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		JobsQueued: f.NewGauge(prometheus.GaugeOpts{
			Name: "spectoc_jobs_queued",
			Help: "Parse jobs waiting for a worker",
		}),

		SearchQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectoc_search_queries_total",
			Help: "Total number of search queries by outcome",
		}, []string{"status"}),
		SearchResultsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_search_results_total",
			Help: "Total number of search results returned",
		}),
		IndexBuildsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "spectoc_index_builds_total",
			Help: "Total number of search index builds",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ParseOutcome is what a finished parse run reports.
type ParseOutcome struct {
	Status     string
	Duration   time.Duration
	Sections   int
	Empty      int
	PageErrors int
	Images     int
	Tables     int
}

// RecordParse records a finished parse run.
func (m *Metrics) RecordParse(o ParseOutcome) {
	if m == nil {
		return
	}
	m.ParseRunsTotal.WithLabelValues(o.Status).Inc()
	m.ParseDuration.Observe(o.Duration.Seconds())
	m.SectionsTotal.Add(float64(o.Sections))
	m.EmptySectionsTotal.Add(float64(o.Empty))
	m.PageErrorsTotal.Add(float64(o.PageErrors))
	m.ImagesTotal.Add(float64(o.Images))
	m.TablesTotal.Add(float64(o.Tables))
}

// ObserveSection records the time spent on one section.
func (m *Metrics) ObserveSection(d time.Duration) {
	if m == nil {
		return
	}
	m.SectionDuration.Observe(d.Seconds())
}

// SetQueued reports the current queue depth.
func (m *Metrics) SetQueued(n int) {
	if m == nil {
		return
	}
	m.JobsQueued.Set(float64(n))
}

// RecordSearch records a query and how many results it returned.
func (m *Metrics) RecordSearch(status string, results int) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(status).Inc()
	m.SearchResultsTotal.Add(float64(results))
}

// RecordIndexBuild counts one index rebuild.
func (m *Metrics) RecordIndexBuild() {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.Inc()
}
