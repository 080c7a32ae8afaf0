package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Action outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics represents the collection of Prometheus metrics of the catalog.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActionsTotal        *prometheus.CounterVec
	ViewsTotal          *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	CatalogRecipes      prometheus.Gauge
	MemoryAllocBytes    prometheus.Gauge
	GoroutinesCount     prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on a private registry,
// so several instances can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_catalog_actions_total",
			Help: "Session actions by name and outcome",
		},
		[]string{"action", "outcome"},
	)

	m.ViewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_catalog_views_total",
			Help: "Rendered views by tab and state",
		},
		[]string{"tab", "state"},
	)

	m.ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipe_catalog_active_sessions",
		Help: "Number of live sessions",
	})

	m.CatalogRecipes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipe_catalog_recipes",
		Help: "Number of recipes in the loaded catalog",
	})

	m.MemoryAllocBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipe_catalog_memory_alloc_bytes",
		Help: "Heap bytes allocated at the last health sample",
	})

	m.GoroutinesCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipe_catalog_goroutines",
		Help: "Number of goroutines at the last health sample",
	})

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActionsTotal,
		m.ViewsTotal,
		m.ActiveSessions,
		m.CatalogRecipes,
		m.MemoryAllocBytes,
		m.GoroutinesCount,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAction counts one session action.
func (m *Metrics) RecordAction(action, outcome string) {
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordView counts one rendered view.
func (m *Metrics) RecordView(tab, state string) {
	m.ViewsTotal.WithLabelValues(tab, state).Inc()
}

// RecordHealth copies a health sample into the system gauges.
func (m *Metrics) RecordHealth(h SysHealth) {
	m.MemoryAllocBytes.Set(float64(h.AllocBytes))
	m.GoroutinesCount.Set(float64(h.Goroutines))
}

// RequestTrackingMiddleware records request counts and latencies. Requests
// are labelled with the matched route pattern when there is one.
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
