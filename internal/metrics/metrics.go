// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gidersen"

// Recorder is what the storefront and middleware report into.
type Recorder interface {
	CatalogRefresh(err error)
	AuthAttempt(op string, err error)
	ImageUploadFailed()
	HTTPRequest(method, pattern string, status int, duration time.Duration)
	SessionsActive(n int)
}

// Metrics is a Recorder backed by its own registry.
type Metrics struct {
	registry *prometheus.Registry

	catalogRefreshes *prometheus.CounterVec
	authAttempts     *prometheus.CounterVec
	uploadFailures   prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	sessions         prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "refreshes_total",
				Help:      "Catalog snapshot reloads by result.",
			},
			[]string{"result"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "attempts_total",
				Help:      "Seller authentication operations by result.",
			},
			[]string{"op", "result"},
		),
		uploadFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "image_upload_failures_total",
				Help:      "Product image uploads that failed and were skipped.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "pattern", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "pattern"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "storefront",
				Name:      "sessions_active",
				Help:      "Browser sessions with a live state controller.",
			},
		),
	}

	m.registry.MustRegister(
		m.catalogRefreshes,
		m.authAttempts,
		m.uploadFailures,
		m.httpRequests,
		m.httpDuration,
		m.sessions,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CatalogRefresh(err error) {
	m.catalogRefreshes.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) AuthAttempt(op string, err error) {
	m.authAttempts.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) ImageUploadFailed() {
	m.uploadFailures.Inc()
}

func (m *Metrics) HTTPRequest(method, pattern string, status int, duration time.Duration) {
	if pattern == "" {
		pattern = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, pattern).Observe(duration.Seconds())
}

func (m *Metrics) SessionsActive(n int) {
	m.sessions.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Nop discards everything. Used where metrics are not wired, mostly tests.
type Nop struct{}

func (Nop) CatalogRefresh(error)                           {}
func (Nop) AuthAttempt(string, error)                      {}
func (Nop) ImageUploadFailed()                             {}
func (Nop) HTTPRequest(string, string, int, time.Duration) {}
func (Nop) SessionsActive(int)                             {}
