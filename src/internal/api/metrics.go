package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the API counters. Each Handler owns its registry so tests
// and embedded hosts do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	verdictsTotal    *prometheus.CounterVec
	deletesTotal     *prometheus.CounterVec
	checkErrors      prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	storeReloadTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxycfg_edit_verdicts_total",
				Help: "Total number of edit verdicts by collection, field and result code",
			},
			[]string{"collection", "field", "code"},
		),
		deletesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxycfg_deletes_total",
				Help: "Total number of deleted records by collection",
			},
			[]string{"collection"},
		),
		checkErrors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "proxycfg_check_errors",
				Help: "Number of problems found by the last whole-store audit",
			},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxycfg_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxycfg_http_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		storeReloadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "proxycfg_store_reloads_total",
				Help: "Total number of store reloads triggered by file changes",
			},
		),
	}

	m.registry.MustRegister(
		m.verdictsTotal,
		m.deletesTotal,
		m.checkErrors,
		m.requestsTotal,
		m.requestDuration,
		m.storeReloadTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordVerdict(collection, field, code string) {
	if code == "" {
		code = "OK"
	}
	m.verdictsTotal.WithLabelValues(collection, field, code).Inc()
}

func (m *Metrics) recordDelete(collection string) {
	m.deletesTotal.WithLabelValues(collection).Inc()
}

func (m *Metrics) recordCheck(problems int) {
	m.checkErrors.Set(float64(problems))
}

func (m *Metrics) recordRequest(method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordReload counts a store reload.
func (m *Metrics) RecordReload() {
	m.storeReloadTotal.Inc()
}
