// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync outcomes recorded by SyncWrite
const (
	SyncSynced    = "synced"
	SyncRetried   = "retried"
	SyncUnsynced  = "unsynced"
	SyncDiscarded = "discarded"
)

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	completions     *prometheus.CounterVec
	syncWrites      *prometheus.CounterVec
	rebuilds        *prometheus.CounterVec
	pinLogins       *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextgen_chapter_completions_total",
				Help: "Newly completed chapters by course and identity kind",
			},
			[]string{"course", "identity"},
		),
		syncWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextgen_sync_writes_total",
				Help: "Persistence attempts by target and outcome",
			},
			[]string{"target", "outcome"},
		),
		rebuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextgen_snapshot_rebuilds_total",
				Help: "Snapshot rebuilds by identity kind and result",
			},
			[]string{"identity", "result"},
		),
		pinLogins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextgen_pin_logins_total",
				Help: "PIN login attempts by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.completions,
		m.syncWrites,
		m.rebuilds,
		m.pinLogins,
	)
	return m
}

// Registry exposes the registry for scraping and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) ChapterCompleted(course, identity string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(course, identity).Inc()
}

func (m *Metrics) SyncWrite(target, outcome string) {
	if m == nil {
		return
	}
	m.syncWrites.WithLabelValues(target, outcome).Inc()
}

func (m *Metrics) SnapshotRebuilt(identity string, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	m.rebuilds.WithLabelValues(identity, result).Inc()
}

func (m *Metrics) PINLogin(result string) {
	if m == nil {
		return
	}
	m.pinLogins.WithLabelValues(result).Inc()
}
