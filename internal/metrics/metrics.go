// Package metrics exposes Prometheus counters for the wizard, the taxonomy store, and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the pitchlog metrics and the registry they live on.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	eventsRecorded  *prometheus.CounterVec
	saveRejections  *prometheus.CounterVec
	cancels         prometheus.Counter
	reloads         *prometheus.CounterVec
	taxonomyLabels  prometheus.Gauge
	taxonomyFlags   prometheus.Gauge
	taxonomyIssues  *prometheus.GaugeVec
	repairedRows    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// NewManager creates a Manager on a fresh registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{namespace: "pitchlog"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)

	m.eventsRecorded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "wizard",
		Name:      "events_recorded_total",
		Help:      "Game events appended to the log, by category",
	}, []string{"category"})

	m.saveRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "wizard",
		Name:      "save_rejections_total",
		Help:      "Saves rejected for a missing selection, by field",
	}, []string{"field"})

	m.cancels = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "wizard",
		Name:      "cancels_total",
		Help:      "Events discarded with cancel",
	})

	m.reloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "taxonomy",
		Name:      "reloads_total",
		Help:      "Taxonomy load attempts, by result",
	}, []string{"result"})

	m.taxonomyLabels = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "taxonomy",
		Name:      "labels",
		Help:      "Labels in the current taxonomy snapshot",
	})

	m.taxonomyFlags = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "taxonomy",
		Name:      "flags",
		Help:      "Flags in the current taxonomy snapshot",
	})

	m.taxonomyIssues = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "taxonomy",
		Name:      "issues",
		Help:      "Data issues found in the current taxonomy, by severity",
	}, []string{"severity"})

	m.repairedRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "taxonomy",
		Name:      "repaired_rows_total",
		Help:      "Rows rewritten by repair, by result",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by route, method, and status code",
	}, []string{"route", "method", "code"})

	m.httpRequestTime = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return m
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventRecorded counts a saved event.
func (m *Manager) EventRecorded(e models.GameEvent) {
	category := e.Category
	if category == "" {
		category = "none"
	}
	m.eventsRecorded.WithLabelValues(category).Inc()
}

// SaveRejected counts a rejected save.
func (m *Manager) SaveRejected(field string) {
	m.saveRejections.WithLabelValues(field).Inc()
}

// Cancelled counts a cancelled event.
func (m *Manager) Cancelled() {
	m.cancels.Inc()
}

// ObserveReload records a taxonomy load attempt; it has the shape of [taxonomy.ReloadFunc].
func (m *Manager) ObserveReload(snap *taxonomy.Snapshot, err error) {
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	if snap == nil {
		return
	}
	m.taxonomyLabels.Set(float64(len(snap.Labels)))
	m.taxonomyFlags.Set(float64(len(snap.Flags)))
	m.ObserveIssues(snap.Issues)
}

// ObserveIssues replaces the issue gauges with the counts in issues.
func (m *Manager) ObserveIssues(issues []taxonomy.Issue) {
	counts := taxonomy.CountBySeverity(issues)
	for _, s := range []taxonomy.Severity{taxonomy.SeverityLow, taxonomy.SeverityMedium, taxonomy.SeverityHigh} {
		m.taxonomyIssues.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

// RowRepaired counts one row rewrite attempt.
func (m *Manager) RowRepaired(ok bool) {
	if ok {
		m.repairedRows.WithLabelValues("ok").Inc()
	} else {
		m.repairedRows.WithLabelValues("error").Inc()
	}
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpRequestTime.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
