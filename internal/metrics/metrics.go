// Package metrics holds the Prometheus instruments for scans and finders.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace = "linkscout"
	Subsystem = "scan"
)

type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted  prometheus.Counter
	SessionsFinished *prometheus.CounterVec
	Opportunities    *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec
	ScansRunning     prometheus.Gauge
}

// New registers every instrument on a private registry, so several
// instances (one per test) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sessions_started_total",
			Help:      "Scan sessions created",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sessions_finished_total",
			Help:      "Scan sessions that reached a terminal status",
		}, []string{"status"}),
		Opportunities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "opportunities_total",
			Help:      "Opportunities produced, by finder",
		}, []string{"finder"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "provider_errors_total",
			Help:      "External provider failures, by provider",
		}, []string{"provider"}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "task_duration_seconds",
			Help:      "Duration of pipeline tasks",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, []string{"task", "outcome"}),
		ScansRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "running",
			Help:      "Scans currently running",
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTask records how long a pipeline task took and how it ended.
func (m *Metrics) ObserveTask(task, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.TaskDuration.WithLabelValues(task, outcome).Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddOpportunities(finder string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Opportunities.WithLabelValues(finder).Add(float64(n))
}

func (m *Metrics) ProviderError(provider string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// SessionFinished counts a session reaching a terminal status.
func (m *Metrics) SessionFinished(status string) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(status).Inc()
}
