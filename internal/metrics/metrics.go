package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one application instance. Each
// instance owns its registry so several apps can coexist in one process.
type Metrics struct {
	registry        *prometheus.Registry
	AccessDecisions *prometheus.CounterVec
	LoginAttempts   *prometheus.CounterVec
	RecordChanges   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_access_decisions_total",
			Help: "Admin access gate decisions by outcome",
		}, []string{"decision"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		RecordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_record_changes_total",
			Help: "Records created, updated or deleted through the admin surface",
		}, []string{"view", "action"}),
	}
}

func (m *Metrics) RecordAccess(granted bool) {
	if granted {
		m.AccessDecisions.WithLabelValues("granted").Inc()
		return
	}
	m.AccessDecisions.WithLabelValues("denied").Inc()
}

func (m *Metrics) RecordLogin(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordChange(view, action string) {
	m.RecordChanges.WithLabelValues(view, action).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
