// Package metrics expõe contadores do workshop no formato Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa os coletores da aplicação.
type Metrics struct {
	registry *prometheus.Registry

	Logins        *prometheus.CounterVec
	Uploads       *prometheus.CounterVec
	RunsStarted   *prometheus.CounterVec
	RunsCompleted prometheus.Counter
	RunsActive    prometheus.Gauge
}

// New registra os coletores em um registry próprio.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "logins_total",
			Help:      "Tentativas de login por resultado.",
		}, []string{"result"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "uploads_total",
			Help:      "Uploads simulados por resultado.",
		}, []string{"result"}),
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "runs_started_total",
			Help:      "Execuções iniciadas por modelo e modo.",
		}, []string{"model", "mode"}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "runs_completed_total",
			Help:      "Execuções concluídas.",
		}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "workshop",
			Name:      "runs_active",
			Help:      "Execuções aguardando conclusão.",
		}),
	}
	m.registry.MustRegister(
		m.Logins,
		m.Uploads,
		m.RunsStarted,
		m.RunsCompleted,
		m.RunsActive,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serve o endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
