// Package metrics exposes Prometheus counters for the classifier and the
// note vault. All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	verdicts *prometheus.CounterVec
	vaultOps *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diafit",
			Name:      "food_verdicts_total",
			Help:      "Food suitability verdicts served, by suitability.",
		}, []string{"suitability"}),
		vaultOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diafit",
			Name:      "vault_operations_total",
			Help:      "Note encrypt/decrypt operations, by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(
		m.verdicts,
		m.vaultOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveVerdict(suitability string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(suitability).Inc()
}

// ObserveVault counts one vault call; op is "encrypt" or "decrypt".
func (m *Metrics) ObserveVault(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.vaultOps.WithLabelValues(op, outcome).Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
