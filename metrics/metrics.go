// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tuition"

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PlansGenerated prometheus.Counter
	Exports        *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	AuditMismatch  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PlansGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_generated_total",
			Help:      "Payment plans generated.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Plan exports by format and sink.",
		}, []string{"format", "sink"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"}),
		AuditMismatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_mismatches",
			Help:      "Programs whose plan total disagreed with the advertised cost in the last audit.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.PlansGenerated, m.Exports, m.CacheLookups, m.AuditMismatch)
	return m
}

func (m *Metrics) PlanGenerated() {
	if m == nil {
		return
	}
	m.PlansGenerated.Inc()
}

func (m *Metrics) Exported(format, sink string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format, sink).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SetAuditMismatches(n int) {
	if m == nil {
		return
	}
	m.AuditMismatch.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
