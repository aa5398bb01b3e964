// Package metrics exposes Prometheus collectors for the subsystems spec
// §4 describes, following the teacher's (cmd/kcn) use of
// github.com/prometheus/client_golang rather than a hand-rolled exporter.
// Grounded on original_source/apps/daemon/src/metrics/job.rs (per-job
// state) and original_source/apps/api/src/metrics/consumer.rs (consumer
// status polling), re-expressed with client_golang's GaugeVec/CounterVec
// family types in place of prometheus_client's Family<Labels, Gauge>.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a *prometheus.Registry, the same registration point the
// job, consumer-status, and proxy collectors in this package attach to.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// MustRegister registers one or more prometheus.Collectors, panicking on a
// duplicate registration (a programmer error, not a runtime condition).
func (r *Registry) MustRegister(collectors ...prometheus.Collector) {
	r.reg.MustRegister(collectors...)
}

// Handler returns the HTTP handler serving this registry's metrics in the
// Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
