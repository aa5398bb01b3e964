package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// MetricsHandler mounts the Prometheus registry's http.Handler (built by
// the metrics package) at POST /metrics, per spec §4.9.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler builds a MetricsHandler wrapping h.
func NewMetricsHandler(h http.Handler) *MetricsHandler {
	return &MetricsHandler{handler: h}
}

// Serve adapts the wrapped http.Handler to an httprouter.Handle.
func (h *MetricsHandler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.handler.ServeHTTP(w, r)
}
