package api

import (
	"net/http"

	"github.com/okian/cobj/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests by serving the Prometheus registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// ReadinessProvider reports whether outbound calls can be authenticated.
type ReadinessProvider interface {
	HasCredential() bool
}

// ReadyHandler handles readiness requests.
type ReadyHandler struct {
	provider ReadinessProvider
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler(p ReadinessProvider) *ReadyHandler {
	return &ReadyHandler{provider: p}
}

type readyResponse struct {
	Status     string `json:"status"`
	Credential bool   `json:"credential"`
}

// HandleReady handles GET /readyz. A missing credential is reported as
// "degraded" with status 200; the process keeps serving.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	ok := h.provider != nil && h.provider.HasCredential()
	status := "ok"
	if !ok {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: status, Credential: ok})
}
