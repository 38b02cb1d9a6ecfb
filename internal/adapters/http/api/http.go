// Package api registers operational HTTP routes and shared middleware.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Server wires the operational HTTP routes.
type Server struct {
	healthHandler *HealthHandler
	readyHandler  *ReadyHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(ready ReadinessProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		readyHandler:  NewReadyHandler(ready),
	}
}

// Register attaches the operational routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /healthz", Instrument("healthz", http.HandlerFunc(s.healthHandler.HandleHealth)))
	mux.Handle("GET /readyz", Instrument("readyz", http.HandlerFunc(s.readyHandler.HandleReady)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
