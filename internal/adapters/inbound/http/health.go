package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Pinger reports whether the service's backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints for container orchestrators.
//
// Endpoints:
//   - /health/ready  - 200 when the store answers a ping (readiness probe)
//   - /health/live   - 200 while the process is not shutting down (liveness probe)
//   - /health        - combined status for monitoring
//
// Once shuttingDown is set every endpoint returns 503 so load balancers
// drain the instance before the server stops.
type HealthHandler struct {
	pinger       Pinger
	shuttingDown *atomic.Bool
	pingTimeout  time.Duration
	logger       *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pinger Pinger, shuttingDown *atomic.Bool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if shuttingDown == nil {
		shuttingDown = &atomic.Bool{}
	}
	return &HealthHandler{
		pinger:       pinger,
		shuttingDown: shuttingDown,
		pingTimeout:  2 * time.Second,
		logger:       logger.With("component", "health"),
	}
}

// RegisterRoutes registers the health routes with the given mux.
func (hh *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/ready", hh.handleReady)
	mux.HandleFunc("GET /health/live", hh.handleLive)
	mux.HandleFunc("GET /health", hh.handleHealth)
}

func (hh *HealthHandler) ping(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), hh.pingTimeout)
	defer cancel()
	if err := hh.pinger.Ping(ctx); err != nil {
		hh.logger.Warn("store ping failed", "error", err)
		return err
	}
	return nil
}

// handleReady handles the readiness probe.
func (hh *HealthHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	if hh.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"}, hh.logger)
		return
	}
	if err := hh.ping(r); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"}, hh.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}, hh.logger)
}

// handleLive handles the liveness probe. It does not touch the store so a
// slow database does not get the process restarted.
func (hh *HealthHandler) handleLive(w http.ResponseWriter, r *http.Request) {
	if hh.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"}, hh.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"}, hh.logger)
}

// handleHealth handles the combined health check endpoint.
func (hh *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hh.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "shutting_down",
			"ready":        false,
			"shuttingDown": true,
		}, hh.logger)
		return
	}

	ready := hh.ping(r) == nil
	status := "ok"
	statusCode := http.StatusOK
	if !ready {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	respondJSON(w, statusCode, map[string]any{
		"status":       status,
		"ready":        ready,
		"shuttingDown": false,
	}, hh.logger)
}
