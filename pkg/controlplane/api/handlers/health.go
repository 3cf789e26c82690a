package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheckTimeout bounds the database probe of the readiness check.
const HealthCheckTimeout = 5 * time.Second

// Pinger is implemented by the store.
type Pinger interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler serves the unauthenticated health endpoints.
type HealthHandler struct {
	db        Pinger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. db may be nil, in which
// case readiness always fails.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, startTime: time.Now()}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "dittodrive",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. It pings the database.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.Healthcheck(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"database_latency": time.Since(start).String(),
	}))
}
