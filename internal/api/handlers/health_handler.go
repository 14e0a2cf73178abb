package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the database ping so a wedged pool cannot hang
// the health endpoint.
const healthCheckTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health. The job queue and the link repository
// both sit on the database, so an unreachable database means the service
// cannot make progress.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a health handler checking the given store.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health: 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		RespondError(w, http.StatusServiceUnavailable, "Service Unavailable", "database unreachable")
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health check response", "error", err)
	}
}
