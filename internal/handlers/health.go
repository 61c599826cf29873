package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db      *db.Database
	cache   ports.CacheRepository
	version string
	started time.Time
	logger  *slog.Logger
}

func NewHealthHandler(database *db.Database, cache ports.CacheRepository, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      database,
		cache:   cache,
		version: version,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Liveness handles GET /health. It answers as long as the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness handles GET /health/ready. It checks the database and cache;
// a degraded cache is reported but does not fail readiness because reads
// fall back to recomputing.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{}
	status := http.StatusOK
	overall := "ok"

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("database health check failed", slog.Any("error", err))
		checks["database"] = map[string]string{"status": "down", "error": err.Error()}
		status = http.StatusServiceUnavailable
		overall = "unavailable"
	} else {
		checks["database"] = h.db.Health(r.Context())
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.Warn("cache health check failed", slog.Any("error", err))
		checks["cache"] = map[string]string{"status": "degraded", "error": err.Error()}
		if overall == "ok" {
			overall = "degraded"
		}
	} else {
		checks["cache"] = map[string]string{"status": "ok"}
	}

	respondJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
