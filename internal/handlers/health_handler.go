package handlers

import (
	"net/http"

	"caretrack/internal/config"
	"caretrack/internal/database"
	"caretrack/internal/securenotes"
)

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	db    *database.Database
	notes *securenotes.Service
	cfg   *config.AppConfig
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Database, notes *securenotes.Service, cfg *config.AppConfig) *HealthHandler {
	return &HealthHandler{db: db, notes: notes, cfg: cfg}
}

// Health reports overall service health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service healthy"
// @Failure 503 {object} map[string]interface{} "Database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := h.db.HealthCheck(); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	respondWithJSON(w, status, map[string]interface{}{
		"service":          h.cfg.Name,
		"version":          h.cfg.Version,
		"database":         dbStatus,
		"notes_encryption": h.notes.Enabled(),
	})
}
