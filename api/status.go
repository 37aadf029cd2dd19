package api

import (
	"net/http"
)

// HandleStatus handles GET /api/status with the engine's stats.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ensureEngine(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Stats())
}
