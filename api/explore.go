package api

import (
	"net/http"
)

// HandleExplore handles GET /api/explore. Unknown sortBy and sortOrder
// values fall back to name and asc.
func (h *Handler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	if !h.ensureEngine(w, r) {
		return
	}

	query, err := h.parseExplore(r.URL.Query())
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.engine.Explore(r.Context(), query)
	if err != nil {
		h.logger.Error("explore failed", "err", err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}
