package api

import (
	"net/http"
)

// HandleSearch handles GET /api/search
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.ensureEngine(w, r) {
		return
	}

	query, err := h.parseSearch(r.URL.Query())
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.engine.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", "q", query.Q, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ensureEngine initializes the engine if needed, writing a 500 on failure.
func (h *Handler) ensureEngine(w http.ResponseWriter, r *http.Request) bool {
	if err := h.engine.Init(r.Context()); err != nil {
		h.logger.Error("search engine unavailable", "err", err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	return true
}
