package api

import (
	"net/http"
)

// HandleSuggest handles GET /api/suggest. q is required.
func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	query, limit, err := h.parseSuggest(r.URL.Query())
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ensureEngine(w, r) {
		return
	}

	res, err := h.engine.Suggest(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("suggest failed", "q", query, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
