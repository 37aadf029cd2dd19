package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/poiesic/careersearch/core"
)

// AdminTokenHeader carries the admin token when one is configured.
const AdminTokenHeader = "X-Admin-Token"

// RebuildStats reports what a rebuild did.
type RebuildStats struct {
	InstitutesProcessed int `json:"institutesProcessed"`
	SuggestionsCreated  int `json:"suggestionsCreated"`
}

// RebuildResponse is the body of the rebuild route.
type RebuildResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Stats   *RebuildStats `json:"stats,omitempty"`
}

// HandleRebuild handles POST /api/admin/rebuild-suggestions. The rebuild
// runs synchronously; store errors are reported as 500 with their message.
// A client that disconnects does not cancel a rebuild already under way.
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	if h.adminToken != "" {
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			WriteJSONError(w, http.StatusUnauthorized, "missing or invalid admin token")
			return
		}
	}

	result, err := h.rebuilder.Run(context.WithoutCancel(r.Context()), core.RebuildTriggerAdmin)
	if err != nil {
		h.logger.Error("admin rebuild failed", "err", err)
		resp := RebuildResponse{Success: false, Message: err.Error()}
		if result != nil {
			resp.Stats = &RebuildStats{
				InstitutesProcessed: result.InstitutesProcessed,
				SuggestionsCreated:  result.SuggestionsCreated,
			}
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, RebuildResponse{
		Success: true,
		Message: fmt.Sprintf("Rebuilt %d suggestions from %d institutes", result.SuggestionsCreated, result.InstitutesProcessed),
		Stats: &RebuildStats{
			InstitutesProcessed: result.InstitutesProcessed,
			SuggestionsCreated:  result.SuggestionsCreated,
		},
	})
}
