package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Queries
	router.HandleFunc("/api/search", h.HandleSearch).Methods(http.MethodGet)
	router.HandleFunc("/api/explore", h.HandleExplore).Methods(http.MethodGet)
	router.HandleFunc("/api/suggest", h.HandleSuggest).Methods(http.MethodGet)
	router.HandleFunc("/api/status", h.HandleStatus).Methods(http.MethodGet)

	// Admin
	router.HandleFunc("/api/admin/rebuild-suggestions", h.HandleRebuild).Methods(http.MethodPost)

	router.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
}
