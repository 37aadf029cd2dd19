package api

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/rebuild"
	"github.com/poiesic/careersearch/search"
)

// Engine is the query side used by the handlers. *search.Engine implements it.
type Engine interface {
	Init(ctx context.Context) error
	Suggest(ctx context.Context, query string, limit int) (*search.SuggestResult, error)
	Search(ctx context.Context, q search.SearchQuery) (*search.Page[*core.Suggestion], error)
	Explore(ctx context.Context, q search.ExploreQuery) (*search.Page[search.InstituteSummary], error)
	Stats() search.Stats
}

// Handler provides HTTP handlers for the search API
type Handler struct {
	engine     Engine
	rebuilder  rebuild.Runner
	validate   *validator.Validate
	adminToken string
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithAdminToken requires the X-Admin-Token header on admin routes.
func WithAdminToken(token string) Option {
	return func(h *Handler) {
		h.adminToken = token
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
	}
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(engine Engine, rebuilder rebuild.Runner, opts ...Option) *Handler {
	h := &Handler{
		engine:    engine,
		rebuilder: rebuilder,
		validate:  validator.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
