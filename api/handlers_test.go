package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/rebuild"
	"github.com/poiesic/careersearch/search"
	"github.com/poiesic/careersearch/storage"
	"github.com/poiesic/careersearch/storage/badger"
)

type testEnv struct {
	repos     *storage.Repositories
	engine    *search.Engine
	rebuilder *rebuild.Rebuilder
	router    *mux.Router
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	engine, err := search.NewEngine(repos.Suggestions, repos.Institutes, search.WithRunRepository(repos.RebuildRuns))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	rebuilder, err := rebuild.NewRebuilder(repos.Institutes, repos.Suggestions,
		rebuild.WithReloader(engine),
		rebuild.WithRunRepository(repos.RebuildRuns),
	)
	require.NoError(t, err)
	t.Cleanup(rebuilder.Release)

	router := mux.NewRouter()
	NewHandler(engine, rebuilder, opts...).RegisterRoutes(router)

	return &testEnv{repos: repos, engine: engine, rebuilder: rebuilder, router: router}
}

// seed stores two institutes (four suggestions) and rebuilds.
func (env *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.repos.Institutes.PutInstitutes(ctx,
		&core.Institute{PublicID: "p1", Name: "Delhi Tech", Slug: "delhi-tech", Location: core.Location{City: "Delhi"},
			Programmes: []core.Programme{{Name: "B.Tech", Courses: []core.Course{{Name: "Computer Science", Exams: []string{"JEE"}}}}}},
		&core.Institute{PublicID: "p2", Name: "Mumbai Arts", Slug: "mumbai-arts", Location: core.Location{City: "Mumbai"}},
	))
	_, err := env.rebuilder.Run(ctx, core.RebuildTriggerCLI)
	require.NoError(t, err)
}

func (env *testEnv) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type pageBody struct {
	Results []map[string]any `json:"results"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

func TestHandleSuggest(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/suggest?q=del", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode[search.SuggestResult](t, w)
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, "Delhi Tech", body.Suggestions[0].Name)
	require.Len(t, body.Locations, 1)
	assert.Equal(t, "Delhi", body.Locations[0].Name)
}

func TestHandleSuggest_MissingQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/api/suggest", "/api/suggest?q=", "/api/suggest?q=%20%20"} {
		w := env.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		body := decode[ErrorResponse](t, w)
		assert.Equal(t, http.StatusBadRequest, body.Code)
		assert.Contains(t, body.Message, `"q"`)
	}
}

func TestHandleSuggest_LimitDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/suggest?q=a&limit=banana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[search.SuggestResult](t, w)
	assert.LessOrEqual(t, len(body.Suggestions), search.DefaultSuggestLimit)
}

func TestHandleSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name      string
		target    string
		wantTotal int
	}{
		{"no params", "/api/search", 4},
		{"free text", "/api/search?q=computer", 1},
		{"programme alias", "/api/search?type=programme", 1},
		{"type and city", "/api/search?type=institute&city=mumbai", 1},
		{"exam facet", "/api/search?exam=jee", 3},
		{"no match", "/api/search?city=Atlantis", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode[pageBody](t, w)
			assert.Equal(t, tt.wantTotal, body.Total)
			assert.NotNil(t, body.Results)
			assert.Equal(t, 1, body.Page)
			assert.Equal(t, 20, body.Limit)
		})
	}
}

func TestHandleSearch_InvalidType(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/search?type=university", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.Contains(t, body.Message, "type")
}

func TestHandleSearch_Paging(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/search?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[pageBody](t, w)
	assert.Equal(t, 4, body.Total)
	assert.Len(t, body.Results, 2)
	assert.Equal(t, 2, body.Page)

	w = env.do(http.MethodGet, "/api/search?page=zero&limit=-4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[pageBody](t, w)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.Limit)

	w = env.do(http.MethodGet, "/api/search?limit=100000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, search.MaxLimit, decode[pageBody](t, w).Limit)
}

func TestHandleExplore(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/explore?city=Delhi&page=1&limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[pageBody](t, w)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Delhi Tech", body.Results[0]["name"])
}

func TestHandleExplore_InvalidSortNormalized(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/explore?sortBy=popularity&sortOrder=sideways", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[pageBody](t, w)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "Delhi Tech", body.Results[0]["name"])

	w = env.do(http.MethodGet, "/api/explore?sortBy=courses&sortOrder=desc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[pageBody](t, w)
	assert.Equal(t, "Delhi Tech", body.Results[0]["name"])
	assert.Equal(t, float64(1), body.Results[0]["courses"])
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[search.Stats](t, w)
	assert.Equal(t, search.StateReady, body.State)
	assert.Equal(t, 2, body.Institutes)
	assert.Equal(t, 4, body.Suggestions)
	require.NotNil(t, body.LastRebuild)
	assert.Equal(t, core.RebuildTriggerCLI, body.LastRebuild.Trigger)
}

func TestHandleRebuild(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	require.NoError(t, env.repos.Institutes.PutInstitutes(ctx,
		&core.Institute{PublicID: "p3", Name: "Pune Medical", Slug: "pune-medical"}))

	w := env.do(http.MethodPost, "/api/admin/rebuild-suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[RebuildResponse](t, w)
	assert.True(t, body.Success)
	require.NotNil(t, body.Stats)
	assert.Equal(t, 3, body.Stats.InstitutesProcessed)
	assert.Equal(t, 5, body.Stats.SuggestionsCreated)

	// The engine reloaded, so the new institute is suggestible
	w = env.do(http.MethodGet, "/api/suggest?q=pune", nil)
	require.Equal(t, http.StatusOK, w.Code)
	suggestions := decode[search.SuggestResult](t, w).Suggestions
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Pune Medical", suggestions[0].Name)
}

func TestHandleRebuild_ClientDisconnect(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rebuild-suggestions", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[RebuildResponse](t, w)
	assert.True(t, body.Success)
	assert.Equal(t, 4, body.Stats.SuggestionsCreated)

	stored, err := env.repos.Suggestions.CountSuggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stored)
}

func TestHandleRebuild_WrongMethod(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/admin/rebuild-suggestions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleRebuild_AdminToken(t *testing.T) {
	env := newTestEnv(t, WithAdminToken("s3cret"))

	w := env.do(http.MethodPost, "/api/admin/rebuild-suggestions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/admin/rebuild-suggestions", http.Header{AdminTokenHeader: {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/admin/rebuild-suggestions", http.Header{AdminTokenHeader: {"s3cret"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[RebuildResponse](t, w).Success)
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, core.RebuildTrigger) (*rebuild.Result, error) {
	return &rebuild.Result{}, errors.New("failed to delete suggestions: database unavailable")
}

func TestHandleRebuild_StoreError(t *testing.T) {
	env := newTestEnv(t)
	router := mux.NewRouter()
	NewHandler(env.engine, failingRunner{}).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/rebuild-suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[RebuildResponse](t, w)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "database unavailable")
}

type brokenEngine struct{ Engine }

func (brokenEngine) Init(context.Context) error { return errors.New("store unreachable") }

func TestHandlers_InitFailure(t *testing.T) {
	router := mux.NewRouter()
	NewHandler(brokenEngine{}, failingRunner{}).RegisterRoutes(router)

	for _, target := range []string{"/api/search", "/api/explore", "/api/suggest?q=x", "/api/status"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code, target)
		assert.Contains(t, w.Body.String(), "store unreachable")
	}
}

func TestHandleHealth(t *testing.T) {
	router := mux.NewRouter()
	NewHandler(brokenEngine{}, failingRunner{}).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestServer_MetricsAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, env.engine)
	handler := NewHandler(env.engine, env.rebuilder)
	srv := NewServer(":0", handler, metrics, reg, nil)

	metrics.ObserveRebuild(&rebuild.Result{Trigger: core.RebuildTriggerAdmin, SuggestionsCreated: 5}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/suggest?q=mum", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, decode[ErrorResponse](t, w).Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	text := w.Body.String()
	assert.True(t, strings.Contains(text, `careersearch_http_requests_total{route="/api/suggest",status="200"} 1`), text)
	assert.Contains(t, text, `careersearch_rebuilds_total{status="ok",trigger="admin"} 1`)
	assert.Contains(t, text, "careersearch_index_suggestions 4")
	assert.Contains(t, text, "careersearch_rebuild_suggestions_created 5")
}
