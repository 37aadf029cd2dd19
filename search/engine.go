// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// State is the lifecycle state of an Engine.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
)

// Engine answers suggest, search and explore queries from an in-memory
// index. It is safe for concurrent use.
type Engine struct {
	suggestions storage.SuggestionRepository
	institutes  storage.InstituteRepository
	runs        storage.RebuildRunRepository

	current atomic.Pointer[index]
	loads   singleflight.Group
	loadSeq atomic.Uint64

	// reloadRequests counts Reload calls so each can tell whether a shared
	// load started after it.
	reloadRequests atomic.Uint64
	closed         atomic.Bool

	cacheEntries int64
	redis        *redis.Client
	cacheTTL     time.Duration
	cache        *resultCache

	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithRunRepository lets the engine report the latest rebuild and use its
// run ID as the index generation.
func WithRunRepository(repo storage.RebuildRunRepository) Option {
	return func(e *Engine) error {
		e.runs = repo
		return nil
	}
}

// WithCacheEntries sets how many suggest results are cached in memory.
// Zero disables the in-memory cache.
func WithCacheEntries(n int64) Option {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("cache entries must not be negative")
		}
		e.cacheEntries = n
		return nil
	}
}

// WithRedisCache shares suggest results through redis with the given TTL.
// The caller owns client.
func WithRedisCache(client *redis.Client, ttl time.Duration) Option {
	return func(e *Engine) error {
		e.redis = client
		e.cacheTTL = ttl
		return nil
	}
}

// NewEngine creates an uninitialized engine. Close must be called when done.
func NewEngine(suggestions storage.SuggestionRepository, institutes storage.InstituteRepository, opts ...Option) (*Engine, error) {
	if suggestions == nil {
		return nil, ErrSuggestionRepositoryRequired
	}
	if institutes == nil {
		return nil, ErrInstituteRepositoryRequired
	}

	e := &Engine{
		suggestions:  suggestions,
		institutes:   institutes,
		cacheEntries: DefaultCacheEntries,
		cacheTTL:     10 * time.Minute,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	cache, err := newResultCache(e.cacheEntries, e.redis, e.cacheTTL, e.logger)
	if err != nil {
		return nil, err
	}
	e.cache = cache
	return e, nil
}

// Close releases the result cache. Queries after Close fail with ErrEngineClosed.
func (e *Engine) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		e.cache.close()
	}
	return nil
}

// State reports whether the index has been loaded.
func (e *Engine) State() State {
	if e.current.Load() == nil {
		return StateUninitialized
	}
	return StateReady
}

// Init loads the index if it has not been loaded yet. Concurrent callers
// share a single load; calls on a ready engine return immediately. The shared
// load outlives any one caller's cancellation.
func (e *Engine) Init(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if e.current.Load() != nil {
		return nil
	}
	_, err := e.shared(ctx, "init", func(ctx context.Context) (any, error) {
		if e.current.Load() != nil {
			return nil, nil
		}
		return nil, e.load(ctx)
	})
	return err
}

// Reload rebuilds the index from the stores and swaps it in. Readers see the
// previous index until the swap. Concurrent reloads share a single load, but
// a reload never settles for a load whose store reads began before it was
// requested.
func (e *Engine) Reload(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	want := e.reloadRequests.Add(1)
	for {
		v, err := e.shared(ctx, "reload", func(ctx context.Context) (any, error) {
			covers := e.reloadRequests.Load()
			return covers, e.load(ctx)
		})
		if err != nil {
			return err
		}
		if covers, _ := v.(uint64); covers >= want {
			return nil
		}
	}
}

// shared runs fn once per key across concurrent callers. fn runs detached
// from ctx; a caller whose ctx ends stops waiting without cancelling it.
func (e *Engine) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := e.loads.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (e *Engine) load(ctx context.Context) error {
	start := time.Now()
	seq := e.loadSeq.Add(1)

	var (
		institutes  []*core.Institute
		suggestions []*core.Suggestion
		lastRun     *core.RebuildRun
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		institutes, err = e.institutes.ListInstitutes(gctx)
		if err != nil {
			return fmt.Errorf("listing institutes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		suggestions, err = e.suggestions.ListSuggestions(gctx)
		if err != nil {
			return fmt.Errorf("listing suggestions: %w", err)
		}
		return nil
	})
	if e.runs != nil {
		g.Go(func() error {
			var err error
			lastRun, err = e.runs.LatestRebuildRun(gctx)
			if err != nil {
				return fmt.Errorf("reading latest rebuild: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("search index load failed", "err", err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	generation := "local-" + strconv.FormatUint(seq, 10)
	if lastRun != nil {
		generation = lastRun.ID
	}

	ix := buildIndex(institutes, suggestions, lastRun, generation)
	ix.seq = seq
	for {
		cur := e.current.Load()
		if cur != nil && cur.seq > seq {
			// A load that read the stores later already swapped in its index.
			e.logger.Debug("discarding superseded search index", "seq", seq, "current", cur.seq)
			return nil
		}
		if e.current.CompareAndSwap(cur, ix) {
			break
		}
	}
	e.cache.clear()

	e.logger.Info("search index loaded",
		"generation", generation,
		"institutes", len(ix.institutes),
		"suggestions", len(ix.suggestions),
		"duration", time.Since(start))
	return nil
}

// snapshot returns the current index, loading it first if needed.
func (e *Engine) snapshot(ctx context.Context) (*index, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if ix := e.current.Load(); ix != nil {
		return ix, nil
	}
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	return e.current.Load(), nil
}
