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

package careersearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/poiesic/careersearch/api"
	"github.com/poiesic/careersearch/config"
	"github.com/poiesic/careersearch/rebuild"
	"github.com/poiesic/careersearch/search"
	"github.com/poiesic/careersearch/storage"
	"github.com/poiesic/careersearch/storage/badger"
	"github.com/poiesic/careersearch/storage/mongo"
)

// Service wires storage, the search engine and the rebuilder together.
type Service struct {
	config    *config.Config
	repos     *storage.Repositories
	closeDB   func() error
	redis     *redis.Client
	engine    *search.Engine
	rebuilder *rebuild.Rebuilder
	registry  *prometheus.Registry
	metrics   *api.Metrics
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	inMemory bool
	progress io.Writer
	logger   *slog.Logger
}

// WithInMemoryStore uses an in-memory badger store regardless of DBPath.
func WithInMemoryStore() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithProgress sends rebuild progress output to w.
func WithProgress(w io.Writer) ServiceOption {
	return func(o *serviceOptions) {
		o.progress = w
	}
}

// WithServiceLogger sets the logger handed to every component.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens the configured store and builds the engine and rebuilder.
// The engine is not loaded until first use or an explicit Init.
func NewService(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		logger:   options.logger,
	}

	if err := s.openStore(ctx, options.inMemory); err != nil {
		return nil, err
	}

	engineOpts := []search.Option{
		search.WithLogger(s.logger),
		search.WithRunRepository(s.repos.RebuildRuns),
		search.WithCacheEntries(cfg.CacheEntries),
	}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		s.redis = redis.NewClient(redisOpts)
		engineOpts = append(engineOpts, search.WithRedisCache(s.redis, cfg.CacheTTL))
	}

	engine, err := search.NewEngine(s.repos.Suggestions, s.repos.Institutes, engineOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = engine
	s.metrics = api.NewMetrics(s.registry, engine)

	rebuildConfig := rebuild.DefaultConfig()
	rebuildConfig.BatchSize = cfg.BatchSize
	rebuildConfig.PoolSize = cfg.PoolSize
	rebuilder, err := rebuild.NewRebuilder(s.repos.Institutes, s.repos.Suggestions,
		rebuild.WithConfig(rebuildConfig),
		rebuild.WithReloader(engine),
		rebuild.WithRunRepository(s.repos.RebuildRuns),
		rebuild.WithProgress(options.progress),
		rebuild.WithOnComplete(s.metrics.ObserveRebuild),
		rebuild.WithLogger(s.logger),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.rebuilder = rebuilder

	return s, nil
}

func (s *Service) openStore(ctx context.Context, inMemory bool) error {
	switch {
	case inMemory || s.config.Backend == config.BackendBadger:
		backend, err := badger.OpenBackend(s.config.DBPath, inMemory)
		if err != nil {
			return fmt.Errorf("opening badger store: %w", err)
		}
		s.repos = badger.NewRepositories(backend)
		s.closeDB = backend.Close
	case s.config.Backend == config.BackendMongo:
		store, err := mongo.Open(ctx, s.config.MongoURI, s.config.MongoDatabase)
		if err != nil {
			return fmt.Errorf("opening mongo store: %w", err)
		}
		s.repos = mongo.NewRepositories(store)
		s.closeDB = store.Close
	default:
		return fmt.Errorf("unknown backend %q", s.config.Backend)
	}
	s.logger.Info("store opened", "backend", s.config.Backend, "inMemory", inMemory)
	return nil
}

// Close releases every component. It is safe to call on a partially built service.
func (s *Service) Close() error {
	if s.rebuilder != nil {
		s.rebuilder.Release()
	}
	if s.engine != nil {
		s.engine.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("error closing redis client", "err", err)
		}
	}
	if s.repos != nil {
		if err := s.repos.Close(); err != nil {
			s.logger.Error("error closing repositories", "err", err)
			return err
		}
	}
	if s.closeDB != nil {
		if err := s.closeDB(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// Repositories returns the open stores.
func (s *Service) Repositories() *storage.Repositories {
	return s.repos
}

// Engine returns the search engine.
func (s *Service) Engine() *search.Engine {
	return s.engine
}

// Rebuilder returns the suggestion rebuilder.
func (s *Service) Rebuilder() *rebuild.Rebuilder {
	return s.rebuilder
}

// NewScheduler returns a scheduler for the configured rebuild schedule, or
// nil when none is configured.
func (s *Service) NewScheduler() (*rebuild.Scheduler, error) {
	if s.config.RebuildSchedule == "" {
		return nil, nil
	}
	return rebuild.NewScheduler(s.rebuilder, s.config.RebuildSchedule, s.logger)
}

// NewServer builds the HTTP server with metrics exposed on /metrics.
func (s *Service) NewServer() *api.Server {
	handler := api.NewHandler(s.engine, s.rebuilder,
		api.WithAdminToken(s.config.AdminToken),
		api.WithLogger(s.logger),
	)
	return api.NewServer(s.config.Addr, handler, s.metrics, s.registry, s.logger)
}

// Serve loads the index, starts the scheduler if configured and serves
// HTTP until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.engine.Init(ctx); err != nil {
		return err
	}

	scheduler, err := s.NewScheduler()
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	return s.NewServer().ListenAndServe(ctx)
}
