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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
)

// Environment variables read by Load.
const (
	EnvAddr            = "CAREERSEARCH_ADDR"
	EnvBackend         = "CAREERSEARCH_BACKEND"
	EnvDBPath          = "CAREERSEARCH_DB_PATH"
	EnvMongoURI        = "MONGO_URI"
	EnvMongoDatabase   = "MONGO_DATABASE"
	EnvRedisURL        = "REDIS_URL"
	EnvCacheTTL        = "CAREERSEARCH_CACHE_TTL"
	EnvCacheEntries    = "CAREERSEARCH_CACHE_ENTRIES"
	EnvRebuildSchedule = "CAREERSEARCH_REBUILD_SCHEDULE"
	EnvAdminToken      = "CAREERSEARCH_ADMIN_TOKEN"
	EnvPoolSize        = "CAREERSEARCH_POOL_SIZE"
	EnvBatchSize       = "CAREERSEARCH_BATCH_SIZE"
	EnvLogLevel        = "CAREERSEARCH_LOG_LEVEL"
)

// Config holds service configuration.
type Config struct {
	// Addr is the HTTP listen address.
	// Example: ":8080", "127.0.0.1:9000"
	Addr string `validate:"required,hostname_port"`

	// Backend selects the store: "badger" (embedded) or "mongo".
	Backend string `validate:"oneof=badger mongo"`

	// DBPath is the badger data directory.
	DBPath string `validate:"required_if=Backend badger"`

	// MongoURI and MongoDatabase locate the mongo store.
	// Example: "mongodb://localhost:27017", "careers"
	MongoURI      string `validate:"required_if=Backend mongo"`
	MongoDatabase string `validate:"required_if=Backend mongo"`

	// RedisURL enables the shared suggest cache when set.
	// Example: "redis://localhost:6379/0"
	RedisURL string `validate:"omitempty,url"`

	// CacheTTL is how long shared cache entries live.
	CacheTTL time.Duration

	// CacheEntries is the in-process suggest cache size. Zero disables it.
	CacheEntries int64 `validate:"gte=0"`

	// RebuildSchedule runs rebuilds on a six-field cron spec when set.
	// Example: "0 0 3 * * *" for 03:00 daily
	RebuildSchedule string

	// AdminToken guards the rebuild route when set.
	AdminToken string

	// PoolSize is the number of populate workers during a rebuild.
	PoolSize int `validate:"gte=1"`

	// BatchSize is the number of institutes per rebuild batch.
	BatchSize int `validate:"gte=1"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `validate:"oneof=debug info warn error"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) ConfigOption {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithBadger selects the badger backend at path.
func WithBadger(path string) ConfigOption {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.DBPath = path
	}
}

// WithMongo selects the mongo backend.
func WithMongo(uri, database string) ConfigOption {
	return func(c *Config) {
		c.Backend = BackendMongo
		c.MongoURI = uri
		c.MongoDatabase = database
	}
}

// WithRedis enables the shared cache.
func WithRedis(url string, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.RedisURL = url
		c.CacheTTL = ttl
	}
}

// WithRebuildSchedule sets the cron spec for scheduled rebuilds.
func WithRebuildSchedule(spec string) ConfigOption {
	return func(c *Config) {
		c.RebuildSchedule = spec
	}
}

// WithAdminToken sets the token required by admin routes.
func WithAdminToken(token string) ConfigOption {
	return func(c *Config) {
		c.AdminToken = token
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// DefaultConfig returns a Config for a local badger-backed service.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		Backend:      BackendBadger,
		DBPath:       "./careersearch.db",
		CacheTTL:     10 * time.Minute,
		CacheEntries: 10_000,
		PoolSize:     max(runtime.NumCPU()/2, 1),
		BatchSize:    100,
		LogLevel:     "info",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads envFiles (".env" when none are given) into the environment,
// then builds a Config from defaults overridden by environment variables.
// Missing env files are ignored; variables already set take precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(EnvAddr, &c.Addr)
	str(EnvBackend, &c.Backend)
	str(EnvDBPath, &c.DBPath)
	str(EnvMongoURI, &c.MongoURI)
	str(EnvMongoDatabase, &c.MongoDatabase)
	str(EnvRedisURL, &c.RedisURL)
	str(EnvRebuildSchedule, &c.RebuildSchedule)
	str(EnvAdminToken, &c.AdminToken)
	str(EnvLogLevel, &c.LogLevel)

	if v, ok := lookup(EnvCacheTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvCacheTTL, err)
		}
		c.CacheTTL = d
	}
	if v, ok := lookup(EnvCacheEntries); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvCacheEntries, err)
		}
		c.CacheEntries = n
	}
	if err := integer(EnvPoolSize, &c.PoolSize); err != nil {
		return err
	}
	return integer(EnvBatchSize, &c.BatchSize)
}

// Normalize puts enum fields in canonical form.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.RebuildSchedule = strings.TrimSpace(c.RebuildSchedule)
}

// scheduleParser accepts the same six-field specs as the rebuild scheduler.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var validate = validator.New()

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: %s is invalid (%s)", e.Field(), e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.CacheTTL < 0 {
		return errors.New("config: CacheTTL must not be negative")
	}
	if c.RebuildSchedule != "" {
		if _, err := scheduleParser.Parse(c.RebuildSchedule); err != nil {
			return fmt.Errorf("config: RebuildSchedule: %w", err)
		}
	}
	return nil
}
