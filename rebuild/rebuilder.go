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

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/populate"
	"github.com/poiesic/careersearch/storage"
)

// Config holds configuration for the rebuild operation.
type Config struct {
	// BatchSize is the number of institutes to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of institutes)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed bulk insert
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// PoolSize is the number of workers populating institutes
	PoolSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		PoolSize:       max(runtime.NumCPU()/2, 1),
	}
}

// Reloader is implemented by components that must re-read the suggestion
// store after a rebuild. The search engine satisfies it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Result summarizes one rebuild.
type Result struct {
	RunID               string
	Trigger             core.RebuildTrigger
	InstitutesProcessed int
	InstitutesSkipped   int
	SuggestionsCreated  int
	SuggestionsDeleted  int
	Duration            time.Duration
}

// Rebuilder orchestrates full rebuilds of the suggestion store.
type Rebuilder struct {
	institutes  storage.InstituteRepository
	suggestions storage.SuggestionRepository
	runs        storage.RebuildRunRepository
	populator   *populate.Populator
	reloader    Reloader
	config      *Config
	progress    io.Writer
	pool        *ants.Pool
	onComplete  []func(*Result, error)
	logger      *slog.Logger

	// mu serializes rebuilds; each waits for the previous one to finish.
	mu sync.Mutex
}

// Option configures a Rebuilder.
type Option func(*Rebuilder) error

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(r *Rebuilder) error {
		if config != nil {
			r.config = config
		}
		return nil
	}
}

// WithReloader sets the component reloaded after every successful rebuild.
func WithReloader(reloader Reloader) Option {
	return func(r *Rebuilder) error {
		r.reloader = reloader
		return nil
	}
}

// WithRunRepository records every rebuild in repo.
func WithRunRepository(repo storage.RebuildRunRepository) Option {
	return func(r *Rebuilder) error {
		r.runs = repo
		return nil
	}
}

// WithProgress sets where progress output is written. Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(r *Rebuilder) error {
		if w == nil {
			w = io.Discard
		}
		r.progress = w
		return nil
	}
}

// WithOnComplete registers a callback invoked after every rebuild, successful or not.
func WithOnComplete(fn func(*Result, error)) Option {
	return func(r *Rebuilder) error {
		if fn != nil {
			r.onComplete = append(r.onComplete, fn)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rebuilder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRebuilder creates a new rebuilder. Release must be called when done.
func NewRebuilder(institutes storage.InstituteRepository, suggestions storage.SuggestionRepository, opts ...Option) (*Rebuilder, error) {
	if institutes == nil {
		return nil, ErrInstituteRepositoryRequired
	}
	if suggestions == nil {
		return nil, ErrSuggestionRepositoryRequired
	}

	r := &Rebuilder{
		institutes:  institutes,
		suggestions: suggestions,
		config:      DefaultConfig(),
		progress:    io.Discard,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than 0")
	}
	if r.config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if r.config.ReportInterval <= 0 {
		r.config.ReportInterval = r.config.BatchSize
	}

	pool, err := ants.NewPool(max(r.config.PoolSize, 1))
	if err != nil {
		return nil, err
	}
	r.pool = pool
	r.populator = populate.NewPopulator(populate.WithLogger(r.logger))

	return r, nil
}

// Release frees the worker pool.
func (r *Rebuilder) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Run executes a full rebuild: delete all suggestions, populate every
// institute, insert the results, record the run and reload the engine.
// Zero institutes is not an error.
func (r *Rebuilder) Run(ctx context.Context, trigger core.RebuildTrigger) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &core.RebuildRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	result := &Result{RunID: run.ID, Trigger: trigger}
	logger := r.logger.With("runId", run.ID, "trigger", trigger)

	err := r.rebuild(ctx, result, logger)

	run.FinishedAt = time.Now().UTC()
	run.InstitutesProcessed = result.InstitutesProcessed
	run.InstitutesSkipped = result.InstitutesSkipped
	run.SuggestionsCreated = result.SuggestionsCreated
	result.Duration = run.FinishedAt.Sub(run.StartedAt)
	if err != nil {
		run.Error = err.Error()
	}

	if r.runs != nil {
		// Record the run even if the caller's context was cancelled
		if saveErr := r.runs.SaveRebuildRun(context.WithoutCancel(ctx), run); saveErr != nil {
			logger.Error("failed to record rebuild run", "err", saveErr)
			if err == nil {
				err = fmt.Errorf("failed to record rebuild run: %w", saveErr)
			}
		}
	}

	if err == nil && r.reloader != nil {
		if reloadErr := r.reloader.Reload(ctx); reloadErr != nil {
			logger.Error("search engine reload failed", "err", reloadErr)
			err = fmt.Errorf("%w: %w", ErrReloadFailed, reloadErr)
		}
	}

	if err != nil {
		logger.Error("rebuild failed", "err", err,
			"institutesProcessed", result.InstitutesProcessed,
			"suggestionsCreated", result.SuggestionsCreated)
	} else {
		logger.Info("rebuild complete",
			"institutesProcessed", result.InstitutesProcessed,
			"institutesSkipped", result.InstitutesSkipped,
			"suggestionsCreated", result.SuggestionsCreated,
			"duration", result.Duration)
	}

	for _, fn := range r.onComplete {
		fn(result, err)
	}
	return result, err
}

func (r *Rebuilder) rebuild(ctx context.Context, result *Result, logger *slog.Logger) error {
	total, err := r.institutes.CountInstitutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to count institutes: %w", err)
	}

	deleted, err := r.suggestions.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete suggestions: %w", err)
	}
	result.SuggestionsDeleted = deleted
	logger.Debug("deleted existing suggestions", "count", deleted)

	if total == 0 {
		fmt.Fprintf(r.progress, "No institutes found (0 institutes)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Rebuilding suggestions for %d institutes (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processor := NewBatchProcessor(r.suggestions, r.populator, r.pool, Backoff{
		Attempts:  r.config.MaxRetries,
		BaseDelay: r.config.RetryDelay,
		Logger:    logger,
	})
	iterator := NewInstituteIterator(r.institutes, r.config.BatchSize)

	err = iterator.ForEach(ctx, func(batch []*core.Institute) error {
		br, err := processor.Process(ctx, batch)
		result.InstitutesProcessed += br.Institutes
		result.InstitutesSkipped += br.Skipped
		result.SuggestionsCreated += br.Suggestions
		if err != nil {
			return err
		}
		tracker.Add(br)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("rebuild interrupted: %w", err)
		}
		return err
	}

	tracker.Finish()
	return nil
}
