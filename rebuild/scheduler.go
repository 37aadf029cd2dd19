package rebuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/poiesic/careersearch/core"
)

// Runner is the part of Rebuilder the scheduler needs.
type Runner interface {
	Run(ctx context.Context, trigger core.RebuildTrigger) (*Result, error)
}

// Scheduler runs rebuilds on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewScheduler creates a scheduler that runs runner on spec.
// spec uses the six-field cron format with seconds, e.g. "0 0 3 * * *".
func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "rebuild-scheduler"),
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid rebuild schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduled rebuilds")
	s.cron.Start()
}

// Stop cancels any running rebuild and waits for it to return.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduled rebuilds")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	s.logger.Info("scheduled rebuild starting")
	if _, err := s.runner.Run(s.ctx, core.RebuildTriggerSchedule); err != nil {
		s.logger.Error("scheduled rebuild failed", "err", err)
	}
}
