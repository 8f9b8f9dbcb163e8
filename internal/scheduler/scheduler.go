// Package scheduler triggers the recurring generator on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "ledger/internal/log"
)

// DefaultSpec fires at 00:05 every day.
const DefaultSpec = "5 0 * * *"

// RunFunc is one scheduled pass. now is the trigger time in the scheduler's location.
type RunFunc func(ctx context.Context, now time.Time) error

// Scheduler runs a RunFunc on a cron schedule, never overlapping itself:
// a trigger that fires while the previous pass is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	loc    *time.Location
	run    RunFunc
	logger *applog.Logger

	mu  sync.Mutex
	ctx context.Context
}

func New(spec string, loc *time.Location, run RunFunc, logger *applog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentScheduler)
	cl := applog.NewCronLogger(logger)

	s := &Scheduler{
		loc:    loc,
		run:    run,
		logger: logger,
		ctx:    context.Background(),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins firing in the background. Passes run with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "next_run", s.Next().Format(time.RFC3339))
}

// Stop halts future triggers. The returned context is done once a running pass has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next reports when the next trigger fires; zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunNow runs one pass immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx, time.Now().In(s.loc))
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	started := time.Now()
	if err := s.run(ctx, started.In(s.loc)); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled run failed", applog.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Scheduled run finished", applog.FieldDuration, time.Since(started).Milliseconds())
}
