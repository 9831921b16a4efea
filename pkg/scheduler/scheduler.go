package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/plainly/pkg/domain"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner

// Runner performs a single ingestion run
type Runner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// Config holds scheduler configuration
type Config struct {
	Schedule   string // standard 5-field cron spec or descriptor like @every 15m
	RunOnStart bool
	Location   *time.Location
}

// Scheduler triggers ingestion runs on a cron schedule. A run still in progress
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	runner Runner
	cfg    Config
	cron   *cron.Cron
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler, the schedule is validated here
func NewScheduler(runner Runner, cfg Config) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{runner: runner, cfg: cfg, cron: c}, nil
}

// Start begins the scheduler, runs are bound to ctx
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	job := cron.FuncJob(func() { s.runOnce(ctx) })

	id, err := s.cron.AddJob(s.cfg.Schedule, job)
	if err != nil {
		s.cancel()
		return fmt.Errorf("add job: %w", err)
	}
	s.cron.Start()
	lgr.Printf("[INFO] scheduler started with %q, next run at %s", s.cfg.Schedule,
		s.cron.Entry(id).Next.Format(time.RFC3339))

	if s.cfg.RunOnStart {
		// goes through the same chain, so a scheduled tick can't overlap with it
		wrapped := s.cron.Entry(id).WrappedJob
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			wrapped.Run()
		}()
	}
	return nil
}

// Stop gracefully stops the scheduler, in-flight run is canceled and waited for
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	st := time.Now()
	run, err := s.runner.Run(ctx)
	if err != nil {
		lgr.Printf("[WARN] scheduled run %s failed after %v: %v", run.ID, time.Since(st).Round(time.Millisecond), err)
		return
	}
	lgr.Printf("[INFO] scheduled run %s done in %v, processed %d", run.ID, time.Since(st).Round(time.Millisecond), run.Processed)
}

// cronLogger sends cron library messages to lgr
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	lgr.Printf("[DEBUG] cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	lgr.Printf("[WARN] cron: %s: %v %v", msg, err, keysAndValues)
}
