package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
)

// Job is a maintenance sweep. Fn returns how many entities it acted on.
type Job struct {
	Name string
	Spec string
	Fn   func(ctx context.Context) (int, error)
}

// Scheduler runs sweeps on cron specs. A shared guard keeps two sweeps from
// running at the same time.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	guard   sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	logger  *slog.Logger
	metrics *metrics.Metrics
	cronLog cron.Logger
}

// NewScheduler creates a scheduler evaluating specs in loc.
func NewScheduler(loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	logger = logger.With("component", "cron")
	cl := slogAdapter{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs:    make([]Job, 0),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		metrics: m,
		cronLog: cl,
	}
}

// AddJob registers fn under spec. A run that is still going when its next
// tick arrives causes that tick to be skipped.
func (s *Scheduler) AddJob(name, spec string, fn func(ctx context.Context) (int, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := Job{Name: name, Spec: spec, Fn: fn}
	wrapped := cron.NewChain(cron.SkipIfStillRunning(s.cronLog)).Then(cron.FuncJob(func() {
		s.execute(s.ctx, job)
	}))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	s.jobs = append(s.jobs, job)
	s.logger.Info("Cron job registered", "name", name, "spec", spec)
	return nil
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels running sweeps and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Info("Cron scheduler stopped")
}

// execute runs one sweep under the shared guard and records the outcome.
func (s *Scheduler) execute(ctx context.Context, job Job) {
	s.guard.Lock()
	defer s.guard.Unlock()

	start := time.Now()
	s.logger.Debug("Cron job starting", "name", job.Name)

	n, err := s.safeRun(ctx, job)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.logger.Error("Cron job failed", "name", job.Name, "acted_on", n, "error", err, "duration", time.Since(start))
	} else {
		s.logger.Debug("Cron job completed", "name", job.Name, "acted_on", n, "duration", time.Since(start))
	}
	s.metrics.ObserveSweep(job.Name, outcome, n, time.Since(start))
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", job.Name, r)
		}
	}()
	return job.Fn(ctx)
}

// RunOnce runs every job once, in registration order.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.execute(ctx, job)
	}
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
