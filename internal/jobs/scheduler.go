// AngelaMos | 2026
// scheduler.go

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/launchpad/internal/core"
)

type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	adapter := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		logger:  logger,
		jobs:    make(map[string]Job),
		running: make(map[string]bool),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job requires a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	if _, err := s.cron.AddFunc(job.Spec, func() { s.execute(job) }); err != nil {
		return fmt.Errorf("schedule job %q: %w", job.Name, err)
	}

	s.jobs[job.Name] = job
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started", "jobs", len(s.jobs))
}

// Stop halts scheduling, cancels running jobs and waits for them until ctx
// is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// RunNow executes a registered job synchronously outside its schedule. It
// fails with core.ErrConflict while a run of the same job is in progress.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %q not registered: %w", name, core.ErrNotFound)
	}
	return s.execute(job)
}

func (s *Scheduler) execute(job Job) error {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		s.logger.Info("job skipped, previous run still active", "job", job.Name)
		return fmt.Errorf("job %s: still running: %w", job.Name, core.ErrConflict)
	}
	s.running[job.Name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, job.Name)
		s.mu.Unlock()
	}()

	ctx := s.baseCtx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	ctx, span := core.StartSpan(ctx, "job."+job.Name)
	defer span.End()

	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		core.SetSpanError(ctx, err)
		s.logger.Error("job failed",
			"job", job.Name,
			"duration", duration,
			"error", err,
		)
		return fmt.Errorf("job %s: %w", job.Name, err)
	}

	s.logger.Info("job completed",
		"job", job.Name,
		"duration", duration,
	)
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
