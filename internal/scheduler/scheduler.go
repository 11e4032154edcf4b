// Package scheduler runs pipeline jobs on a cron schedule and on demand.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"MarketETL/internal/logging"
	"MarketETL/internal/notifier"
)

// Job runs once and returns a short human-readable summary.
type Job func(ctx context.Context) (string, error)

// Status describes the most recent job execution.
type Status struct {
	Running  bool
	Started  time.Time
	Duration time.Duration
	Summary  string
	Err      error
	Skipped  int
}

// Scheduler manages the cron entry for the pipeline. At most one execution
// runs at a time; triggers that arrive while one is running are skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Notifier notifier.Notifier
	Logger   logging.Logger
	Ctx      context.Context

	job     Job
	running atomic.Bool
	runs    sync.WaitGroup
	mu      sync.Mutex
	status  Status
}

// NewScheduler creates a new Scheduler. Jobs receive ctx.
func NewScheduler(ctx context.Context, job Job, n notifier.Notifier, logger logging.Logger) *Scheduler {
	logger = logging.OrNop(logger)
	if n == nil {
		n = notifier.Nop{}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger})),
		Notifier: n,
		Logger:   logger,
		Ctx:      ctx,
		job:      job,
	}
}

// Register adds the job under a six-field (seconds first) cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register pipeline job %q: %w", spec, err)
	}
	s.Logger.Info("pipeline job registered", "cron", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish,
// including runs started by RunNow or RunAsync.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.runs.Wait()
	s.Logger.Info("scheduler stopped")
}

// RunAsync starts RunNow in a new goroutine. The run is tracked before
// RunAsync returns, so a later Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.RunNow()
	}()
}

// RunNow executes the job immediately unless one is already running. It
// reports whether the job ran.
func (s *Scheduler) RunNow() bool {
	s.runs.Add(1)
	defer s.runs.Done()

	if !s.running.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.status.Skipped++
		s.mu.Unlock()
		s.Logger.Warn("pipeline run skipped, previous run still in progress")
		return false
	}
	defer s.running.Store(false)

	start := time.Now()
	s.mu.Lock()
	s.status.Running = true
	s.status.Started = start
	s.mu.Unlock()

	summary, err := s.job(s.Ctx)

	s.mu.Lock()
	s.status.Running = false
	s.status.Duration = time.Since(start)
	s.status.Summary = summary
	s.status.Err = err
	s.mu.Unlock()

	if err != nil {
		s.Logger.Error("pipeline run failed", "error", err)
		s.trySend(notifier.FormatRunFailure(err))
	}
	return true
}

// Status returns a snapshot of the last execution.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch strings.ToLower(command) {
	case "/run":
		if s.running.Load() {
			return "A run is already in progress."
		}
		s.RunAsync()
		return "Pipeline run started."
	case "/status":
		return FormatStatus(s.Status())
	default:
		return "Commands:\n/run - start a pipeline run\n/status - last run outcome"
	}
}

// FormatStatus renders st for chat replies.
func FormatStatus(st Status) string {
	switch {
	case st.Running:
		return fmt.Sprintf("Running since %s", st.Started.UTC().Format(time.RFC3339))
	case st.Started.IsZero():
		return "No run yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last run %s (%s)\n", st.Started.UTC().Format(time.RFC3339), st.Duration.Round(time.Millisecond))
	if st.Err != nil {
		fmt.Fprintf(&b, "error: %v\n", st.Err)
	}
	if st.Summary != "" {
		b.WriteString(st.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Notify(s.Ctx, text); err != nil {
		s.Logger.Error("send notification failed", "error", err)
	}
}

// cronLogger routes cron's internal messages through our logger.
type cronLogger struct{ l logging.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
