package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedules holds the cron expressions for each job. An empty expression
// leaves that job unscheduled.
type Schedules struct {
	Reconcile        string
	IdempotencyPurge string
}

// Scheduler runs Jobs on their cron schedules
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
}

// NewScheduler creates a new Scheduler. Panicking jobs are recovered and logged.
func NewScheduler(jobs *Jobs, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		jobs:   jobs,
		logger: logger,
	}
}

// Register adds the jobs to the schedule. It fails on the first invalid expression.
func (s *Scheduler) Register(schedules Schedules) error {
	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{name: "ledger reconciliation", spec: schedules.Reconcile, run: s.jobs.ReconcileLedger},
		{name: "idempotency purge", spec: schedules.IdempotencyPurge, run: s.jobs.PurgeIdempotencyKeys},
	}

	for _, e := range entries {
		if e.spec == "" {
			s.logger.Info("job disabled", "job", e.name)
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", e.spec, e.name, err)
		}
		s.logger.Info("job scheduled", "job", e.name, "schedule", e.spec)
	}
	return nil
}

// Entries reports how many jobs are scheduled
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
