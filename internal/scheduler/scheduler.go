package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentstock-backend/internal/jobs"
	"rentstock-backend/internal/logger"
)

// Scheduler runs the reconciliation jobs on their cron schedules
type Scheduler struct {
	cron    *cron.Cron
	jobs    *jobs.JobRunner
	log     *slog.Logger
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler and registers every job of the runner.
// Jobs with an invalid schedule are logged and left out.
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	log := logger.For(nil, "scheduler")
	cl := cronLogger{log: log}

	// UTC with seconds precision; a run still in progress makes the next tick a no-op
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron:    c,
		jobs:    jobRunner,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	for _, job := range s.jobs.Jobs() {
		id, err := s.cron.AddFunc(job.Schedule, job.Run)
		if err != nil {
			s.log.Error("Failed to register job", "job", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		s.entries[job.Name] = id
	}
	s.log.Info("Cron jobs registered", "entries", len(s.entries))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	for name, id := range s.entries {
		s.log.Info("Job scheduled", "job", name, "next_run", s.cron.Entry(id).Next)
	}
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.log.Info("Stopping cron scheduler")
	<-s.cron.Stop().Done()
	s.log.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.entries) > 0
}

// Registered reports whether the named job got a valid schedule
func (s *Scheduler) Registered(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// cronLogger routes cron's own messages into slog
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
