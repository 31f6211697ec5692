package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentstock-backend/internal/config"
	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
	"rentstock-backend/internal/service"
)

// maxParallelOrgs bounds how many organizations are reconciled at once
const maxParallelOrgs = 4

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    *Repositories
	ledger   ledger.Ledger
	services *Services
	config   *config.Config
	log      *slog.Logger
	now      func() time.Time
	backoff  time.Duration
}

// Repositories holds the persistence dependencies needed by jobs
type Repositories struct {
	Orgs    repository.OrganizationRepository
	Periods repository.PeriodRepository
	Leases  repository.LeaseRepository
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Registry  service.WarehouseRegistry
	Detector  service.FailedTransferDetector
	Shortfall service.ShortfallReporter
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos *Repositories, ldg ledger.Ledger, services *Services, cfg *config.Config, log *slog.Logger) *JobRunner {
	return &JobRunner{
		repos:    repos,
		ledger:   ldg,
		services: services,
		config:   cfg,
		log:      logger.For(log, "reconciliation_worker"),
		now:      time.Now,
		backoff:  200 * time.Millisecond,
	}
}

// Job is a named entry point shared by the scheduler and the run-once CLI
type Job struct {
	Name     string
	Schedule string // cron spec with seconds
	Run      func()
}

// Jobs lists the reconciliation jobs with their configured schedules, in the
// order RunAll executes them.
func (jr *JobRunner) Jobs() []Job {
	cfg := jr.config.Scheduler
	return []Job{
		{Name: "reconcile-failed-transfers", Schedule: cfg.ReconcileFailedTransfers, Run: jr.ReconcileFailedTransfers},
		{Name: "issue-period-transfers", Schedule: cfg.IssuePeriodTransfers, Run: jr.IssuePeriodTransfers},
	}
}

// Job returns the job registered under name
func (jr *JobRunner) Job(name string) (Job, bool) {
	for _, j := range jr.Jobs() {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// RunReport aggregates the outcome of one run over every organization
type RunReport struct {
	Job         string
	Orgs        int
	Skipped     []int32 // organizations whose lease was held elsewhere
	Resolved    int
	StillFailed int
	Created     int
	Interrupted bool
	Errors      []error
}

// Err joins every per-item failure of the run
func (r *RunReport) Err() error {
	return errors.Join(r.Errors...)
}

func (r *RunReport) merge(o *RunReport) {
	r.Resolved += o.Resolved
	r.StillFailed += o.StillFailed
	r.Created += o.Created
	r.Interrupted = r.Interrupted || o.Interrupted
	r.Errors = append(r.Errors, o.Errors...)
}

func (r *RunReport) fail(orgID int32, format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Errorf("org %d: %s", orgID, fmt.Sprintf(format, args...)))
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// logReport writes the end-of-run report
func (jr *JobRunner) logReport(ctx context.Context, r *RunReport) {
	args := []any{
		"job", r.Job,
		"orgs", r.Orgs,
		"skipped", len(r.Skipped),
		"resolved", r.Resolved,
		"still_failed", r.StillFailed,
		"created", r.Created,
		"interrupted", r.Interrupted,
		"errors", len(r.Errors),
	}
	if err := r.Err(); err != nil {
		jr.log.ErrorContext(ctx, "Run finished with errors", append(args, "error", err)...)
		return
	}
	jr.log.InfoContext(ctx, "Run finished", args...)
}

// RunAll runs every reconciliation job once (for manual execution)
func (jr *JobRunner) RunAll() {
	for _, j := range jr.Jobs() {
		j.Run()
	}
}

// withRetry calls fn up to the configured number of attempts, backing off
// between attempts. It gives up early once ctx is done.
func withRetry[T any](ctx context.Context, jr *JobRunner, op string, fn func(context.Context) (T, error)) (T, error) {
	attempts := jr.config.Reconciliation.LedgerRetries
	if attempts < 1 {
		attempts = 1
	}
	var (
		out T
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err = fn(ctx)
		if err == nil || ctx.Err() != nil || isPermanent(err) {
			return out, err
		}
		jr.log.WarnContext(ctx, "Ledger call failed", "op", op, "attempt", attempt, "error", err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return out, err
			case <-time.After(jr.backoff * time.Duration(attempt)):
			}
		}
	}
	return out, err
}

// isPermanent reports errors a retry cannot fix
func isPermanent(err error) bool {
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	return errors.Is(err, domain.ErrNotFound) || errors.As(err, &validation) || errors.As(err, &conflict)
}

// organizationLocation returns the organization's timezone, falling back to the configured one
func (jr *JobRunner) organizationLocation(org *domain.Organization) *time.Location {
	if org.Timezone != "" {
		if loc, err := time.LoadLocation(org.Timezone); err == nil {
			return loc
		}
	}
	return jr.config.Location()
}
