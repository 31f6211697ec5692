package jobs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"rentstock-backend/internal/domain"
)

// orgWork processes one organization. ctx carries the slot deadline and must
// only be checked between items; item work runs on a context detached from it.
type orgWork func(ctx context.Context, org *domain.Organization, report *RunReport)

// forEachOrg runs work for every organization, in parallel across
// organizations and under the organization's lease.
func (jr *JobRunner) forEachOrg(ctx context.Context, job string, work orgWork) *RunReport {
	report := &RunReport{Job: job}
	orgs, err := jr.repos.Orgs.List(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("list organizations: %w", err))
		return report
	}
	report.Orgs = len(orgs)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxParallelOrgs)
	for i := range orgs {
		org := &orgs[i]
		g.Go(func() error {
			orgReport := &RunReport{}
			skipped := jr.runForOrg(ctx, org, orgReport, work)

			mu.Lock()
			defer mu.Unlock()
			if skipped {
				report.Skipped = append(report.Skipped, org.ID)
			}
			report.merge(orgReport)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func (jr *JobRunner) runForOrg(ctx context.Context, org *domain.Organization, report *RunReport, work orgWork) bool {
	release, ok, err := jr.repos.Leases.TryAcquire(ctx, org.ID)
	if err != nil {
		report.fail(org.ID, "acquire lease: %v", err)
		return false
	}
	if !ok {
		jr.log.InfoContext(ctx, "Organization is reconciled by another run, skipping", "org_id", org.ID)
		return true
	}
	defer release()

	slotCtx := ctx
	if slot := jr.config.Reconciliation.SlotDuration; slot > 0 {
		var cancel context.CancelFunc
		slotCtx, cancel = context.WithTimeout(ctx, slot)
		defer cancel()
	}
	work(slotCtx, org, report)
	return false
}

// interrupted reports, between items, that the run exceeded its slot or was cancelled
func (jr *JobRunner) interrupted(ctx context.Context, org *domain.Organization, report *RunReport) bool {
	if ctx.Err() == nil {
		return false
	}
	if !report.Interrupted {
		jr.log.WarnContext(context.WithoutCancel(ctx), "Run interrupted before completing organization", "org_id", org.ID, "cause", ctx.Err())
	}
	report.Interrupted = true
	return true
}
