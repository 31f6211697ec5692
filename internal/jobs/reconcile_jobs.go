package jobs

import (
	"context"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
)

// ReconcileFailedTransfers retries the reservation of every overdue movement
// and raises an operator task for those still short.
func (jr *JobRunner) ReconcileFailedTransfers() {
	jr.runWithRecovery("ReconcileFailedTransfers", func() {
		ctx := context.Background()
		jr.logReport(ctx, jr.RunFailedTransferReconciliation(ctx))
	})
}

func (jr *JobRunner) RunFailedTransferReconciliation(ctx context.Context) *RunReport {
	return jr.forEachOrg(ctx, "reconcile-failed-transfers", jr.reconcileOrganization)
}

func (jr *JobRunner) reconcileOrganization(ctx context.Context, org *domain.Organization, report *RunReport) {
	itemCtx := context.WithoutCancel(ctx)
	now := jr.now()

	warnings, err := withRetry(itemCtx, jr, "detect_overdue", func(ctx context.Context) ([]domain.ShortfallWarning, error) {
		return jr.services.Detector.DetectOverdue(ctx, org.ID, now)
	})
	if err != nil {
		report.fail(org.ID, "detect overdue movements: %v", err)
		return
	}
	if len(warnings) == 0 {
		return
	}

	var stillFailed []domain.ShortfallWarning
	for i, w := range warnings {
		if jr.interrupted(ctx, org, report) {
			// Movements not retried yet are still failed as far as operators are concerned
			stillFailed = append(stillFailed, warnings[i:]...)
			break
		}

		reserved, err := withRetry(itemCtx, jr, "reserve", func(ctx context.Context) (bool, error) {
			return jr.ledger.Reserve(ctx, w.Movement.ID)
		})
		if err != nil {
			report.fail(org.ID, "reserve movement %d: %v", w.Movement.ID, err)
			stillFailed = append(stillFailed, w)
			continue
		}
		if reserved {
			report.Resolved++
			logger.Event(itemCtx, jr.log, "movement_resolved",
				"org_id", org.ID, "movement_id", w.Movement.ID, "item_id", w.Movement.ItemID, "quantity", w.Movement.Quantity)
			continue
		}
		jr.log.WarnContext(itemCtx, "Movement still short after reservation retry",
			"org_id", org.ID, "movement_id", w.Movement.ID, "shortage", w.Shortage)
		stillFailed = append(stillFailed, w)
	}

	report.StillFailed += len(stillFailed)
	if len(stillFailed) == 0 {
		return
	}
	if _, _, err := jr.services.Shortfall.RaiseTask(itemCtx, org, stillFailed, now); err != nil {
		report.fail(org.ID, "raise shortfall task: %v", err)
	}
}
