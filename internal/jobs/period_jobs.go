package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/utils"
)

// IssuePeriodTransfers creates the balancing movements of every confirmed
// period starting today.
func (jr *JobRunner) IssuePeriodTransfers() {
	jr.runWithRecovery("IssuePeriodTransfers", func() {
		ctx := context.Background()
		jr.logReport(ctx, jr.RunPeriodTransferIssuing(ctx))
	})
}

func (jr *JobRunner) RunPeriodTransferIssuing(ctx context.Context) *RunReport {
	return jr.forEachOrg(ctx, "issue-period-transfers", jr.issueOrganizationTransfers)
}

func (jr *JobRunner) issueOrganizationTransfers(ctx context.Context, org *domain.Organization, report *RunReport) {
	itemCtx := context.WithoutCancel(ctx)
	now := jr.now()
	dayStart := utils.StartOfDay(now, jr.organizationLocation(org))

	periods, err := jr.repos.Periods.ListStartingBetween(itemCtx, org.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		report.fail(org.ID, "list periods starting today: %v", err)
		return
	}
	if len(periods) == 0 {
		return
	}

	primary, err := jr.services.Registry.GetPrimary(itemCtx, org.ID)
	if err != nil {
		report.fail(org.ID, "load primary location: %v", err)
		return
	}
	overflow, err := jr.services.Registry.GetOverflow(itemCtx, org.ID)
	if err != nil {
		report.fail(org.ID, "load overflow location: %v", err)
		return
	}
	if primary == nil || overflow == nil {
		report.fail(org.ID, "periods start today but the primary or overflow location is not configured")
		return
	}
	locations, err := jr.services.Registry.ListLocations(itemCtx, org.ID)
	if err != nil {
		report.fail(org.ID, "list locations: %v", err)
		return
	}

	for i := range periods {
		p := &periods[i]
		complete := true
		for _, alloc := range p.Allocations {
			for _, itemID := range alloc.ItemIDs {
				if jr.interrupted(ctx, org, report) {
					return
				}
				if err := jr.balanceItem(itemCtx, p, alloc, itemID, primary.ID, overflow.ID, locations, report); err != nil {
					report.fail(org.ID, "period %d item %d: %v", p.ID, itemID, err)
					complete = false
				}
			}
		}
		if !complete {
			continue
		}
		// Periods with failed items stay pending so the next run retries them
		if err := jr.repos.Periods.MarkTransfersIssued(itemCtx, p.ID, now); err != nil {
			report.fail(org.ID, "mark period %d processed: %v", p.ID, err)
		}
	}
}

// balanceItem moves the item between the overflow and the primary location so
// that the overflow holds everything beyond the period's target. The target
// is the quantity kept rentable outside the overflow location.
func (jr *JobRunner) balanceItem(ctx context.Context, p *domain.RentalPeriod, alloc domain.StockAllocation, itemID, primaryID, overflowID int32, locations []domain.Location, report *RunReport) error {
	existing, err := withRetry(ctx, jr, "find_period_movement", func(ctx context.Context) (*domain.Movement, error) {
		return jr.ledger.FindPeriodMovement(ctx, p.ID, itemID)
	})
	if err != nil {
		return err
	}
	if existing != nil {
		jr.log.DebugContext(ctx, "Period movement already exists", "period_id", p.ID, "item_id", itemID, "movement_id", existing.ID)
		return nil
	}

	var fleet, inOverflow int32
	for _, loc := range locations {
		snap, err := withRetry(ctx, jr, "location_snapshot", func(ctx context.Context) (domain.LocationSnapshot, error) {
			return jr.ledger.LocationSnapshot(ctx, itemID, loc.ID)
		})
		if err != nil {
			return err
		}
		fleet += snap.Total()
		if loc.ID == overflowID {
			inOverflow = snap.Total()
		}
	}

	delta := inOverflow - max(fleet-alloc.TargetQuantity, 0)
	if delta == 0 {
		return nil
	}
	req := domain.MovementRequest{
		OrgID:         p.OrgID,
		ItemID:        itemID,
		Quantity:      delta,
		SourceID:      overflowID,
		DestinationID: primaryID,
		ScheduledAt:   p.Start,
		Reference:     periodReference(p.ID),
		PeriodID:      &p.ID,
		Locked:        true,
	}
	if delta < 0 {
		req.Quantity = -delta
		req.SourceID, req.DestinationID = primaryID, overflowID
	}

	m, err := withRetry(ctx, jr, "create_movement", func(ctx context.Context) (*domain.Movement, error) {
		return jr.ledger.CreateMovement(ctx, req)
	})
	if err != nil {
		return err
	}
	report.Created++
	logger.Event(ctx, jr.log, "period_transfer_created",
		"org_id", p.OrgID, "period_id", p.ID, "item_id", itemID, "movement_id", m.ID,
		"quantity", m.Quantity, "source_id", m.SourceID, "destination_id", m.DestinationID, "target", alloc.TargetQuantity)
	return nil
}

func periodReference(periodID int32) string {
	return fmt.Sprintf("PERIOD-%d-%s", periodID, strings.ToUpper(uuid.NewString()[:8]))
}
