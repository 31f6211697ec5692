package service

import (
	"context"
	"log/slog"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
)

const DefaultGracePeriod = 2 * time.Hour

type failedTransferDetector struct {
	ledger ledger.Ledger
	grace  time.Duration
	log    *slog.Logger
}

func NewFailedTransferDetector(ldg ledger.Ledger, grace time.Duration, log *slog.Logger) FailedTransferDetector {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &failedTransferDetector{
		ledger: ldg,
		grace:  grace,
		log:    logger.For(log, "failed_transfer_detector"),
	}
}

// DetectOverdue returns the open movements of the organization that are past
// their schedule by more than the grace period and still not fully reserved.
// It only reads, so repeated calls without ledger changes return the same set.
func (s *failedTransferDetector) DetectOverdue(ctx context.Context, orgID int32, now time.Time) ([]domain.ShortfallWarning, error) {
	return s.detect(ctx, domain.MovementFilter{OrgID: orgID}, now)
}

func (s *failedTransferDetector) DetectOverdueItem(ctx context.Context, orgID, itemID int32, now time.Time) ([]domain.ShortfallWarning, error) {
	return s.detect(ctx, domain.MovementFilter{OrgID: orgID, ItemID: itemID}, now)
}

func (s *failedTransferDetector) detect(ctx context.Context, filter domain.MovementFilter, now time.Time) ([]domain.ShortfallWarning, error) {
	cutoff := now.Add(-s.grace)
	filter.States = domain.OpenMovementStates
	filter.To = &cutoff

	moves, err := s.ledger.Movements(ctx, filter)
	if err != nil {
		return nil, domain.AsDependencyError("overdue movements", err)
	}

	var warnings []domain.ShortfallWarning
	for _, m := range moves {
		shortage := m.Shortage()
		if shortage <= 0 {
			continue
		}
		warnings = append(warnings, domain.ShortfallWarning{Movement: m, Shortage: shortage, DetectedAt: now})
		logger.Event(ctx, s.log, "movement_failed",
			"org_id", m.OrgID, "movement_id", m.ID, "item_id", m.ItemID,
			"scheduled_at", m.ScheduledAt, "quantity", m.Quantity, "shortage", shortage)
	}
	return warnings, nil
}

// Virtualize turns each failed movement touching the overflow location into a
// compensating movement: the shortage travelling back the other way at the
// same instant. Netted together with the real movement, only the part that
// did move remains, so the projection follows where the stock physically is.
func (s *failedTransferDetector) Virtualize(warnings []domain.ShortfallWarning, overflowID int32) []domain.Movement {
	var virtual []domain.Movement
	for _, w := range warnings {
		m := w.Movement
		if m.DirectionRelativeTo(overflowID) == domain.DirectionNone {
			continue
		}
		virtual = append(virtual, domain.Movement{
			OrgID:         m.OrgID,
			ItemID:        m.ItemID,
			Quantity:      w.Shortage,
			SourceID:      m.DestinationID,
			DestinationID: m.SourceID,
			ScheduledAt:   m.ScheduledAt,
			State:         m.State,
			Reference:     m.Reference,
			Virtual:       true,
			OriginID:      m.ID,
		})
	}
	return virtual
}
