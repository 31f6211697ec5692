package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
)

type availabilityProjector struct {
	ledger   ledger.Ledger
	registry WarehouseRegistry
	detector FailedTransferDetector
	log      *slog.Logger
	now      func() time.Time
}

func NewAvailabilityProjector(ldg ledger.Ledger, registry WarehouseRegistry, detector FailedTransferDetector, log *slog.Logger) AvailabilityProjector {
	return &availabilityProjector{
		ledger:   ldg,
		registry: registry,
		detector: detector,
		log:      logger.For(log, "availability_projector"),
		now:      time.Now,
	}
}

// Project returns the rentable quantity of the item over [from, to), with the
// stock held in the overflow location netted out. A ledger failure is returned
// as a DependencyError, never as zero availability.
func (s *availabilityProjector) Project(ctx context.Context, orgID, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error) {
	if from.After(to) {
		return nil, domain.NewValidationError("invalid availability range", "from must not be after to")
	}
	if from.Equal(to) {
		return []domain.AvailabilityInterval{}, nil
	}

	// An explicit location is unambiguous: no overflow netting
	if locationID != nil {
		base, err := s.ledger.BaseAvailability(ctx, itemID, from, to, locationID)
		if err != nil {
			return nil, domain.AsDependencyError("base availability", err)
		}
		return base, nil
	}

	base, err := s.ledger.BaseAvailability(ctx, itemID, from, to, nil)
	if err != nil {
		return nil, domain.AsDependencyError("base availability", err)
	}

	overflow, err := s.registry.GetOverflow(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve overflow location: %w", err)
	}
	if overflow == nil {
		return base, nil
	}

	planned, err := s.ledger.Movements(ctx, domain.MovementFilter{
		OrgID:       orgID,
		ItemID:      itemID,
		LocationIDs: []int32{overflow.ID},
		States:      domain.OpenMovementStates,
		From:        &from,
		To:          &to,
	})
	if err != nil {
		return nil, domain.AsDependencyError("overflow movements", err)
	}

	warnings, err := s.detector.DetectOverdueItem(ctx, orgID, itemID, s.now())
	if err != nil {
		return nil, domain.AsDependencyError("failed movements", err)
	}
	// Only failures of movements inside the range compensate anything; earlier
	// ones are already part of the live snapshot.
	inRange := make(map[int64]bool, len(planned))
	for _, m := range planned {
		inRange[m.ID] = true
	}
	var failed []domain.ShortfallWarning
	for _, w := range warnings {
		if inRange[w.Movement.ID] {
			failed = append(failed, w)
		}
	}
	moves := append(planned, s.detector.Virtualize(failed, overflow.ID)...)

	snapshot, err := s.ledger.LocationSnapshot(ctx, itemID, overflow.ID)
	if err != nil {
		return nil, domain.AsDependencyError("overflow snapshot", err)
	}

	out := projectIntervals(from, to, base, moves, overflow.ID, snapshot.Total())
	s.log.DebugContext(ctx, "projection_computed",
		"event", "projection_computed",
		"org_id", orgID, "item_id", itemID, "from", from, "to", to,
		"overflow_id", overflow.ID, "overflow_snapshot", snapshot.Total(),
		"planned_moves", len(planned), "virtual_moves", len(moves)-len(planned), "intervals", len(out))
	return out, nil
}

// projectIntervals partitions [from, to) at every instant where the quantity
// can change and subtracts, per sub-interval, what sits in overflow by then.
func projectIntervals(from, to time.Time, base []domain.AvailabilityInterval, moves []domain.Movement, overflowID int32, snapshot int32) []domain.AvailabilityInterval {
	points := criticalDates(from, to, base, moves)

	out := make([]domain.AvailabilityInterval, 0, len(points))
	for i := 0; i+1 < len(points); i++ {
		s, e := points[i], points[i+1]

		var baseQty int32
		for _, b := range base {
			if b.Overlaps(s, e) {
				baseQty = b.Quantity
				break
			}
		}

		excluded := max(0, snapshot+netMoveImpact(moves, overflowID, s))
		out = append(out, domain.AvailabilityInterval{Start: s, End: e, Quantity: max(0, baseQty-excluded)})
	}
	return out
}

// criticalDates collects base interval bounds and move instants inside
// [from, to], always including both ends, sorted and de-duplicated.
func criticalDates(from, to time.Time, base []domain.AvailabilityInterval, moves []domain.Movement) []time.Time {
	candidates := []time.Time{from, to}
	for _, b := range base {
		candidates = append(candidates, b.Start, b.End)
	}
	for _, m := range moves {
		candidates = append(candidates, m.ScheduledAt)
	}

	var points []time.Time
	for _, t := range candidates {
		if t.Before(from) || t.After(to) {
			continue
		}
		points = append(points, t)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	dedup := points[:0]
	for _, t := range points {
		if n := len(dedup); n > 0 && dedup[n-1].Equal(t) {
			continue
		}
		dedup = append(dedup, t)
	}
	return dedup
}

// netMoveImpact is the change of the overflow balance caused by the moves
// scheduled at or before at.
func netMoveImpact(moves []domain.Movement, overflowID int32, at time.Time) int32 {
	var impact int32
	for i := range moves {
		m := &moves[i]
		if m.ScheduledAt.After(at) {
			continue
		}
		switch m.DirectionRelativeTo(overflowID) {
		case domain.DirectionIntoOverflow:
			impact += m.Quantity
		case domain.DirectionOutOfOverflow:
			impact -= m.Quantity
		}
	}
	return impact
}
