// Package ledger is the boundary to the multi-location transfer ledger: stock
// quantities, movements between locations and their reservations.
package ledger

import (
	"context"
	"time"

	"rentstock-backend/internal/domain"
)

// Ledger is consumed by the projector, the detector and the reconciliation worker.
// Implementations return domain.ErrNotFound (wrapped) for unknown movements;
// any other error means the ledger could not answer.
type Ledger interface {
	// BaseAvailability returns the unadjusted availability of the item over
	// [from, to), across all locations or scoped to locationID.
	BaseAvailability(ctx context.Context, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error)
	Movements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error)
	GetMovement(ctx context.Context, id int64) (*domain.Movement, error)
	CreateMovement(ctx context.Context, req domain.MovementRequest) (*domain.Movement, error)
	UpdateMovement(ctx context.Context, m *domain.Movement) error
	DeleteMovement(ctx context.Context, id int64) error
	SetMovementLocked(ctx context.Context, id int64, locked bool) error
	// Reserve tries to reserve the unreserved part of the movement at its source.
	// It reports whether the movement is fully reserved afterwards.
	Reserve(ctx context.Context, movementID int64) (bool, error)
	LocationSnapshot(ctx context.Context, itemID, locationID int32) (domain.LocationSnapshot, error)
	StorableItems(ctx context.Context, orgID int32) ([]int32, error)
	// FindPeriodMovement returns the non-cancelled movement created for the
	// period and item, or nil.
	FindPeriodMovement(ctx context.Context, periodID, itemID int32) (*domain.Movement, error)
	Ping(ctx context.Context) error
}
