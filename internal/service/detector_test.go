package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/service"
)

const (
	primaryID  int32 = 10
	overflowID int32 = 20
)

func TestFailedTransferDetector_DetectOverdue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	t.Run("Movement past grace with nothing reserved", func(t *testing.T) {
		ldg := new(MockLedger)
		svc := service.NewFailedTransferDetector(ldg, 2*time.Hour, logger.Discard())

		cutoff := now.Add(-2 * time.Hour)
		move := domain.Movement{
			ID: 7, OrgID: 1, ItemID: 3, Quantity: 2,
			SourceID: primaryID, DestinationID: overflowID,
			ScheduledAt: now.Add(-3 * time.Hour), State: domain.MovementStatePending,
		}
		ldg.On("Movements", ctx, domain.MovementFilter{OrgID: 1, States: domain.OpenMovementStates, To: &cutoff}).
			Return([]domain.Movement{move}, nil)

		warnings, err := svc.DetectOverdue(ctx, 1, now)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, int64(7), warnings[0].Movement.ID)
		assert.Equal(t, int32(2), warnings[0].Shortage)
		assert.Equal(t, now, warnings[0].DetectedAt)
	})

	t.Run("Fully reserved movements are not failed", func(t *testing.T) {
		ldg := new(MockLedger)
		svc := service.NewFailedTransferDetector(ldg, 2*time.Hour, logger.Discard())

		ldg.On("Movements", ctx, mock.Anything).Return([]domain.Movement{
			{ID: 1, Quantity: 3, ReservedQuantity: 3, State: domain.MovementStatePending},
			{ID: 2, Quantity: 3, ReservedQuantity: 1, State: domain.MovementStatePartiallyReserved},
		}, nil)

		warnings, err := svc.DetectOverdue(ctx, 1, now)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, int64(2), warnings[0].Movement.ID)
		assert.Equal(t, int32(2), warnings[0].Shortage)
	})

	t.Run("Repeated calls return the same set", func(t *testing.T) {
		ldg := new(MockLedger)
		svc := service.NewFailedTransferDetector(ldg, 0, logger.Discard())

		ldg.On("Movements", ctx, mock.Anything).Return([]domain.Movement{
			{ID: 4, Quantity: 1, State: domain.MovementStatePending},
			{ID: 5, Quantity: 2, State: domain.MovementStatePending},
		}, nil)

		first, err := svc.DetectOverdue(ctx, 1, now)
		require.NoError(t, err)
		second, err := svc.DetectOverdue(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		ldg.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
	})

	t.Run("Ledger failure", func(t *testing.T) {
		ldg := new(MockLedger)
		svc := service.NewFailedTransferDetector(ldg, time.Hour, logger.Discard())

		ldg.On("Movements", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := svc.DetectOverdue(ctx, 1, now)
		var dep *domain.DependencyError
		assert.ErrorAs(t, err, &dep)
	})
}

func TestFailedTransferDetector_Virtualize(t *testing.T) {
	svc := service.NewFailedTransferDetector(new(MockLedger), time.Hour, logger.Discard())
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	warnings := []domain.ShortfallWarning{
		{Movement: domain.Movement{ID: 1, ItemID: 3, Quantity: 2, SourceID: primaryID, DestinationID: overflowID, ScheduledAt: at}, Shortage: 2},
		{Movement: domain.Movement{ID: 2, ItemID: 3, Quantity: 4, SourceID: overflowID, DestinationID: primaryID, ScheduledAt: at}, Shortage: 1},
		// Unrelated to the overflow location
		{Movement: domain.Movement{ID: 3, ItemID: 3, Quantity: 1, SourceID: primaryID, DestinationID: 30, ScheduledAt: at}, Shortage: 1},
	}

	virtual := svc.Virtualize(warnings, overflowID)
	require.Len(t, virtual, 2)

	assert.True(t, virtual[0].Virtual)
	assert.Equal(t, int64(1), virtual[0].OriginID)
	assert.Equal(t, int32(2), virtual[0].Quantity)
	assert.Equal(t, domain.DirectionOutOfOverflow, virtual[0].DirectionRelativeTo(overflowID))
	assert.Equal(t, at, virtual[0].ScheduledAt)

	assert.Equal(t, int64(2), virtual[1].OriginID)
	assert.Equal(t, int32(1), virtual[1].Quantity)
	assert.Equal(t, domain.DirectionIntoOverflow, virtual[1].DirectionRelativeTo(overflowID))
}
