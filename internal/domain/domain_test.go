package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstock-backend/internal/domain"
)

var monday = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestISOWeekday(t *testing.T) {
	assert.Equal(t, 1, domain.ISOWeekday(monday))
	assert.Equal(t, 6, domain.ISOWeekday(monday.AddDate(0, 0, 5)))
	assert.Equal(t, 7, domain.ISOWeekday(monday.AddDate(0, 0, 6)))
	assert.Equal(t, 9.75, domain.HourOfDay(monday.Add(9*time.Hour+45*time.Minute)))
}

func TestDayConfig(t *testing.T) {
	t.Run("Defaults close the weekend", func(t *testing.T) {
		sat := domain.DefaultDayConfig(1, 6)
		assert.False(t, sat.IsOpen)
		assert.False(t, sat.AllowPickup)
		assert.Zero(t, sat.PickupFrom)

		mon := domain.DefaultDayConfig(1, 1)
		assert.True(t, mon.IsOpen)
		assert.Equal(t, domain.DefaultPickupFrom, mon.PickupFrom)
		assert.NoError(t, mon.Validate())
	})

	t.Run("Normalize clears disallowed hours", func(t *testing.T) {
		dc := domain.DayConfig{Weekday: 2, IsOpen: true, AllowPickup: true, PickupFrom: 9, PickupTo: 12, ReturnFrom: 17, ReturnTo: 18}
		dc.Normalize()
		assert.Equal(t, 9.0, dc.PickupFrom)
		assert.Zero(t, dc.ReturnFrom)
		assert.Zero(t, dc.ReturnTo)
	})

	t.Run("Validate", func(t *testing.T) {
		dc := domain.DayConfig{Weekday: 8, IsOpen: true, AllowPickup: true, PickupFrom: 14, PickupTo: 9, AllowReturn: true, ReturnFrom: 20, ReturnTo: 25}
		err := dc.Validate()
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{
			"weekday 8 out of range 1..7",
			"pickup start hour must be before its end hour",
			"return hours must lie within 0..24",
		}, verr.Problems)
	})

	t.Run("Windows are inclusive", func(t *testing.T) {
		dc := domain.DefaultDayConfig(1, 3)
		at := func(h float64) *float64 { return &h }
		assert.True(t, dc.IsPickupAllowed(nil))
		assert.True(t, dc.IsPickupAllowed(at(domain.DefaultPickupTo)))
		assert.False(t, dc.IsPickupAllowed(at(15)))
		assert.True(t, dc.IsReturnAllowed(at(domain.DefaultReturnFrom)))
		assert.False(t, dc.IsReturnAllowed(at(12)))

		closed := domain.DefaultDayConfig(1, 7)
		assert.False(t, closed.IsReturnAllowed(nil))
	})
}

func TestMovement(t *testing.T) {
	m := domain.Movement{Quantity: 5, ReservedQuantity: 2, SourceID: 10, DestinationID: 20, State: domain.MovementStatePartiallyReserved}

	assert.Equal(t, int32(3), m.Shortage())
	assert.True(t, m.Open())
	assert.False(t, m.PeriodManaged())
	assert.Equal(t, domain.DirectionIntoOverflow, m.DirectionRelativeTo(20))
	assert.Equal(t, domain.DirectionOutOfOverflow, m.DirectionRelativeTo(10))
	assert.Equal(t, domain.DirectionNone, m.DirectionRelativeTo(30))

	m.ReservedQuantity = 7
	assert.Zero(t, m.Shortage())

	internal := domain.Movement{SourceID: 20, DestinationID: 20}
	assert.Equal(t, domain.DirectionNone, internal.DirectionRelativeTo(20))
}

func TestAvailabilityInterval_Overlaps(t *testing.T) {
	day := func(n int) time.Time { return monday.AddDate(0, 0, n) }
	i := domain.AvailabilityInterval{Start: day(1), End: day(3)}

	assert.True(t, i.Overlaps(day(0), day(2)), "end inside")
	assert.True(t, i.Overlaps(day(2), day(5)), "start inside")
	assert.True(t, i.Overlaps(day(0), day(5)), "contains")
	assert.False(t, i.Overlaps(day(3), day(5)), "touching end")
	assert.False(t, i.Overlaps(day(0), day(1)), "touching start")
}

func TestRentalPeriod(t *testing.T) {
	p := &domain.RentalPeriod{Start: monday, End: monday.AddDate(0, 0, 6), State: domain.PeriodStateConfirmed}

	t.Run("Status", func(t *testing.T) {
		assert.Equal(t, domain.PeriodStatusConfirmed, p.Status(monday.Add(-time.Hour)))
		assert.Equal(t, domain.PeriodStatusActive, p.Status(monday))
		assert.Equal(t, domain.PeriodStatusPast, p.Status(monday.AddDate(0, 0, 7)))

		draft := *p
		draft.State = domain.PeriodStateDraft
		assert.Equal(t, domain.PeriodStatusDraft, draft.Status(monday))

		closed := *p
		closed.IsClosed = true
		assert.Equal(t, domain.PeriodStatusClosed, closed.Status(monday))
	})

	t.Run("Overlaps", func(t *testing.T) {
		touching := &domain.RentalPeriod{Start: p.End, End: p.End.AddDate(0, 0, 7)}
		assert.False(t, p.Overlaps(touching))
		inside := &domain.RentalPeriod{Start: monday.AddDate(0, 0, 2), End: monday.AddDate(0, 0, 3)}
		assert.True(t, p.Overlaps(inside))
		assert.True(t, p.Contains(p.End))
	})

	t.Run("Allocation covers", func(t *testing.T) {
		a := domain.StockAllocation{ItemIDs: []int32{1, 4}}
		assert.True(t, a.Covers(4))
		assert.False(t, a.Covers(2))
	})
}

func TestErrors(t *testing.T) {
	cause := errors.New("connection refused")
	err := domain.AsDependencyError("movements", cause)

	var dep *domain.DependencyError
	require.ErrorAs(t, err, &dep)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, domain.AsDependencyError("reserve", err))
	assert.NoError(t, domain.AsDependencyError("reserve", nil))

	assert.True(t, domain.LocationRoleOverflow.Exclusive())
	assert.False(t, domain.LocationRoleUnclassified.Exclusive())
	assert.False(t, domain.LocationRole("depot").Valid())
}
