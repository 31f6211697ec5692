package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/repository/postgres"
)

var (
	periodCols = []string{"id", "org_id", "name", "start_at", "end_at", "is_closed", "min_duration_value", "min_duration_unit",
		"state", "transfers_issued_on", "created_on", "updated_on"}
	dayConfigCols  = []string{"id", "period_id", "weekday", "is_open", "allow_pickup", "pickup_from", "pickup_to", "allow_return", "return_from", "return_to"}
	allocationCols = []string{"id", "period_id", "item_ids", "target_quantity"}

	periodStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
)

func periodRow(id int32, state string, issued any) *sqlmock.Rows {
	return sqlmock.NewRows(periodCols).
		AddRow(id, 1, "June", periodStart, periodEnd, false, 1, "day", state, issued, periodStart, periodStart)
}

func TestPeriodRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p := &domain.RentalPeriod{OrgID: 1, Name: "June", Start: periodStart, End: periodEnd}
		mock.ExpectQuery("INSERT INTO rental_periods").
			WithArgs(int32(1), "June", periodStart, periodEnd, false, nil, nil, domain.PeriodStateDraft, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, int32(7), p.ID)
		assert.Equal(t, domain.PeriodStateDraft, p.State)
	})

	t.Run("Overlap rejected by constraint", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO rental_periods").
			WillReturnError(&pq.Error{Code: "23P01", Constraint: "rental_periods_no_overlap"})

		err := repo.Create(ctx, &domain.RentalPeriod{OrgID: 1, Start: periodStart, End: periodEnd})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.Reason, "overlaps")
	})
}

func TestPeriodRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		issued := periodStart.Add(-time.Hour)
		mock.ExpectQuery("SELECT (.+) FROM rental_periods WHERE id").
			WithArgs(int32(7)).
			WillReturnRows(periodRow(7, "confirmed", issued))
		mock.ExpectQuery("SELECT (.+) FROM day_configs WHERE period_id").
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows(dayConfigCols).
				AddRow(1, 7, 1, true, true, 9.75, 14.25, true, 17.5, 18.5).
				AddRow(2, 7, 6, false, false, 0, 0, false, 0, 0))
		mock.ExpectQuery("SELECT (.+) FROM stock_allocations WHERE period_id").
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows(allocationCols).AddRow(3, 7, "{1,2}", 4))

		p, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.True(t, p.Confirmed())
		require.NotNil(t, p.TransfersIssuedOn)
		assert.True(t, issued.Equal(*p.TransfersIssuedOn))
		assert.Len(t, p.DayConfigs, 2)
		require.Len(t, p.Allocations, 1)
		assert.Equal(t, []int32{1, 2}, p.Allocations[0].ItemIDs)
		assert.Equal(t, &domain.MinimalDuration{Value: 1, Unit: domain.DurationUnitDay}, p.MinimalDuration)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rental_periods WHERE id").
			WithArgs(int32(8)).
			WillReturnRows(sqlmock.NewRows(periodCols))

		_, err := repo.GetByID(ctx, 8)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepository_FindContaining(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	ctx := context.Background()
	at := periodStart.AddDate(0, 0, 3)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rental_periods").
			WithArgs(int32(1), at).
			WillReturnRows(periodRow(7, "confirmed", nil))
		mock.ExpectQuery("SELECT (.+) FROM day_configs").
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows(dayConfigCols))

		p, err := repo.FindContaining(ctx, 1, at)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Nil(t, p.TransfersIssuedOn)
	})

	t.Run("No period", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rental_periods").
			WithArgs(int32(1), at).
			WillReturnRows(sqlmock.NewRows(periodCols))

		p, err := repo.FindContaining(ctx, 1, at)
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestPeriodRepository_ListStartingBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	from, to := periodStart.Add(-24*time.Hour), periodStart.Add(24*time.Hour)

	mock.ExpectQuery("transfers_issued_on IS NULL").
		WithArgs(int32(1), from, to).
		WillReturnRows(periodRow(7, "confirmed", nil))
	mock.ExpectQuery("SELECT (.+) FROM stock_allocations WHERE period_id").
		WithArgs(int32(7)).
		WillReturnRows(sqlmock.NewRows(allocationCols).AddRow(3, 7, "{5}", 2))

	periods, err := repo.ListStartingBetween(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, int32(2), periods[0].Allocations[0].TargetQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepository_MarkTransfersIssued(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	at := periodStart.Add(-2 * time.Hour)

	mock.ExpectExec("UPDATE rental_periods SET transfers_issued_on").
		WithArgs(at, int32(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkTransfersIssued(context.Background(), 7, at))
}

func TestPeriodRepository_CreateAllocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPeriodRepository(db)
	a := &domain.StockAllocation{PeriodID: 7, ItemIDs: []int32{1, 2}, TargetQuantity: 3}

	mock.ExpectQuery("INSERT INTO stock_allocations").
		WithArgs(int32(7), sqlmock.AnyArg(), int32(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	require.NoError(t, repo.CreateAllocation(context.Background(), a))
	assert.Equal(t, int32(11), a.ID)
}
