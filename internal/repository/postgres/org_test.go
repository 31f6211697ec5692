package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/repository/postgres"
)

var orgCols = []string{"id", "name", "timezone", "min_duration_value", "min_duration_unit", "operator_emails", "created_on"}

func TestOrganizationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrganizationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		org := &domain.Organization{
			Name:                   "Alpine Rentals",
			Timezone:               "Europe/Zurich",
			DefaultMinimalDuration: &domain.MinimalDuration{Value: 2, Unit: domain.DurationUnitDay},
			OperatorEmails:         []string{"ops@alpine.test"},
		}
		mock.ExpectQuery("INSERT INTO organizations").
			WithArgs("Alpine Rentals", "Europe/Zurich", int32(2), "day", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		err := repo.Create(ctx, org)
		assert.NoError(t, err)
		assert.Equal(t, int32(5), org.ID)
	})

	t.Run("Duplicate name", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO organizations").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "organizations_name_key"})

		err := repo.Create(ctx, &domain.Organization{Name: "Alpine Rentals"})
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestOrganizationRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrganizationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id").
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows(orgCols).
				AddRow(1, "Alpine Rentals", "Europe/Zurich", 3, "hour", "{ops@alpine.test,lead@alpine.test}", "2026-01-05"))

		org, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Alpine Rentals", org.Name)
		assert.Equal(t, []string{"ops@alpine.test", "lead@alpine.test"}, org.OperatorEmails)
		require.NotNil(t, org.DefaultMinimalDuration)
		assert.Equal(t, domain.MinimalDuration{Value: 3, Unit: domain.DurationUnitHour}, *org.DefaultMinimalDuration)
	})

	t.Run("No default duration", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id").
			WithArgs(int32(2)).
			WillReturnRows(sqlmock.NewRows(orgCols).AddRow(2, "Lakeside", "", nil, nil, "{}", "2026-01-05"))

		org, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, org.DefaultMinimalDuration)
		assert.Empty(t, org.OperatorEmails)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id").
			WithArgs(int32(9)).
			WillReturnRows(sqlmock.NewRows(orgCols))

		_, err := repo.GetByID(ctx, 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrganizationRepository(db)

	mock.ExpectExec("UPDATE organizations SET").
		WithArgs("Lakeside", "", nil, nil, sqlmock.AnyArg(), int32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), &domain.Organization{ID: 2, Name: "Lakeside"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
