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

var locationCols = []string{"id", "org_id", "name", "role", "updated_on"}

func TestLocationRepository_GetByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLocationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM locations WHERE org_id = \\$1 AND role = \\$2").
			WithArgs(int32(1), domain.LocationRoleOverflow).
			WillReturnRows(sqlmock.NewRows(locationCols).AddRow(20, 1, "Basement", "overflow", "2026-05-01"))

		loc, err := repo.GetByRole(ctx, 1, domain.LocationRoleOverflow)
		require.NoError(t, err)
		require.NotNil(t, loc)
		assert.Equal(t, int32(20), loc.ID)
		assert.Equal(t, domain.LocationRoleOverflow, loc.Role)
	})

	t.Run("No holder", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM locations WHERE org_id = \\$1 AND role = \\$2").
			WithArgs(int32(1), domain.LocationRolePrimary).
			WillReturnRows(sqlmock.NewRows(locationCols))

		loc, err := repo.GetByRole(ctx, 1, domain.LocationRolePrimary)
		assert.NoError(t, err)
		assert.Nil(t, loc)
	})
}

func TestLocationRepository_UpdateRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLocationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE locations SET role").
			WithArgs(domain.LocationRolePrimary, sqlmock.AnyArg(), int32(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRole(ctx, 10, domain.LocationRolePrimary))
	})

	t.Run("Second holder rejected by index", func(t *testing.T) {
		mock.ExpectExec("UPDATE locations SET role").
			WithArgs(domain.LocationRoleOverflow, sqlmock.AnyArg(), int32(30)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "locations_exclusive_role"})

		err := repo.UpdateRole(ctx, 30, domain.LocationRoleOverflow)
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("Unknown location", func(t *testing.T) {
		mock.ExpectExec("UPDATE locations SET role").
			WithArgs(domain.LocationRoleUnclassified, sqlmock.AnyArg(), int32(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRole(ctx, 99, domain.LocationRoleUnclassified)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_ListByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLocationRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE org_id").
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows(locationCols).
			AddRow(10, 1, "Shop", "primary", "2026-05-01").
			AddRow(20, 1, "Basement", "overflow", "2026-05-01").
			AddRow(30, 1, "Van", "unclassified", "2026-05-01"))

	locs, err := repo.ListByOrg(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, locs, 3)
	assert.Equal(t, domain.LocationRoleUnclassified, locs[2].Role)
}
