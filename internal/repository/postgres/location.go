package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type locationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) repository.LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, l *domain.Location) error {
	if l.Role == "" {
		l.Role = domain.LocationRoleUnclassified
	}
	query := `INSERT INTO locations (org_id, name, role, updated_on) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, l.OrgID, l.Name, l.Role, time.Now()).Scan(&l.ID)
	return translateError("location role", err)
}

func (r *locationRepository) GetByID(ctx context.Context, id int32) (*domain.Location, error) {
	var l domain.Location
	query := `SELECT id, org_id, name, role, updated_on FROM locations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.OrgID, &l.Name, &l.Role, &l.UpdatedOn)
	if err != nil {
		return nil, translateError("location", err)
	}
	return &l, nil
}

func (r *locationRepository) ListByOrg(ctx context.Context, orgID int32) ([]domain.Location, error) {
	query := `SELECT id, org_id, name, role, updated_on FROM locations WHERE org_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.OrgID, &l.Name, &l.Role, &l.UpdatedOn); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (r *locationRepository) GetByRole(ctx context.Context, orgID int32, role domain.LocationRole) (*domain.Location, error) {
	var l domain.Location
	query := `SELECT id, org_id, name, role, updated_on FROM locations WHERE org_id = $1 AND role = $2 ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, orgID, role).Scan(&l.ID, &l.OrgID, &l.Name, &l.Role, &l.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateRole relies on the partial unique index on (org_id, role) to reject a
// second holder of an exclusive role that slipped past the service check.
func (r *locationRepository) UpdateRole(ctx context.Context, id int32, role domain.LocationRole) error {
	query := `UPDATE locations SET role = $1, updated_on = $2 WHERE id = $3`
	logger.DatabaseCall("locations.UpdateRole", query, "location_id", id, "role", role)
	res, err := r.db.ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		logger.DatabaseResult("locations.UpdateRole", 0, err)
		return translateError("location role", err)
	}
	return requireAffected(res, "location")
}
