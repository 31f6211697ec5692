package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type organizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

const orgColumns = `id, name, timezone, min_duration_value, min_duration_unit, operator_emails, created_on`

func (r *organizationRepository) Create(ctx context.Context, o *domain.Organization) error {
	value, unit := minimalDurationArgs(o.DefaultMinimalDuration)
	query := `INSERT INTO organizations (name, timezone, min_duration_value, min_duration_unit, operator_emails, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("organizations.Create", query, "name", o.Name)
	err := r.db.QueryRowContext(ctx, query, o.Name, o.Timezone, value, unit, pq.Array(o.OperatorEmails), time.Now()).Scan(&o.ID)
	logger.DatabaseResult("organizations.Create", 1, err)
	return translateError("organization", err)
}

func (r *organizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("organization", err)
	}
	return o, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *o)
	}
	return orgs, rows.Err()
}

func (r *organizationRepository) Update(ctx context.Context, o *domain.Organization) error {
	value, unit := minimalDurationArgs(o.DefaultMinimalDuration)
	query := `UPDATE organizations SET name = $1, timezone = $2, min_duration_value = $3, min_duration_unit = $4, operator_emails = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, o.Name, o.Timezone, value, unit, pq.Array(o.OperatorEmails), o.ID)
	if err != nil {
		return translateError("organization", err)
	}
	return requireAffected(res, "organization")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*domain.Organization, error) {
	var o domain.Organization
	var value sql.NullInt32
	var unit sql.NullString
	if err := row.Scan(&o.ID, &o.Name, &o.Timezone, &value, &unit, pq.Array(&o.OperatorEmails), &o.CreatedOn); err != nil {
		return nil, err
	}
	o.DefaultMinimalDuration = minimalDurationFrom(value, unit)
	return &o, nil
}

func minimalDurationArgs(d *domain.MinimalDuration) (sql.NullInt32, sql.NullString) {
	if d == nil {
		return sql.NullInt32{}, sql.NullString{}
	}
	return sql.NullInt32{Int32: d.Value, Valid: true}, sql.NullString{String: string(d.Unit), Valid: true}
}

func minimalDurationFrom(value sql.NullInt32, unit sql.NullString) *domain.MinimalDuration {
	if !value.Valid || !unit.Valid {
		return nil
	}
	return &domain.MinimalDuration{Value: value.Int32, Unit: domain.DurationUnit(unit.String)}
}

func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return translateError(resource, sql.ErrNoRows)
	}
	return nil
}
