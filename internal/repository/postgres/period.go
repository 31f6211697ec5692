package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type periodRepository struct {
	db *sql.DB
}

func NewPeriodRepository(db *sql.DB) repository.PeriodRepository {
	return &periodRepository{db: db}
}

const periodColumns = `id, org_id, name, start_at, end_at, is_closed, min_duration_value, min_duration_unit, state, transfers_issued_on, created_on, updated_on`

func (r *periodRepository) Create(ctx context.Context, p *domain.RentalPeriod) error {
	value, unit := minimalDurationArgs(p.MinimalDuration)
	if p.State == "" {
		p.State = domain.PeriodStateDraft
	}
	now := time.Now()
	p.CreatedOn, p.UpdatedOn = now, now
	query := `INSERT INTO rental_periods (org_id, name, start_at, end_at, is_closed, min_duration_value, min_duration_unit, state, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall("rental_periods.Create", query, "org_id", p.OrgID, "name", p.Name)
	err := r.db.QueryRowContext(ctx, query, p.OrgID, p.Name, p.Start, p.End, p.IsClosed, value, unit, p.State, now, now).Scan(&p.ID)
	logger.DatabaseResult("rental_periods.Create", 1, err)
	return translateError("rental period", err)
}

func (r *periodRepository) GetByID(ctx context.Context, id int32) (*domain.RentalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM rental_periods WHERE id = $1`
	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("rental period", err)
	}
	if p.DayConfigs, err = r.ListDayConfigs(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Allocations, err = r.ListAllocations(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *periodRepository) Update(ctx context.Context, p *domain.RentalPeriod) error {
	value, unit := minimalDurationArgs(p.MinimalDuration)
	p.UpdatedOn = time.Now()
	query := `UPDATE rental_periods SET name = $1, start_at = $2, end_at = $3, is_closed = $4,
	          min_duration_value = $5, min_duration_unit = $6, state = $7, updated_on = $8
	          WHERE id = $9`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Start, p.End, p.IsClosed, value, unit, p.State, p.UpdatedOn, p.ID)
	if err != nil {
		return translateError("rental period", err)
	}
	return requireAffected(res, "rental period")
}

// Delete removes the period; day configs and allocations cascade.
func (r *periodRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rental_periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "rental period")
}

func (r *periodRepository) ListByOrg(ctx context.Context, orgID int32, includeClosed bool) ([]domain.RentalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM rental_periods WHERE org_id = $1`
	if !includeClosed {
		query += ` AND NOT is_closed`
	}
	query += ` ORDER BY start_at ASC`
	periods, err := r.queryPeriods(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		if periods[i].DayConfigs, err = r.ListDayConfigs(ctx, periods[i].ID); err != nil {
			return nil, err
		}
	}
	return periods, nil
}

func (r *periodRepository) FindContaining(ctx context.Context, orgID int32, at time.Time) (*domain.RentalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM rental_periods
	          WHERE org_id = $1 AND NOT is_closed AND start_at <= $2 AND end_at >= $2
	          ORDER BY start_at ASC LIMIT 1`
	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, orgID, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.DayConfigs, err = r.ListDayConfigs(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *periodRepository) Latest(ctx context.Context, orgID int32) (*domain.RentalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM rental_periods WHERE org_id = $1 ORDER BY end_at DESC LIMIT 1`
	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *periodRepository) Count(ctx context.Context, orgID int32) (int32, error) {
	var n int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM rental_periods WHERE org_id = $1`, orgID).Scan(&n)
	return n, err
}

func (r *periodRepository) ListStartingBetween(ctx context.Context, orgID int32, from, to time.Time) ([]domain.RentalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM rental_periods
	          WHERE org_id = $1 AND state = 'confirmed' AND NOT is_closed AND transfers_issued_on IS NULL
	            AND start_at >= $2 AND start_at < $3
	          ORDER BY start_at ASC`
	periods, err := r.queryPeriods(ctx, query, orgID, from, to)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		if periods[i].Allocations, err = r.ListAllocations(ctx, periods[i].ID); err != nil {
			return nil, err
		}
	}
	return periods, nil
}

func (r *periodRepository) MarkTransfersIssued(ctx context.Context, id int32, at time.Time) error {
	query := `UPDATE rental_periods SET transfers_issued_on = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "rental period")
}

func (r *periodRepository) queryPeriods(ctx context.Context, query string, args ...any) ([]domain.RentalPeriod, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []domain.RentalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func scanPeriod(row rowScanner) (*domain.RentalPeriod, error) {
	var p domain.RentalPeriod
	var value sql.NullInt32
	var unit sql.NullString
	var issued sql.NullTime
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Start, &p.End, &p.IsClosed, &value, &unit, &p.State, &issued, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	p.MinimalDuration = minimalDurationFrom(value, unit)
	if issued.Valid {
		p.TransfersIssuedOn = &issued.Time
	}
	return &p, nil
}

// Day configs

const dayConfigColumns = `id, period_id, weekday, is_open, allow_pickup, pickup_from, pickup_to, allow_return, return_from, return_to`

func (r *periodRepository) CreateDayConfig(ctx context.Context, dc *domain.DayConfig) error {
	query := `INSERT INTO day_configs (period_id, weekday, is_open, allow_pickup, pickup_from, pickup_to, allow_return, return_from, return_to)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, dc.PeriodID, dc.Weekday, dc.IsOpen, dc.AllowPickup, dc.PickupFrom, dc.PickupTo,
		dc.AllowReturn, dc.ReturnFrom, dc.ReturnTo).Scan(&dc.ID)
	return translateError("day configuration", err)
}

func (r *periodRepository) UpdateDayConfig(ctx context.Context, dc *domain.DayConfig) error {
	query := `UPDATE day_configs SET is_open = $1, allow_pickup = $2, pickup_from = $3, pickup_to = $4,
	          allow_return = $5, return_from = $6, return_to = $7
	          WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query, dc.IsOpen, dc.AllowPickup, dc.PickupFrom, dc.PickupTo,
		dc.AllowReturn, dc.ReturnFrom, dc.ReturnTo, dc.ID)
	if err != nil {
		return translateError("day configuration", err)
	}
	return requireAffected(res, "day configuration")
}

func (r *periodRepository) ListDayConfigs(ctx context.Context, periodID int32) ([]domain.DayConfig, error) {
	query := `SELECT ` + dayConfigColumns + ` FROM day_configs WHERE period_id = $1 ORDER BY weekday`
	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.DayConfig
	for rows.Next() {
		var dc domain.DayConfig
		if err := rows.Scan(&dc.ID, &dc.PeriodID, &dc.Weekday, &dc.IsOpen, &dc.AllowPickup, &dc.PickupFrom, &dc.PickupTo,
			&dc.AllowReturn, &dc.ReturnFrom, &dc.ReturnTo); err != nil {
			return nil, err
		}
		configs = append(configs, dc)
	}
	return configs, rows.Err()
}

// Stock allocations

func (r *periodRepository) CreateAllocation(ctx context.Context, a *domain.StockAllocation) error {
	query := `INSERT INTO stock_allocations (period_id, item_ids, target_quantity) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, a.PeriodID, pq.Array(a.ItemIDs), a.TargetQuantity).Scan(&a.ID)
	return translateError("stock allocation", err)
}

func (r *periodRepository) UpdateAllocation(ctx context.Context, a *domain.StockAllocation) error {
	query := `UPDATE stock_allocations SET item_ids = $1, target_quantity = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, pq.Array(a.ItemIDs), a.TargetQuantity, a.ID)
	if err != nil {
		return translateError("stock allocation", err)
	}
	return requireAffected(res, "stock allocation")
}

func (r *periodRepository) ListAllocations(ctx context.Context, periodID int32) ([]domain.StockAllocation, error) {
	query := `SELECT id, period_id, item_ids, target_quantity FROM stock_allocations WHERE period_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.StockAllocation
	for rows.Next() {
		var a domain.StockAllocation
		var ids pq.Int32Array
		if err := rows.Scan(&a.ID, &a.PeriodID, &ids, &a.TargetQuantity); err != nil {
			return nil, err
		}
		a.ItemIDs = []int32(ids)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
