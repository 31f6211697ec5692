package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
)

type postgresLedger struct {
	db  *sql.DB
	now func() time.Time
}

// NewLedger reads and writes the ledger tables sharing the application database
func NewLedger(db *sql.DB) ledger.Ledger {
	return &postgresLedger{db: db, now: time.Now}
}

// pqUniqueViolation is raised by the one-movement-per-period-and-item index
const pqUniqueViolation = "23505"

const movementColumns = `id, org_id, item_id, quantity, reserved_quantity, source_id, destination_id, scheduled_at, state, reference, period_id, locked, COALESCE(note, '')`

type reservation struct {
	start, end time.Time
	quantity   int32
}

func (l *postgresLedger) BaseAvailability(ctx context.Context, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error) {
	if !from.Before(to) {
		return nil, nil
	}

	stockQuery := `SELECT COALESCE(SUM(quantity), 0) FROM stock_quants WHERE item_id = $1`
	resQuery := `SELECT start_at, end_at, quantity FROM rental_reservations
	             WHERE item_id = $1 AND state = 'confirmed' AND start_at < $2 AND end_at > $3`
	stockArgs := []any{itemID}
	resArgs := []any{itemID, to, from}
	if locationID != nil {
		stockQuery += ` AND location_id = $2`
		resQuery += ` AND location_id = $4`
		stockArgs = append(stockArgs, *locationID)
		resArgs = append(resArgs, *locationID)
	}

	logger.DatabaseCall("ledger.BaseAvailability", stockQuery, "item_id", itemID)
	var stock int32
	if err := l.db.QueryRowContext(ctx, stockQuery, stockArgs...).Scan(&stock); err != nil {
		logger.DatabaseResult("ledger.BaseAvailability", 0, err)
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, resQuery, resArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []reservation
	for rows.Next() {
		var r reservation
		if err := rows.Scan(&r.start, &r.end, &r.quantity); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return partition(from, to, stock, reservations), nil
}

// partition splits [from, to) at every reservation boundary and merges
// neighbours that end up with the same quantity.
func partition(from, to time.Time, stock int32, reservations []reservation) []domain.AvailabilityInterval {
	points := []time.Time{from, to}
	for _, r := range reservations {
		if r.start.After(from) && r.start.Before(to) {
			points = append(points, r.start)
		}
		if r.end.After(from) && r.end.Before(to) {
			points = append(points, r.end)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	var out []domain.AvailabilityInterval
	for i := 0; i+1 < len(points); i++ {
		s, e := points[i], points[i+1]
		if !s.Before(e) {
			continue
		}
		qty := stock
		for _, r := range reservations {
			if r.start.Before(e) && r.end.After(s) {
				qty -= r.quantity
			}
		}
		if qty < 0 {
			qty = 0
		}
		if n := len(out); n > 0 && out[n-1].Quantity == qty {
			out[n-1].End = e
			continue
		}
		out = append(out, domain.AvailabilityInterval{Start: s, End: e, Quantity: qty})
	}
	return out
}

func (l *postgresLedger) Movements(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_moves WHERE org_id = $1`
	args := []any{f.OrgID}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(cond, len(args))
	}

	if f.ItemID != 0 {
		add(" AND item_id = $%d", f.ItemID)
	}
	if len(f.LocationIDs) > 0 {
		args = append(args, pq.Array(f.LocationIDs))
		n := len(args)
		query += fmt.Sprintf(" AND (source_id = ANY($%d) OR destination_id = ANY($%d))", n, n)
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		add(" AND state = ANY($%d)", pq.Array(states))
	}
	if f.From != nil {
		add(" AND scheduled_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND scheduled_at <= $%d", *f.To)
	}
	query += " ORDER BY scheduled_at ASC, id ASC"

	logger.DatabaseCall("ledger.Movements", query, "org_id", f.OrgID, "item_id", f.ItemID)
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("ledger.Movements", 0, err)
		return nil, err
	}
	defer rows.Close()

	var moves []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		moves = append(moves, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("ledger.Movements", int64(len(moves)), nil)
	return moves, nil
}

func (l *postgresLedger) GetMovement(ctx context.Context, id int64) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_moves WHERE id = $1`
	m, err := scanMovement(l.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("movement %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (l *postgresLedger) CreateMovement(ctx context.Context, req domain.MovementRequest) (*domain.Movement, error) {
	m := &domain.Movement{
		OrgID:         req.OrgID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		SourceID:      req.SourceID,
		DestinationID: req.DestinationID,
		ScheduledAt:   req.ScheduledAt,
		State:         domain.MovementStatePending,
		Reference:     req.Reference,
		PeriodID:      req.PeriodID,
		Locked:        req.Locked,
	}
	var periodID sql.NullInt32
	if req.PeriodID != nil {
		periodID = sql.NullInt32{Int32: *req.PeriodID, Valid: true}
	}
	query := `INSERT INTO stock_moves (org_id, item_id, quantity, source_id, destination_id, scheduled_at, state, reference, period_id, locked, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	logger.DatabaseCall("ledger.CreateMovement", query, "item_id", req.ItemID, "quantity", req.Quantity)
	err := l.db.QueryRowContext(ctx, query, m.OrgID, m.ItemID, m.Quantity, m.SourceID, m.DestinationID, m.ScheduledAt,
		m.State, m.Reference, periodID, m.Locked, l.now()).Scan(&m.ID)
	logger.DatabaseResult("ledger.CreateMovement", 1, err)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && req.PeriodID != nil {
		return nil, domain.NewConflictError("period movement", "item %d already has a movement for period %d", req.ItemID, *req.PeriodID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (l *postgresLedger) UpdateMovement(ctx context.Context, m *domain.Movement) error {
	query := `UPDATE stock_moves SET quantity = $1, source_id = $2, destination_id = $3, scheduled_at = $4, state = $5, note = $6
	          WHERE id = $7`
	res, err := l.db.ExecContext(ctx, query, m.Quantity, m.SourceID, m.DestinationID, m.ScheduledAt, m.State,
		sql.NullString{String: m.Note, Valid: m.Note != ""}, m.ID)
	if err != nil {
		return err
	}
	return requireMovement(res, m.ID)
}

func (l *postgresLedger) DeleteMovement(ctx context.Context, id int64) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM stock_moves WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireMovement(res, id)
}

func (l *postgresLedger) SetMovementLocked(ctx context.Context, id int64, locked bool) error {
	res, err := l.db.ExecContext(ctx, `UPDATE stock_moves SET locked = $1 WHERE id = $2`, locked, id)
	if err != nil {
		return err
	}
	return requireMovement(res, id)
}

func (l *postgresLedger) Reserve(ctx context.Context, movementID int64) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var itemID, quantity, reserved, sourceID int32
	var state domain.MovementState
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, quantity, reserved_quantity, source_id, state FROM stock_moves WHERE id = $1 FOR UPDATE`,
		movementID).Scan(&itemID, &quantity, &reserved, &sourceID, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("movement %d: %w", movementID, domain.ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if state != domain.MovementStatePending && state != domain.MovementStatePartiallyReserved {
		return state == domain.MovementStateDone, nil
	}
	if reserved >= quantity {
		return true, nil
	}

	// Free stock at the source: on-hand minus what other open moves already hold
	var free int32
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT quantity FROM stock_quants WHERE item_id = $1 AND location_id = $2), 0)
		      - COALESCE((SELECT SUM(reserved_quantity) FROM stock_moves
		                  WHERE item_id = $1 AND source_id = $2 AND state IN ('pending', 'partially_reserved') AND id <> $3), 0)`,
		itemID, sourceID, movementID).Scan(&free)
	if err != nil {
		return false, err
	}

	add := min(quantity-reserved, max(free, 0))
	reserved += add
	newState := domain.MovementStatePending
	if reserved > 0 && reserved < quantity {
		newState = domain.MovementStatePartiallyReserved
	}
	if _, err := tx.ExecContext(ctx, `UPDATE stock_moves SET reserved_quantity = $1, state = $2 WHERE id = $3`,
		reserved, newState, movementID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return reserved >= quantity, nil
}

// LocationSnapshot reads the units on hand at the location and the units
// promised to rentals that have not ended yet.
func (l *postgresLedger) LocationSnapshot(ctx context.Context, itemID, locationID int32) (domain.LocationSnapshot, error) {
	snap := domain.LocationSnapshot{LocationID: locationID}
	query := `SELECT
	            COALESCE((SELECT quantity FROM stock_quants WHERE item_id = $1 AND location_id = $2), 0),
	            COALESCE((SELECT SUM(quantity) FROM rental_reservations
	                      WHERE item_id = $1 AND location_id = $2 AND state = 'confirmed' AND end_at > $3), 0)`
	err := l.db.QueryRowContext(ctx, query, itemID, locationID, l.now()).Scan(&snap.OnHand, &snap.InRent)
	if err != nil {
		return snap, err
	}
	return snap, nil
}

func (l *postgresLedger) StorableItems(ctx context.Context, orgID int32) ([]int32, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id FROM items WHERE org_id = $1 AND storable ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (l *postgresLedger) FindPeriodMovement(ctx context.Context, periodID, itemID int32) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_moves
	          WHERE period_id = $1 AND item_id = $2 AND state <> 'cancelled' LIMIT 1`
	m, err := scanMovement(l.db.QueryRowContext(ctx, query, periodID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (l *postgresLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (*domain.Movement, error) {
	var m domain.Movement
	var periodID sql.NullInt32
	err := row.Scan(&m.ID, &m.OrgID, &m.ItemID, &m.Quantity, &m.ReservedQuantity, &m.SourceID, &m.DestinationID,
		&m.ScheduledAt, &m.State, &m.Reference, &periodID, &m.Locked, &m.Note)
	if err != nil {
		return nil, err
	}
	if periodID.Valid {
		id := periodID.Int32
		m.PeriodID = &id
	}
	return &m, nil
}

func requireMovement(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("movement %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
