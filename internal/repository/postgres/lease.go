package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

// reconciliationLockSpace is the first key of the two-key advisory lock; the
// organization id is the second.
const reconciliationLockSpace int32 = 4711

type leaseRepository struct {
	db *sql.DB
}

func NewLeaseRepository(db *sql.DB) repository.LeaseRepository {
	return &leaseRepository{db: db}
}

// TryAcquire takes a session-level advisory lock on a dedicated connection.
// The lock lives as long as that connection, so the connection is held until release.
func (r *leaseRepository) TryAcquire(ctx context.Context, orgID int32) (func(), bool, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve lease connection: %w", err)
	}

	var ok bool
	err = conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1, $2)`, reconciliationLockSpace, orgID).Scan(&ok)
	if err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("failed to acquire lease for org %d: %w", orgID, err)
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be cancelled
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1, $2)`, reconciliationLockSpace, orgID); err != nil {
			logger.Error("Failed to release lease", "org_id", orgID, "error", err)
		}
		conn.Close()
	}
	return release, true, nil
}
