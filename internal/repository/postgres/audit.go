package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/repository"
)

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now()
	}
	query := `INSERT INTO audit_log (org_id, actor, action, target_type, target_id, note, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, e.OrgID, e.Actor, e.Action, e.TargetType, e.TargetID, nullString(e.Note), e.CreatedOn).Scan(&e.ID)
}

func (r *auditRepository) ListByTarget(ctx context.Context, targetType string, targetID int64) ([]domain.AuditEntry, error) {
	query := `SELECT id, org_id, actor, action, target_type, target_id, COALESCE(note, ''), created_on
	          FROM audit_log WHERE target_type = $1 AND target_id = $2 ORDER BY created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, targetType, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Actor, &e.Action, &e.TargetType, &e.TargetID, &e.Note, &e.CreatedOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
