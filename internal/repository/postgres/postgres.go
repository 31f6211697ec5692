package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/repository"
)

// Postgres error codes translated at the repository boundary
const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

type Store struct {
	db *sql.DB
	repository.OrganizationRepository
	repository.LocationRepository
	repository.PeriodRepository
	repository.TaskRepository
	repository.AuditRepository
	repository.LeaseRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		OrganizationRepository: NewOrganizationRepository(db),
		LocationRepository:     NewLocationRepository(db),
		PeriodRepository:       NewPeriodRepository(db),
		TaskRepository:         NewTaskRepository(db),
		AuditRepository:        NewAuditRepository(db),
		LeaseRepository:        NewLeaseRepository(db),
	}
}

// DB exposes the underlying pool, shared with the ledger adapter
func (s *Store) DB() *sql.DB {
	return s.db
}

// Open connects to PostgreSQL and verifies the connection
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// translateError maps driver errors onto the domain taxonomy
func translateError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", resource, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return domain.NewConflictError(resource, "%s already exists (%s)", resource, pqErr.Constraint)
		case pqExclusionViolation:
			return domain.NewConflictError(resource, "overlaps an existing %s (%s)", resource, pqErr.Constraint)
		}
	}
	return err
}

func nullInt32(v *int32) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
