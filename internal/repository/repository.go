package repository

import (
	"context"
	"time"

	"rentstock-backend/internal/domain"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int32) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) error
	GetByID(ctx context.Context, id int32) (*domain.Location, error)
	ListByOrg(ctx context.Context, orgID int32) ([]domain.Location, error)
	// GetByRole returns nil, nil when no location of the organization holds the role.
	GetByRole(ctx context.Context, orgID int32, role domain.LocationRole) (*domain.Location, error)
	UpdateRole(ctx context.Context, id int32, role domain.LocationRole) error
}

type PeriodRepository interface {
	Create(ctx context.Context, period *domain.RentalPeriod) error
	// GetByID loads the period with its day configs and allocations.
	GetByID(ctx context.Context, id int32) (*domain.RentalPeriod, error)
	Update(ctx context.Context, period *domain.RentalPeriod) error
	Delete(ctx context.Context, id int32) error
	// ListByOrg returns the organization's periods ordered by start, with day configs.
	ListByOrg(ctx context.Context, orgID int32, includeClosed bool) ([]domain.RentalPeriod, error)
	// FindContaining returns the first non-closed period whose [start, end] contains at, or nil.
	FindContaining(ctx context.Context, orgID int32, at time.Time) (*domain.RentalPeriod, error)
	// Latest returns the period with the latest end, or nil.
	Latest(ctx context.Context, orgID int32) (*domain.RentalPeriod, error)
	Count(ctx context.Context, orgID int32) (int32, error)
	// ListStartingBetween returns confirmed, non-closed periods starting in [from, to)
	// whose transfers have not been issued yet, with their allocations.
	ListStartingBetween(ctx context.Context, orgID int32, from, to time.Time) ([]domain.RentalPeriod, error)
	MarkTransfersIssued(ctx context.Context, id int32, at time.Time) error

	// Day configs
	CreateDayConfig(ctx context.Context, dc *domain.DayConfig) error
	UpdateDayConfig(ctx context.Context, dc *domain.DayConfig) error
	ListDayConfigs(ctx context.Context, periodID int32) ([]domain.DayConfig, error)

	// Stock allocations
	CreateAllocation(ctx context.Context, a *domain.StockAllocation) error
	UpdateAllocation(ctx context.Context, a *domain.StockAllocation) error
	ListAllocations(ctx context.Context, periodID int32) ([]domain.StockAllocation, error)
}

type TaskRepository interface {
	// GetByDay returns nil, nil when no task was raised for the organization that day.
	GetByDay(ctx context.Context, orgID int32, day string) (*domain.OperatorTask, error)
	// Upsert inserts the task or replaces the one of the same organization and day.
	Upsert(ctx context.Context, task *domain.OperatorTask) error
	ListByOrg(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error)
}

type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByTarget(ctx context.Context, targetType string, targetID int64) ([]domain.AuditEntry, error)
}

// LeaseRepository hands out per-organization mutual exclusion for background runs.
type LeaseRepository interface {
	// TryAcquire returns ok=false when another run holds the lease. The release
	// function must be called exactly once when ok is true.
	TryAcquire(ctx context.Context, orgID int32) (release func(), ok bool, err error)
}
