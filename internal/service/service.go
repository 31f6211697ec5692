package service

import (
	"context"
	"time"

	"rentstock-backend/internal/domain"
)

type OrganizationService interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	GetOrganization(ctx context.Context, id int32) (*domain.Organization, error)
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	UpdateOrganization(ctx context.Context, org *domain.Organization) error
	// Location resolves the organization's timezone, falling back to the configured one.
	Location(ctx context.Context, orgID int32) (*time.Location, error)
}

type WarehouseRegistry interface {
	SetRole(ctx context.Context, locationID int32, role domain.LocationRole) (*domain.Location, error)
	// GetPrimary and GetOverflow return nil, nil when no location holds the role.
	GetPrimary(ctx context.Context, orgID int32) (*domain.Location, error)
	GetOverflow(ctx context.Context, orgID int32) (*domain.Location, error)
	ListLocations(ctx context.Context, orgID int32) ([]domain.Location, error)
}

// PeriodInput carries the operator-authored fields of a new period.
// A nil Start continues after the latest period; an empty Name is generated.
type PeriodInput struct {
	Name            string
	Start           *time.Time
	End             time.Time
	MinimalDuration *domain.MinimalDuration
}

type PeriodCalendar interface {
	CreatePeriod(ctx context.Context, actor domain.Actor, orgID int32, in PeriodInput) (*domain.RentalPeriod, error)
	GetPeriod(ctx context.Context, id int32) (*domain.RentalPeriod, error)
	UpdatePeriod(ctx context.Context, actor domain.Actor, period *domain.RentalPeriod) (*domain.RentalPeriod, error)
	DeletePeriod(ctx context.Context, actor domain.Actor, id int32) error
	NextPeriodStart(ctx context.Context, orgID int32) (time.Time, error)

	SetDayConfig(ctx context.Context, actor domain.Actor, periodID int32, dc domain.DayConfig) (*domain.DayConfig, error)
	CreateDefaultDayConfigs(ctx context.Context, actor domain.Actor, periodID int32) (int, error)
	SetAllocation(ctx context.Context, actor domain.Actor, periodID int32, alloc domain.StockAllocation) (*domain.StockAllocation, error)
	AutoConfigureAllocations(ctx context.Context, actor domain.Actor, periodID int32) (int, error)
	RemainingItems(ctx context.Context, periodID int32) ([]int32, error)

	ConfirmPeriod(ctx context.Context, actor domain.Actor, periodID int32) (*domain.RentalPeriod, error)
	UnlockPeriod(ctx context.Context, actor domain.Actor, periodID int32, password string) (*domain.RentalPeriod, error)

	FindPeriod(ctx context.Context, orgID int32, at time.Time) (*domain.RentalPeriod, error)
	DayConfigFor(ctx context.Context, period *domain.RentalPeriod, at time.Time) (*domain.DayConfig, error)
	// MinimalDuration also returns the period the rule comes from, nil for a fallback.
	MinimalDuration(ctx context.Context, orgID int32, at time.Time) (domain.MinimalDuration, *domain.RentalPeriod, error)
	Constraints(ctx context.Context, orgID int32, referenceDate *time.Time) (*domain.Constraints, error)
	ValidateBooking(ctx context.Context, orgID int32, pickup, ret time.Time) ([]domain.BookingViolation, error)
}

type FailedTransferDetector interface {
	DetectOverdue(ctx context.Context, orgID int32, now time.Time) ([]domain.ShortfallWarning, error)
	DetectOverdueItem(ctx context.Context, orgID, itemID int32, now time.Time) ([]domain.ShortfallWarning, error)
	Virtualize(warnings []domain.ShortfallWarning, overflowID int32) []domain.Movement
}

type AvailabilityProjector interface {
	Project(ctx context.Context, orgID, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error)
}

type TransferLocks interface {
	UpdateMovement(ctx context.Context, m *domain.Movement) error
	DeleteMovement(ctx context.Context, id int64) error
	Unlock(ctx context.Context, actor domain.Actor, id int64, password, note string) (*domain.Movement, error)
	Relock(ctx context.Context, actor domain.Actor, id int64, note string) (*domain.Movement, error)
}

type ShortfallReporter interface {
	// RaiseTask records the warnings on the organization's task of the day and
	// notifies operators. Movements already reported that day are skipped; the
	// returned slice holds the newly reported ones.
	RaiseTask(ctx context.Context, org *domain.Organization, warnings []domain.ShortfallWarning, now time.Time) (*domain.OperatorTask, []domain.ShortfallWarning, error)
	ListTasks(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error)
}

type Notifier interface {
	NotifyShortfall(ctx context.Context, org *domain.Organization, task *domain.OperatorTask, reported []domain.ShortfallWarning) error
}

// PasswordVerifier checks the lock override password.
type PasswordVerifier interface {
	Verify(password string) error
}
