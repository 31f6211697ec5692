package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/repository"
	"rentstock-backend/internal/service"
)

// Only the methods the runner calls are mocked; the embedded interfaces panic
// on anything else.

type mockOrgRepo struct {
	repository.OrganizationRepository
	mock.Mock
}

func (m *mockOrgRepo) List(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}

type mockPeriodRepo struct {
	repository.PeriodRepository
	mock.Mock
}

func (m *mockPeriodRepo) ListStartingBetween(ctx context.Context, orgID int32, from, to time.Time) ([]domain.RentalPeriod, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RentalPeriod), args.Error(1)
}

func (m *mockPeriodRepo) MarkTransfersIssued(ctx context.Context, id int32, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type mockLedger struct {
	ledger.Ledger
	mock.Mock
}

func (m *mockLedger) Reserve(ctx context.Context, movementID int64) (bool, error) {
	args := m.Called(ctx, movementID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) FindPeriodMovement(ctx context.Context, periodID, itemID int32) (*domain.Movement, error) {
	args := m.Called(ctx, periodID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *mockLedger) LocationSnapshot(ctx context.Context, itemID, locationID int32) (domain.LocationSnapshot, error) {
	args := m.Called(ctx, itemID, locationID)
	return args.Get(0).(domain.LocationSnapshot), args.Error(1)
}

func (m *mockLedger) CreateMovement(ctx context.Context, req domain.MovementRequest) (*domain.Movement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

type mockRegistry struct {
	service.WarehouseRegistry
	mock.Mock
}

func (m *mockRegistry) GetPrimary(ctx context.Context, orgID int32) (*domain.Location, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *mockRegistry) GetOverflow(ctx context.Context, orgID int32) (*domain.Location, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *mockRegistry) ListLocations(ctx context.Context, orgID int32) ([]domain.Location, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

type mockDetector struct {
	service.FailedTransferDetector
	mock.Mock
}

func (m *mockDetector) DetectOverdue(ctx context.Context, orgID int32, now time.Time) ([]domain.ShortfallWarning, error) {
	args := m.Called(ctx, orgID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShortfallWarning), args.Error(1)
}

type mockShortfall struct {
	service.ShortfallReporter
	mock.Mock
}

func (m *mockShortfall) RaiseTask(ctx context.Context, org *domain.Organization, warnings []domain.ShortfallWarning, now time.Time) (*domain.OperatorTask, []domain.ShortfallWarning, error) {
	args := m.Called(ctx, org, warnings, now)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.OperatorTask), warnings, args.Error(2)
}

// fakeLeases grants every lease except the ones listed in held
type fakeLeases struct {
	mu       sync.Mutex
	held     map[int32]bool
	released []int32
}

func (f *fakeLeases) TryAcquire(ctx context.Context, orgID int32) (func(), bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[orgID] {
		return nil, false, nil
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released = append(f.released, orgID)
	}, true, nil
}
