package service_test

import (
	"context"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"

	"rentstock-backend/internal/domain"
)

// MockOrganizationRepo
type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}
func (m *MockOrganizationRepo) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) List(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) Update(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

// MockLocationRepo
type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}
func (m *MockLocationRepo) GetByID(ctx context.Context, id int32) (*domain.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}
func (m *MockLocationRepo) ListByOrg(ctx context.Context, orgID int32) ([]domain.Location, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]domain.Location), args.Error(1)
}
func (m *MockLocationRepo) GetByRole(ctx context.Context, orgID int32, role domain.LocationRole) (*domain.Location, error) {
	args := m.Called(ctx, orgID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}
func (m *MockLocationRepo) UpdateRole(ctx context.Context, id int32, role domain.LocationRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

// MockPeriodRepo
type MockPeriodRepo struct {
	mock.Mock
}

func (m *MockPeriodRepo) Create(ctx context.Context, p *domain.RentalPeriod) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPeriodRepo) GetByID(ctx context.Context, id int32) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) Update(ctx context.Context, p *domain.RentalPeriod) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPeriodRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPeriodRepo) ListByOrg(ctx context.Context, orgID int32, includeClosed bool) ([]domain.RentalPeriod, error) {
	args := m.Called(ctx, orgID, includeClosed)
	return args.Get(0).([]domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) FindContaining(ctx context.Context, orgID int32, at time.Time) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, orgID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) Latest(ctx context.Context, orgID int32) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) Count(ctx context.Context, orgID int32) (int32, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockPeriodRepo) ListStartingBetween(ctx context.Context, orgID int32, from, to time.Time) ([]domain.RentalPeriod, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).([]domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) MarkTransfersIssued(ctx context.Context, id int32, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
func (m *MockPeriodRepo) CreateDayConfig(ctx context.Context, dc *domain.DayConfig) error {
	args := m.Called(ctx, dc)
	return args.Error(0)
}
func (m *MockPeriodRepo) UpdateDayConfig(ctx context.Context, dc *domain.DayConfig) error {
	args := m.Called(ctx, dc)
	return args.Error(0)
}
func (m *MockPeriodRepo) ListDayConfigs(ctx context.Context, periodID int32) ([]domain.DayConfig, error) {
	args := m.Called(ctx, periodID)
	return args.Get(0).([]domain.DayConfig), args.Error(1)
}
func (m *MockPeriodRepo) CreateAllocation(ctx context.Context, a *domain.StockAllocation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockPeriodRepo) UpdateAllocation(ctx context.Context, a *domain.StockAllocation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockPeriodRepo) ListAllocations(ctx context.Context, periodID int32) ([]domain.StockAllocation, error) {
	args := m.Called(ctx, periodID)
	return args.Get(0).([]domain.StockAllocation), args.Error(1)
}

// MockTaskRepo
type MockTaskRepo struct {
	mock.Mock
}

func (m *MockTaskRepo) GetByDay(ctx context.Context, orgID int32, day string) (*domain.OperatorTask, error) {
	args := m.Called(ctx, orgID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperatorTask), args.Error(1)
}
func (m *MockTaskRepo) Upsert(ctx context.Context, task *domain.OperatorTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
func (m *MockTaskRepo) ListByOrg(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error) {
	args := m.Called(ctx, orgID, limit)
	return args.Get(0).([]domain.OperatorTask), args.Error(1)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockAuditRepo) ListByTarget(ctx context.Context, targetType string, targetID int64) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, targetType, targetID)
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

// MockLedger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) BaseAvailability(ctx context.Context, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error) {
	args := m.Called(ctx, itemID, from, to, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AvailabilityInterval), args.Error(1)
}
func (m *MockLedger) Movements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}
func (m *MockLedger) GetMovement(ctx context.Context, id int64) (*domain.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockLedger) CreateMovement(ctx context.Context, req domain.MovementRequest) (*domain.Movement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockLedger) UpdateMovement(ctx context.Context, mv *domain.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}
func (m *MockLedger) DeleteMovement(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLedger) SetMovementLocked(ctx context.Context, id int64, locked bool) error {
	args := m.Called(ctx, id, locked)
	return args.Error(0)
}
func (m *MockLedger) Reserve(ctx context.Context, movementID int64) (bool, error) {
	args := m.Called(ctx, movementID)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedger) LocationSnapshot(ctx context.Context, itemID, locationID int32) (domain.LocationSnapshot, error) {
	args := m.Called(ctx, itemID, locationID)
	return args.Get(0).(domain.LocationSnapshot), args.Error(1)
}
func (m *MockLedger) StorableItems(ctx context.Context, orgID int32) ([]int32, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int32), args.Error(1)
}
func (m *MockLedger) FindPeriodMovement(ctx context.Context, periodID, itemID int32) (*domain.Movement, error) {
	args := m.Called(ctx, periodID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockLedger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(password string) error {
	args := m.Called(password)
	return args.Error(0)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyShortfall(ctx context.Context, org *domain.Organization, task *domain.OperatorTask, reported []domain.ShortfallWarning) error {
	args := m.Called(ctx, org, task, reported)
	return args.Error(0)
}

// MockMailClient
type MockMailClient struct {
	mock.Mock
}

func (m *MockMailClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

// MockPushClient
type MockPushClient struct {
	mock.Mock
}

func (m *MockPushClient) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func int32Ptr(v int32) *int32 {
	return &v
}
