package grpc_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcapi "rentstock-backend/internal/api/grpc"
	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/security"
	"rentstock-backend/internal/service"
)

type mockOrgService struct {
	service.OrganizationService
	mock.Mock
}

func (m *mockOrgService) Location(ctx context.Context, orgID int32) (*time.Location, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Location), args.Error(1)
}

type mockProjector struct {
	mock.Mock
}

func (m *mockProjector) Project(ctx context.Context, orgID, itemID int32, from, to time.Time, locationID *int32) ([]domain.AvailabilityInterval, error) {
	args := m.Called(ctx, orgID, itemID, from, to, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AvailabilityInterval), args.Error(1)
}

type mockReporter struct {
	service.ShortfallReporter
	mock.Mock
}

func (m *mockReporter) ListTasks(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error) {
	args := m.Called(ctx, orgID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OperatorTask), args.Error(1)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestAvailabilityHandler_ProjectAvailability(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)
	req := func(t *testing.T) *structpb.Struct {
		return mustStruct(t, map[string]any{"org_id": 1, "item_id": 3, "from": "2026-06-01", "to": "2026-06-04"})
	}

	t.Run("Success", func(t *testing.T) {
		orgs, projector := new(mockOrgService), new(mockProjector)
		h := grpcapi.NewAvailabilityHandler(orgs, nil, projector, nil)
		orgs.On("Location", ctx, int32(1)).Return(time.UTC, nil)
		projector.On("Project", ctx, int32(1), int32(3), from, to, (*int32)(nil)).
			Return([]domain.AvailabilityInterval{{Start: from, End: to, Quantity: 5}}, nil)

		resp, err := h.ProjectAvailability(ctx, req(t))
		require.NoError(t, err)
		intervals := resp.GetFields()["intervals"].GetListValue().GetValues()
		require.Len(t, intervals, 1)
		assert.Equal(t, float64(5), intervals[0].GetStructValue().GetFields()["quantity"].GetNumberValue())
	})

	t.Run("Ledger unavailable", func(t *testing.T) {
		orgs, projector := new(mockOrgService), new(mockProjector)
		h := grpcapi.NewAvailabilityHandler(orgs, nil, projector, nil)
		orgs.On("Location", ctx, int32(1)).Return(time.UTC, nil)
		projector.On("Project", ctx, int32(1), int32(3), from, to, (*int32)(nil)).
			Return(nil, &domain.DependencyError{Op: "base availability", Err: errors.New("timeout")})

		_, err := h.ProjectAvailability(ctx, req(t))
		assert.Equal(t, codes.Unavailable, status.Code(err))
	})

	t.Run("Missing item", func(t *testing.T) {
		h := grpcapi.NewAvailabilityHandler(new(mockOrgService), nil, new(mockProjector), nil)
		_, err := h.ProjectAvailability(ctx, mustStruct(t, map[string]any{"org_id": 1}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Fractional id", func(t *testing.T) {
		h := grpcapi.NewAvailabilityHandler(new(mockOrgService), nil, new(mockProjector), nil)
		_, err := h.ProjectAvailability(ctx, mustStruct(t, map[string]any{"org_id": 1.5, "item_id": 3}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestAvailabilityHandler_ListShortfalls(t *testing.T) {
	t.Run("Requires an operator", func(t *testing.T) {
		h := grpcapi.NewAvailabilityHandler(nil, nil, nil, new(mockReporter))
		_, err := h.ListShortfalls(context.Background(), mustStruct(t, map[string]any{"org_id": 1}))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Default limit", func(t *testing.T) {
		reporter := new(mockReporter)
		h := grpcapi.NewAvailabilityHandler(nil, nil, nil, reporter)
		ctx := security.WithClaims(context.Background(), &security.OperatorClaims{Name: "jane", Roles: []string{security.RoleOperator}})
		reporter.On("ListTasks", ctx, int32(1), int32(30)).
			Return([]domain.OperatorTask{{ID: 9, OrgID: 1, Day: "2026-06-01", MovementIDs: []int64{1}}}, nil)

		resp, err := h.ListShortfalls(ctx, mustStruct(t, map[string]any{"org_id": 1}))
		require.NoError(t, err)
		assert.Len(t, resp.GetFields()["tasks"].GetListValue().GetValues(), 1)
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{domain.NewConflictError("location role", "taken"), codes.AlreadyExists},
		{domain.NewValidationError("bad"), codes.InvalidArgument},
		{&domain.ImmutableError{Resource: "movement", ID: 1}, codes.FailedPrecondition},
		{domain.AsDependencyError("reserve", errors.New("timeout")), codes.Unavailable},
		{fmt.Errorf("period 7: %w", domain.ErrNotFound), codes.NotFound},
		{domain.ErrInvalidUnlockPassword, codes.PermissionDenied},
		{status.Error(codes.Aborted, "aborted"), codes.Aborted},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(grpcapi.MapError(tt.err)))
		})
	}
	assert.NoError(t, grpcapi.MapError(nil))
}

type flakyPinger struct {
	err error
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	return p.err
}

func TestWatchDependency(t *testing.T) {
	hs := health.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		grpcapi.WatchDependency(ctx, hs, &flakyPinger{err: errors.New("ledger down")}, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcapi.AvailabilityService_ServiceDesc.ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
