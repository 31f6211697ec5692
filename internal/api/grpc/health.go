package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"rentstock-backend/internal/logger"
)

// Pinger reports whether a backing dependency answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchDependency keeps the availability service health in line with the
// transfer ledger: projections cannot be served while it is unreachable.
// It returns when ctx is done.
func WatchDependency(ctx context.Context, hs *health.Server, dep Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval/2)
		err := dep.Ping(pingCtx)
		cancel()

		next := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if next != last {
			logger.Info("Availability service health changed", "status", next.String(), "error", err)
			hs.SetServingStatus(AvailabilityService_ServiceDesc.ServiceName, next)
			last = next
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
