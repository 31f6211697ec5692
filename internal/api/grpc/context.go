package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/security"
)

// ActorFromContext returns the operator set by the auth interceptor.
func ActorFromContext(ctx context.Context) (domain.Actor, error) {
	claims, ok := security.ClaimsFromContext(ctx)
	if !ok {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "operator is not authenticated")
	}
	return claims.Actor(), nil
}
