package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"rentstock-backend/internal/config"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/security"
)

// AuthInterceptor enforces config.EndpointSecurityConfig on incoming calls
type AuthInterceptor struct {
	tokenManager security.TokenManager
}

func NewAuthInterceptor(tm security.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokenManager: tm}
}

func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := i.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// Stream covers server-streaming methods such as the health watch
func (i *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := i.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authorizedStream{ServerStream: ss, ctx: ctx})
	}
}

// authorize returns ctx carrying the caller's claims, or a status error
func (i *AuthInterceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	level := config.GetSecurityLevel(method)
	if level == config.SecurityPublic {
		return ctx, nil
	}

	token, err := tokenFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := i.tokenManager.ValidateToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}

	switch {
	case level == config.SecurityAccess && !claims.IsOperator():
		logger.Warn("gRPC call refused", "method", method, "operator_id", claims.OperatorID, "required", "operator")
		return nil, status.Error(codes.PermissionDenied, "operator role required")
	case level == config.SecurityPrivileged && !claims.HasRole(security.RolePrivileged):
		logger.Warn("gRPC call refused", "method", method, "operator_id", claims.OperatorID, "required", "privileged")
		return nil, status.Error(codes.PermissionDenied, "privileged role required")
	}
	return security.WithClaims(ctx, claims), nil
}

func tokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is not provided")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
	}
	// A bare token without the Bearer scheme is accepted as well
	if token, ok := security.ParseBearer(values[0]); ok {
		return token, nil
	}
	return values[0], nil
}

type authorizedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authorizedStream) Context() context.Context {
	return s.ctx
}
