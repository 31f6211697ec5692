package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
)

// MapError converts a service error into a gRPC status
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		conflict   *domain.ConflictError
		validation *domain.ValidationError
		immutable  *domain.ImmutableError
		dependency *domain.DependencyError
	)
	switch {
	case errors.As(err, &conflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.As(err, &validation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &immutable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &dependency):
		return status.Error(codes.Unavailable, "temporarily unable to confirm availability, retry later")
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidUnlockPassword), errors.Is(err, domain.ErrUnlockNotConfigured):
		return status.Error(codes.PermissionDenied, err.Error())
	}
	logger.Error("Unhandled service error", "error", err)
	return status.Error(codes.Internal, "internal error")
}
