package service

import (
	"context"
	"fmt"
	"log/slog"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type warehouseRegistry struct {
	locRepo repository.LocationRepository
	log     *slog.Logger
}

func NewWarehouseRegistry(locRepo repository.LocationRepository, log *slog.Logger) WarehouseRegistry {
	return &warehouseRegistry{
		locRepo: locRepo,
		log:     logger.For(log, "warehouse_registry"),
	}
}

func (s *warehouseRegistry) SetRole(ctx context.Context, locationID int32, role domain.LocationRole) (*domain.Location, error) {
	if !role.Valid() {
		return nil, domain.NewValidationError("invalid location role", fmt.Sprintf("unknown role %q", role))
	}

	loc, err := s.locRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.Role == role {
		return loc, nil
	}

	if role.Exclusive() {
		if loc.Role.Exclusive() {
			return nil, s.reject(ctx, loc, role, domain.NewConflictError("location role",
				"location %d already holds the %s role", loc.ID, loc.Role))
		}
		holder, err := s.locRepo.GetByRole(ctx, loc.OrgID, role)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.ID != loc.ID {
			return nil, s.reject(ctx, loc, role, domain.NewConflictError("location role",
				"location %d already is the %s location of organization %d", holder.ID, role, loc.OrgID))
		}
	}

	if err := s.locRepo.UpdateRole(ctx, loc.ID, role); err != nil {
		return nil, err
	}

	previous := loc.Role
	loc.Role = role
	logger.Event(ctx, s.log, "role_assigned",
		"org_id", loc.OrgID, "location_id", loc.ID, "role", role, "previous_role", previous)
	return loc, nil
}

func (s *warehouseRegistry) reject(ctx context.Context, loc *domain.Location, role domain.LocationRole, err error) error {
	logger.WarnEvent(ctx, s.log, "role_conflict_rejected",
		"org_id", loc.OrgID, "location_id", loc.ID, "role", role, "reason", err.Error())
	return err
}

func (s *warehouseRegistry) GetPrimary(ctx context.Context, orgID int32) (*domain.Location, error) {
	return s.locRepo.GetByRole(ctx, orgID, domain.LocationRolePrimary)
}

func (s *warehouseRegistry) GetOverflow(ctx context.Context, orgID int32) (*domain.Location, error) {
	return s.locRepo.GetByRole(ctx, orgID, domain.LocationRoleOverflow)
}

func (s *warehouseRegistry) ListLocations(ctx context.Context, orgID int32) ([]domain.Location, error) {
	return s.locRepo.ListByOrg(ctx, orgID)
}
