package service

import (
	"context"
	"fmt"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/repository"
)

type organizationService struct {
	orgRepo repository.OrganizationRepository
	defLoc  *time.Location
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, defaultLocation *time.Location) OrganizationService {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &organizationService{orgRepo: orgRepo, defLoc: defaultLocation}
}

func (s *organizationService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.orgRepo.List(ctx)
}

func (s *organizationService) GetOrganization(ctx context.Context, id int32) (*domain.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

func (s *organizationService) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	if err := validateOrganization(org); err != nil {
		return err
	}
	return s.orgRepo.Create(ctx, org)
}

func (s *organizationService) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	if err := validateOrganization(org); err != nil {
		return err
	}
	return s.orgRepo.Update(ctx, org)
}

func (s *organizationService) Location(ctx context.Context, orgID int32) (*time.Location, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.Timezone == "" {
		return s.defLoc, nil
	}
	loc, err := time.LoadLocation(org.Timezone)
	if err != nil {
		return s.defLoc, nil
	}
	return loc, nil
}

func validateOrganization(org *domain.Organization) error {
	var problems []string
	if org.Name == "" {
		problems = append(problems, "name is required")
	}
	if org.Timezone != "" {
		if _, err := time.LoadLocation(org.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone %q", org.Timezone))
		}
	}
	if md := org.DefaultMinimalDuration; md != nil && (md.Value <= 0 || !md.Unit.Valid()) {
		problems = append(problems, "default minimal duration must be a positive value in hours, days or weeks")
	}
	if len(problems) > 0 {
		return domain.NewValidationError("invalid organization", problems...)
	}
	return nil
}
