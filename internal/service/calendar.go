package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
	"rentstock-backend/internal/utils"
)

// CalendarDefaults apply to organizations that configure nothing themselves.
type CalendarDefaults struct {
	Location        *time.Location
	MinimalDuration domain.MinimalDuration
}

type periodCalendar struct {
	periodRepo repository.PeriodRepository
	orgRepo    repository.OrganizationRepository
	auditRepo  repository.AuditRepository
	ledger     ledger.Ledger
	verifier   PasswordVerifier
	defaults   CalendarDefaults
	log        *slog.Logger
	now        func() time.Time
}

func NewPeriodCalendar(
	periodRepo repository.PeriodRepository,
	orgRepo repository.OrganizationRepository,
	auditRepo repository.AuditRepository,
	ldg ledger.Ledger,
	verifier PasswordVerifier,
	defaults CalendarDefaults,
	log *slog.Logger,
) PeriodCalendar {
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	if defaults.MinimalDuration.Value == 0 {
		defaults.MinimalDuration = domain.MinimalDuration{Value: 1, Unit: domain.DurationUnitDay}
	}
	return &periodCalendar{
		periodRepo: periodRepo,
		orgRepo:    orgRepo,
		auditRepo:  auditRepo,
		ledger:     ldg,
		verifier:   verifier,
		defaults:   defaults,
		log:        logger.For(log, "period_calendar"),
		now:        time.Now,
	}
}

func (s *periodCalendar) CreatePeriod(ctx context.Context, actor domain.Actor, orgID int32, in PeriodInput) (*domain.RentalPeriod, error) {
	start := in.Start
	if start == nil {
		next, err := s.NextPeriodStart(ctx, orgID)
		if err != nil {
			return nil, err
		}
		start = &next
	}

	name := in.Name
	if name == "" {
		n, err := s.periodRepo.Count(ctx, orgID)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("Period %d", n+1)
	}

	p := &domain.RentalPeriod{
		OrgID:           orgID,
		Name:            name,
		Start:           *start,
		End:             in.End,
		MinimalDuration: in.MinimalDuration,
		State:           domain.PeriodStateDraft,
	}
	if err := validatePeriodFields(p); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, p); err != nil {
		return nil, err
	}
	if err := s.periodRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Event(ctx, s.log, "period_created",
		"org_id", orgID, "period_id", p.ID, "name", p.Name, "start", p.Start, "end", p.End, "actor", actor.Name)
	return p, nil
}

func (s *periodCalendar) GetPeriod(ctx context.Context, id int32) (*domain.RentalPeriod, error) {
	return s.periodRepo.GetByID(ctx, id)
}

func (s *periodCalendar) UpdatePeriod(ctx context.Context, actor domain.Actor, in *domain.RentalPeriod) (*domain.RentalPeriod, error) {
	p, err := s.periodRepo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutable(p, actor); err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Start = in.Start
	p.End = in.End
	p.IsClosed = in.IsClosed
	p.MinimalDuration = in.MinimalDuration
	if err := validatePeriodFields(p); err != nil {
		return nil, err
	}
	if !p.IsClosed {
		if err := s.checkOverlap(ctx, p); err != nil {
			return nil, err
		}
	}
	if err := s.periodRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	if p.Confirmed() {
		s.audit(ctx, actor, p, domain.AuditActionPeriodOverridden, "confirmed period edited")
	}
	return p, nil
}

func (s *periodCalendar) DeletePeriod(ctx context.Context, actor domain.Actor, id int32) error {
	p, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Confirmed() {
		return &domain.ImmutableError{Resource: "rental period", ID: int64(p.ID), Reason: "a confirmed period cannot be deleted"}
	}
	if err := s.periodRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Deleted rental period", "period_id", id, "actor", actor.Name)
	return nil
}

// NextPeriodStart continues after the latest period, or starts now when there is none.
func (s *periodCalendar) NextPeriodStart(ctx context.Context, orgID int32) (time.Time, error) {
	latest, err := s.periodRepo.Latest(ctx, orgID)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return s.now(), nil
	}
	return latest.End, nil
}

func (s *periodCalendar) SetDayConfig(ctx context.Context, actor domain.Actor, periodID int32, dc domain.DayConfig) (*domain.DayConfig, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutable(p, actor); err != nil {
		return nil, err
	}

	dc.PeriodID = p.ID
	dc.Normalize()
	if err := dc.Validate(); err != nil {
		return nil, err
	}

	if existing, ok := p.DayConfig(dc.Weekday); ok {
		dc.ID = existing.ID
		err = s.periodRepo.UpdateDayConfig(ctx, &dc)
	} else {
		err = s.periodRepo.CreateDayConfig(ctx, &dc)
	}
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// CreateDefaultDayConfigs fills in every weekday that has no configuration yet.
func (s *periodCalendar) CreateDefaultDayConfigs(ctx context.Context, actor domain.Actor, periodID int32) (int, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return 0, err
	}
	if err := s.requireMutable(p, actor); err != nil {
		return 0, err
	}

	created := 0
	for weekday := 1; weekday <= 7; weekday++ {
		if _, ok := p.DayConfig(weekday); ok {
			continue
		}
		dc := domain.DefaultDayConfig(p.ID, weekday)
		if err := s.periodRepo.CreateDayConfig(ctx, &dc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *periodCalendar) SetAllocation(ctx context.Context, actor domain.Actor, periodID int32, alloc domain.StockAllocation) (*domain.StockAllocation, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutable(p, actor); err != nil {
		return nil, err
	}

	var problems []string
	if len(alloc.ItemIDs) == 0 {
		problems = append(problems, "an allocation needs at least one item")
	}
	if alloc.TargetQuantity < 0 {
		problems = append(problems, "target quantity must not be negative")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError("invalid stock allocation", problems...)
	}

	for _, other := range p.Allocations {
		if other.ID == alloc.ID {
			continue
		}
		for _, itemID := range alloc.ItemIDs {
			if other.Covers(itemID) {
				return nil, domain.NewConflictError("stock allocation",
					"item %d is already allocated by allocation %d", itemID, other.ID)
			}
		}
	}

	alloc.PeriodID = p.ID
	if alloc.ID != 0 {
		err = s.periodRepo.UpdateAllocation(ctx, &alloc)
	} else {
		err = s.periodRepo.CreateAllocation(ctx, &alloc)
	}
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

// AutoConfigureAllocations creates a zero-target allocation for every storable
// item the period does not allocate yet.
func (s *periodCalendar) AutoConfigureAllocations(ctx context.Context, actor domain.Actor, periodID int32) (int, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return 0, err
	}
	if err := s.requireMutable(p, actor); err != nil {
		return 0, err
	}

	remaining, err := s.remainingItems(ctx, p)
	if err != nil {
		return 0, err
	}
	for i, itemID := range remaining {
		alloc := domain.StockAllocation{PeriodID: p.ID, ItemIDs: []int32{itemID}}
		if err := s.periodRepo.CreateAllocation(ctx, &alloc); err != nil {
			return i, err
		}
	}
	return len(remaining), nil
}

func (s *periodCalendar) RemainingItems(ctx context.Context, periodID int32) ([]int32, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return s.remainingItems(ctx, p)
}

func (s *periodCalendar) remainingItems(ctx context.Context, p *domain.RentalPeriod) ([]int32, error) {
	items, err := s.ledger.StorableItems(ctx, p.OrgID)
	if err != nil {
		return nil, domain.AsDependencyError("storable items", err)
	}
	var remaining []int32
	for _, itemID := range items {
		covered := false
		for i := range p.Allocations {
			if p.Allocations[i].Covers(itemID) {
				covered = true
				break
			}
		}
		if !covered {
			remaining = append(remaining, itemID)
		}
	}
	return remaining, nil
}

func (s *periodCalendar) ConfirmPeriod(ctx context.Context, actor domain.Actor, periodID int32) (*domain.RentalPeriod, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Confirmed() {
		return p, nil
	}

	var problems []string
	switch {
	case p.Start.IsZero() || p.End.IsZero():
		problems = append(problems, "start and end dates are required")
	case p.Start.After(p.End):
		problems = append(problems, "start must not be after end")
	}
	for weekday := 1; weekday <= 7; weekday++ {
		if _, ok := p.DayConfig(weekday); !ok {
			problems = append(problems, fmt.Sprintf("weekday %d has no day configuration", weekday))
		}
	}
	remaining, err := s.remainingItems(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		problems = append(problems, fmt.Sprintf("items %v have no stock allocation", remaining))
	}
	if p.MinimalDuration == nil || p.MinimalDuration.Value <= 0 {
		problems = append(problems, "a minimal duration is required")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("period %d cannot be confirmed", p.ID), problems...)
	}

	p.State = domain.PeriodStateConfirmed
	if err := s.periodRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	logger.Event(ctx, s.log, "period_confirmed", "org_id", p.OrgID, "period_id", p.ID, "actor", actor.Name)
	return p, nil
}

// UnlockPeriod reverts a confirmed period to draft after checking the override password.
func (s *periodCalendar) UnlockPeriod(ctx context.Context, actor domain.Actor, periodID int32, password string) (*domain.RentalPeriod, error) {
	if err := s.verifier.Verify(password); err != nil {
		return nil, err
	}
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !p.Confirmed() {
		return p, nil
	}

	p.State = domain.PeriodStateDraft
	if err := s.periodRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, p, domain.AuditActionPeriodUnlocked, "")
	logger.Event(ctx, s.log, "period_unlocked", "org_id", p.OrgID, "period_id", p.ID, "actor", actor.Name)
	return p, nil
}

func (s *periodCalendar) FindPeriod(ctx context.Context, orgID int32, at time.Time) (*domain.RentalPeriod, error) {
	return s.periodRepo.FindContaining(ctx, orgID, at)
}

// DayConfigFor maps the weekday of at, in the organization's timezone, to the
// period's configuration. It returns nil when the weekday is not configured.
func (s *periodCalendar) DayConfigFor(ctx context.Context, p *domain.RentalPeriod, at time.Time) (*domain.DayConfig, error) {
	_, loc, err := s.organization(ctx, p.OrgID)
	if err != nil {
		return nil, err
	}
	dc, _ := p.DayConfig(domain.ISOWeekday(at.In(loc)))
	return dc, nil
}

func (s *periodCalendar) MinimalDuration(ctx context.Context, orgID int32, at time.Time) (domain.MinimalDuration, *domain.RentalPeriod, error) {
	p, err := s.FindPeriod(ctx, orgID, at)
	if err != nil {
		return domain.MinimalDuration{}, nil, err
	}
	if p != nil && p.MinimalDuration != nil {
		return *p.MinimalDuration, p, nil
	}
	org, _, err := s.organization(ctx, orgID)
	if err != nil {
		return domain.MinimalDuration{}, nil, err
	}
	if org.DefaultMinimalDuration != nil {
		return *org.DefaultMinimalDuration, nil, nil
	}
	return s.defaults.MinimalDuration, nil, nil
}

func (s *periodCalendar) Constraints(ctx context.Context, orgID int32, referenceDate *time.Time) (*domain.Constraints, error) {
	ref := s.now()
	if referenceDate != nil {
		ref = *referenceDate
	}
	_, loc, err := s.organization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	periods, err := s.periodRepo.ListByOrg(ctx, orgID, false)
	if err != nil {
		return nil, err
	}

	dayStart := utils.StartOfDay(ref, loc)
	out := &domain.Constraints{
		Periods:        []domain.PeriodConstraints{},
		Timezone:       loc.String(),
		ReferenceDate:  ref,
		ClosedWeekdays: []int{},
	}
	for i := range periods {
		p := &periods[i]
		if p.End.Before(dayStart) {
			continue
		}
		pc := domain.PeriodConstraints{
			ID:              p.ID,
			Name:            p.Name,
			Start:           p.Start,
			End:             p.End,
			IsClosed:        p.IsClosed,
			Status:          p.Status(s.now()),
			MinimalDuration: p.MinimalDuration,
			DayConfigs:      make(map[int]domain.DayRules, len(p.DayConfigs)),
		}
		for _, dc := range p.DayConfigs {
			pc.DayConfigs[dc.Weekday] = domain.NewDayRules(dc)
		}
		out.Periods = append(out.Periods, pc)
	}

	md, source, err := s.MinimalDuration(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}
	out.MinimalDuration = md
	if source != nil {
		out.MinimalDurationStart = &source.Start
		out.MinimalDurationEnd = &source.End
	}

	current, err := s.FindPeriod(ctx, orgID, ref)
	if err != nil {
		return nil, err
	}
	if current != nil {
		for weekday := 1; weekday <= 7; weekday++ {
			if dc, ok := current.DayConfig(weekday); !ok || !dc.IsOpen {
				out.ClosedWeekdays = append(out.ClosedWeekdays, weekday)
			}
		}
	}
	return out, nil
}

// ValidateBooking lists every reason the pickup/return pair cannot be booked.
// An empty result means the booking respects the calendar.
func (s *periodCalendar) ValidateBooking(ctx context.Context, orgID int32, pickup, ret time.Time) ([]domain.BookingViolation, error) {
	_, loc, err := s.organization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	violations := []domain.BookingViolation{}
	if !ret.After(pickup) {
		violations = append(violations, domain.BookingViolation{Field: "return", Message: "return must be after pickup"})
	}

	check := func(field string, at time.Time, allowed func(*domain.DayConfig, *float64) bool) error {
		p, err := s.FindPeriod(ctx, orgID, at)
		if err != nil {
			return err
		}
		if p == nil {
			violations = append(violations, domain.BookingViolation{Field: field, Message: "no rental period covers this date"})
			return nil
		}
		local := at.In(loc)
		dc, ok := p.DayConfig(domain.ISOWeekday(local))
		if !ok || !dc.IsOpen {
			violations = append(violations, domain.BookingViolation{Field: field, Message: fmt.Sprintf("closed on %s", local.Weekday())})
			return nil
		}
		hour := domain.HourOfDay(local)
		if !allowed(dc, &hour) {
			violations = append(violations, domain.BookingViolation{Field: field, Message: fmt.Sprintf("%s not allowed at %s", field, local.Format("15:04"))})
		}
		return nil
	}
	if err := check("pickup", pickup, (*domain.DayConfig).IsPickupAllowed); err != nil {
		return nil, err
	}
	if err := check("return", ret, (*domain.DayConfig).IsReturnAllowed); err != nil {
		return nil, err
	}

	md, _, err := s.MinimalDuration(ctx, orgID, pickup)
	if err != nil {
		return nil, err
	}
	if ret.After(pickup) && !utils.SatisfiesMinimalDuration(pickup, ret, md) {
		violations = append(violations, domain.BookingViolation{Field: "return", Message: fmt.Sprintf("minimal rental duration is %s", md)})
	}
	return violations, nil
}

// requireMutable rejects writes to a confirmed period unless the actor is privileged.
func (s *periodCalendar) requireMutable(p *domain.RentalPeriod, actor domain.Actor) error {
	if p.Confirmed() && !actor.Privileged {
		return &domain.ImmutableError{Resource: "rental period", ID: int64(p.ID), Reason: "the period is confirmed"}
	}
	return nil
}

// checkOverlap compares p with the organization's other non-closed periods.
// Periods that only touch at an endpoint are accepted.
func (s *periodCalendar) checkOverlap(ctx context.Context, p *domain.RentalPeriod) error {
	others, err := s.periodRepo.ListByOrg(ctx, p.OrgID, false)
	if err != nil {
		return err
	}
	for i := range others {
		other := &others[i]
		if other.ID == p.ID {
			continue
		}
		if p.Overlaps(other) {
			return domain.NewConflictError("rental period", "%s to %s overlaps period %d (%s)",
				p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), other.ID, other.Name)
		}
	}
	return nil
}

func (s *periodCalendar) audit(ctx context.Context, actor domain.Actor, p *domain.RentalPeriod, action domain.AuditAction, note string) {
	entry := &domain.AuditEntry{
		OrgID:      p.OrgID,
		Actor:      actor.Name,
		Action:     action,
		TargetType: "rental_period",
		TargetID:   int64(p.ID),
		Note:       note,
		CreatedOn:  s.now(),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "Failed to write audit entry", "period_id", p.ID, "action", action, "error", err)
	}
}

func (s *periodCalendar) organization(ctx context.Context, orgID int32) (*domain.Organization, *time.Location, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	loc := s.defaults.Location
	if org.Timezone != "" {
		if l, err := time.LoadLocation(org.Timezone); err == nil {
			loc = l
		} else {
			s.log.WarnContext(ctx, "Unknown organization timezone, using default", "org_id", orgID, "timezone", org.Timezone)
		}
	}
	return org, loc, nil
}

func validatePeriodFields(p *domain.RentalPeriod) error {
	var problems []string
	if p.Start.IsZero() || p.End.IsZero() {
		problems = append(problems, "start and end dates are required")
	} else if p.Start.After(p.End) {
		problems = append(problems, "start must not be after end")
	}
	if md := p.MinimalDuration; md != nil {
		if md.Value <= 0 {
			problems = append(problems, "minimal duration must be positive")
		}
		if !md.Unit.Valid() {
			problems = append(problems, fmt.Sprintf("unknown minimal duration unit %q", md.Unit))
		}
	}
	if len(problems) > 0 {
		return domain.NewValidationError("invalid rental period", problems...)
	}
	return nil
}
