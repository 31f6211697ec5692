package domain

import (
	"fmt"
	"time"
)

type DurationUnit string

const (
	DurationUnitHour DurationUnit = "hour"
	DurationUnitDay  DurationUnit = "day"
	DurationUnitWeek DurationUnit = "week"
)

func (u DurationUnit) Valid() bool {
	switch u {
	case DurationUnitHour, DurationUnitDay, DurationUnitWeek:
		return true
	}
	return false
}

// MinimalDuration is the shortest rental allowed while a period applies.
type MinimalDuration struct {
	Value int32        `json:"value" yaml:"value"`
	Unit  DurationUnit `json:"unit" yaml:"unit"`
}

func (d MinimalDuration) String() string {
	return fmt.Sprintf("%d %s", d.Value, d.Unit)
}

// PeriodState is the authored part of a period's lifecycle.
type PeriodState string

const (
	PeriodStateDraft     PeriodState = "draft"
	PeriodStateConfirmed PeriodState = "confirmed"
)

// PeriodStatus is the lifecycle status exposed to callers; active, past and
// closed are derived from the clock and the closed flag.
type PeriodStatus string

const (
	PeriodStatusDraft     PeriodStatus = "draft"
	PeriodStatusConfirmed PeriodStatus = "confirmed"
	PeriodStatusActive    PeriodStatus = "active"
	PeriodStatusPast      PeriodStatus = "past"
	PeriodStatusClosed    PeriodStatus = "closed"
)

type RentalPeriod struct {
	ID                int32             `json:"id"`
	OrgID             int32             `json:"org_id"`
	Name              string            `json:"name"`
	Start             time.Time         `json:"start"`
	End               time.Time         `json:"end"` // inclusive
	IsClosed          bool              `json:"is_closed"`
	MinimalDuration   *MinimalDuration  `json:"minimal_duration,omitempty"`
	State             PeriodState       `json:"state"`
	TransfersIssuedOn *time.Time        `json:"transfers_issued_on,omitempty"`
	DayConfigs        []DayConfig       `json:"day_configs,omitempty"`
	Allocations       []StockAllocation `json:"allocations,omitempty"`
	CreatedOn         time.Time         `json:"created_on"`
	UpdatedOn         time.Time         `json:"updated_on"`
}

func (p *RentalPeriod) Status(now time.Time) PeriodStatus {
	switch {
	case p.IsClosed:
		return PeriodStatusClosed
	case p.State != PeriodStateConfirmed:
		return PeriodStatusDraft
	case now.Before(p.Start):
		return PeriodStatusConfirmed
	case now.After(p.End):
		return PeriodStatusPast
	default:
		return PeriodStatusActive
	}
}

func (p *RentalPeriod) Confirmed() bool {
	return p.State == PeriodStateConfirmed
}

// Contains reports whether t falls inside the inclusive [Start, End] interval.
func (p *RentalPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Overlaps reports a real overlap; periods that only touch at an endpoint do not overlap.
func (p *RentalPeriod) Overlaps(other *RentalPeriod) bool {
	return other.Start.Before(p.End) && other.End.After(p.Start)
}

// DayConfig returns the configuration registered for the weekday, if any.
func (p *RentalPeriod) DayConfig(weekday int) (*DayConfig, bool) {
	for i := range p.DayConfigs {
		if p.DayConfigs[i].Weekday == weekday {
			return &p.DayConfigs[i], true
		}
	}
	return nil, false
}

// StockAllocation is the quantity of each listed item to keep outside the
// overflow location while the period applies.
type StockAllocation struct {
	ID             int32   `json:"id"`
	PeriodID       int32   `json:"period_id"`
	ItemIDs        []int32 `json:"item_ids"`
	TargetQuantity int32   `json:"target_quantity"`
}

func (a *StockAllocation) Covers(itemID int32) bool {
	for _, id := range a.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}
