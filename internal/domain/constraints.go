package domain

import "time"

// WindowRule is the pickup or return rule of one weekday.
type WindowRule struct {
	Allowed bool    `json:"allowed"`
	From    float64 `json:"from"`
	To      float64 `json:"to"`
}

type DayRules struct {
	IsOpen bool       `json:"is_open"`
	Pickup WindowRule `json:"pickup"`
	Return WindowRule `json:"return"`
}

type PeriodConstraints struct {
	ID              int32            `json:"id"`
	Name            string           `json:"name"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	IsClosed        bool             `json:"is_closed"`
	Status          PeriodStatus     `json:"status"`
	MinimalDuration *MinimalDuration `json:"minimal_duration,omitempty"`
	DayConfigs      map[int]DayRules `json:"day_configs"`
}

// Constraints is everything a booking front end needs to offer valid dates.
type Constraints struct {
	Periods         []PeriodConstraints `json:"periods"`
	Timezone        string              `json:"timezone"`
	ReferenceDate   time.Time           `json:"reference_date"`
	MinimalDuration MinimalDuration     `json:"minimal_duration"`
	// Bounds of the period the minimal duration comes from, when one applies.
	MinimalDurationStart *time.Time `json:"minimal_duration_start,omitempty"`
	MinimalDurationEnd   *time.Time `json:"minimal_duration_end,omitempty"`
	ClosedWeekdays       []int      `json:"closed_weekdays"`
}

func NewDayRules(dc DayConfig) DayRules {
	return DayRules{
		IsOpen: dc.IsOpen,
		Pickup: WindowRule{Allowed: dc.AllowPickup, From: dc.PickupFrom, To: dc.PickupTo},
		Return: WindowRule{Allowed: dc.AllowReturn, From: dc.ReturnFrom, To: dc.ReturnTo},
	}
}

// BookingViolation names one reason a requested pickup/return pair is not allowed.
type BookingViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
