package domain

import (
	"fmt"
	"time"
)

// Default opening hours, expressed as fractional hours of the local day.
const (
	DefaultPickupFrom = 9.75
	DefaultPickupTo   = 14.25
	DefaultReturnFrom = 17.5
	DefaultReturnTo   = 18.5
)

// DayConfig holds the opening rules of one weekday (1 = Monday .. 7 = Sunday) inside a period.
type DayConfig struct {
	ID          int32   `json:"id"`
	PeriodID    int32   `json:"period_id"`
	Weekday     int     `json:"weekday"`
	IsOpen      bool    `json:"is_open"`
	AllowPickup bool    `json:"allow_pickup"`
	PickupFrom  float64 `json:"pickup_from"`
	PickupTo    float64 `json:"pickup_to"`
	AllowReturn bool    `json:"allow_return"`
	ReturnFrom  float64 `json:"return_from"`
	ReturnTo    float64 `json:"return_to"`
}

// ISOWeekday maps t's weekday to 1 (Monday) .. 7 (Sunday).
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// HourOfDay returns the fractional hour of t in its own location.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// DefaultDayConfig returns the configuration created for a weekday that has none:
// open on weekdays, closed on weekends.
func DefaultDayConfig(periodID int32, weekday int) DayConfig {
	dc := DayConfig{
		PeriodID:    periodID,
		Weekday:     weekday,
		IsOpen:      weekday <= 5,
		AllowPickup: true,
		PickupFrom:  DefaultPickupFrom,
		PickupTo:    DefaultPickupTo,
		AllowReturn: true,
		ReturnFrom:  DefaultReturnFrom,
		ReturnTo:    DefaultReturnTo,
	}
	dc.Normalize()
	return dc
}

// Normalize clears pickup and return settings that cannot apply: a closed day
// allows neither, and a disallowed action keeps no hours.
func (d *DayConfig) Normalize() {
	if !d.IsOpen {
		d.AllowPickup = false
		d.AllowReturn = false
	}
	if !d.AllowPickup {
		d.PickupFrom, d.PickupTo = 0, 0
	}
	if !d.AllowReturn {
		d.ReturnFrom, d.ReturnTo = 0, 0
	}
}

func (d *DayConfig) Validate() error {
	var problems []string
	if d.Weekday < 1 || d.Weekday > 7 {
		problems = append(problems, fmt.Sprintf("weekday %d out of range 1..7", d.Weekday))
	}
	if d.AllowPickup {
		problems = append(problems, checkWindow("pickup", d.PickupFrom, d.PickupTo)...)
	}
	if d.AllowReturn {
		problems = append(problems, checkWindow("return", d.ReturnFrom, d.ReturnTo)...)
	}
	if len(problems) > 0 {
		return NewValidationError("invalid day configuration", problems...)
	}
	return nil
}

func checkWindow(name string, from, to float64) []string {
	var problems []string
	if from < 0 || to > 24 {
		problems = append(problems, fmt.Sprintf("%s hours must lie within 0..24", name))
	}
	if from >= to {
		problems = append(problems, fmt.Sprintf("%s start hour must be before its end hour", name))
	}
	return problems
}

// IsPickupAllowed reports whether a pickup may happen on this day. When hour is
// non-nil it must also fall inside the inclusive pickup window.
func (d *DayConfig) IsPickupAllowed(hour *float64) bool {
	if !d.IsOpen || !d.AllowPickup {
		return false
	}
	if hour != nil {
		return d.PickupFrom <= *hour && *hour <= d.PickupTo
	}
	return true
}

func (d *DayConfig) IsReturnAllowed(hour *float64) bool {
	if !d.IsOpen || !d.AllowReturn {
		return false
	}
	if hour != nil {
		return d.ReturnFrom <= *hour && *hour <= d.ReturnTo
	}
	return true
}
