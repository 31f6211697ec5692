package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rentstock-backend/internal/domain"
)

const DayLayout = "2006-01-02"

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// In returns midnight of the date in loc
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		// Check for leap year
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// Months with 30 days: April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// ParseInstant accepts RFC 3339 timestamps or yyyy-mm-dd dates (midnight in loc)
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: expected RFC 3339 or yyyy-mm-dd", s)
	}
	return d.In(loc), nil
}

// StartOfDay returns local midnight of the day containing t
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// DayKey formats the local day of t as yyyy-mm-dd
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// AddMinimalDuration returns the earliest return instant for a rental starting at t.
// Days and weeks are calendar days, so a DST shift does not move the hour.
func AddMinimalDuration(t time.Time, d domain.MinimalDuration) time.Time {
	switch d.Unit {
	case domain.DurationUnitHour:
		return t.Add(time.Duration(d.Value) * time.Hour)
	case domain.DurationUnitWeek:
		return t.AddDate(0, 0, 7*int(d.Value))
	default:
		return t.AddDate(0, 0, int(d.Value))
	}
}

// SatisfiesMinimalDuration reports whether [pickup, ret] lasts at least d
func SatisfiesMinimalDuration(pickup, ret time.Time, d domain.MinimalDuration) bool {
	return !ret.Before(AddMinimalDuration(pickup, d))
}
