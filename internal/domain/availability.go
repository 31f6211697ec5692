package domain

import "time"

// AvailabilityInterval is the rentable quantity of an item over the half-open range [Start, End).
type AvailabilityInterval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Quantity int32     `json:"quantity"`
}

// Overlaps reports whether the sub-interval [start, end) overlaps i: either
// bound falls inside i, or [start, end) contains i entirely.
func (i AvailabilityInterval) Overlaps(start, end time.Time) bool {
	startInside := !start.Before(i.Start) && start.Before(i.End)
	endInside := end.After(i.Start) && !end.After(i.End)
	contains := !i.Start.Before(start) && !i.End.After(end)
	return startInside || endInside || contains
}
