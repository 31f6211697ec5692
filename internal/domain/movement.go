package domain

import "time"

type MovementState string

const (
	MovementStatePending           MovementState = "pending"
	MovementStatePartiallyReserved MovementState = "partially_reserved"
	MovementStateDone              MovementState = "done"
	MovementStateCancelled         MovementState = "cancelled"
)

// OpenMovementStates are the states of a movement that has not completed yet.
var OpenMovementStates = []MovementState{MovementStatePending, MovementStatePartiallyReserved}

// Direction is a movement's orientation relative to the overflow location.
type Direction string

const (
	DirectionIntoOverflow  Direction = "into_overflow"
	DirectionOutOfOverflow Direction = "out_of_overflow"
	DirectionNone          Direction = "none"
)

// Movement is a stock transfer between two locations of the transfer ledger.
// Virtual movements are synthesized by the failed-transfer detector and never
// persisted; OriginID then points at the real movement they compensate.
type Movement struct {
	ID               int64         `json:"id"`
	OrgID            int32         `json:"org_id"`
	ItemID           int32         `json:"item_id"`
	Quantity         int32         `json:"quantity"`
	ReservedQuantity int32         `json:"reserved_quantity"`
	SourceID         int32         `json:"source_id"`
	DestinationID    int32         `json:"destination_id"`
	ScheduledAt      time.Time     `json:"scheduled_at"`
	State            MovementState `json:"state"`
	Reference        string        `json:"reference"`
	PeriodID         *int32        `json:"period_id,omitempty"` // set on period-managed movements
	Locked           bool          `json:"locked"`
	Note             string        `json:"note,omitempty"`
	Virtual          bool          `json:"virtual"`
	OriginID         int64         `json:"origin_id,omitempty"`
}

func (m *Movement) Open() bool {
	return m.State == MovementStatePending || m.State == MovementStatePartiallyReserved
}

func (m *Movement) PeriodManaged() bool {
	return m.PeriodID != nil
}

// Shortage is the part of the movement that is not covered by a reservation.
func (m *Movement) Shortage() int32 {
	if s := m.Quantity - m.ReservedQuantity; s > 0 {
		return s
	}
	return 0
}

// DirectionRelativeTo classifies the movement against the overflow location.
// Movements internal to the overflow location, or unrelated to it, have no direction.
func (m *Movement) DirectionRelativeTo(overflowID int32) Direction {
	switch {
	case m.DestinationID == overflowID && m.SourceID != overflowID:
		return DirectionIntoOverflow
	case m.SourceID == overflowID && m.DestinationID != overflowID:
		return DirectionOutOfOverflow
	default:
		return DirectionNone
	}
}

// MovementFilter narrows a ledger movement query. Zero values do not filter.
type MovementFilter struct {
	OrgID       int32
	ItemID      int32
	LocationIDs []int32 // source or destination among these
	States      []MovementState
	From        *time.Time
	To          *time.Time
}

// MovementRequest describes a real movement to create in the ledger.
type MovementRequest struct {
	OrgID         int32
	ItemID        int32
	Quantity      int32
	SourceID      int32
	DestinationID int32
	ScheduledAt   time.Time
	Reference     string
	PeriodID      *int32
	Locked        bool
}

// ShortfallWarning reports a movement that missed its schedule without being
// fully reserved. It is data for the reconciliation worker, not an error.
type ShortfallWarning struct {
	Movement   Movement  `json:"movement"`
	Shortage   int32     `json:"shortage"`
	DetectedAt time.Time `json:"detected_at"`
}

// LocationSnapshot is the live stock of an item at one location.
type LocationSnapshot struct {
	LocationID int32 `json:"location_id"`
	OnHand     int32 `json:"on_hand"`
	InRent     int32 `json:"in_rent"` // reserved for rentals
}

func (s LocationSnapshot) Total() int32 {
	return s.OnHand + s.InRent
}
