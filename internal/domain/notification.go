package domain

import "time"

// OperatorTask is the daily shortfall summary raised for an organization's operators.
// One task exists per organization and day; MovementIDs accumulates the movements
// reported that day so a movement is never reported twice on the same day.
type OperatorTask struct {
	ID          int32             `json:"id"`
	OrgID       int32             `json:"org_id"`
	Day         string            `json:"day"` // YYYY-MM-DD
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	MovementIDs []int64           `json:"movement_ids"`
	Attributes  map[string]string `json:"attributes"`
	CreatedOn   time.Time         `json:"created_on"`
	UpdatedOn   time.Time         `json:"updated_on"`
}

type AuditAction string

const (
	AuditActionMovementUnlocked AuditAction = "movement_unlocked"
	AuditActionMovementRelocked AuditAction = "movement_relocked"
	AuditActionPeriodUnlocked   AuditAction = "period_unlocked"
	AuditActionPeriodOverridden AuditAction = "period_overridden"
)

// AuditEntry records who bypassed a lock, on what, and when.
type AuditEntry struct {
	ID         int64       `json:"id"`
	OrgID      int32       `json:"org_id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	TargetType string      `json:"target_type"`
	TargetID   int64       `json:"target_id"`
	Note       string      `json:"note"`
	CreatedOn  time.Time   `json:"created_on"`
}

// Actor is the operator performing a configuration change.
type Actor struct {
	Name       string `json:"name"`
	Privileged bool   `json:"privileged"`
}
