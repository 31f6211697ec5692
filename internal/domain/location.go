package domain

type LocationRole string

const (
	LocationRolePrimary      LocationRole = "primary"
	LocationRoleOverflow     LocationRole = "overflow"
	LocationRoleUnclassified LocationRole = "unclassified"
)

// Exclusive reports whether at most one location per organization may hold the role.
func (r LocationRole) Exclusive() bool {
	return r == LocationRolePrimary || r == LocationRoleOverflow
}

func (r LocationRole) Valid() bool {
	switch r {
	case LocationRolePrimary, LocationRoleOverflow, LocationRoleUnclassified:
		return true
	}
	return false
}

type Location struct {
	ID        int32        `json:"id"`
	OrgID     int32        `json:"org_id"`
	Name      string       `json:"name"`
	Role      LocationRole `json:"role"`
	UpdatedOn string       `json:"updated_on"`
}
