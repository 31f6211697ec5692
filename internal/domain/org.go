package domain

type Organization struct {
	ID                     int32            `json:"id"`
	Name                   string           `json:"name"`
	Timezone               string           `json:"timezone"`
	DefaultMinimalDuration *MinimalDuration `json:"default_minimal_duration,omitempty"` // nil falls back to the configured default
	OperatorEmails         []string         `json:"operator_emails"`
	CreatedOn              string           `json:"created_on"`
}
