package dto

import "time"

// BlacklistRequest adds a user to the tenant blacklist.
type BlacklistRequest struct {
	Reason          string `json:"reason"`
	Permanent       bool   `json:"permanent"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// BlacklistEntryResponse is one blacklist record.
type BlacklistEntryResponse struct {
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason,omitempty"`
	AddedBy   string     `json:"added_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
