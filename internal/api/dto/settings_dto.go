package dto

import "time"

// UpdateSettingsRequest updates the tenant's auto-close knobs. Omitted
// fields stay unchanged.
type UpdateSettingsRequest struct {
	AutoCloseEnabled    *bool `json:"auto_close_enabled,omitempty"`
	CloseThresholdHours *int  `json:"close_threshold_hours,omitempty"`
	WarnWindowHours     *int  `json:"warn_window_hours,omitempty"`
}

// RotateAPIKeyRequest stores a new tenant API key.
type RotateAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SettingsResponse is the effective settings shape.
type SettingsResponse struct {
	AutoCloseEnabled    bool      `json:"auto_close_enabled"`
	CloseThresholdHours float64   `json:"close_threshold_hours"`
	WarnWindowHours     float64   `json:"warn_window_hours"`
	HasAPIKey           bool      `json:"has_api_key"`
	UpdatedAt           time.Time `json:"updated_at"`
}
