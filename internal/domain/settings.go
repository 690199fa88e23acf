package domain

import "time"

// TenantSettings holds the per-tenant knobs the core reads from the config
// store. Zero-valued durations fall back to service-wide defaults.
type TenantSettings struct {
	TenantID         string
	AutoCloseEnabled bool
	CloseThreshold   time.Duration
	WarnWindow       time.Duration
	APIKeyHash       string
	UpdatedAt        time.Time
}

// DefaultSettings returns the settings applied to tenants without a stored
// record.
func DefaultSettings(tenantID string) *TenantSettings {
	return &TenantSettings{
		TenantID:         tenantID,
		AutoCloseEnabled: true,
	}
}
