package dto

import "time"

// ActivateGrantRequest activates or replaces a tenant grant.
type ActivateGrantRequest struct {
	Tier            string     `json:"tier"`
	Trial           bool       `json:"trial"`
	Lifetime        bool       `json:"lifetime"`
	Betatester      bool       `json:"betatester"`
	Partner         bool       `json:"partner"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	SubscriptionRef string     `json:"subscription_ref,omitempty"`
}

// ResolvedTierResponse is the resolver output shape.
type ResolvedTierResponse struct {
	Tier        string     `json:"tier"`
	DisplayName string     `json:"display_name"`
	Active      bool       `json:"active"`
	IsTrial     bool       `json:"is_trial"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// FeatureCheckResponse reports one feature gate.
type FeatureCheckResponse struct {
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
}
