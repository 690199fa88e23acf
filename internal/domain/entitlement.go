package domain

import "time"

// Tier is the named entitlement level for a tenant.
type Tier string

const (
	TierNone    Tier = "none"
	TierPro     Tier = "pro"
	TierBeta    Tier = "beta"
	TierPartner Tier = "partner"
)

// Feature is a closed enum of gateable feature keys. Keeping it typed means
// a misspelled key fails to compile instead of silently resolving false.
type Feature string

const (
	FeatureDepartments Feature = "departments"
	FeatureTags        Feature = "tags"
	FeatureForward     Feature = "forward"
	FeatureAnalytics   Feature = "analytics"
	FeatureWhiteLabel  Feature = "white_label"
)

// baselineFeatures is deliberately broad: only white-label branding is
// tier-exclusive.
var baselineFeatures = map[Feature]bool{
	FeatureDepartments: true,
	FeatureTags:        true,
	FeatureForward:     true,
	FeatureAnalytics:   true,
}

var premiumFeatures = map[Feature]bool{
	FeatureDepartments: true,
	FeatureTags:        true,
	FeatureForward:     true,
	FeatureAnalytics:   true,
	FeatureWhiteLabel:  true,
}

// tierFeatures maps each tier to its feature set. Partner intentionally maps
// to the baseline set: partner status is a recognition marker, not an
// entitlement boost.
var tierFeatures = map[Tier]map[Feature]bool{
	TierNone:    baselineFeatures,
	TierPro:     premiumFeatures,
	TierBeta:    premiumFeatures,
	TierPartner: baselineFeatures,
}

// TierHasFeature reports whether the tier's feature set includes the key.
// Unknown tiers and keys resolve false.
func TierHasFeature(tier Tier, feature Feature) bool {
	set, ok := tierFeatures[tier]
	if !ok {
		return false
	}
	return set[feature]
}

// ParseTier maps a wire string to a known tier.
func ParseTier(s string) (Tier, bool) {
	tier := Tier(s)
	_, ok := tierFeatures[tier]
	return tier, ok
}

// ParseFeature maps a wire string to a known feature key.
func ParseFeature(s string) (Feature, bool) {
	feature := Feature(s)
	return feature, premiumFeatures[feature]
}

// Grant is the stored entitlement record, at most one active per tenant.
type Grant struct {
	TenantID        string
	Tier            Tier
	ExpiresAt       *time.Time
	IsLifetime      bool
	IsTrial         bool
	IsBetatester    bool
	IsPartner       bool
	WillNotRenew    bool
	HadTrial        bool
	SubscriptionRef *string
	ActivatedAt     time.Time
	UpdatedAt       time.Time
}

// ResolvedTier is the read-time view of a tenant's entitlement. It is a pure
// function of the stored grant and the current clock.
type ResolvedTier struct {
	Tier       Tier
	TierName   string
	IsActive   bool
	IsLifetime bool
	IsTrial    bool
	ExpiresAt  *time.Time
}

var tierNames = map[Tier]string{
	TierNone:    "Free",
	TierPro:     "Pro",
	TierBeta:    "Beta Tester",
	TierPartner: "Partner",
}

// NameForTier returns the display name for a tier.
func NameForTier(tier Tier) string {
	if name, ok := tierNames[tier]; ok {
		return name
	}
	return tierNames[TierNone]
}
