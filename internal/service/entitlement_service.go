package service

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/events"
	"github.com/spec-kit/supportdesk/internal/repository"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// EntitlementService resolves effective tiers and mutates grants. Resolution
// is a pure function of the stored grant and the clock; expiry is computed at
// read time and only the cancellation sweep persists a downgrade eagerly.
type EntitlementService struct {
	grants     repository.GrantRepository
	cache      ResolvedTierCache
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
	cfg        config.EntitlementConfig
}

// EntitlementDependencies bundles collaborators for the service.
type EntitlementDependencies struct {
	GrantRepo  repository.GrantRepository
	Cache      ResolvedTierCache
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// ActivateOptions describe the grant being activated.
type ActivateOptions struct {
	ExpiresAt       *time.Time
	Lifetime        bool
	Trial           bool
	Betatester      bool
	Partner         bool
	SubscriptionRef *string
}

// NewEntitlementService constructs the service.
func NewEntitlementService(cfg config.EntitlementConfig, deps EntitlementDependencies) *EntitlementService {
	c := deps.Clock
	if c == nil {
		c = clock.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := deps.Cache
	if cache == nil {
		cache = (*TierCache)(nil)
	}
	return &EntitlementService{
		grants:     deps.GrantRepo,
		cache:      cache,
		dispatcher: deps.Dispatcher,
		clock:      c,
		logger:     logger,
		cfg:        cfg,
	}
}

// ResolveTier returns the effective tier for a tenant. It never fails: a
// missing or unreadable grant resolves to the baseline tier.
func (s *EntitlementService) ResolveTier(ctx context.Context, tenantID string) domain.ResolvedTier {
	// Precedence 1: the operator's own support tenant is always entitled.
	if s.cfg.SupportTenantID != "" && tenantID == s.cfg.SupportTenantID {
		return domain.ResolvedTier{
			Tier:       domain.TierPro,
			TierName:   domain.NameForTier(domain.TierPro),
			IsActive:   true,
			IsLifetime: true,
		}
	}

	// A cached entry can outlive the grant's expiry by up to the cache TTL,
	// so hits re-check expiry before being served.
	if cached, ok := s.cache.Get(ctx, tenantID); ok && !cacheEntryStale(cached, s.clock.Now()) {
		return *cached
	}

	grant, err := s.grants.Get(ctx, tenantID)
	if err != nil || grant == nil {
		return noneTier()
	}

	resolved := s.resolveGrant(grant)
	s.cache.Set(ctx, tenantID, resolved)
	return resolved
}

func (s *EntitlementService) resolveGrant(grant *domain.Grant) domain.ResolvedTier {
	now := s.clock.Now()

	// Precedence 2: lifetime ignores expiry entirely.
	if grant.IsLifetime {
		tier := grant.Tier
		if !knownTier(tier) || tier == domain.TierNone {
			tier = domain.TierPro
		}
		return domain.ResolvedTier{
			Tier:       tier,
			TierName:   domain.NameForTier(tier),
			IsActive:   true,
			IsLifetime: true,
		}
	}

	// Precedence 3: partner is a recognition marker. Active for display,
	// baseline feature set.
	if grant.IsPartner {
		return domain.ResolvedTier{
			Tier:      domain.TierPartner,
			TierName:  domain.NameForTier(domain.TierPartner),
			IsActive:  true,
			ExpiresAt: grant.ExpiresAt,
		}
	}

	expired := grant.ExpiresAt == nil || !grant.ExpiresAt.After(now)
	if expired || !knownTier(grant.Tier) || grant.Tier == domain.TierNone {
		return noneTier()
	}

	// Precedence 4: betatester gets the full feature set until expiry.
	if grant.IsBetatester {
		return domain.ResolvedTier{
			Tier:      domain.TierBeta,
			TierName:  domain.NameForTier(domain.TierBeta),
			IsActive:  true,
			ExpiresAt: grant.ExpiresAt,
		}
	}

	// Precedence 5 and 6: paid tier, optionally trial-flagged.
	return domain.ResolvedTier{
		Tier:      domain.TierPro,
		TierName:  domain.NameForTier(domain.TierPro),
		IsActive:  true,
		IsTrial:   grant.IsTrial,
		ExpiresAt: grant.ExpiresAt,
	}
}

// HasFeature reports whether the tenant's effective tier includes the
// feature. Unknown keys resolve false.
func (s *EntitlementService) HasFeature(ctx context.Context, tenantID string, feature domain.Feature) bool {
	resolved := s.ResolveTier(ctx, tenantID)
	return domain.TierHasFeature(resolved.Tier, feature)
}

// ActivateGrant creates or replaces the tenant's grant.
func (s *EntitlementService) ActivateGrant(ctx context.Context, tenantID string, tier domain.Tier, opts ActivateOptions) (*domain.Grant, error) {
	if !knownTier(tier) {
		return nil, apperrors.NewValidationError("unknown tier", map[string]any{"tier": tier})
	}
	now := s.clock.Now()

	existing, err := s.grants.Get(ctx, tenantID)
	if err != nil && !isNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	hadTrial := existing != nil && existing.HadTrial
	if opts.Trial {
		if hadTrial {
			return nil, apperrors.NewConflict("trial_already_used", map[string]any{"tenant_id": tenantID})
		}
		if opts.ExpiresAt == nil {
			deadline := now.Add(time.Duration(s.cfg.TrialDays) * 24 * time.Hour)
			opts.ExpiresAt = &deadline
		}
	}

	grant := &domain.Grant{
		TenantID:        tenantID,
		Tier:            tier,
		ExpiresAt:       opts.ExpiresAt,
		IsLifetime:      opts.Lifetime,
		IsTrial:         opts.Trial,
		IsBetatester:    opts.Betatester,
		IsPartner:       opts.Partner,
		HadTrial:        hadTrial || opts.Trial,
		SubscriptionRef: opts.SubscriptionRef,
		ActivatedAt:     now,
		UpdatedAt:       now,
	}
	if err := s.grants.Save(ctx, grant); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.cache.Invalidate(ctx, tenantID)
	return grant, nil
}

// DeactivateGrant removes the entitlement immediately. The sticky had-trial
// marker survives so a later trial activation is still refused.
func (s *EntitlementService) DeactivateGrant(ctx context.Context, tenantID string) error {
	grant, err := s.activeGrant(ctx, tenantID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	cleared := &domain.Grant{
		TenantID:    tenantID,
		Tier:        domain.TierNone,
		HadTrial:    grant.HadTrial,
		ActivatedAt: grant.ActivatedAt,
		UpdatedAt:   now,
	}
	if err := s.grants.Save(ctx, cleared); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.cache.Invalidate(ctx, tenantID)
	return nil
}

// RenewGrant extends the expiry by the configured renewal period and clears
// a pending cancellation.
func (s *EntitlementService) RenewGrant(ctx context.Context, tenantID string) (*domain.Grant, error) {
	grant, err := s.activeGrant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if grant.IsLifetime {
		return grant, nil
	}
	now := s.clock.Now()
	base := now
	if grant.ExpiresAt != nil && grant.ExpiresAt.After(now) {
		base = *grant.ExpiresAt
	}
	deadline := base.Add(time.Duration(s.cfg.RenewalDays) * 24 * time.Hour)
	grant.ExpiresAt = &deadline
	grant.WillNotRenew = false
	grant.UpdatedAt = now
	if err := s.grants.Save(ctx, grant); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.cache.Invalidate(ctx, tenantID)
	return grant, nil
}

// DowngradeGrant drops the tenant to the baseline tier immediately.
func (s *EntitlementService) DowngradeGrant(ctx context.Context, tenantID string) error {
	grant, err := s.activeGrant(ctx, tenantID)
	if err != nil {
		return err
	}
	s.downgrade(grant)
	grant.UpdatedAt = s.clock.Now()
	if err := s.grants.Save(ctx, grant); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.cache.Invalidate(ctx, tenantID)
	return nil
}

// CancelGrant is a soft cancel: the tier stays active until its expiry, the
// cancellation sweep performs the eventual downgrade.
func (s *EntitlementService) CancelGrant(ctx context.Context, tenantID string) (*domain.Grant, error) {
	grant, err := s.activeGrant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if grant.IsLifetime {
		return nil, apperrors.NewConflict("lifetime_cannot_cancel", map[string]any{"tenant_id": tenantID})
	}
	grant.WillNotRenew = true
	grant.UpdatedAt = s.clock.Now()
	if err := s.grants.Save(ctx, grant); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.cache.Invalidate(ctx, tenantID)
	return grant, nil
}

// SweepExpiredCancellations downgrades every will-not-renew grant whose
// expiry has passed and returns the affected tenants for notification.
func (s *EntitlementService) SweepExpiredCancellations(ctx context.Context) ([]string, error) {
	now := s.clock.Now()
	expired, err := s.grants.ListExpiredCancellations(ctx, now)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	var affected []string
	for i := range expired {
		grant := expired[i]
		previous := grant.Tier
		s.downgrade(&grant)
		grant.UpdatedAt = now
		if err := s.grants.Save(ctx, &grant); err != nil {
			s.logger.Error("downgrade failed", zap.String("tenant_id", grant.TenantID), zap.Error(err))
			continue
		}
		s.cache.Invalidate(ctx, grant.TenantID)
		affected = append(affected, grant.TenantID)
		s.publish(ctx, events.Event{
			Type:     events.EventEntitlementDowngraded,
			TenantID: grant.TenantID,
			Payload:  events.EntitlementDowngradedPayload{PreviousTier: previous},
		})
	}
	return affected, nil
}

func (s *EntitlementService) downgrade(grant *domain.Grant) {
	grant.Tier = domain.TierNone
	grant.ExpiresAt = nil
	grant.IsTrial = false
	grant.IsBetatester = false
	grant.WillNotRenew = false
	grant.SubscriptionRef = nil
}

func (s *EntitlementService) activeGrant(ctx context.Context, tenantID string) (*domain.Grant, error) {
	grant, err := s.grants.Get(ctx, tenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewConflict("no_active_grant", map[string]any{"tenant_id": tenantID})
		}
		return nil, apperrors.MapError(err)
	}
	if grant.Tier == domain.TierNone && !grant.IsLifetime && !grant.IsPartner {
		return nil, apperrors.NewConflict("no_active_grant", map[string]any{"tenant_id": tenantID})
	}
	return grant, nil
}

func (s *EntitlementService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func noneTier() domain.ResolvedTier {
	return domain.ResolvedTier{
		Tier:     domain.TierNone,
		TierName: domain.NameForTier(domain.TierNone),
	}
}

func cacheEntryStale(resolved *domain.ResolvedTier, now time.Time) bool {
	return !resolved.IsLifetime && resolved.ExpiresAt != nil && !resolved.ExpiresAt.After(now)
}

func knownTier(tier domain.Tier) bool {
	switch tier {
	case domain.TierNone, domain.TierPro, domain.TierBeta, domain.TierPartner:
		return true
	}
	return false
}
