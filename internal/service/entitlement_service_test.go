package service

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/events"
	"github.com/spec-kit/supportdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

func newEntitlementFixture(mock *clock.Mock) (*EntitlementService, *memory.GrantRepository, events.Dispatcher) {
	grants := memory.NewGrantRepository()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewEntitlementService(config.EntitlementConfig{
		SupportTenantID: "tenant-support",
		TrialDays:       14,
		RenewalDays:     30,
	}, EntitlementDependencies{
		GrantRepo:  grants,
		Dispatcher: dispatcher,
		Clock:      mock,
	})
	return svc, grants, dispatcher
}

func TestResolveTierMissingGrantIsNone(t *testing.T) {
	svc, _, _ := newEntitlementFixture(clock.NewMock())

	resolved := svc.ResolveTier(context.Background(), "tenant-1")

	assert.Equal(t, domain.TierNone, resolved.Tier)
	assert.False(t, resolved.IsActive)
	assert.Equal(t, "Free", resolved.TierName)
}

func TestResolveTierSupportTenantOverride(t *testing.T) {
	svc, _, _ := newEntitlementFixture(clock.NewMock())

	resolved := svc.ResolveTier(context.Background(), "tenant-support")

	assert.Equal(t, domain.TierPro, resolved.Tier)
	assert.True(t, resolved.IsActive)
	assert.True(t, resolved.IsLifetime)
}

func TestResolveTierLifetimeIgnoresExpiry(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	past := mock.Now().Add(-time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{
		Lifetime:  true,
		ExpiresAt: &past,
	})
	require.NoError(t, err)

	resolved := svc.ResolveTier(ctx, "tenant-1")
	assert.Equal(t, domain.TierPro, resolved.Tier)
	assert.True(t, resolved.IsActive)
	assert.True(t, resolved.IsLifetime)
}

func TestResolveTierExpiredGrantReadsAsNone(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	deadline := mock.Now().Add(24 * time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &deadline})
	require.NoError(t, err)

	assert.Equal(t, domain.TierPro, svc.ResolveTier(ctx, "tenant-1").Tier)

	mock.Add(25 * time.Hour)
	resolved := svc.ResolveTier(ctx, "tenant-1")
	assert.Equal(t, domain.TierNone, resolved.Tier)
	assert.False(t, resolved.IsActive)
}

func TestResolveTierPartnerIsActiveWithBaselineFeatures(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPartner, ActivateOptions{Partner: true})
	require.NoError(t, err)

	resolved := svc.ResolveTier(ctx, "tenant-1")
	assert.Equal(t, domain.TierPartner, resolved.Tier)
	assert.True(t, resolved.IsActive)
	assert.False(t, svc.HasFeature(ctx, "tenant-1", domain.FeatureWhiteLabel))
	assert.True(t, svc.HasFeature(ctx, "tenant-1", domain.FeatureForward))
}

func TestResolveTierBetatesterBeforePro(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	deadline := mock.Now().Add(30 * 24 * time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierBeta, ActivateOptions{
		Betatester: true,
		ExpiresAt:  &deadline,
	})
	require.NoError(t, err)

	resolved := svc.ResolveTier(ctx, "tenant-1")
	assert.Equal(t, domain.TierBeta, resolved.Tier)
	assert.True(t, svc.HasFeature(ctx, "tenant-1", domain.FeatureWhiteLabel))
}

// mapTierCache is an in-process ResolvedTierCache for resolution tests.
type mapTierCache struct {
	entries map[string]domain.ResolvedTier
	hits    int
}

func newMapTierCache() *mapTierCache {
	return &mapTierCache{entries: make(map[string]domain.ResolvedTier)}
}

func (c *mapTierCache) Get(_ context.Context, tenantID string) (*domain.ResolvedTier, bool) {
	resolved, ok := c.entries[tenantID]
	if !ok {
		return nil, false
	}
	c.hits++
	return &resolved, true
}

func (c *mapTierCache) Set(_ context.Context, tenantID string, resolved domain.ResolvedTier) {
	c.entries[tenantID] = resolved
}

func (c *mapTierCache) Invalidate(_ context.Context, tenantID string) {
	delete(c.entries, tenantID)
}

func TestResolveTierCacheHitRechecksExpiry(t *testing.T) {
	mock := clock.NewMock()
	cache := newMapTierCache()
	svc := NewEntitlementService(config.EntitlementConfig{
		TrialDays:   14,
		RenewalDays: 30,
	}, EntitlementDependencies{
		GrantRepo:  memory.NewGrantRepository(),
		Cache:      cache,
		Dispatcher: events.NewInMemoryDispatcher(),
		Clock:      mock,
	})
	ctx := context.Background()

	deadline := mock.Now().Add(time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &deadline})
	require.NoError(t, err)

	assert.Equal(t, domain.TierPro, svc.ResolveTier(ctx, "tenant-1").Tier)
	assert.Equal(t, domain.TierPro, svc.ResolveTier(ctx, "tenant-1").Tier)
	assert.Equal(t, 1, cache.hits)

	// A cached entry must not keep the tier active past the grant's expiry.
	mock.Add(2 * time.Hour)
	resolved := svc.ResolveTier(ctx, "tenant-1")
	assert.Equal(t, domain.TierNone, resolved.Tier)
	assert.False(t, resolved.IsActive)
}

func TestActivateGrantRefreshesActivationTime(t *testing.T) {
	mock := clock.NewMock()
	svc, grants, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	deadline := mock.Now().Add(30 * 24 * time.Hour)
	first, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &deadline})
	require.NoError(t, err)

	mock.Add(48 * time.Hour)
	later := mock.Now().Add(30 * 24 * time.Hour)
	_, err = svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &later})
	require.NoError(t, err)

	stored, err := grants.Get(ctx, "tenant-1")
	require.NoError(t, err)
	assert.True(t, stored.ActivatedAt.After(first.ActivatedAt))
	assert.Equal(t, mock.Now(), stored.ActivatedAt)
}

func TestTrialDefaultsExpiryAndIsSticky(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	grant, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{Trial: true})
	require.NoError(t, err)
	require.NotNil(t, grant.ExpiresAt)
	assert.Equal(t, mock.Now().Add(14*24*time.Hour), *grant.ExpiresAt)
	assert.True(t, svc.ResolveTier(ctx, "tenant-1").IsTrial)

	require.NoError(t, svc.DeactivateGrant(ctx, "tenant-1"))

	_, err = svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{Trial: true})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestRenewExtendsFromCurrentExpiry(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	deadline := mock.Now().Add(10 * 24 * time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &deadline})
	require.NoError(t, err)

	grant, err := svc.RenewGrant(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, grant.ExpiresAt)
	assert.Equal(t, deadline.Add(30*24*time.Hour), *grant.ExpiresAt)
}

func TestCancelIsSoftUntilSweep(t *testing.T) {
	mock := clock.NewMock()
	svc, _, dispatcher := newEntitlementFixture(mock)
	ctx := context.Background()

	var downgraded []string
	dispatcher.Subscribe(events.EventEntitlementDowngraded, func(_ context.Context, e events.Event) error {
		downgraded = append(downgraded, e.TenantID)
		return nil
	})

	deadline := mock.Now().Add(5 * 24 * time.Hour)
	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{ExpiresAt: &deadline})
	require.NoError(t, err)

	grant, err := svc.CancelGrant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.True(t, grant.WillNotRenew)

	// Still active until the paid period runs out.
	assert.Equal(t, domain.TierPro, svc.ResolveTier(ctx, "tenant-1").Tier)

	affected, err := svc.SweepExpiredCancellations(ctx)
	require.NoError(t, err)
	assert.Empty(t, affected)

	mock.Add(6 * 24 * time.Hour)
	affected, err = svc.SweepExpiredCancellations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-1"}, affected)
	assert.Equal(t, []string{"tenant-1"}, downgraded)
	assert.Equal(t, domain.TierNone, svc.ResolveTier(ctx, "tenant-1").Tier)
}

func TestCancelLifetimeRefused(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{Lifetime: true})
	require.NoError(t, err)

	_, err = svc.CancelGrant(ctx, "tenant-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestRenewWithoutGrantConflicts(t *testing.T) {
	svc, _, _ := newEntitlementFixture(clock.NewMock())

	_, err := svc.RenewGrant(context.Background(), "tenant-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestHasFeatureUnknownKeyFalse(t *testing.T) {
	mock := clock.NewMock()
	svc, _, _ := newEntitlementFixture(mock)
	ctx := context.Background()

	_, err := svc.ActivateGrant(ctx, "tenant-1", domain.TierPro, ActivateOptions{Lifetime: true})
	require.NoError(t, err)

	assert.False(t, svc.HasFeature(ctx, "tenant-1", domain.Feature("crystal_ball")))
}
