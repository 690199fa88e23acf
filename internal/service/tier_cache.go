package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// ResolvedTierCache is consulted by tier resolution. Implementations must
// degrade failures to misses.
type ResolvedTierCache interface {
	Get(ctx context.Context, tenantID string) (*domain.ResolvedTier, bool)
	Set(ctx context.Context, tenantID string, resolved domain.ResolvedTier)
	Invalidate(ctx context.Context, tenantID string)
}

// TierCache caches resolved tiers in Redis. Resolution is the read-mostly
// hot path; every grant mutation invalidates the tenant's entry. A nil
// client or any Redis failure degrades to a cache miss.
type TierCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTierCache constructs the cache. client may be nil.
func NewTierCache(client *redis.Client, ttl time.Duration) *TierCache {
	return &TierCache{client: client, ttl: ttl}
}

func tierCacheKey(tenantID string) string {
	return "supportdesk:tier:" + tenantID
}

// Get returns the cached resolution for the tenant, if present.
func (c *TierCache) Get(ctx context.Context, tenantID string) (*domain.ResolvedTier, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, tierCacheKey(tenantID)).Bytes()
	if err != nil {
		return nil, false
	}
	var resolved domain.ResolvedTier
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return nil, false
	}
	return &resolved, true
}

// Set stores the resolution with the configured TTL.
func (c *TierCache) Set(ctx context.Context, tenantID string, resolved domain.ResolvedTier) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, tierCacheKey(tenantID), raw, c.ttl).Err()
}

// Invalidate drops the tenant's entry.
func (c *TierCache) Invalidate(ctx context.Context, tenantID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, tierCacheKey(tenantID)).Err()
}

var _ ResolvedTierCache = (*TierCache)(nil)
