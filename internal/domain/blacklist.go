package domain

import "time"

// BlacklistEntry bars a user from opening tickets in a tenant. Entries are
// unique per tenant+user; non-permanent entries lapse at ExpiresAt and are
// evicted lazily on read.
type BlacklistEntry struct {
	TenantID      string
	UserID        string
	Reason        string
	IsPermanent   bool
	BlacklistedAt time.Time
	BlacklistedBy string
	ExpiresAt     *time.Time
}

// Expired reports whether a non-permanent entry has lapsed.
func (e *BlacklistEntry) Expired(now time.Time) bool {
	if e.IsPermanent || e.ExpiresAt == nil {
		return false
	}
	return !e.ExpiresAt.After(now)
}
