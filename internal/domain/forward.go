package domain

import "time"

// ForwardOfferStatus enumerates offer outcomes.
type ForwardOfferStatus string

const (
	ForwardOfferPending  ForwardOfferStatus = "PENDING"
	ForwardOfferAccepted ForwardOfferStatus = "ACCEPTED"
	ForwardOfferDeclined ForwardOfferStatus = "DECLINED"
	ForwardOfferExpired  ForwardOfferStatus = "EXPIRED"
)

// ForwardOffer is a proposed handoff of claim ownership. The ticket is only
// reassigned when the target accepts; decline and expiry leave it unchanged.
type ForwardOffer struct {
	ID          string
	TenantID    string
	TicketID    int64
	FromID      string
	TargetID    string
	Reason      string
	Status      ForwardOfferStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RespondedAt *time.Time
}

// Lapsed reports whether a pending offer has passed its deadline.
func (o *ForwardOffer) Lapsed(now time.Time) bool {
	return o.Status == ForwardOfferPending && !o.ExpiresAt.After(now)
}
