package events

import (
	"time"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened           EventType = "ticket_opened"
	EventTicketClaimed          EventType = "ticket_claimed"
	EventTicketHidden           EventType = "ticket_hidden"
	EventTicketUnhidden         EventType = "ticket_unhidden"
	EventTicketBlocked          EventType = "ticket_blocked"
	EventTicketUnblocked        EventType = "ticket_unblocked"
	EventTicketSplit            EventType = "ticket_split"
	EventTicketPaused           EventType = "ticket_paused"
	EventTicketResumed          EventType = "ticket_resumed"
	EventTicketWarned           EventType = "ticket_warned"
	EventTicketClosed           EventType = "ticket_closed"
	EventTicketArchiveRequested EventType = "ticket_archive_requested"
	EventForwardOffered         EventType = "forward_offered"
	EventForwardResolved        EventType = "forward_resolved"
	EventEntitlementDowngraded  EventType = "entitlement_downgraded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	CreatorID string `json:"creator_id"`
	Topic     string `json:"topic"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	ClaimerID string `json:"claimer_id"`
}

// TicketWarnedPayload carries the auto-close deadline for the creator notice.
type TicketWarnedPayload struct {
	CreatorID string    `json:"creator_id"`
	Deadline  time.Time `json:"deadline"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	CreatorID string `json:"creator_id"`
	ClosedBy  string `json:"closed_by"`
	Reason    string `json:"reason,omitempty"`
}

// TicketArchivePayload marks the deferred channel archival side effect. A
// failure to archive never reverts the close that emitted it.
type TicketArchivePayload struct {
	ClosedAt time.Time `json:"closed_at"`
}

// TicketSplitPayload payload.
type TicketSplitPayload struct {
	ChildTicketID int64  `json:"child_ticket_id"`
	Reason        string `json:"reason,omitempty"`
}

// ForwardOfferedPayload payload.
type ForwardOfferedPayload struct {
	OfferID   string    `json:"offer_id"`
	TargetID  string    `json:"target_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ForwardResolvedPayload payload.
type ForwardResolvedPayload struct {
	OfferID    string                    `json:"offer_id"`
	Outcome    domain.ForwardOfferStatus `json:"outcome"`
	NewClaimer *string                   `json:"new_claimer,omitempty"`
}

// EntitlementDowngradedPayload payload.
type EntitlementDowngradedPayload struct {
	PreviousTier domain.Tier `json:"previous_tier"`
}
