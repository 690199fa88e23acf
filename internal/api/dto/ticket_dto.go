package dto

import "time"

// OpenTicketRequest opens a ticket.
type OpenTicketRequest struct {
	Topic    string `json:"topic"`
	Priority int    `json:"priority"`
}

// ForwardRequest proposes a claim handoff.
type ForwardRequest struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

// ForwardRespondRequest resolves a pending offer.
type ForwardRespondRequest struct {
	Accept bool `json:"accept"`
}

// SplitRequest splits a ticket.
type SplitRequest struct {
	Reason string `json:"reason"`
}

// CloseTicketRequest closes a ticket.
type CloseTicketRequest struct {
	Reason string `json:"reason"`
}

// TicketSummary is the list/detail shape for a ticket.
type TicketSummary struct {
	ID                   int64      `json:"id"`
	CreatorID            string     `json:"creator_id"`
	ClaimerID            *string    `json:"claimer_id,omitempty"`
	Topic                string     `json:"topic"`
	Status               string     `json:"status"`
	Priority             int        `json:"priority"`
	Hidden               bool       `json:"hidden"`
	Blocked              bool       `json:"blocked"`
	AutoClosePaused      bool       `json:"auto_close_paused"`
	AutoCloseWarningSent bool       `json:"auto_close_warning_sent"`
	SplitFrom            *int64     `json:"split_from,omitempty"`
	SplitTo              []int64    `json:"split_to,omitempty"`
	LastActivityAt       time.Time  `json:"last_activity_at"`
	CreatedAt            time.Time  `json:"created_at"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
	CloseReason          string     `json:"close_reason,omitempty"`
}

// ForwardOfferResponse is the offer shape.
type ForwardOfferResponse struct {
	ID          string     `json:"id"`
	TicketID    int64      `json:"ticket_id"`
	FromID      string     `json:"from_id"`
	TargetID    string     `json:"target_id"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// HistoryEntry is one audit trail record.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
