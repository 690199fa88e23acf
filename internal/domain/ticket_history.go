package domain

import "time"

// TicketAction names an applied transition in the audit trail.
type TicketAction string

const (
	ActionOpened         TicketAction = "OPENED"
	ActionClaimed        TicketAction = "CLAIMED"
	ActionForwardOffered TicketAction = "FORWARD_OFFERED"
	ActionForwarded      TicketAction = "FORWARDED"
	ActionHidden         TicketAction = "HIDDEN"
	ActionUnhidden       TicketAction = "UNHIDDEN"
	ActionBlocked        TicketAction = "BLOCKED"
	ActionUnblocked      TicketAction = "UNBLOCKED"
	ActionSplit          TicketAction = "SPLIT"
	ActionPaused         TicketAction = "PAUSED"
	ActionResumed        TicketAction = "RESUMED"
	ActionWarned         TicketAction = "WARNED"
	ActionClosed         TicketAction = "CLOSED"
)

// TicketHistory is an append-only audit trail entry. Entries are written in
// the order transitions are applied and never mutated.
type TicketHistory struct {
	ID        string
	TenantID  string
	TicketID  int64
	Action    TicketAction
	ActorID   string
	Reason    string
	CreatedAt time.Time
}
