package domain

import (
	"slices"
	"time"
)

// TicketStatus enumerates lifecycle states. Closing is terminal: a closed
// ticket never returns to OPEN. Hidden, blocked and auto-close pause are
// orthogonal flags layered on top of OPEN, not statuses.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// Ticket priorities select which role groups may view a ticket. They are
// visibility inputs, not lifecycle states.
const (
	PriorityNormal   = 0
	PriorityElevated = 1
	PriorityCritical = 2
)

// CloseReasonInactivity marks closes triggered by the auto-close sweep.
const CloseReasonInactivity = "inactivity"

// Ticket is the aggregate for a single support conversation. IDs are
// tenant-scoped, sequential and never reused.
type Ticket struct {
	ID                   int64
	TenantID             string
	CreatorID            string
	ClaimerID            *string
	Topic                string
	Status               TicketStatus
	Priority             int
	Hidden               bool
	Blocked              bool
	AddedParticipants    []string
	VisibleRoles         []Role
	LastActivityAt       time.Time
	AutoCloseWarningSent bool
	WarnedAt             *time.Time
	AutoClosePaused      bool
	PausedBy             *string
	PausedAt             *time.Time
	Department           *string
	Tags                 []string
	SplitFrom            *int64
	SplitTo              []int64
	CreatedAt            time.Time
	ClosedAt             *time.Time
	ClosedBy             *string
	CloseReason          string
}

// IsOpen reports whether lifecycle transitions are still possible.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// IsParticipant reports whether id is the creator, the claimer or an
// explicitly added participant.
func (t *Ticket) IsParticipant(id string) bool {
	if id == t.CreatorID {
		return true
	}
	if t.ClaimerID != nil && *t.ClaimerID == id {
		return true
	}
	return slices.Contains(t.AddedParticipants, id)
}

// VisibleTo applies the visibility rule: a hidden ticket is restricted to
// its participants regardless of role, otherwise role groups derived from
// priority also see it.
func (t *Ticket) VisibleTo(actor Actor) bool {
	if t.IsParticipant(actor.ID) {
		return true
	}
	if t.Hidden {
		return false
	}
	return slices.Contains(t.VisibleRoles, actor.Role)
}

// RolesForPriority maps a ticket priority to the role groups granted
// visibility when the ticket is not hidden.
func RolesForPriority(priority int) []Role {
	switch priority {
	case PriorityCritical:
		return []Role{RoleAdmin}
	case PriorityElevated:
		return []Role{RoleStaff, RoleAdmin}
	default:
		return []Role{RoleUser, RoleStaff, RoleAdmin}
	}
}

// Touch refreshes the activity clock. Refreshing always clears a previously
// sent auto-close warning.
func (t *Ticket) Touch(now time.Time) {
	t.LastActivityAt = now
	t.AutoCloseWarningSent = false
	t.WarnedAt = nil
}
