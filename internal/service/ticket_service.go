package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/events"
	"github.com/spec-kit/supportdesk/internal/observability"
	"github.com/spec-kit/supportdesk/internal/repository"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// TicketService is the single mutation authority for tickets: every
// lifecycle transition funnels through it, nothing mutates a ticket record
// directly. Guard failures come back as typed taxonomy errors; a storage
// failure means the transition was not applied.
type TicketService struct {
	tickets      repository.TicketRepository
	history      repository.TicketHistoryRepository
	offers       repository.ForwardOfferRepository
	blacklist    *BlacklistService
	entitlements *EntitlementService
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	clock        clock.Clock
	logger       *zap.Logger
	cfg          config.TicketsConfig
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	HistoryRepo  repository.TicketHistoryRepository
	OfferRepo    repository.ForwardOfferRepository
	Blacklist    *BlacklistService
	Entitlements *EntitlementService
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Clock        clock.Clock
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.TicketsConfig, deps TicketDependencies) *TicketService {
	c := deps.Clock
	if c == nil {
		c = clock.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:      deps.TicketRepo,
		history:      deps.HistoryRepo,
		offers:       deps.OfferRepo,
		blacklist:    deps.Blacklist,
		entitlements: deps.Entitlements,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		clock:        c,
		logger:       logger,
		cfg:          cfg,
	}
}

// OpenInput describes a ticket creation request.
type OpenInput struct {
	CreatorID string
	Topic     string
	Priority  int
}

// Open creates a ticket after the blacklist and open-cap guards pass.
func (s *TicketService) Open(ctx context.Context, tenantID string, input OpenInput) (*domain.Ticket, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, apperrors.NewValidationError("topic required", nil)
	}
	if input.Priority < domain.PriorityNormal || input.Priority > domain.PriorityCritical {
		return nil, apperrors.NewValidationError("priority out of range", map[string]any{"priority": input.Priority})
	}
	if entry, ok := s.blacklist.Lookup(ctx, tenantID, input.CreatorID); ok {
		return nil, apperrors.NewDomainError(apperrors.CodePermission, "user is blacklisted", 403,
			map[string]any{"reason": entry.Reason})
	}
	if s.cfg.MaxOpenPerCreator > 0 {
		count, err := s.tickets.CountOpenByCreator(ctx, tenantID, input.CreatorID)
		if err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		if count >= s.cfg.MaxOpenPerCreator {
			return nil, apperrors.NewConflict("open_ticket_limit", map[string]any{"limit": s.cfg.MaxOpenPerCreator})
		}
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		TenantID:       tenantID,
		CreatorID:      input.CreatorID,
		Topic:          topic,
		Status:         domain.TicketStatusOpen,
		Priority:       input.Priority,
		VisibleRoles:   domain.RolesForPriority(input.Priority),
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionOpened, input.CreatorID, "")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketOpened,
		TenantID: tenantID,
		TicketID: ticket.ID,
		ActorID:  input.CreatorID,
		Payload:  events.TicketOpenedPayload{CreatorID: input.CreatorID, Topic: topic},
	})
	return ticket, nil
}

// Claim exclusively assigns the actor as handler. First writer wins: the
// store's conditional write decides races, the loser gets a conflict.
func (s *TicketService) Claim(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("staff required")
	}
	if err := s.tickets.Claim(ctx, tenantID, ticketID, actor.ID, s.clock.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, apperrors.NewConflict("already_claimed", map[string]any{"ticket_id": ticketID})
		case isNotFound(err):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		default:
			return nil, apperrors.NewStorageError(err)
		}
	}
	ticket, err := s.tickets.Get(ctx, tenantID, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.record(ctx, ticket, domain.ActionClaimed, actor.ID, "")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		TenantID: tenantID,
		TicketID: ticketID,
		ActorID:  actor.ID,
		Payload:  events.TicketClaimedPayload{ClaimerID: actor.ID},
	})
	return ticket, nil
}

// Forward proposes a claim handoff. Nothing changes on the ticket until the
// target accepts; the offer lapses silently after its deadline.
func (s *TicketService) Forward(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor, targetID, reason string) (*domain.ForwardOffer, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ClaimerID == nil || *ticket.ClaimerID != actor.ID {
		return nil, apperrors.NewPermissionDenied("only the claimer may forward")
	}
	if !s.entitlements.HasFeature(ctx, tenantID, domain.FeatureForward) {
		return nil, apperrors.NewEntitlementRequired(string(domain.FeatureForward))
	}
	// Invalid targets are rejected before any state mutation.
	switch targetID {
	case "":
		return nil, apperrors.NewValidationError("target required", nil)
	case actor.ID:
		return nil, apperrors.NewValidationError("cannot forward to yourself", nil)
	case ticket.CreatorID:
		return nil, apperrors.NewValidationError("cannot forward to the ticket creator", nil)
	case s.cfg.BotUserID:
		return nil, apperrors.NewValidationError("cannot forward to the bot", nil)
	}
	if existing, err := s.offers.GetPendingByTicket(ctx, tenantID, ticketID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("forward_already_pending", map[string]any{"offer_id": existing.ID})
	} else if err != nil && !isNotFound(err) {
		return nil, apperrors.NewStorageError(err)
	}

	now := s.clock.Now()
	offer := &domain.ForwardOffer{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		TicketID:  ticketID,
		FromID:    actor.ID,
		TargetID:  targetID,
		Reason:    strings.TrimSpace(reason),
		Status:    domain.ForwardOfferPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ForwardOfferTTL),
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionForwardOffered, actor.ID, "target="+targetID)
	s.publish(ctx, events.Event{
		Type:     events.EventForwardOffered,
		TenantID: tenantID,
		TicketID: ticketID,
		ActorID:  actor.ID,
		Payload:  events.ForwardOfferedPayload{OfferID: offer.ID, TargetID: targetID, ExpiresAt: offer.ExpiresAt},
	})
	return offer, nil
}

// RespondForward resolves a pending offer. Accept atomically reassigns the
// claimer; decline leaves the ticket untouched.
func (s *TicketService) RespondForward(ctx context.Context, offerID string, actor domain.Actor, accept bool) (*domain.ForwardOffer, error) {
	offer, err := s.offers.Get(ctx, offerID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("forward offer", map[string]any{"offer_id": offerID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	if offer.TargetID != actor.ID {
		return nil, apperrors.NewPermissionDenied("only the offer target may respond")
	}
	if offer.Status != domain.ForwardOfferPending {
		return nil, apperrors.NewConflict("offer_already_resolved", map[string]any{"status": offer.Status})
	}
	now := s.clock.Now()
	if offer.Lapsed(now) {
		s.expireOffer(ctx, offer, now)
		return nil, apperrors.NewConflict("offer_expired", map[string]any{"offer_id": offerID})
	}

	if !accept {
		offer.Status = domain.ForwardOfferDeclined
		offer.RespondedAt = &now
		if err := s.offers.Update(ctx, offer); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		s.publish(ctx, events.Event{
			Type:     events.EventForwardResolved,
			TenantID: offer.TenantID,
			TicketID: offer.TicketID,
			ActorID:  actor.ID,
			Payload:  events.ForwardResolvedPayload{OfferID: offer.ID, Outcome: domain.ForwardOfferDeclined},
		})
		return offer, nil
	}

	ticket, err := s.getOpen(ctx, offer.TenantID, offer.TicketID)
	if err != nil {
		return nil, err
	}
	claimer := actor.ID
	ticket.ClaimerID = &claimer
	// Recompute role visibility. The hidden flag survives the handoff: a
	// hidden ticket stays restricted to creator, claimer and added
	// participants.
	if ticket.Hidden {
		ticket.VisibleRoles = nil
	} else {
		ticket.VisibleRoles = domain.RolesForPriority(ticket.Priority)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	offer.Status = domain.ForwardOfferAccepted
	offer.RespondedAt = &now
	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionForwarded, actor.ID, "from="+offer.FromID)
	s.publish(ctx, events.Event{
		Type:     events.EventForwardResolved,
		TenantID: offer.TenantID,
		TicketID: offer.TicketID,
		ActorID:  actor.ID,
		Payload:  events.ForwardResolvedPayload{OfferID: offer.ID, Outcome: domain.ForwardOfferAccepted, NewClaimer: &claimer},
	})
	return offer, nil
}

// Hide restricts visibility to creator, claimer and added participants.
func (s *TicketService) Hide(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireClaimer(ticket, actor); err != nil {
		return nil, err
	}
	if ticket.Hidden {
		return nil, apperrors.NewConflict("already_hidden", nil)
	}
	ticket.Hidden = true
	ticket.VisibleRoles = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionHidden, actor.ID, "")
	s.publish(ctx, events.Event{Type: events.EventTicketHidden, TenantID: tenantID, TicketID: ticketID, ActorID: actor.ID})
	return ticket, nil
}

// Unhide restores role-group visibility derived from the ticket priority.
func (s *TicketService) Unhide(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireClaimer(ticket, actor); err != nil {
		return nil, err
	}
	if !ticket.Hidden {
		return nil, apperrors.NewConflict("not_hidden", nil)
	}
	ticket.Hidden = false
	ticket.VisibleRoles = domain.RolesForPriority(ticket.Priority)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionUnhidden, actor.ID, "")
	s.publish(ctx, events.Event{Type: events.EventTicketUnhidden, TenantID: tenantID, TicketID: ticketID, ActorID: actor.ID})
	return ticket, nil
}

// Block stops all participants from posting. Independent of hide.
func (s *TicketService) Block(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	return s.setBlocked(ctx, tenantID, ticketID, actor, true)
}

// Unblock lifts a block.
func (s *TicketService) Unblock(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	return s.setBlocked(ctx, tenantID, ticketID, actor, false)
}

func (s *TicketService) setBlocked(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor, blocked bool) (*domain.Ticket, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	isClaimer := ticket.ClaimerID != nil && *ticket.ClaimerID == actor.ID
	if !isClaimer && !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("claimer or staff required")
	}
	if ticket.Blocked == blocked {
		if blocked {
			return nil, apperrors.NewConflict("already_blocked", nil)
		}
		return nil, apperrors.NewConflict("not_blocked", nil)
	}
	ticket.Blocked = blocked
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	action := domain.ActionBlocked
	eventType := events.EventTicketBlocked
	if !blocked {
		action = domain.ActionUnblocked
		eventType = events.EventTicketUnblocked
	}
	s.record(ctx, ticket, action, actor.ID, "")
	s.publish(ctx, events.Event{Type: eventType, TenantID: tenantID, TicketID: ticketID, ActorID: actor.ID})
	return ticket, nil
}

// Split creates a child ticket linked to the parent. The child copies the
// creator and participants; links form a tree by construction since a child
// references exactly one parent.
func (s *TicketService) Split(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor, reason string) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("staff required")
	}
	parent, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	parentID := parent.ID
	child := &domain.Ticket{
		TenantID:          tenantID,
		CreatorID:         parent.CreatorID,
		Topic:             parent.Topic,
		Status:            domain.TicketStatusOpen,
		Priority:          parent.Priority,
		Hidden:            parent.Hidden,
		AddedParticipants: append([]string{}, parent.AddedParticipants...),
		LastActivityAt:    now,
		CreatedAt:         now,
		SplitFrom:         &parentID,
	}
	if !child.Hidden {
		child.VisibleRoles = domain.RolesForPriority(child.Priority)
	}
	if err := s.tickets.Create(ctx, child); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	parent.SplitTo = append(parent.SplitTo, child.ID)
	if err := s.tickets.Update(ctx, parent); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, parent, domain.ActionSplit, actor.ID, reason)
	s.record(ctx, child, domain.ActionOpened, actor.ID, "split from parent")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketSplit,
		TenantID: tenantID,
		TicketID: parent.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketSplitPayload{ChildTicketID: child.ID, Reason: reason},
	})
	return child, nil
}

// PauseAutoClose freezes staleness accrual. Pausing twice is a reported
// no-op, the first pause's state survives.
func (s *TicketService) PauseAutoClose(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireStaffOrCreator(ticket, actor); err != nil {
		return nil, err
	}
	if ticket.AutoClosePaused {
		return nil, apperrors.NewConflict("already_paused", nil)
	}
	now := s.clock.Now()
	by := actor.ID
	ticket.AutoClosePaused = true
	ticket.PausedBy = &by
	ticket.PausedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionPaused, actor.ID, "")
	s.publish(ctx, events.Event{Type: events.EventTicketPaused, TenantID: tenantID, TicketID: ticketID, ActorID: actor.ID})
	return ticket, nil
}

// ResumeAutoClose restarts the staleness clock with a full fresh window and
// clears a previously sent warning.
func (s *TicketService) ResumeAutoClose(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireStaffOrCreator(ticket, actor); err != nil {
		return nil, err
	}
	if !ticket.AutoClosePaused {
		return nil, apperrors.NewConflict("not_paused", nil)
	}
	ticket.AutoClosePaused = false
	ticket.PausedBy = nil
	ticket.PausedAt = nil
	ticket.Touch(s.clock.Now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionResumed, actor.ID, "")
	s.publish(ctx, events.Event{Type: events.EventTicketResumed, TenantID: tenantID, TicketID: ticketID, ActorID: actor.ID})
	return ticket, nil
}

// RecordActivity refreshes the activity clock on message traffic. Blocked
// tickets accept no posts.
func (s *TicketService) RecordActivity(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) error {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if ticket.Blocked {
		return apperrors.NewPermissionDenied("ticket is blocked")
	}
	ticket.Touch(s.clock.Now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

// WarnAutoClose marks the pre-close warning. Scheduler-only; the warning
// flag prevents duplicates until the activity clock is refreshed.
func (s *TicketService) WarnAutoClose(ctx context.Context, tenantID string, ticketID int64, deadline time.Time) error {
	ticket, err := s.getOpen(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if ticket.AutoClosePaused {
		return apperrors.NewConflict("autoclose_paused", nil)
	}
	if ticket.AutoCloseWarningSent {
		return apperrors.NewConflict("warning_already_sent", nil)
	}
	now := s.clock.Now()
	ticket.AutoCloseWarningSent = true
	ticket.WarnedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.record(ctx, ticket, domain.ActionWarned, s.cfg.BotUserID, "")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketWarned,
		TenantID: tenantID,
		TicketID: ticketID,
		Payload:  events.TicketWarnedPayload{CreatorID: ticket.CreatorID, Deadline: deadline},
	})
	return nil
}

// Close terminates the ticket. Closing is terminal: the conditional write
// refuses a second close and nothing ever reopens the record.
func (s *TicketService) Close(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor, reason string) (*domain.Ticket, error) {
	if err := s.tickets.Close(ctx, tenantID, ticketID, actor.ID, reason, s.clock.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClosed):
			return nil, apperrors.NewConflict("already_closed", map[string]any{"ticket_id": ticketID})
		case isNotFound(err):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		default:
			return nil, apperrors.NewStorageError(err)
		}
	}
	ticket, err := s.tickets.Get(ctx, tenantID, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.record(ctx, ticket, domain.ActionClosed, actor.ID, reason)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TenantID: tenantID,
		TicketID: ticketID,
		ActorID:  actor.ID,
		Payload:  events.TicketClosedPayload{CreatorID: ticket.CreatorID, ClosedBy: actor.ID, Reason: reason},
	})
	// Channel archival is a deferred side effect: it rides its own event so
	// an archival failure can never revert the committed close.
	s.publish(ctx, events.Event{
		Type:     events.EventTicketArchiveRequested,
		TenantID: tenantID,
		TicketID: ticketID,
		Payload:  events.TicketArchivePayload{ClosedAt: *ticket.ClosedAt},
	})
	return ticket, nil
}

// Get returns the ticket when visible to the actor.
func (s *TicketService) Get(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, tenantID, ticketID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	if !ticket.VisibleTo(actor) {
		return nil, apperrors.NewPermissionDenied("access denied")
	}
	return ticket, nil
}

// List returns the tenant's tickets visible to the actor.
func (s *TicketService) List(ctx context.Context, tenantID string, actor domain.Actor, includeClosed bool, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByTenant(ctx, tenantID, includeClosed, limit, offset)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	visible := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if tickets[i].VisibleTo(actor) {
			visible = append(visible, tickets[i])
		}
	}
	return visible, nil
}

// History returns the audit trail for a visible ticket.
func (s *TicketService) History(ctx context.Context, tenantID string, ticketID int64, actor domain.Actor, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, tenantID, ticketID, actor); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, tenantID, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return entries, nil
}

// ExpireForwardOffer lapses a pending offer to no-change. Scheduler-only.
func (s *TicketService) ExpireForwardOffer(ctx context.Context, offer *domain.ForwardOffer) error {
	return s.expireOffer(ctx, offer, s.clock.Now())
}

func (s *TicketService) expireOffer(ctx context.Context, offer *domain.ForwardOffer, now time.Time) error {
	offer.Status = domain.ForwardOfferExpired
	offer.RespondedAt = &now
	if err := s.offers.Update(ctx, offer); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventForwardResolved,
		TenantID: offer.TenantID,
		TicketID: offer.TicketID,
		Payload:  events.ForwardResolvedPayload{OfferID: offer.ID, Outcome: domain.ForwardOfferExpired},
	})
	return nil
}

func (s *TicketService) getOpen(ctx context.Context, tenantID string, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, tenantID, ticketID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	if !ticket.IsOpen() {
		return nil, apperrors.NewConflict("ticket_closed", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) record(ctx context.Context, ticket *domain.Ticket, action domain.TicketAction, actorID, reason string) {
	s.metrics.RecordTransition(string(action))
	entry := &domain.TicketHistory{
		ID:        uuid.NewString(),
		TenantID:  ticket.TenantID,
		TicketID:  ticket.ID,
		Action:    action,
		ActorID:   actorID,
		Reason:    reason,
		CreatedAt: s.clock.Now(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("history append failed",
			zap.String("tenant_id", ticket.TenantID),
			zap.Int64("ticket_id", ticket.ID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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

func requireClaimer(ticket *domain.Ticket, actor domain.Actor) error {
	if ticket.ClaimerID == nil || *ticket.ClaimerID != actor.ID {
		return apperrors.NewPermissionDenied("claimer required")
	}
	return nil
}

func requireStaffOrCreator(ticket *domain.Ticket, actor domain.Actor) error {
	if actor.IsStaff() || actor.ID == ticket.CreatorID {
		return nil
	}
	return apperrors.NewPermissionDenied("staff or creator required")
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
