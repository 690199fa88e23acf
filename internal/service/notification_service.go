package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/events"
)

// Notifier delivers a message to an audience inside a tenant. The log
// notifier below is the default; a chat or webhook transport plugs in here.
type Notifier interface {
	Notify(ctx context.Context, tenantID, audience, message string) error
}

// LogNotifier writes notifications to the structured log. Used when no
// external delivery channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, tenantID, audience, message string) error {
	n.logger.Info("notification",
		zap.String("tenant_id", tenantID),
		zap.String("audience", audience),
		zap.String("message", message))
	return nil
}

// NotificationService turns lifecycle events into user-facing messages. It
// is a pure event consumer: a delivery failure is logged and dropped, it
// never feeds back into the transition that produced the event.
type NotificationService struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationService constructs the service and wires its handlers
// into the dispatcher.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger) *NotificationService {
	s := &NotificationService{notifier: notifier, logger: logger}
	dispatcher.Subscribe(events.EventTicketWarned, s.handleTicketWarned)
	dispatcher.Subscribe(events.EventTicketClosed, s.handleTicketClosed)
	dispatcher.Subscribe(events.EventForwardOffered, s.handleForwardOffered)
	dispatcher.Subscribe(events.EventForwardResolved, s.handleForwardResolved)
	dispatcher.Subscribe(events.EventEntitlementDowngraded, s.handleEntitlementDowngraded)
	return s
}

func (s *NotificationService) handleTicketWarned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketWarnedPayload)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("ticket #%d will be closed for inactivity at %s unless there is new activity",
		event.TicketID, payload.Deadline.UTC().Format("2006-01-02 15:04 MST"))
	return s.send(ctx, event.TenantID, payload.CreatorID, message)
}

func (s *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	if payload.Reason != domain.CloseReasonInactivity {
		return nil
	}
	message := fmt.Sprintf("ticket #%d was closed automatically due to inactivity", event.TicketID)
	return s.send(ctx, event.TenantID, payload.CreatorID, message)
}

func (s *NotificationService) handleForwardOffered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ForwardOfferedPayload)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("you have been offered ticket #%d, respond before %s",
		event.TicketID, payload.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	return s.send(ctx, event.TenantID, payload.TargetID, message)
}

func (s *NotificationService) handleForwardResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ForwardResolvedPayload)
	if !ok {
		return nil
	}
	var message string
	switch payload.Outcome {
	case domain.ForwardOfferAccepted:
		message = fmt.Sprintf("ticket #%d is now handled by a new staff member", event.TicketID)
	case domain.ForwardOfferDeclined:
		message = fmt.Sprintf("the forward offer for ticket #%d was declined", event.TicketID)
	case domain.ForwardOfferExpired:
		message = fmt.Sprintf("the forward offer for ticket #%d expired without a response", event.TicketID)
	default:
		return nil
	}
	return s.send(ctx, event.TenantID, "staff", message)
}

func (s *NotificationService) handleEntitlementDowngraded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EntitlementDowngradedPayload)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("your %s subscription ended, premium features are now disabled",
		domain.NameForTier(payload.PreviousTier))
	return s.send(ctx, event.TenantID, "admins", message)
}

func (s *NotificationService) send(ctx context.Context, tenantID, audience, message string) error {
	if err := s.notifier.Notify(ctx, tenantID, audience, message); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("tenant_id", tenantID),
			zap.String("audience", audience),
			zap.Error(err))
	}
	return nil
}
