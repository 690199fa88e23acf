package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/repository"
	"github.com/spec-kit/supportdesk/internal/service"
)

// AutoCloseSweep walks every open ticket, warns the ones nearing the
// inactivity threshold and closes the ones past it. All mutation goes
// through the ticket service so warned and closed tickets accrue history
// and events like any other transition.
type AutoCloseSweep struct {
	tickets  repository.TicketRepository
	tickSvc  *service.TicketService
	settings *service.SettingsService
	logger   *zap.Logger
	cfg      config.AutoCloseConfig
	botID    string
}

// NewAutoCloseSweep constructs the sweep.
func NewAutoCloseSweep(cfg config.AutoCloseConfig, botID string, tickets repository.TicketRepository, tickSvc *service.TicketService, settings *service.SettingsService, logger *zap.Logger) *AutoCloseSweep {
	return &AutoCloseSweep{
		tickets:  tickets,
		tickSvc:  tickSvc,
		settings: settings,
		logger:   logger,
		cfg:      cfg,
		botID:    botID,
	}
}

// Run performs one pass. Per-ticket failures are logged and skipped so one
// bad record never stalls the rest of the sweep.
func (s *AutoCloseSweep) Run(ctx context.Context, now time.Time) (int, error) {
	open, err := s.tickets.ListOpenAll(ctx)
	if err != nil {
		return 0, err
	}

	// Tenant settings are read once per tenant per pass.
	tenantSettings := make(map[string]*domain.TenantSettings)
	affected := 0
	for i := range open {
		ticket := &open[i]
		if ticket.AutoClosePaused || ticket.Priority >= s.cfg.ExemptPriority {
			continue
		}
		settings, ok := tenantSettings[ticket.TenantID]
		if !ok {
			settings, err = s.settings.Effective(ctx, ticket.TenantID)
			if err != nil {
				s.logger.Warn("tenant settings unavailable, skipping tenant",
					zap.String("tenant_id", ticket.TenantID),
					zap.Error(err))
				tenantSettings[ticket.TenantID] = nil
				continue
			}
			tenantSettings[ticket.TenantID] = settings
		}
		if settings == nil || !settings.AutoCloseEnabled {
			continue
		}

		stale := now.Sub(ticket.LastActivityAt)
		deadline := ticket.LastActivityAt.Add(settings.CloseThreshold)
		switch {
		case stale >= settings.CloseThreshold:
			bot := domain.Actor{ID: s.botID, Role: domain.RoleAdmin}
			if _, err := s.tickSvc.Close(ctx, ticket.TenantID, ticket.ID, bot, domain.CloseReasonInactivity); err != nil {
				s.logger.Warn("auto-close failed",
					zap.String("tenant_id", ticket.TenantID),
					zap.Int64("ticket_id", ticket.ID),
					zap.Error(err))
				continue
			}
			affected++
		case stale >= settings.CloseThreshold-settings.WarnWindow && !ticket.AutoCloseWarningSent:
			if err := s.tickSvc.WarnAutoClose(ctx, ticket.TenantID, ticket.ID, deadline); err != nil {
				s.logger.Warn("auto-close warning failed",
					zap.String("tenant_id", ticket.TenantID),
					zap.Int64("ticket_id", ticket.ID),
					zap.Error(err))
				continue
			}
			affected++
		}
	}
	return affected, nil
}
