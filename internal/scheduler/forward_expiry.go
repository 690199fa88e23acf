package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/repository"
	"github.com/spec-kit/supportdesk/internal/service"
)

// ForwardExpirySweep lapses pending forward offers past their deadline.
// Expiry is a no-change outcome: the ticket keeps its current claimer.
type ForwardExpirySweep struct {
	offers  repository.ForwardOfferRepository
	tickSvc *service.TicketService
	logger  *zap.Logger
}

// NewForwardExpirySweep constructs the sweep.
func NewForwardExpirySweep(offers repository.ForwardOfferRepository, tickSvc *service.TicketService, logger *zap.Logger) *ForwardExpirySweep {
	return &ForwardExpirySweep{offers: offers, tickSvc: tickSvc, logger: logger}
}

// Run performs one pass.
func (s *ForwardExpirySweep) Run(ctx context.Context, now time.Time) (int, error) {
	lapsed, err := s.offers.ListLapsed(ctx, now)
	if err != nil {
		return 0, err
	}
	affected := 0
	for i := range lapsed {
		if err := s.tickSvc.ExpireForwardOffer(ctx, &lapsed[i]); err != nil {
			s.logger.Warn("forward offer expiry failed",
				zap.String("offer_id", lapsed[i].ID),
				zap.Error(err))
			continue
		}
		affected++
	}
	return affected, nil
}
