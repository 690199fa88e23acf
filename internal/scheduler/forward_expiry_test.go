package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/domain"
)

func TestForwardExpirySweepLapsesPendingOffers(t *testing.T) {
	f := newAutoCloseFixture(t)
	ctx := context.Background()
	staff := domain.Actor{ID: "sam", Role: domain.RoleStaff}

	ticket := f.openTicket(t)
	_, err := f.tickSvc.Claim(ctx, "tenant-1", ticket.ID, staff)
	require.NoError(t, err)

	offers := f.offers
	offer, err := f.tickSvc.Forward(ctx, "tenant-1", ticket.ID, staff, "tara", "")
	require.NoError(t, err)

	sweep := NewForwardExpirySweep(offers, f.tickSvc, zap.NewNop())

	affected, err := sweep.Run(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	f.clock.Add(25 * time.Hour)
	affected, err = sweep.Run(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	got, err := offers.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ForwardOfferExpired, got.Status)

	// The claimer is untouched by the lapse.
	current, err := f.tickets.Get(ctx, "tenant-1", ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, current.ClaimerID)
	assert.Equal(t, staff.ID, *current.ClaimerID)
}
