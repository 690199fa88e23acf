package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/events"
	"github.com/spec-kit/supportdesk/internal/repository/memory"
	"github.com/spec-kit/supportdesk/internal/service"
)

type autoCloseFixture struct {
	sweep      *AutoCloseSweep
	tickets    *memory.TicketRepository
	offers     *memory.ForwardOfferRepository
	settings   *memory.SettingsRepository
	tickSvc    *service.TicketService
	dispatcher events.Dispatcher
	clock      *clock.Mock
	start      time.Time
}

func newAutoCloseFixture(t *testing.T) *autoCloseFixture {
	t.Helper()
	mock := clock.NewMock()
	dispatcher := events.NewInMemoryDispatcher()
	ticketRepo := memory.NewTicketRepository()
	offerRepo := memory.NewForwardOfferRepository()
	settingsRepo := memory.NewSettingsRepository()

	autoCloseCfg := config.AutoCloseConfig{
		SweepInterval:  10 * time.Minute,
		StartupDelay:   30 * time.Second,
		CloseThreshold: 72 * time.Hour,
		WarnWindow:     24 * time.Hour,
		ExemptPriority: domain.PriorityCritical,
	}

	tickSvc := service.NewTicketService(config.TicketsConfig{
		MaxOpenPerCreator: 10,
		BotUserID:         "bot",
		ForwardOfferTTL:   24 * time.Hour,
	}, service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: memory.NewHistoryRepository(),
		OfferRepo:   offerRepo,
		Blacklist:   service.NewBlacklistService(memory.NewBlacklistRepository(), mock, nil),
		Entitlements: service.NewEntitlementService(config.EntitlementConfig{}, service.EntitlementDependencies{
			GrantRepo:  memory.NewGrantRepository(),
			Dispatcher: dispatcher,
			Clock:      mock,
		}),
		Dispatcher: dispatcher,
		Clock:      mock,
	})
	settingsSvc := service.NewSettingsService(autoCloseCfg, config.AuthConfig{BcryptCost: 4}, settingsRepo, mock, zap.NewNop())
	sweep := NewAutoCloseSweep(autoCloseCfg, "bot", ticketRepo, tickSvc, settingsSvc, zap.NewNop())

	return &autoCloseFixture{
		sweep:      sweep,
		tickets:    ticketRepo,
		offers:     offerRepo,
		settings:   settingsRepo,
		tickSvc:    tickSvc,
		dispatcher: dispatcher,
		clock:      mock,
		start:      mock.Now(),
	}
}

func (f *autoCloseFixture) openTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickSvc.Open(context.Background(), "tenant-1", service.OpenInput{
		CreatorID: "alice",
		Topic:     "slow dashboard",
	})
	require.NoError(t, err)
	return ticket
}

func (f *autoCloseFixture) runAt(t *testing.T, elapsed time.Duration) int {
	t.Helper()
	target := f.start.Add(elapsed)
	if d := target.Sub(f.clock.Now()); d > 0 {
		f.clock.Add(d)
	}
	affected, err := f.sweep.Run(context.Background(), f.clock.Now())
	require.NoError(t, err)
	return affected
}

func (f *autoCloseFixture) get(t *testing.T, id int64) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Get(context.Background(), "tenant-1", id)
	require.NoError(t, err)
	return ticket
}

// Timeline with a 72h threshold and 24h warn window: nothing at 47h, a
// single warning from 48h on, close at 72h.
func TestAutoCloseInactivityTimeline(t *testing.T) {
	f := newAutoCloseFixture(t)
	ticket := f.openTicket(t)

	var warned, closed int
	f.dispatcher.Subscribe(events.EventTicketWarned, func(context.Context, events.Event) error {
		warned++
		return nil
	})
	f.dispatcher.Subscribe(events.EventTicketClosed, func(context.Context, events.Event) error {
		closed++
		return nil
	})

	assert.Equal(t, 0, f.runAt(t, 47*time.Hour))
	assert.False(t, f.get(t, ticket.ID).AutoCloseWarningSent)

	assert.Equal(t, 1, f.runAt(t, 49*time.Hour))
	assert.True(t, f.get(t, ticket.ID).AutoCloseWarningSent)
	assert.Equal(t, 1, warned)

	// No duplicate warning while the flag is set.
	assert.Equal(t, 0, f.runAt(t, 71*time.Hour))
	assert.Equal(t, 1, warned)

	assert.Equal(t, 1, f.runAt(t, 73*time.Hour))
	got := f.get(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusClosed, got.Status)
	assert.Equal(t, domain.CloseReasonInactivity, got.CloseReason)
	require.NotNil(t, got.ClosedBy)
	assert.Equal(t, "bot", *got.ClosedBy)
	assert.Equal(t, 1, closed)

	// A closed ticket is left alone.
	assert.Equal(t, 0, f.runAt(t, 80*time.Hour))
}

// Pausing at 50h and resuming at 60h restarts the staleness clock, so the
// close lands a full threshold after the resume.
func TestAutoClosePauseResumeRestartsWindow(t *testing.T) {
	f := newAutoCloseFixture(t)
	ctx := context.Background()
	ticket := f.openTicket(t)
	creator := domain.Actor{ID: "alice", Role: domain.RoleUser}

	assert.Equal(t, 1, f.runAt(t, 49*time.Hour))

	f.clock.Add(time.Hour) // 50h
	_, err := f.tickSvc.PauseAutoClose(ctx, "tenant-1", ticket.ID, creator)
	require.NoError(t, err)

	// Paused tickets are skipped even past the threshold.
	assert.Equal(t, 0, f.runAt(t, 55*time.Hour))
	assert.Equal(t, domain.TicketStatusOpen, f.get(t, ticket.ID).Status)

	f.clock.Add(5 * time.Hour) // 60h
	_, err = f.tickSvc.ResumeAutoClose(ctx, "tenant-1", ticket.ID, creator)
	require.NoError(t, err)
	assert.False(t, f.get(t, ticket.ID).AutoCloseWarningSent)

	// 71h after resume: warned again but still open.
	assert.Equal(t, 1, f.runAt(t, 131*time.Hour))
	assert.Equal(t, domain.TicketStatusOpen, f.get(t, ticket.ID).Status)

	// 72h after resume: closed.
	assert.Equal(t, 1, f.runAt(t, 132*time.Hour))
	assert.Equal(t, domain.TicketStatusClosed, f.get(t, ticket.ID).Status)
}

func TestAutoCloseSkipsExemptPriorityAndDisabledTenants(t *testing.T) {
	f := newAutoCloseFixture(t)
	ctx := context.Background()

	critical, err := f.tickSvc.Open(ctx, "tenant-1", service.OpenInput{
		CreatorID: "alice",
		Topic:     "outage",
		Priority:  domain.PriorityCritical,
	})
	require.NoError(t, err)

	disabled, err := f.tickSvc.Open(ctx, "tenant-2", service.OpenInput{
		CreatorID: "alice",
		Topic:     "question",
	})
	require.NoError(t, err)
	require.NoError(t, f.settings.Put(ctx, &domain.TenantSettings{
		TenantID:         "tenant-2",
		AutoCloseEnabled: false,
	}))

	assert.Equal(t, 0, f.runAt(t, 100*time.Hour))
	assert.Equal(t, domain.TicketStatusOpen, f.get(t, critical.ID).Status)

	got, err := f.tickets.Get(ctx, "tenant-2", disabled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}

func TestAutoCloseHonorsTenantThresholdOverride(t *testing.T) {
	f := newAutoCloseFixture(t)
	ctx := context.Background()
	ticket := f.openTicket(t)

	require.NoError(t, f.settings.Put(ctx, &domain.TenantSettings{
		TenantID:         "tenant-1",
		AutoCloseEnabled: true,
		CloseThreshold:   24 * time.Hour,
		WarnWindow:       6 * time.Hour,
	}))

	assert.Equal(t, 1, f.runAt(t, 19*time.Hour)) // warn at 18h
	assert.Equal(t, 1, f.runAt(t, 25*time.Hour)) // close at 24h
	assert.Equal(t, domain.TicketStatusClosed, f.get(t, ticket.ID).Status)
}
