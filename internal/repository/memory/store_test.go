package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/repository"
)

func newTicket(tenantID string) *domain.Ticket {
	now := time.Unix(1000, 0)
	return &domain.Ticket{
		TenantID:       tenantID,
		CreatorID:      "alice",
		Topic:          "help",
		Status:         domain.TicketStatusOpen,
		VisibleRoles:   domain.RolesForPriority(domain.PriorityNormal),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

func TestTicketIDsNeverReused(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	first := newTicket("tenant-1")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Close(ctx, "tenant-1", first.ID, "sam", "done", time.Unix(2000, 0)))

	second := newTicket("tenant-1")
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestClaimExactlyOneWinner(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	ticket := newTicket("tenant-1")
	require.NoError(t, repo.Create(ctx, ticket))

	const contenders = 16
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := range contenders {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = repo.Claim(ctx, "tenant-1", ticket.ID, "staff", time.Unix(3000, 0))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestCloseRefusesSecondClose(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	ticket := newTicket("tenant-1")
	require.NoError(t, repo.Create(ctx, ticket))

	require.NoError(t, repo.Close(ctx, "tenant-1", ticket.ID, "sam", "done", time.Unix(2000, 0)))
	err := repo.Close(ctx, "tenant-1", ticket.ID, "tara", "again", time.Unix(2001, 0))
	assert.ErrorIs(t, err, repository.ErrAlreadyClosed)

	got, err := repo.Get(ctx, "tenant-1", ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClosedBy)
	assert.Equal(t, "sam", *got.ClosedBy)
	assert.Equal(t, "done", got.CloseReason)
}

func TestListOpenAllSkipsClosed(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	open := newTicket("tenant-1")
	require.NoError(t, repo.Create(ctx, open))
	closed := newTicket("tenant-2")
	require.NoError(t, repo.Create(ctx, closed))
	require.NoError(t, repo.Close(ctx, "tenant-2", closed.ID, "sam", "done", time.Unix(2000, 0)))

	tickets, err := repo.ListOpenAll(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "tenant-1", tickets[0].TenantID)
}
