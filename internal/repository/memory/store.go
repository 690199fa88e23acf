// Package memory provides in-memory repository implementations. They back
// the no-Postgres development mode and the test suite, and mirror the
// conditional-write semantics of the pgx repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/repository"
)

// TicketRepository is a map-backed repository.TicketRepository.
type TicketRepository struct {
	mu       sync.Mutex
	counters map[string]int64
	tickets  map[string]*domain.Ticket
}

// NewTicketRepository constructs an empty store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		counters: make(map[string]int64),
		tickets:  make(map[string]*domain.Ticket),
	}
}

func ticketKey(tenantID string, id int64) string {
	return fmt.Sprintf("%s/%d", tenantID, id)
}

func (r *TicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[ticket.TenantID]++
	ticket.ID = r.counters[ticket.TenantID]
	stored := *ticket
	r.tickets[ticketKey(ticket.TenantID, ticket.ID)] = &stored
	return nil
}

func (r *TicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey(ticket.TenantID, ticket.ID)
	if _, ok := r.tickets[key]; !ok {
		return pgx.ErrNoRows
	}
	stored := *ticket
	r.tickets[key] = &stored
	return nil
}

func (r *TicketRepository) Get(_ context.Context, tenantID string, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketKey(tenantID, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := *stored
	return &ticket, nil
}

func (r *TicketRepository) Claim(_ context.Context, tenantID string, id int64, claimerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketKey(tenantID, id)]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != domain.TicketStatusOpen || stored.ClaimerID != nil {
		return repository.ErrAlreadyClaimed
	}
	claimer := claimerID
	stored.ClaimerID = &claimer
	stored.Touch(now)
	return nil
}

func (r *TicketRepository) Close(_ context.Context, tenantID string, id int64, closedBy, reason string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketKey(tenantID, id)]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != domain.TicketStatusOpen {
		return repository.ErrAlreadyClosed
	}
	stored.Status = domain.TicketStatusClosed
	closedAt := now
	by := closedBy
	stored.ClosedAt = &closedAt
	stored.ClosedBy = &by
	stored.CloseReason = reason
	return nil
}

func (r *TicketRepository) ListOpenAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.Status == domain.TicketStatusOpen {
			result = append(result, *stored)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TenantID != result[j].TenantID {
			return result[i].TenantID < result[j].TenantID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *TicketRepository) ListByTenant(_ context.Context, tenantID string, includeClosed bool, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.TenantID != tenantID {
			continue
		}
		if !includeClosed && stored.Status != domain.TicketStatusOpen {
			continue
		}
		result = append(result, *stored)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *TicketRepository) CountOpenByCreator(_ context.Context, tenantID, creatorID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, stored := range r.tickets {
		if stored.TenantID == tenantID && stored.CreatorID == creatorID && stored.Status == domain.TicketStatusOpen {
			count++
		}
	}
	return count, nil
}

// HistoryRepository is a map-backed repository.TicketHistoryRepository.
type HistoryRepository struct {
	mu      sync.Mutex
	entries map[string][]domain.TicketHistory
}

// NewHistoryRepository constructs an empty store.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{entries: make(map[string][]domain.TicketHistory)}
}

func (r *HistoryRepository) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey(entry.TenantID, entry.TicketID)
	r.entries[key] = append(r.entries[key], *entry)
	return nil
}

func (r *HistoryRepository) ListByTicket(_ context.Context, tenantID string, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[ticketKey(tenantID, ticketID)]
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]domain.TicketHistory{}, entries...), nil
}

// GrantRepository is a map-backed repository.GrantRepository.
type GrantRepository struct {
	mu     sync.Mutex
	grants map[string]*domain.Grant
}

// NewGrantRepository constructs an empty store.
func NewGrantRepository() *GrantRepository {
	return &GrantRepository{grants: make(map[string]*domain.Grant)}
}

func (r *GrantRepository) Get(_ context.Context, tenantID string) (*domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.grants[tenantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	grant := *stored
	return &grant, nil
}

func (r *GrantRepository) Save(_ context.Context, grant *domain.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *grant
	r.grants[grant.TenantID] = &stored
	return nil
}

func (r *GrantRepository) ListExpiredCancellations(_ context.Context, now time.Time) ([]domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Grant
	for _, stored := range r.grants {
		if stored.WillNotRenew && !stored.IsLifetime && stored.ExpiresAt != nil && !stored.ExpiresAt.After(now) {
			result = append(result, *stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TenantID < result[j].TenantID })
	return result, nil
}

// BlacklistRepository is a map-backed repository.BlacklistRepository.
type BlacklistRepository struct {
	mu      sync.Mutex
	entries map[string]*domain.BlacklistEntry
}

// NewBlacklistRepository constructs an empty store.
func NewBlacklistRepository() *BlacklistRepository {
	return &BlacklistRepository{entries: make(map[string]*domain.BlacklistEntry)}
}

func blacklistKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

func (r *BlacklistRepository) Get(_ context.Context, tenantID, userID string) (*domain.BlacklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[blacklistKey(tenantID, userID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	entry := *stored
	return &entry, nil
}

func (r *BlacklistRepository) Put(_ context.Context, entry *domain.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *entry
	r.entries[blacklistKey(entry.TenantID, entry.UserID)] = &stored
	return nil
}

func (r *BlacklistRepository) Delete(_ context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := blacklistKey(tenantID, userID)
	if _, ok := r.entries[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.entries, key)
	return nil
}

// ForwardOfferRepository is a map-backed repository.ForwardOfferRepository.
type ForwardOfferRepository struct {
	mu     sync.Mutex
	offers map[string]*domain.ForwardOffer
}

// NewForwardOfferRepository constructs an empty store.
func NewForwardOfferRepository() *ForwardOfferRepository {
	return &ForwardOfferRepository{offers: make(map[string]*domain.ForwardOffer)}
}

func (r *ForwardOfferRepository) Create(_ context.Context, offer *domain.ForwardOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *offer
	r.offers[offer.ID] = &stored
	return nil
}

func (r *ForwardOfferRepository) Get(_ context.Context, id string) (*domain.ForwardOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.offers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	offer := *stored
	return &offer, nil
}

func (r *ForwardOfferRepository) Update(_ context.Context, offer *domain.ForwardOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.offers[offer.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = offer.Status
	stored.RespondedAt = offer.RespondedAt
	return nil
}

func (r *ForwardOfferRepository) GetPendingByTicket(_ context.Context, tenantID string, ticketID int64) (*domain.ForwardOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.offers {
		if stored.TenantID == tenantID && stored.TicketID == ticketID && stored.Status == domain.ForwardOfferPending {
			offer := *stored
			return &offer, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *ForwardOfferRepository) ListLapsed(_ context.Context, now time.Time) ([]domain.ForwardOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ForwardOffer
	for _, stored := range r.offers {
		if stored.Lapsed(now) {
			result = append(result, *stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SettingsRepository is a map-backed repository.SettingsRepository.
type SettingsRepository struct {
	mu       sync.Mutex
	settings map[string]*domain.TenantSettings
}

// NewSettingsRepository constructs an empty store.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{settings: make(map[string]*domain.TenantSettings)}
}

func (r *SettingsRepository) Get(_ context.Context, tenantID string) (*domain.TenantSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.settings[tenantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	settings := *stored
	return &settings, nil
}

func (r *SettingsRepository) Put(_ context.Context, settings *domain.TenantSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *settings
	r.settings[settings.TenantID] = &stored
	return nil
}

// Interface conformance.
var (
	_ repository.TicketRepository        = (*TicketRepository)(nil)
	_ repository.TicketHistoryRepository = (*HistoryRepository)(nil)
	_ repository.GrantRepository         = (*GrantRepository)(nil)
	_ repository.BlacklistRepository     = (*BlacklistRepository)(nil)
	_ repository.ForwardOfferRepository  = (*ForwardOfferRepository)(nil)
	_ repository.SettingsRepository      = (*SettingsRepository)(nil)
)
