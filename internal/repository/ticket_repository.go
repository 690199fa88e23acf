package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// Conditional-write conflicts. Claim and close are compare-and-swap
// operations so racing callers lose explicitly instead of overwriting.
var (
	ErrAlreadyClaimed = errors.New("ticket already claimed")
	ErrAlreadyClosed  = errors.New("ticket already closed")
)

// TicketRepository encapsulates ticket persistence. Implementations must
// provide keyed lookup by (tenant, id) and honor the conditional-write
// semantics of Claim and Close.
type TicketRepository interface {
	// Create allocates the next tenant-scoped id and persists the record.
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Get(ctx context.Context, tenantID string, id int64) (*domain.Ticket, error)
	// Claim sets the claimer only while the slot is still empty.
	Claim(ctx context.Context, tenantID string, id int64, claimerID string, now time.Time) error
	// Close transitions OPEN to CLOSED only while still open.
	Close(ctx context.Context, tenantID string, id int64, closedBy, reason string, now time.Time) error
	ListOpenAll(ctx context.Context) ([]domain.Ticket, error)
	ListByTenant(ctx context.Context, tenantID string, includeClosed bool, limit, offset int) ([]domain.Ticket, error)
	CountOpenByCreator(ctx context.Context, tenantID, creatorID string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `tenant_id, id, creator_id, claimer_id, topic, status, priority,
        hidden, blocked, added_participants, visible_roles, last_activity_at,
        autoclose_warning_sent, warned_at, autoclose_paused, paused_by, paused_at,
        department, tags, split_from, split_to, created_at, closed_at, closed_by, close_reason`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Tenant-scoped sequential ids; the counter only ever moves forward so
	// ids are never reused even after a close.
	const counterQuery = `
        INSERT INTO tenant_counters (tenant_id, next_id) VALUES ($1, 1)
        ON CONFLICT (tenant_id) DO UPDATE SET next_id = tenant_counters.next_id + 1
        RETURNING next_id`
	if err := tx.QueryRow(ctx, counterQuery, ticket.TenantID).Scan(&ticket.ID); err != nil {
		return err
	}

	const insertQuery = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`
	if _, err := tx.Exec(ctx, insertQuery, ticketArgs(ticket)...); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET claimer_id=$3, topic=$4, status=$5, priority=$6, hidden=$7, blocked=$8,
            added_participants=$9, visible_roles=$10, last_activity_at=$11, autoclose_warning_sent=$12,
            warned_at=$13, autoclose_paused=$14, paused_by=$15, paused_at=$16, department=$17, tags=$18,
            split_from=$19, split_to=$20, closed_at=$21, closed_by=$22, close_reason=$23
        WHERE tenant_id=$1 AND id=$2`
	args := []any{
		ticket.TenantID, ticket.ID, ticket.ClaimerID, ticket.Topic, ticket.Status, ticket.Priority,
		ticket.Hidden, ticket.Blocked, ticket.AddedParticipants, rolesToStrings(ticket.VisibleRoles),
		ticket.LastActivityAt, ticket.AutoCloseWarningSent, ticket.WarnedAt, ticket.AutoClosePaused,
		ticket.PausedBy, ticket.PausedAt, ticket.Department, ticket.Tags, ticket.SplitFrom,
		ticket.SplitTo, ticket.ClosedAt, ticket.ClosedBy, ticket.CloseReason,
	}
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Get(ctx context.Context, tenantID string, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE tenant_id=$1 AND id=$2`
	return scanTicket(r.pool.QueryRow(ctx, query, tenantID, id))
}

func (r *ticketRepository) Claim(ctx context.Context, tenantID string, id int64, claimerID string, now time.Time) error {
	const query = `
        UPDATE tickets SET claimer_id=$3, last_activity_at=$4, autoclose_warning_sent=FALSE, warned_at=NULL
        WHERE tenant_id=$1 AND id=$2 AND status='OPEN' AND claimer_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, tenantID, id, claimerID, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.Get(ctx, tenantID, id); err != nil {
			return err
		}
		return ErrAlreadyClaimed
	}
	return nil
}

func (r *ticketRepository) Close(ctx context.Context, tenantID string, id int64, closedBy, reason string, now time.Time) error {
	const query = `
        UPDATE tickets SET status='CLOSED', closed_at=$3, closed_by=$4, close_reason=$5
        WHERE tenant_id=$1 AND id=$2 AND status='OPEN'`
	cmd, err := r.pool.Exec(ctx, query, tenantID, id, now, closedBy, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.Get(ctx, tenantID, id); err != nil {
			return err
		}
		return ErrAlreadyClosed
	}
	return nil
}

func (r *ticketRepository) ListOpenAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE status='OPEN' ORDER BY tenant_id, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByTenant(ctx context.Context, tenantID string, includeClosed bool, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	statusClause := ""
	if !includeClosed {
		statusClause = " AND status='OPEN'"
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE tenant_id=$1%s ORDER BY id DESC LIMIT %d OFFSET %d`,
		ticketColumns, statusClause, limit, offset)
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountOpenByCreator(ctx context.Context, tenantID, creatorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE tenant_id=$1 AND creator_id=$2 AND status='OPEN'`
	var count int
	if err := r.pool.QueryRow(ctx, query, tenantID, creatorID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func ticketArgs(t *domain.Ticket) []any {
	return []any{
		t.TenantID, t.ID, t.CreatorID, t.ClaimerID, t.Topic, t.Status, t.Priority,
		t.Hidden, t.Blocked, t.AddedParticipants, rolesToStrings(t.VisibleRoles),
		t.LastActivityAt, t.AutoCloseWarningSent, t.WarnedAt, t.AutoClosePaused,
		t.PausedBy, t.PausedAt, t.Department, t.Tags, t.SplitFrom, t.SplitTo,
		t.CreatedAt, t.ClosedAt, t.ClosedBy, t.CloseReason,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var roles []string
	if err := row.Scan(
		&ticket.TenantID,
		&ticket.ID,
		&ticket.CreatorID,
		&ticket.ClaimerID,
		&ticket.Topic,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Hidden,
		&ticket.Blocked,
		&ticket.AddedParticipants,
		&roles,
		&ticket.LastActivityAt,
		&ticket.AutoCloseWarningSent,
		&ticket.WarnedAt,
		&ticket.AutoClosePaused,
		&ticket.PausedBy,
		&ticket.PausedAt,
		&ticket.Department,
		&ticket.Tags,
		&ticket.SplitFrom,
		&ticket.SplitTo,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
		&ticket.CloseReason,
	); err != nil {
		return nil, err
	}
	ticket.VisibleRoles = stringsToRoles(roles)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func rolesToStrings(roles []domain.Role) []string {
	if roles == nil {
		return nil
	}
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func stringsToRoles(values []string) []domain.Role {
	if values == nil {
		return nil
	}
	out := make([]domain.Role, len(values))
	for i, v := range values {
		out[i] = domain.Role(v)
	}
	return out
}
