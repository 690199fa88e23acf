package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// ForwardOfferRepository persists pending claim handoffs.
type ForwardOfferRepository interface {
	Create(ctx context.Context, offer *domain.ForwardOffer) error
	Get(ctx context.Context, id string) (*domain.ForwardOffer, error)
	Update(ctx context.Context, offer *domain.ForwardOffer) error
	GetPendingByTicket(ctx context.Context, tenantID string, ticketID int64) (*domain.ForwardOffer, error)
	ListLapsed(ctx context.Context, now time.Time) ([]domain.ForwardOffer, error)
}

type forwardOfferRepository struct {
	pool *pgxpool.Pool
}

// NewForwardOfferRepository instantiates repository.
func NewForwardOfferRepository(pool *pgxpool.Pool) ForwardOfferRepository {
	return &forwardOfferRepository{pool: pool}
}

const offerColumns = `id, tenant_id, ticket_id, from_id, target_id, reason, status, created_at, expires_at, responded_at`

func (r *forwardOfferRepository) Create(ctx context.Context, offer *domain.ForwardOffer) error {
	const query = `
        INSERT INTO forward_offers (` + offerColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, query,
		offer.ID,
		offer.TenantID,
		offer.TicketID,
		offer.FromID,
		offer.TargetID,
		offer.Reason,
		offer.Status,
		offer.CreatedAt,
		offer.ExpiresAt,
		offer.RespondedAt,
	)
	return err
}

func (r *forwardOfferRepository) Get(ctx context.Context, id string) (*domain.ForwardOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM forward_offers WHERE id=$1`
	return scanOffer(r.pool.QueryRow(ctx, query, id))
}

func (r *forwardOfferRepository) Update(ctx context.Context, offer *domain.ForwardOffer) error {
	const query = `UPDATE forward_offers SET status=$2, responded_at=$3 WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, offer.ID, offer.Status, offer.RespondedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *forwardOfferRepository) GetPendingByTicket(ctx context.Context, tenantID string, ticketID int64) (*domain.ForwardOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM forward_offers
        WHERE tenant_id=$1 AND ticket_id=$2 AND status='PENDING'`
	return scanOffer(r.pool.QueryRow(ctx, query, tenantID, ticketID))
}

func (r *forwardOfferRepository) ListLapsed(ctx context.Context, now time.Time) ([]domain.ForwardOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM forward_offers WHERE status='PENDING' AND expires_at<=$1`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ForwardOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *offer)
	}
	return result, rows.Err()
}

func scanOffer(row rowScanner) (*domain.ForwardOffer, error) {
	var offer domain.ForwardOffer
	if err := row.Scan(
		&offer.ID,
		&offer.TenantID,
		&offer.TicketID,
		&offer.FromID,
		&offer.TargetID,
		&offer.Reason,
		&offer.Status,
		&offer.CreatedAt,
		&offer.ExpiresAt,
		&offer.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &offer, nil
}
