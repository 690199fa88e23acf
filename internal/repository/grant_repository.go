package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// GrantRepository persists entitlement grants, one row per tenant.
type GrantRepository interface {
	Get(ctx context.Context, tenantID string) (*domain.Grant, error)
	Save(ctx context.Context, grant *domain.Grant) error
	// ListExpiredCancellations returns grants marked will-not-renew whose
	// expiry has passed; the sweep eagerly downgrades these.
	ListExpiredCancellations(ctx context.Context, now time.Time) ([]domain.Grant, error)
}

type grantRepository struct {
	pool *pgxpool.Pool
}

// NewGrantRepository instantiates repository.
func NewGrantRepository(pool *pgxpool.Pool) GrantRepository {
	return &grantRepository{pool: pool}
}

const grantColumns = `tenant_id, tier, expires_at, is_lifetime, is_trial, is_betatester,
        is_partner, will_not_renew, had_trial, subscription_ref, activated_at, updated_at`

func (r *grantRepository) Get(ctx context.Context, tenantID string) (*domain.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM entitlement_grants WHERE tenant_id=$1`
	return scanGrant(r.pool.QueryRow(ctx, query, tenantID))
}

func (r *grantRepository) Save(ctx context.Context, grant *domain.Grant) error {
	const query = `
        INSERT INTO entitlement_grants (` + grantColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (tenant_id) DO UPDATE SET
            tier=EXCLUDED.tier, expires_at=EXCLUDED.expires_at, is_lifetime=EXCLUDED.is_lifetime,
            is_trial=EXCLUDED.is_trial, is_betatester=EXCLUDED.is_betatester,
            is_partner=EXCLUDED.is_partner, will_not_renew=EXCLUDED.will_not_renew,
            had_trial=EXCLUDED.had_trial, subscription_ref=EXCLUDED.subscription_ref,
            activated_at=EXCLUDED.activated_at, updated_at=EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		grant.TenantID,
		grant.Tier,
		grant.ExpiresAt,
		grant.IsLifetime,
		grant.IsTrial,
		grant.IsBetatester,
		grant.IsPartner,
		grant.WillNotRenew,
		grant.HadTrial,
		grant.SubscriptionRef,
		grant.ActivatedAt,
		grant.UpdatedAt,
	)
	return err
}

func (r *grantRepository) ListExpiredCancellations(ctx context.Context, now time.Time) ([]domain.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM entitlement_grants
        WHERE will_not_renew=TRUE AND is_lifetime=FALSE AND expires_at IS NOT NULL AND expires_at<=$1`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *grant)
	}
	return result, rows.Err()
}

func scanGrant(row rowScanner) (*domain.Grant, error) {
	var grant domain.Grant
	if err := row.Scan(
		&grant.TenantID,
		&grant.Tier,
		&grant.ExpiresAt,
		&grant.IsLifetime,
		&grant.IsTrial,
		&grant.IsBetatester,
		&grant.IsPartner,
		&grant.WillNotRenew,
		&grant.HadTrial,
		&grant.SubscriptionRef,
		&grant.ActivatedAt,
		&grant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &grant, nil
}
