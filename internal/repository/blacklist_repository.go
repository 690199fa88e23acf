package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// BlacklistRepository persists blacklist entries keyed by tenant+user.
type BlacklistRepository interface {
	Get(ctx context.Context, tenantID, userID string) (*domain.BlacklistEntry, error)
	Put(ctx context.Context, entry *domain.BlacklistEntry) error
	Delete(ctx context.Context, tenantID, userID string) error
}

type blacklistRepository struct {
	pool *pgxpool.Pool
}

// NewBlacklistRepository instantiates repository.
func NewBlacklistRepository(pool *pgxpool.Pool) BlacklistRepository {
	return &blacklistRepository{pool: pool}
}

func (r *blacklistRepository) Get(ctx context.Context, tenantID, userID string) (*domain.BlacklistEntry, error) {
	const query = `
        SELECT tenant_id, user_id, reason, is_permanent, blacklisted_at, blacklisted_by, expires_at
        FROM blacklist_entries WHERE tenant_id=$1 AND user_id=$2`
	var entry domain.BlacklistEntry
	if err := r.pool.QueryRow(ctx, query, tenantID, userID).Scan(
		&entry.TenantID,
		&entry.UserID,
		&entry.Reason,
		&entry.IsPermanent,
		&entry.BlacklistedAt,
		&entry.BlacklistedBy,
		&entry.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *blacklistRepository) Put(ctx context.Context, entry *domain.BlacklistEntry) error {
	const query = `
        INSERT INTO blacklist_entries (tenant_id, user_id, reason, is_permanent, blacklisted_at, blacklisted_by, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (tenant_id, user_id) DO UPDATE SET
            reason=EXCLUDED.reason, is_permanent=EXCLUDED.is_permanent,
            blacklisted_at=EXCLUDED.blacklisted_at, blacklisted_by=EXCLUDED.blacklisted_by,
            expires_at=EXCLUDED.expires_at`
	_, err := r.pool.Exec(ctx, query,
		entry.TenantID,
		entry.UserID,
		entry.Reason,
		entry.IsPermanent,
		entry.BlacklistedAt,
		entry.BlacklistedBy,
		entry.ExpiresAt,
	)
	return err
}

func (r *blacklistRepository) Delete(ctx context.Context, tenantID, userID string) error {
	const query = `DELETE FROM blacklist_entries WHERE tenant_id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, tenantID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
