package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/supportdesk/internal/domain"
)

// SettingsRepository is the tenant-scoped config store. A missing row means
// the tenant runs on defaults.
type SettingsRepository interface {
	Get(ctx context.Context, tenantID string) (*domain.TenantSettings, error)
	Put(ctx context.Context, settings *domain.TenantSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository instantiates repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	const query = `
        SELECT tenant_id, autoclose_enabled, close_threshold_seconds, warn_window_seconds, api_key_hash, updated_at
        FROM tenant_settings WHERE tenant_id=$1`
	var settings domain.TenantSettings
	var closeSec, warnSec int64
	if err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&settings.TenantID,
		&settings.AutoCloseEnabled,
		&closeSec,
		&warnSec,
		&settings.APIKeyHash,
		&settings.UpdatedAt,
	); err != nil {
		return nil, err
	}
	settings.CloseThreshold = time.Duration(closeSec) * time.Second
	settings.WarnWindow = time.Duration(warnSec) * time.Second
	return &settings, nil
}

func (r *settingsRepository) Put(ctx context.Context, settings *domain.TenantSettings) error {
	const query = `
        INSERT INTO tenant_settings (tenant_id, autoclose_enabled, close_threshold_seconds, warn_window_seconds, api_key_hash, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (tenant_id) DO UPDATE SET
            autoclose_enabled=EXCLUDED.autoclose_enabled,
            close_threshold_seconds=EXCLUDED.close_threshold_seconds,
            warn_window_seconds=EXCLUDED.warn_window_seconds,
            api_key_hash=EXCLUDED.api_key_hash,
            updated_at=EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		settings.TenantID,
		settings.AutoCloseEnabled,
		int64(settings.CloseThreshold/time.Second),
		int64(settings.WarnWindow/time.Second),
		settings.APIKeyHash,
		settings.UpdatedAt,
	)
	return err
}
