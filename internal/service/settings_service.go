package service

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/auth"
	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/repository"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// SettingsService reads and writes per-tenant configuration. Effective
// settings merge the stored record with service-wide defaults so a tenant
// without a record behaves like one with auto-close enabled at defaults.
type SettingsService struct {
	settings repository.SettingsRepository
	clock    clock.Clock
	logger   *zap.Logger
	cfg      config.AutoCloseConfig
	auth     config.AuthConfig
}

// NewSettingsService constructs the service.
func NewSettingsService(cfg config.AutoCloseConfig, authCfg config.AuthConfig, settings repository.SettingsRepository, clk clock.Clock, logger *zap.Logger) *SettingsService {
	if clk == nil {
		clk = clock.New()
	}
	return &SettingsService{settings: settings, clock: clk, logger: logger, cfg: cfg, auth: authCfg}
}

// Effective returns the tenant's settings with defaults applied.
func (s *SettingsService) Effective(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	stored, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		if !isNotFound(err) {
			return nil, apperrors.NewStorageError(err)
		}
		stored = domain.DefaultSettings(tenantID)
	}
	if stored.CloseThreshold <= 0 {
		stored.CloseThreshold = s.cfg.CloseThreshold
	}
	if stored.WarnWindow <= 0 {
		stored.WarnWindow = s.cfg.WarnWindow
	}
	return stored, nil
}

// SettingsUpdate carries the mutable tenant settings fields. Nil means
// leave unchanged.
type SettingsUpdate struct {
	AutoCloseEnabled *bool
	CloseThreshold   *time.Duration
	WarnWindow       *time.Duration
}

// Update applies a partial settings change.
func (s *SettingsService) Update(ctx context.Context, tenantID string, update SettingsUpdate) (*domain.TenantSettings, error) {
	current, err := s.Effective(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if update.AutoCloseEnabled != nil {
		current.AutoCloseEnabled = *update.AutoCloseEnabled
	}
	if update.CloseThreshold != nil {
		current.CloseThreshold = *update.CloseThreshold
	}
	if update.WarnWindow != nil {
		current.WarnWindow = *update.WarnWindow
	}
	if current.CloseThreshold <= 0 || current.WarnWindow <= 0 {
		return nil, apperrors.NewValidationError("durations must be positive", nil)
	}
	if current.WarnWindow >= current.CloseThreshold {
		return nil, apperrors.NewValidationError("warn window must be shorter than the close threshold", map[string]any{
			"warn_window":     current.WarnWindow.String(),
			"close_threshold": current.CloseThreshold.String(),
		})
	}
	current.UpdatedAt = s.clock.Now()
	if err := s.settings.Put(ctx, current); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.logger.Info("tenant settings updated", zap.String("tenant_id", tenantID))
	return current, nil
}

// RotateAPIKey stores a new API key hash for the tenant and returns nothing
// but the stored record; the plaintext key is only ever seen by the caller.
func (s *SettingsService) RotateAPIKey(ctx context.Context, tenantID, plaintext string) (*domain.TenantSettings, error) {
	if len(plaintext) < 16 {
		return nil, apperrors.NewValidationError("api key must be at least 16 characters", nil)
	}
	current, err := s.Effective(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashAPIKey(plaintext, s.auth.BcryptCost)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	current.APIKeyHash = hash
	current.UpdatedAt = s.clock.Now()
	if err := s.settings.Put(ctx, current); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.logger.Info("tenant api key rotated", zap.String("tenant_id", tenantID))
	return current, nil
}

// VerifyAPIKey checks a presented key against the tenant's stored hash.
func (s *SettingsService) VerifyAPIKey(ctx context.Context, tenantID, plaintext string) (bool, error) {
	current, err := s.Effective(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if current.APIKeyHash == "" {
		return false, nil
	}
	return auth.CompareAPIKey(current.APIKeyHash, plaintext), nil
}
