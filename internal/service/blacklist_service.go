package service

import (
	"context"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/repository"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// BlacklistService manages per-tenant open bans. Expired non-permanent
// entries are evicted lazily on read.
type BlacklistService struct {
	entries repository.BlacklistRepository
	clock   clock.Clock
	logger  *zap.Logger
}

// NewBlacklistService constructs the service.
func NewBlacklistService(entries repository.BlacklistRepository, clk clock.Clock, logger *zap.Logger) *BlacklistService {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlacklistService{entries: entries, clock: clk, logger: logger}
}

// BlacklistInput describes a new entry.
type BlacklistInput struct {
	UserID      string
	Reason      string
	IsPermanent bool
	Duration    time.Duration
}

// Add blacklists a user. Adding an already-listed user is a conflict.
func (s *BlacklistService) Add(ctx context.Context, tenantID string, actor domain.Actor, input BlacklistInput) (*domain.BlacklistEntry, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("staff required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, apperrors.NewValidationError("user_id required", nil)
	}
	if !input.IsPermanent && input.Duration <= 0 {
		return nil, apperrors.NewValidationError("duration required for temporary entries", nil)
	}

	if existing, ok := s.Lookup(ctx, tenantID, input.UserID); ok && existing != nil {
		return nil, apperrors.NewConflict("already_blacklisted", map[string]any{"user_id": input.UserID})
	}

	now := s.clock.Now()
	entry := &domain.BlacklistEntry{
		TenantID:      tenantID,
		UserID:        input.UserID,
		Reason:        strings.TrimSpace(input.Reason),
		IsPermanent:   input.IsPermanent,
		BlacklistedAt: now,
		BlacklistedBy: actor.ID,
	}
	if !input.IsPermanent {
		expiresAt := now.Add(input.Duration)
		entry.ExpiresAt = &expiresAt
	}
	if err := s.entries.Put(ctx, entry); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return entry, nil
}

// Remove deletes an entry.
func (s *BlacklistService) Remove(ctx context.Context, tenantID string, actor domain.Actor, userID string) error {
	if !actor.IsStaff() {
		return apperrors.NewPermissionDenied("staff required")
	}
	if err := s.entries.Delete(ctx, tenantID, userID); err != nil {
		if isNotFound(err) {
			return apperrors.NewNotFound("blacklist entry", map[string]any{"user_id": userID})
		}
		return apperrors.NewStorageError(err)
	}
	return nil
}

// Lookup returns the active entry for a user, evicting an expired one on the
// way. A storage failure reads as not-listed; the open guard fails open here
// because refusing every ticket on a flaky store would be worse.
func (s *BlacklistService) Lookup(ctx context.Context, tenantID, userID string) (*domain.BlacklistEntry, bool) {
	entry, err := s.entries.Get(ctx, tenantID, userID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("blacklist lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return nil, false
	}
	if entry.Expired(s.clock.Now()) {
		if err := s.entries.Delete(ctx, tenantID, userID); err != nil && !isNotFound(err) {
			s.logger.Warn("blacklist eviction failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return nil, false
	}
	return entry, true
}
