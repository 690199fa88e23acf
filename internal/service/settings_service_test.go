package service

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

func newSettingsFixture() *SettingsService {
	return NewSettingsService(config.AutoCloseConfig{
		CloseThreshold: 72 * time.Hour,
		WarnWindow:     24 * time.Hour,
	}, config.AuthConfig{BcryptCost: 4}, memory.NewSettingsRepository(), clock.NewMock(), zap.NewNop())
}

func TestEffectiveSettingsDefaults(t *testing.T) {
	svc := newSettingsFixture()

	settings, err := svc.Effective(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.True(t, settings.AutoCloseEnabled)
	assert.Equal(t, 72*time.Hour, settings.CloseThreshold)
	assert.Equal(t, 24*time.Hour, settings.WarnWindow)
}

func TestUpdateSettingsPartial(t *testing.T) {
	svc := newSettingsFixture()
	ctx := context.Background()

	threshold := 24 * time.Hour
	warn := 6 * time.Hour
	updated, err := svc.Update(ctx, "tenant-1", SettingsUpdate{
		CloseThreshold: &threshold,
		WarnWindow:     &warn,
	})
	require.NoError(t, err)
	assert.Equal(t, threshold, updated.CloseThreshold)
	assert.True(t, updated.AutoCloseEnabled)

	disabled := false
	updated, err = svc.Update(ctx, "tenant-1", SettingsUpdate{AutoCloseEnabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.AutoCloseEnabled)
	assert.Equal(t, threshold, updated.CloseThreshold)
}

func TestUpdateSettingsRejectsWarnBeyondThreshold(t *testing.T) {
	svc := newSettingsFixture()

	warn := 100 * time.Hour
	_, err := svc.Update(context.Background(), "tenant-1", SettingsUpdate{WarnWindow: &warn})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestRotateAndVerifyAPIKey(t *testing.T) {
	svc := newSettingsFixture()
	ctx := context.Background()

	_, err := svc.RotateAPIKey(ctx, "tenant-1", "short")
	require.Error(t, err)

	settings, err := svc.RotateAPIKey(ctx, "tenant-1", "a-long-enough-api-key")
	require.NoError(t, err)
	assert.NotEmpty(t, settings.APIKeyHash)

	ok, err := svc.VerifyAPIKey(ctx, "tenant-1", "a-long-enough-api-key")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyAPIKey(ctx, "tenant-1", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyAPIKey(ctx, "tenant-2", "a-long-enough-api-key")
	require.NoError(t, err)
	assert.False(t, ok)
}
