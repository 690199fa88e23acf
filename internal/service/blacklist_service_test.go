package service

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/supportdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

func TestBlacklistAddRequiresStaff(t *testing.T) {
	svc := NewBlacklistService(memory.NewBlacklistRepository(), clock.NewMock(), nil)

	_, err := svc.Add(context.Background(), "tenant-1", alice, BlacklistInput{UserID: "bob", IsPermanent: true})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermission))
}

func TestBlacklistDuplicateConflicts(t *testing.T) {
	svc := NewBlacklistService(memory.NewBlacklistRepository(), clock.NewMock(), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "tenant-1", sam, BlacklistInput{UserID: "bob", IsPermanent: true})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "tenant-1", sam, BlacklistInput{UserID: "bob", IsPermanent: true})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestBlacklistTemporaryEntryExpires(t *testing.T) {
	mock := clock.NewMock()
	svc := NewBlacklistService(memory.NewBlacklistRepository(), mock, nil)
	ctx := context.Background()

	entry, err := svc.Add(ctx, "tenant-1", sam, BlacklistInput{
		UserID:   "bob",
		Reason:   "cooldown",
		Duration: 2 * time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)

	_, listed := svc.Lookup(ctx, "tenant-1", "bob")
	assert.True(t, listed)

	mock.Add(3 * time.Hour)
	_, listed = svc.Lookup(ctx, "tenant-1", "bob")
	assert.False(t, listed)

	// The expired entry was evicted, so re-adding succeeds.
	_, err = svc.Add(ctx, "tenant-1", sam, BlacklistInput{UserID: "bob", IsPermanent: true})
	require.NoError(t, err)
}

func TestBlacklistTemporaryWithoutDurationRejected(t *testing.T) {
	svc := NewBlacklistService(memory.NewBlacklistRepository(), clock.NewMock(), nil)

	_, err := svc.Add(context.Background(), "tenant-1", sam, BlacklistInput{UserID: "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestBlacklistRemoveMissingNotFound(t *testing.T) {
	svc := NewBlacklistService(memory.NewBlacklistRepository(), clock.NewMock(), nil)

	err := svc.Remove(context.Background(), "tenant-1", sam, "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
