package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/supportdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	issued := Principal{TenantID: "tenant-1", ActorID: "alice", Role: domain.RoleStaff}

	token, err := manager.Issue(issued, time.Now())
	require.NoError(t, err)

	verified, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issued, verified)
}

func TestTokenExpiredRejected(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue(Principal{TenantID: "tenant-1", ActorID: "alice", Role: domain.RoleUser}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.Error(t, err)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := manager.Issue(Principal{TenantID: "tenant-1", ActorID: "alice", Role: domain.RoleUser}, time.Now())
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestTokenUnknownRoleRejected(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue(Principal{TenantID: "tenant-1", ActorID: "alice", Role: domain.Role("SUPERUSER")}, time.Now())
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.Error(t, err)
}

func TestAPIKeyHashCompare(t *testing.T) {
	hash, err := HashAPIKey("a-long-enough-api-key", 4)
	require.NoError(t, err)

	assert.True(t, CompareAPIKey(hash, "a-long-enough-api-key"))
	assert.False(t, CompareAPIKey(hash, "wrong-key"))
}
