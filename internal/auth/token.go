package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/supportdesk/internal/domain"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	TenantID string
	ActorID  string
	Role     domain.Role
}

// Actor converts the principal to a domain actor.
func (p Principal) Actor() domain.Actor {
	return domain.Actor{ID: p.ActorID, Role: p.Role}
}

type tokenClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies tenant-scoped access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a manager with the signing secret and token
// lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs an access token for the principal.
func (m *TokenManager) Issue(principal Principal, now time.Time) (string, error) {
	claims := tokenClaims{
		TenantID: principal.TenantID,
		Role:     string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ActorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.NewStorageError(err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the principal.
func (m *TokenManager) Verify(tokenString string) (Principal, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, apperrors.NewUnauthorized("invalid or expired token")
	}
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleUser, domain.RoleStaff, domain.RoleAdmin:
	default:
		return Principal{}, apperrors.NewUnauthorized("unknown role")
	}
	if claims.TenantID == "" || claims.Subject == "" {
		return Principal{}, apperrors.NewUnauthorized("incomplete token claims")
	}
	return Principal{TenantID: claims.TenantID, ActorID: claims.Subject, Role: role}, nil
}
