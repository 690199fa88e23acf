package handlers

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/supportdesk/internal/api/dto"
	"github.com/spec-kit/supportdesk/internal/auth"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/service"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// AuthHandler exchanges tenant API keys for access tokens. The bootstrap
// key, when configured, lets an operator mint tokens for tenants that have
// not stored a key yet.
type AuthHandler struct {
	tokens       *auth.TokenManager
	settings     *service.SettingsService
	clock        clock.Clock
	tokenTTL     time.Duration
	bootstrapKey string
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(tokens *auth.TokenManager, settings *service.SettingsService, clk clock.Clock, tokenTTL time.Duration, bootstrapKey string) *AuthHandler {
	if clk == nil {
		clk = clock.New()
	}
	return &AuthHandler{tokens: tokens, settings: settings, clock: clk, tokenTTL: tokenTTL, bootstrapKey: bootstrapKey}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TenantID == "" || req.APIKey == "" || req.ActorID == "" {
		return apperrors.NewValidationError("tenant_id, api_key, actor_id required", nil)
	}
	role := domain.Role(req.Role)
	switch role {
	case domain.RoleUser, domain.RoleStaff, domain.RoleAdmin:
	case "":
		role = domain.RoleUser
	default:
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	authorized := h.bootstrapKey != "" && req.APIKey == h.bootstrapKey
	if !authorized {
		ok, err := h.settings.VerifyAPIKey(c.Context(), req.TenantID, req.APIKey)
		if err != nil {
			return err
		}
		authorized = ok
	}
	if !authorized {
		return apperrors.NewUnauthorized("invalid api key")
	}

	principal := auth.Principal{TenantID: req.TenantID, ActorID: req.ActorID, Role: role}
	token, err := h.tokens.Issue(principal, h.clock.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	}})
}
