package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/supportdesk/internal/api/dto"
	"github.com/spec-kit/supportdesk/internal/auth"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/service"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// EntitlementsHandler exposes tier resolution and grant administration.
type EntitlementsHandler struct {
	service *service.EntitlementService
}

// NewEntitlementsHandler constructs handler.
func NewEntitlementsHandler(entitlementService *service.EntitlementService) *EntitlementsHandler {
	return &EntitlementsHandler{service: entitlementService}
}

// Resolve GET /v1/entitlement.
func (h *EntitlementsHandler) Resolve(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	resolved := h.service.ResolveTier(c.Context(), principal.TenantID)
	return c.JSON(fiber.Map{"data": resolvedTierResponse(resolved)})
}

// CheckFeature GET /v1/entitlement/features/:key.
func (h *EntitlementsHandler) CheckFeature(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	key := c.Params("key")
	feature, ok := domain.ParseFeature(key)
	if !ok {
		return apperrors.NewNotFound("feature", map[string]any{"feature": key})
	}
	allowed := h.service.HasFeature(c.Context(), principal.TenantID, feature)
	return c.JSON(fiber.Map{"data": dto.FeatureCheckResponse{Feature: key, Allowed: allowed}})
}

// Activate POST /v1/entitlement/activate.
func (h *EntitlementsHandler) Activate(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.ActivateGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tier, ok := domain.ParseTier(req.Tier)
	if !ok {
		return apperrors.NewValidationError("unknown tier", map[string]any{"tier": req.Tier})
	}
	opts := service.ActivateOptions{
		ExpiresAt:  req.ExpiresAt,
		Lifetime:   req.Lifetime,
		Trial:      req.Trial,
		Betatester: req.Betatester,
		Partner:    req.Partner,
	}
	if req.SubscriptionRef != "" {
		ref := req.SubscriptionRef
		opts.SubscriptionRef = &ref
	}
	grant, err := h.service.ActivateGrant(c.Context(), principal.TenantID, tier, opts)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": grantResponse(grant)})
}

// Deactivate POST /v1/entitlement/deactivate.
func (h *EntitlementsHandler) Deactivate(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	if err := h.service.DeactivateGrant(c.Context(), principal.TenantID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Renew POST /v1/entitlement/renew.
func (h *EntitlementsHandler) Renew(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	grant, err := h.service.RenewGrant(c.Context(), principal.TenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grantResponse(grant)})
}

// Downgrade POST /v1/entitlement/downgrade.
func (h *EntitlementsHandler) Downgrade(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	if err := h.service.DowngradeGrant(c.Context(), principal.TenantID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Cancel POST /v1/entitlement/cancel.
func (h *EntitlementsHandler) Cancel(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	grant, err := h.service.CancelGrant(c.Context(), principal.TenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grantResponse(grant)})
}

func resolvedTierResponse(resolved domain.ResolvedTier) dto.ResolvedTierResponse {
	return dto.ResolvedTierResponse{
		Tier:        string(resolved.Tier),
		DisplayName: resolved.TierName,
		Active:      resolved.IsActive,
		IsTrial:     resolved.IsTrial,
		ExpiresAt:   resolved.ExpiresAt,
	}
}

func grantResponse(grant *domain.Grant) fiber.Map {
	response := fiber.Map{
		"tier":       string(grant.Tier),
		"lifetime":   grant.IsLifetime,
		"trial":      grant.IsTrial,
		"betatester": grant.IsBetatester,
		"partner":    grant.IsPartner,
		"cancelled":  grant.WillNotRenew,
	}
	if grant.ExpiresAt != nil {
		response["expires_at"] = grant.ExpiresAt.Format(time.RFC3339)
	}
	return response
}
