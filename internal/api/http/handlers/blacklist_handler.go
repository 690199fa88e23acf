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

// BlacklistHandler exposes the tenant blacklist endpoints.
type BlacklistHandler struct {
	service *service.BlacklistService
}

// NewBlacklistHandler constructs handler.
func NewBlacklistHandler(blacklistService *service.BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{service: blacklistService}
}

// Add PUT /v1/blacklist/:userID.
func (h *BlacklistHandler) Add(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.BlacklistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.Add(c.Context(), principal.TenantID, principal.Actor(), service.BlacklistInput{
		UserID:      c.Params("userID"),
		Reason:      req.Reason,
		IsPermanent: req.Permanent,
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": blacklistEntryResponse(entry)})
}

// Remove DELETE /v1/blacklist/:userID.
func (h *BlacklistHandler) Remove(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	if err := h.service.Remove(c.Context(), principal.TenantID, principal.Actor(), c.Params("userID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get GET /v1/blacklist/:userID.
func (h *BlacklistHandler) Get(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	entry, ok := h.service.Lookup(c.Context(), principal.TenantID, c.Params("userID"))
	if !ok {
		return apperrors.NewNotFound("blacklist entry", map[string]any{"user_id": c.Params("userID")})
	}
	return c.JSON(fiber.Map{"data": blacklistEntryResponse(entry)})
}

func blacklistEntryResponse(entry *domain.BlacklistEntry) dto.BlacklistEntryResponse {
	return dto.BlacklistEntryResponse{
		UserID:    entry.UserID,
		Reason:    entry.Reason,
		AddedBy:   entry.BlacklistedBy,
		CreatedAt: entry.BlacklistedAt,
		ExpiresAt: entry.ExpiresAt,
	}
}
