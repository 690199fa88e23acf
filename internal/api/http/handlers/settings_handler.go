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

// SettingsHandler exposes per-tenant configuration endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: settingsService}
}

// Get GET /v1/settings.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	settings, err := h.service.Effective(c.Context(), principal.TenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// Update PATCH /v1/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update := service.SettingsUpdate{AutoCloseEnabled: req.AutoCloseEnabled}
	if req.CloseThresholdHours != nil {
		d := time.Duration(*req.CloseThresholdHours) * time.Hour
		update.CloseThreshold = &d
	}
	if req.WarnWindowHours != nil {
		d := time.Duration(*req.WarnWindowHours) * time.Hour
		update.WarnWindow = &d
	}
	settings, err := h.service.Update(c.Context(), principal.TenantID, update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// RotateAPIKey POST /v1/settings/api-key.
func (h *SettingsHandler) RotateAPIKey(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.RotateAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settings, err := h.service.RotateAPIKey(c.Context(), principal.TenantID, req.APIKey)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

func settingsResponse(settings *domain.TenantSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		AutoCloseEnabled:    settings.AutoCloseEnabled,
		CloseThresholdHours: settings.CloseThreshold.Hours(),
		WarnWindowHours:     settings.WarnWindow.Hours(),
		HasAPIKey:           settings.APIKeyHash != "",
		UpdatedAt:           settings.UpdatedAt,
	}
}
