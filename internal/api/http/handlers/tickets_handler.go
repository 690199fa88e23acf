package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/supportdesk/internal/api/dto"
	"github.com/spec-kit/supportdesk/internal/auth"
	"github.com/spec-kit/supportdesk/internal/domain"
	"github.com/spec-kit/supportdesk/internal/service"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints. Tenant scope comes
// from the authenticated principal, never from the path.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Open POST /v1/tickets.
func (h *TicketsHandler) Open(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.OpenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Open(c.Context(), principal.TenantID, service.OpenInput{
		CreatorID: principal.ActorID,
		Topic:     req.Topic,
		Priority:  req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// List GET /v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	includeClosed := c.QueryBool("include_closed")
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.service.List(c.Context(), principal.TenantID, principal.Actor(), includeClosed, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.Context(), principal.TenantID, ticketID, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// History GET /v1/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.service.History(c.Context(), principal.TenantID, ticketID, principal.Actor(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntry, 0, len(entries))
	for i := range entries {
		items = append(items, historyEntry(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Claim POST /v1/tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.Claim(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Hide POST /v1/tickets/:id/hide.
func (h *TicketsHandler) Hide(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.Hide(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Unhide POST /v1/tickets/:id/unhide.
func (h *TicketsHandler) Unhide(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.Unhide(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Block POST /v1/tickets/:id/block.
func (h *TicketsHandler) Block(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.Block(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Unblock POST /v1/tickets/:id/unblock.
func (h *TicketsHandler) Unblock(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.Unblock(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Pause POST /v1/tickets/:id/pause.
func (h *TicketsHandler) Pause(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.PauseAutoClose(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Resume POST /v1/tickets/:id/resume.
func (h *TicketsHandler) Resume(c *fiber.Ctx) error {
	return h.transition(c, func(principal auth.Principal, ticketID int64) (*domain.Ticket, error) {
		return h.service.ResumeAutoClose(c.Context(), principal.TenantID, ticketID, principal.Actor())
	})
}

// Close POST /v1/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.CloseTicketRequest
	_ = c.BodyParser(&req)
	actor := principal.Actor()
	// Users may close their own tickets only; the service's conditional
	// write handles everything after this guard.
	if !actor.IsStaff() {
		ticket, err := h.service.Get(c.Context(), principal.TenantID, ticketID, actor)
		if err != nil {
			return err
		}
		if ticket.CreatorID != actor.ID {
			return apperrors.NewPermissionDenied("only the creator or staff may close")
		}
	}
	ticket, err := h.service.Close(c.Context(), principal.TenantID, ticketID, actor, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Activity POST /v1/tickets/:id/activity.
func (h *TicketsHandler) Activity(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	if err := h.service.RecordActivity(c.Context(), principal.TenantID, ticketID, principal.Actor()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Forward POST /v1/tickets/:id/forward.
func (h *TicketsHandler) Forward(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.ForwardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	offer, err := h.service.Forward(c.Context(), principal.TenantID, ticketID, principal.Actor(), req.TargetID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": offerResponse(offer)})
}

// RespondForward POST /v1/forwards/:offerID/respond.
func (h *TicketsHandler) RespondForward(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	var req dto.ForwardRespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	offer, err := h.service.RespondForward(c.Context(), c.Params("offerID"), principal.Actor(), req.Accept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": offerResponse(offer)})
}

// Split POST /v1/tickets/:id/split.
func (h *TicketsHandler) Split(c *fiber.Ctx) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.SplitRequest
	_ = c.BodyParser(&req)
	child, err := h.service.Split(c.Context(), principal.TenantID, ticketID, principal.Actor(), req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(child)})
}

func (h *TicketsHandler) transition(c *fiber.Ctx, apply func(auth.Principal, int64) (*domain.Ticket, error)) error {
	principal := auth.PrincipalFrom(c)
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := apply(principal, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                   ticket.ID,
		CreatorID:            ticket.CreatorID,
		ClaimerID:            ticket.ClaimerID,
		Topic:                ticket.Topic,
		Status:               string(ticket.Status),
		Priority:             ticket.Priority,
		Hidden:               ticket.Hidden,
		Blocked:              ticket.Blocked,
		AutoClosePaused:      ticket.AutoClosePaused,
		AutoCloseWarningSent: ticket.AutoCloseWarningSent,
		SplitFrom:            ticket.SplitFrom,
		SplitTo:              ticket.SplitTo,
		LastActivityAt:       ticket.LastActivityAt,
		CreatedAt:            ticket.CreatedAt,
		ClosedAt:             ticket.ClosedAt,
		CloseReason:          ticket.CloseReason,
	}
}

func offerResponse(offer *domain.ForwardOffer) dto.ForwardOfferResponse {
	return dto.ForwardOfferResponse{
		ID:          offer.ID,
		TicketID:    offer.TicketID,
		FromID:      offer.FromID,
		TargetID:    offer.TargetID,
		Reason:      offer.Reason,
		Status:      string(offer.Status),
		ExpiresAt:   offer.ExpiresAt,
		RespondedAt: offer.RespondedAt,
	}
}

func historyEntry(entry *domain.TicketHistory) dto.HistoryEntry {
	return dto.HistoryEntry{
		ID:        entry.ID,
		Action:    string(entry.Action),
		ActorID:   entry.ActorID,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	}
}
