package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ReopenHandler manages reopen workflow endpoints.
type ReopenHandler struct {
	reopens *service.ReopenService
}

// NewReopenHandler constructs handler.
func NewReopenHandler(reopens *service.ReopenService) *ReopenHandler {
	return &ReopenHandler{reopens: reopens}
}

// CreateRequest POST /tickets/:id/reopen-requests.
func (h *ReopenHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.reopens.Create(c.UserContext(), c.Params("id"), principal.User.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewReopenRequestResponse(request)})
}

// ListRequests GET /tickets/:id/reopen-requests.
func (h *ReopenHandler) ListRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	requests, err := h.reopens.ListByTicket(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ReopenRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewReopenRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ReviewRequest POST /reopen-requests/:id/review.
func (h *ReopenHandler) ReviewRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReviewReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.reopens.Review(c.UserContext(), principal.TenantID, c.Params("id"), principal.User.ID, req.Decision, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReopenRequestResponse(request)})
}
