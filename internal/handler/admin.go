package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/middleware"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/service"
)

// AdminHandler serves the administrative reservation operations:
// reassignment, manual transitions and commission statements. Routes are
// additionally guarded by the ADMIN role at the router.
type AdminHandler struct {
	reservations  *service.Reservations
	confirmations *service.Confirmations
	commissions   *service.Commissions
}

// NewAdminHandler wires the handler.
func NewAdminHandler(reservations *service.Reservations, confirmations *service.Confirmations, commissions *service.Commissions) *AdminHandler {
	return &AdminHandler{reservations: reservations, confirmations: confirmations, commissions: commissions}
}

type reassignRequest struct {
	Role       model.ProviderKind `json:"role"`
	LineID     uint64             `json:"line_id"` // required for SERVICE, ignored for SKIPPER
	ProviderID uint64             `json:"provider_id"`
}

// Reassign handles POST /v1/admin/reservations/:id/reassign.
func (h *AdminHandler) Reassign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req reassignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.reservations.Reassign(c.Request().Context(), middleware.Actor(c), id, req.Role, req.LineID, req.ProviderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// MarkAdminAction handles POST /v1/admin/reservations/:id/admin-action.
func (h *AdminHandler) MarkAdminAction(c echo.Context) error {
	return h.transition(c, h.confirmations.MarkAdminAction)
}

// NotifyForPayment handles POST /v1/admin/reservations/:id/notify-payment.
func (h *AdminHandler) NotifyForPayment(c echo.Context) error {
	return h.transition(c, h.confirmations.NotifyForPayment)
}

// MarkConfirmed handles POST /v1/admin/reservations/:id/confirm.
func (h *AdminHandler) MarkConfirmed(c echo.Context) error {
	return h.transition(c, h.confirmations.MarkConfirmed)
}

// MarkCompleted handles POST /v1/admin/reservations/:id/complete.
func (h *AdminHandler) MarkCompleted(c echo.Context) error {
	return h.transition(c, h.confirmations.MarkCompleted)
}

// Cancel handles POST /v1/admin/reservations/:id/cancel.
func (h *AdminHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.confirmations.Cancel)
}

func (h *AdminHandler) transition(c echo.Context, op func(context.Context, model.Actor, uint64) (*model.Reservation, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := op(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Commissions handles GET /v1/admin/reservations/:id/commissions.
func (h *AdminHandler) Commissions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	shares, err := h.commissions.Statement(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shares": shares})
}
