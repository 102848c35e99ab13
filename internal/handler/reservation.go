package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/middleware"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/service"
)

// ReservationHandler serves reservation creation, listing and the
// participant decision endpoint.
type ReservationHandler struct {
	reservations  *service.Reservations
	confirmations *service.Confirmations
}

// NewReservationHandler wires the handler.
func NewReservationHandler(reservations *service.Reservations, confirmations *service.Confirmations) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, confirmations: confirmations}
}

type windowRequest struct {
	Kind      model.WindowKind `json:"kind"`
	SlotID    uint64           `json:"slot_id"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
}

type createReservationRequest struct {
	VesselID   uint64                   `json:"vessel_id"`
	SkipperID  *uint64                  `json:"skipper_id"`
	Window     windowRequest            `json:"window"`
	GuestCount uint32                   `json:"guest_count"`
	Addons     []service.AddonRequest   `json:"addons"`
	Services   []service.ServiceRequest `json:"services"`
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	in := service.CreateInput{
		VesselID:   req.VesselID,
		SkipperID:  req.SkipperID,
		WindowKind: req.Window.Kind,
		SlotID:     req.Window.SlotID,
		GuestCount: req.GuestCount,
		Addons:     req.Addons,
		Services:   req.Services,
	}
	var err error
	if in.StartDate, err = parseDate(req.Window.StartDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date, want YYYY-MM-DD"})
	}
	if req.Window.EndDate != "" {
		if in.EndDate, err = parseDate(req.Window.EndDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date, want YYYY-MM-DD"})
		}
	} else {
		in.EndDate = in.StartDate
	}

	res, err := h.reservations.Create(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.reservations.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations. Without query parameters it lists the
// caller's own reservations; with provider_kind and provider_id it lists
// reservations implicating that provider (owner or admin only).
func (h *ReservationHandler) List(c echo.Context) error {
	actor := middleware.Actor(c)
	ctx := c.Request().Context()

	kind := c.QueryParam("provider_kind")
	if kind == "" {
		out, err := h.reservations.ListOwn(ctx, actor)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	pid, err := strconv.ParseUint(c.QueryParam("provider_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider_id"})
	}
	ref := model.ProviderRef{Kind: model.ProviderKind(kind), ID: pid}
	if !ref.Kind.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider_kind"})
	}
	out, err := h.reservations.ListForProvider(ctx, actor, ref)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type decisionRequest struct {
	Accept      bool               `json:"accept"`
	Participant *model.ProviderRef `json:"participant"` // admin only
}

// Decide handles POST /v1/reservations/:id/decision.
func (h *ReservationHandler) Decide(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Participant != nil && !req.Participant.Kind.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant kind"})
	}

	res, err := h.confirmations.Decide(c.Request().Context(), middleware.Actor(c), id, req.Participant, req.Accept)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
