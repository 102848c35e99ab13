package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/middleware"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/service"
)

// ProviderHandler serves the blocked-dates calendar of a provider.
type ProviderHandler struct {
	calendar *service.Calendar
}

// NewProviderHandler wires the handler.
func NewProviderHandler(calendar *service.Calendar) *ProviderHandler {
	return &ProviderHandler{calendar: calendar}
}

// ListBlockedDates handles GET /v1/providers/:id/blocked-dates.
func (h *ProviderHandler) ListBlockedDates(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider id"})
	}
	days, err := h.calendar.List(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(dateLayout))
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked_dates": out})
}

type blockDateRequest struct {
	Day string `json:"day"`
}

// BlockDate handles POST /v1/providers/:id/blocked-dates.
func (h *ProviderHandler) BlockDate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider id"})
	}
	var req blockDateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	day, err := parseDate(req.Day)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day, want YYYY-MM-DD"})
	}
	if err := h.calendar.Block(c.Request().Context(), middleware.Actor(c), id, day); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnblockDate handles DELETE /v1/providers/:id/blocked-dates/:day.
func (h *ProviderHandler) UnblockDate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider id"})
	}
	day, err := parseDate(c.Param("day"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day, want YYYY-MM-DD"})
	}
	if err := h.calendar.Unblock(c.Request().Context(), middleware.Actor(c), id, day); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
