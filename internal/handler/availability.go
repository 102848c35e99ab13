package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/service"
)

// AvailabilityHandler exposes the window-free check.
type AvailabilityHandler struct {
	availability *service.Availability
}

// NewAvailabilityHandler wires the handler.
func NewAvailabilityHandler(availability *service.Availability) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Check handles GET /v1/availability. Query parameters:
//
//	provider   – repeated, KIND:ID (e.g. provider=VESSEL:3&provider=SKIPPER:9)
//	kind       – SLOT or DAY_RANGE
//	slot_id    – required for SLOT
//	start_date – YYYY-MM-DD
//	end_date   – YYYY-MM-DD, defaults to start_date
func (h *AvailabilityHandler) Check(c echo.Context) error {
	refs, err := parseProviderRefs(c.QueryParams()["provider"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(refs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one provider required"})
	}

	w := model.Window{Kind: model.WindowKind(c.QueryParam("kind"))}
	switch w.Kind {
	case model.WindowSlot:
		slotID, err := strconv.ParseUint(c.QueryParam("slot_id"), 10, 64)
		if err != nil || slotID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
		}
		w.SlotID = slotID
	case model.WindowDayRange:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be SLOT or DAY_RANGE"})
	}

	start, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date, want YYYY-MM-DD"})
	}
	w.Start, w.End = start, start
	if s := c.QueryParam("end_date"); s != "" {
		if w.End, err = parseDate(s); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date, want YYYY-MM-DD"})
		}
	}
	if w.End.Before(w.Start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}

	free, err := h.availability.WindowFree(c.Request().Context(), refs, w)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": free})
}

func parseProviderRefs(params []string) ([]model.ProviderRef, error) {
	refs := make([]model.ProviderRef, 0, len(params))
	for _, p := range params {
		kind, idStr, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("provider must be KIND:ID")
		}
		ref := model.ProviderRef{Kind: model.ProviderKind(kind)}
		if !ref.Kind.Valid() {
			return nil, fmt.Errorf("unknown provider kind %q", kind)
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid provider id %q", idStr)
		}
		ref.ID = id
		refs = append(refs, ref)
	}
	return refs, nil
}
