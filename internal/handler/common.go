// Package handler contains the HTTP layer: request decoding, authorization
// glue and the mapping from domain errors to status codes.
package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

const dateLayout = "2006-01-02"

// respondError maps domain sentinels onto HTTP status codes. Unrecognized
// errors are logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrAlreadyDecided):
		return c.JSON(http.StatusConflict, echo.Map{"error": "decision already recorded"})
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrUnknownProvider):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
