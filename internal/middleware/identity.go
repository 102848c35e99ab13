package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// Actor reads the authenticated caller that JWTAuth stored in the context.
// The zero Actor (user id 0, empty role) means the route ran without the
// auth middleware; handlers behind JWTAuth can rely on a non-zero user id.
func Actor(c echo.Context) model.Actor {
	var a model.Actor
	if v, ok := c.Get("user_id").(uint64); ok {
		a.UserID = v
	}
	if v, ok := c.Get("role").(model.Role); ok {
		a.Role = v
	}
	return a
}
