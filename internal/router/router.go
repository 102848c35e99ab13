// Package router registers the HTTP routes and their middleware chains.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/handler"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/middleware"
	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the authenticated API under /v1. All routes require
// a valid bearer token; the admin surface additionally requires the ADMIN
// role.
func RegisterAPI(e *echo.Echo, jwtSecret string,
	reservations *handler.ReservationHandler,
	availability *handler.AvailabilityHandler,
	providers *handler.ProviderHandler,
	admin *handler.AdminHandler) {

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleCustomer, model.RoleProvider, model.RoleAdmin))

	v1.GET("/availability", availability.Check)

	v1.POST("/reservations", reservations.Create)
	v1.GET("/reservations", reservations.List)
	v1.GET("/reservations/:id", reservations.Get)
	v1.POST("/reservations/:id/decision", reservations.Decide)

	v1.GET("/providers/:id/blocked-dates", providers.ListBlockedDates)
	v1.POST("/providers/:id/blocked-dates", providers.BlockDate)
	v1.DELETE("/providers/:id/blocked-dates/:day", providers.UnblockDate)

	adm := v1.Group("/admin")
	adm.Use(middleware.RequireRole(model.RoleAdmin))
	adm.POST("/reservations/:id/reassign", admin.Reassign)
	adm.POST("/reservations/:id/admin-action", admin.MarkAdminAction)
	adm.POST("/reservations/:id/notify-payment", admin.NotifyForPayment)
	adm.POST("/reservations/:id/confirm", admin.MarkConfirmed)
	adm.POST("/reservations/:id/complete", admin.MarkCompleted)
	adm.POST("/reservations/:id/cancel", admin.Cancel)
	adm.GET("/reservations/:id/commissions", admin.Commissions)
}
