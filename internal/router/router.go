// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Handlers groups everything the router needs to register the API surface.
type Handlers struct {
	Auth    *handler.AuthHandler
	Venues  *handler.VenueHandler
	Events  *handler.EventHandler
	Tickets *handler.TicketHandler
}

// Register mounts all routes. Unauthenticated endpoints live under
// /v1/auth plus the health check; everything else requires a valid access
// token, with role gates where only admins or only students may call.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Session lifecycle, no token required.
	auth := e.Group("/v1/auth")
	auth.POST("/send-otp", h.Auth.SendOTP)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole("ADMIN", "STUDENT"))

	v1.GET("/me", h.Auth.Me)

	// Venues: browsing is open to any authenticated user, management is
	// admin-only.
	v1.GET("/venues", h.Venues.List)
	admin := v1.Group("", middleware.RequireRole("ADMIN"))
	admin.POST("/venues", h.Venues.Create)
	admin.GET("/admin/venues", h.Venues.ListMine)
	admin.DELETE("/venues/:id", h.Venues.Delete)

	// Events: students browse, admins manage their own schedule plus
	// rosters and reports.
	v1.GET("/events", h.Events.List)
	admin.GET("/admin/events", h.Events.ListMine)
	admin.POST("/events", h.Events.Create)
	admin.PUT("/events/:id", h.Events.Update)
	admin.DELETE("/events/:id", h.Events.Delete)
	admin.GET("/events/:id/attendees", h.Events.Attendees)
	admin.GET("/events/:id/report", h.Events.Report)

	// Tickets: purchase and cancellation are student actions; check-in is
	// performed by admins at the door.
	student := v1.Group("", middleware.RequireRole("STUDENT"))
	student.POST("/tickets", h.Tickets.Book)
	student.GET("/tickets", h.Tickets.List)
	student.POST("/tickets/cancel", h.Tickets.Cancel)
	admin.POST("/tickets/checkin", h.Tickets.CheckIn)
}
