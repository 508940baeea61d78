package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// VenueHandler serves venue management for admins plus the public listing.
type VenueHandler struct {
	Venues *repository.VenueRepo
}

func NewVenueHandler(v *repository.VenueRepo) *VenueHandler {
	return &VenueHandler{Venues: v}
}

type venueReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Create registers a new venue owned by the calling admin. Venue names are
// globally unique.
func (h *VenueHandler) Create(c echo.Context) error {
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" || req.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/location required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := &repository.Venue{Name: req.Name, Location: req.Location, AdminID: middleware.UserID(c)}
	if err := h.Venues.Create(ctx, v); err != nil {
		if err == repository.ErrVenueNameTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue name already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// List returns every venue, for browsing and for event creation forms.
func (h *VenueHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// ListMine returns the calling admin's venues with their upcoming event
// counts.
func (h *VenueHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListByAdmin(ctx, middleware.UserID(c), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// Delete removes a venue the admin owns. Refused while the venue still has
// upcoming events, so schedules cannot be orphaned.
func (h *VenueHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	upcoming, err := h.Venues.DeleteByIDAndAdmin(ctx, id, middleware.UserID(c), time.Now().UTC())
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "venue deleted"})
	case repository.ErrVenueHasUpcoming:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":           "venue has upcoming events",
			"upcoming_events": upcoming,
		})
	case repository.ErrForbidden:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete venue failed"})
	}
}
