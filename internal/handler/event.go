package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// EventHandler serves event scheduling for admins and event browsing for
// students.
type EventHandler struct {
	Events  *service.EventService
	Reports *service.ReportService
	Repo    *repository.EventRepo
	Tickets *repository.TicketRepo
}

func NewEventHandler(events *service.EventService, reports *service.ReportService, repo *repository.EventRepo, tickets *repository.TicketRepo) *EventHandler {
	return &EventHandler{Events: events, Reports: reports, Repo: repo, Tickets: tickets}
}

type eventReq struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity int       `json:"capacity"`
	Price    float64   `json:"price"`
	VenueID  uint64    `json:"venue_id"`
}

func (r eventReq) toInput() service.EventInput {
	return service.EventInput{
		Title:    r.Title,
		StartsAt: r.StartsAt.UTC(),
		EndsAt:   r.EndsAt.UTC(),
		Capacity: r.Capacity,
		Price:    r.Price,
		VenueID:  r.VenueID,
	}
}

// Create schedules a new event at a venue.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.Create(ctx, req.toInput(), middleware.UserID(c))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// Update edits an event the admin organizes.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.Edit(ctx, id, req.toInput(), middleware.UserID(c))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Delete removes an event the admin organizes, cascading to its tickets.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}

// List returns the browsing view: every event with venue info, remaining
// availability, the caller's held ticket count and the active flag.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Repo.ListForStudent(ctx, middleware.UserID(c), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ListMine returns the events the calling admin organizes, newest first.
func (h *EventHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Repo.ListByOrganizer(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Attendees returns the ticket roster for an event the admin organizes.
func (h *EventHandler) Attendees(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Repo.GetByIDAndOrganizer(ctx, id, middleware.UserID(c)); err != nil {
		return eventError(c, err)
	}
	attendees, err := h.Tickets.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list attendees failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"attendees": attendees, "count": len(attendees)})
}

// Report returns the post-event sales and attendance summary.
func (h *EventHandler) Report(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rep, err := h.Reports.Build(ctx, id, middleware.UserID(c))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// eventError maps event domain errors onto HTTP responses.
func eventError(c echo.Context, err error) error {
	var (
		vErr   *service.ValidationError
		cErr   *service.ConflictError
		capErr *service.CapacityBelowBookedError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Msg})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          cErr.Error(),
			"conflict_with":  cErr.EventTitle,
			"conflict_start": cErr.StartsAt,
			"conflict_end":   cErr.EndsAt,
		})
	case errors.As(err, &capErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": capErr.Error(), "booked": capErr.Booked})
	case errors.Is(err, service.ErrNotReady):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEventNotFound), errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event operation failed"})
	}
}
