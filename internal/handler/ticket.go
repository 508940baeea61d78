package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// TicketHandler serves the purchase and lifecycle endpoints for students
// plus the check-in endpoint used at the door.
type TicketHandler struct {
	Booking *service.BookingService
	Tickets *service.TicketService
	Repo    *repository.TicketRepo
}

func NewTicketHandler(b *service.BookingService, t *service.TicketService, repo *repository.TicketRepo) *TicketHandler {
	return &TicketHandler{Booking: b, Tickets: t, Repo: repo}
}

type bookReq struct {
	EventID  uint64 `json:"event_id"`
	Quantity int    `json:"quantity"`
}
type codeReq struct {
	Code string `json:"code"`
}

// Book purchases tickets for the calling student.
func (h *TicketHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	codes, err := h.Booking.Book(ctx, req.EventID, middleware.UserID(c), req.Quantity)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "tickets booked",
		"codes":   codes,
	})
}

// List returns the calling student's tickets with event and venue details.
func (h *TicketHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Repo.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tickets failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Cancel voids one of the caller's tickets and reports the refund.
func (h *TicketHandler) Cancel(c echo.Context) error {
	var req codeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	refund, err := h.Tickets.Cancel(ctx, req.Code, middleware.UserID(c))
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "ticket cancelled",
		"refund":  refund,
	})
}

// CheckIn flips a ticket to checked_in at the door. Admin-gated at the
// router; the code identifies the attendee.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	var req codeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Tickets.CheckIn(ctx, req.Code); err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "checked in"})
}

// ticketError maps ticket domain errors onto HTTP responses.
func ticketError(c echo.Context, err error) error {
	var (
		vErr     *service.ValidationError
		quotaErr *service.QuotaExceededError
		soldErr  *service.SoldOutError
		earlyErr *service.TooEarlyError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Msg})
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": quotaErr.Error(), "held": quotaErr.Held})
	case errors.As(err, &soldErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": soldErr.Error(), "seats_left": soldErr.SeatsLeft})
	case errors.As(err, &earlyErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": earlyErr.Error(), "minutes_left": earlyErr.MinutesLeft})
	case errors.Is(err, service.ErrTooLate), errors.Is(err, service.ErrAlreadyCheckedIn):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTicketNotFound), errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket operation failed"})
	}
}
