// Package service implements the seat-inventory and ticket-lifecycle core:
// booking, cancellation, check-in, reporting, schedule conflict checking and
// event validation. Every multi-step mutation runs inside one transaction
// with a single rollback path; handlers translate the typed errors defined
// here into HTTP responses.
package service

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports malformed or out-of-range input. User-correctable,
// never retried automatically.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError reports a venue double-booking: the candidate time range,
// padded by the schedule buffer, overlaps an existing event at the venue.
type ConflictError struct {
	EventTitle string
	StartsAt   time.Time
	EndsAt     time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlaps with %q (%s - %s); events at the same venue need a 2 hour gap",
		e.EventTitle, e.StartsAt.Format("15:04"), e.EndsAt.Format("15:04"))
}

// QuotaExceededError reports that a booking would push the user past the
// per-event ticket quota.
type QuotaExceededError struct {
	Held int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("you already hold %d ticket(s); at most %d per event", e.Held, MaxTicketsPerUser)
}

// SoldOutError reports that fewer seats remain than were requested.
type SoldOutError struct {
	SeatsLeft int
}

func (e *SoldOutError) Error() string {
	return fmt.Sprintf("only %d seat(s) available", e.SeatsLeft)
}

// TooEarlyError reports a check-in attempted before the check-in window
// opens. Retrying later may succeed.
type TooEarlyError struct {
	MinutesLeft int
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("check-in opens %d minutes before start; %d minutes remaining", checkinWindowMin, e.MinutesLeft)
}

// CapacityBelowBookedError reports a capacity edit below the number of
// seats already booked.
type CapacityBelowBookedError struct {
	Booked int
}

func (e *CapacityBelowBookedError) Error() string {
	return fmt.Sprintf("cannot reduce capacity below %d already booked seat(s)", e.Booked)
}

// ErrTooLate is returned when a cancellation arrives inside the cutoff
// before event start. Deterministic; retrying never helps.
var ErrTooLate = errors.New("cancellation closed; tickets can be cancelled up to 30 minutes before start")

// ErrAlreadyCheckedIn is returned when the ticket is not in the purchased
// state, including when a concurrent check-in won the conditional write.
var ErrAlreadyCheckedIn = errors.New("ticket already checked in")

// ErrNotReady is returned when a report is requested before the event has
// ended.
var ErrNotReady = errors.New("report not available until the event has finished")
