// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current user
// is not authorized to operate on a resource owned by someone else,
// while ErrDuplicateCode signals that a generated ticket code collided
// with an existing one and the caller should regenerate and retry.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrVenueNameTaken is returned when inserting a venue whose name is
// already in use.
var ErrVenueNameTaken = errors.New("venue name already exists")

// ErrVenueHasUpcoming is returned when a venue cannot be deleted
// because events are still scheduled to start in the future.
var ErrVenueHasUpcoming = errors.New("venue has upcoming events")

// ErrEventNotFound is returned when an event cannot be located.
var ErrEventNotFound = errors.New("event not found")

// ErrTicketNotFound is returned when a ticket cannot be located, does
// not belong to the caller, or is not in the expected status.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrDuplicateCode is returned when a ticket insert hits the unique
// index on the code column. It is retryable: the caller regenerates
// the batch of codes and tries again inside the same transaction.
var ErrDuplicateCode = errors.New("duplicate ticket code")
