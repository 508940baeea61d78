package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventService owns event scheduling: creation and edits go through window
// validation and the venue conflict check before touching the database.
type EventService struct {
	events   *repository.EventRepo
	conflict *ConflictChecker
	log      *logrus.Logger
}

// NewEventService constructs an EventService.
func NewEventService(events *repository.EventRepo, conflict *ConflictChecker, log *logrus.Logger) *EventService {
	return &EventService{events: events, conflict: conflict, log: log}
}

// EventInput carries the caller-supplied fields for create and edit.
type EventInput struct {
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	Capacity int
	Price    float64
	VenueID  uint64
}

// Create schedules a new event. The full capacity starts as available
// inventory.
func (s *EventService) Create(ctx context.Context, in EventInput, organizerID uint64) (*repository.Event, error) {
	if in.Title == "" {
		return nil, &ValidationError{Msg: "title is required"}
	}
	if in.Capacity < 1 {
		return nil, &ValidationError{Msg: "capacity must be at least 1"}
	}
	if in.Price < 0 {
		return nil, &ValidationError{Msg: "price cannot be negative"}
	}
	if err := ValidateEventWindow(in.StartsAt, in.EndsAt, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.conflict.Check(ctx, in.VenueID, in.StartsAt, in.EndsAt, 0); err != nil {
		return nil, err
	}

	ev := &repository.Event{
		Title:       in.Title,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		SeatsLeft:   in.Capacity,
		Price:       in.Price,
		OrganizerID: organizerID,
		VenueID:     in.VenueID,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"event_id": ev.ID, "venue_id": ev.VenueID}).Info("event created")
	return ev, nil
}

// Edit updates an event the organizer owns. Capacity may shrink only down
// to the number of seats already booked; seats_left is recomputed so the
// booked count is preserved across the edit. The event row stays locked
// from the initial read to the write, so a booking or cancellation
// committing mid-edit cannot have its seat movement overwritten.
func (s *EventService) Edit(ctx context.Context, eventID uint64, in EventInput, organizerID uint64) (*repository.Event, error) {
	tx, err := s.events.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin edit tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := s.events.GetByIDAndOrganizerForUpdateTx(ctx, tx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, &ValidationError{Msg: "title is required"}
	}
	if in.Capacity < 1 {
		return nil, &ValidationError{Msg: "capacity must be at least 1"}
	}
	if in.Price < 0 {
		return nil, &ValidationError{Msg: "price cannot be negative"}
	}
	if err := ValidateEventWindow(in.StartsAt, in.EndsAt, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.conflict.Check(ctx, in.VenueID, in.StartsAt, in.EndsAt, eventID); err != nil {
		return nil, err
	}

	booked := ev.Capacity - ev.SeatsLeft
	if in.Capacity < booked {
		return nil, &CapacityBelowBookedError{Booked: booked}
	}

	ev.Title = in.Title
	ev.StartsAt = in.StartsAt
	ev.EndsAt = in.EndsAt
	ev.Capacity = in.Capacity
	ev.SeatsLeft = in.Capacity - booked
	ev.Price = in.Price
	ev.VenueID = in.VenueID
	if err := s.events.UpdateTx(ctx, tx, ev, organizerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit edit tx: %w", err)
	}
	committed = true
	s.log.WithField("event_id", ev.ID).Info("event updated")
	return ev, nil
}

// Delete removes an event the organizer owns. Tickets go with it via the
// FK cascade.
func (s *EventService) Delete(ctx context.Context, eventID, organizerID uint64) error {
	if err := s.events.DeleteByIDAndOrganizer(ctx, eventID, organizerID); err != nil {
		return err
	}
	s.log.WithField("event_id", eventID).Info("event deleted")
	return nil
}
