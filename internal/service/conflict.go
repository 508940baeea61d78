package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// conflictBuffer is the slack applied to both sides of every event when
// checking a venue's schedule. Two events at the same venue must be at
// least twice this far apart.
const conflictBuffer = time.Hour

// ConflictChecker detects schedule collisions between a candidate time
// range and the existing events at a venue.
type ConflictChecker struct {
	events *repository.EventRepo
}

// NewConflictChecker constructs a ConflictChecker backed by the given
// event repository.
func NewConflictChecker(events *repository.EventRepo) *ConflictChecker {
	return &ConflictChecker{events: events}
}

// Check returns a *ConflictError when the buffered candidate range overlaps
// any buffered event at the venue, or nil when the slot is free. excludeID
// skips one event (the one being edited); pass 0 when creating. Events are
// scanned in id order and the first collision wins.
func (c *ConflictChecker) Check(ctx context.Context, venueID uint64, startsAt, endsAt time.Time, excludeID uint64) error {
	existing, err := c.events.ListByVenue(ctx, venueID, excludeID)
	if err != nil {
		return err
	}
	return findConflict(startsAt, endsAt, existing)
}

func findConflict(startsAt, endsAt time.Time, existing []repository.Event) error {
	candStart := startsAt.Add(-conflictBuffer)
	candEnd := endsAt.Add(conflictBuffer)
	for _, ev := range existing {
		otherStart := ev.StartsAt.Add(-conflictBuffer)
		otherEnd := ev.EndsAt.Add(conflictBuffer)
		if candStart.Before(otherEnd) && candEnd.After(otherStart) {
			return &ConflictError{EventTitle: ev.Title, StartsAt: ev.StartsAt, EndsAt: ev.EndsAt}
		}
	}
	return nil
}
