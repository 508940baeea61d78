// Package repository contains data access logic for Event domain operations.
// This file defines the Event model and repository methods. An Event carries
// the seat inventory: capacity is fixed between edits while seats_left is the
// live counter mutated by bookings and cancellations. Every mutation of
// seats_left happens through the *Tx methods below under a row lock so that
// seats_left + count(tickets) == capacity holds at all times.
package repository

import (
	"context"
	"database/sql"
	"time"
)

// Event represents an event row. StartsAt and EndsAt are UTC.
type Event struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	SeatsLeft   int       `json:"seats_left"`
	Price       float64   `json:"price"`
	OrganizerID uint64    `json:"organizer_id"`
	VenueID     uint64    `json:"venue_id"`
}

// EventListing is an Event joined with its venue plus the per-caller fields
// the student dashboard needs. IsActive is computed, never stored.
type EventListing struct {
	Event
	VenueName     string `json:"venue_name"`
	VenueLocation string `json:"venue_location"`
	TicketsHeld   int    `json:"tickets_held"`
	IsActive      bool   `json:"is_active"`
}

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts a new event and assigns the generated ID back to the
// struct. The caller initializes SeatsLeft (capacity on creation).
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	const q = `INSERT INTO events (title, starts_at, ends_at, capacity, seats_left, price, organizer_id, venue_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.StartsAt, e.EndsAt, e.Capacity, e.SeatsLeft, e.Price, e.OrganizerID, e.VenueID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID retrieves an event by its ID. It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	const q = `SELECT id, title, starts_at, ends_at, capacity, seats_left, price, organizer_id, venue_id
	           FROM events WHERE id = ?`
	var e Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.SeatsLeft, &e.Price, &e.OrganizerID, &e.VenueID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByIDAndOrganizer retrieves an event only when it belongs to the given
// organizer. ErrEventNotFound covers both a missing row and foreign
// ownership; callers that must distinguish use GetByID first.
func (r *EventRepo) GetByIDAndOrganizer(ctx context.Context, id, organizerID uint64) (*Event, error) {
	const q = `SELECT id, title, starts_at, ends_at, capacity, seats_left, price, organizer_id, venue_id
	           FROM events WHERE id = ? AND organizer_id = ?`
	var e Event
	err := r.db.QueryRowContext(ctx, q, id, organizerID).Scan(
		&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.SeatsLeft, &e.Price, &e.OrganizerID, &e.VenueID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByIDAndOrganizerForUpdateTx is the locking variant of
// GetByIDAndOrganizer for use inside an edit transaction. Holding the row
// lock keeps seats_left stable while the caller recomputes it, so a
// booking or cancellation committing mid-edit cannot be overwritten.
func (r *EventRepo) GetByIDAndOrganizerForUpdateTx(ctx context.Context, tx *sql.Tx, id, organizerID uint64) (*Event, error) {
	const q = `SELECT id, title, starts_at, ends_at, capacity, seats_left, price, organizer_id, venue_id
	           FROM events WHERE id = ? AND organizer_id = ?
	           FOR UPDATE`
	var e Event
	err := tx.QueryRowContext(ctx, q, id, organizerID).Scan(
		&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.SeatsLeft, &e.Price, &e.OrganizerID, &e.VenueID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByVenue returns every event at a venue in id order, optionally
// excluding one event (the one being edited). The conflict checker walks
// this list applying the schedule buffer.
func (r *EventRepo) ListByVenue(ctx context.Context, venueID, excludeID uint64) ([]Event, error) {
	const q = `SELECT id, title, starts_at, ends_at, capacity, seats_left, price, organizer_id, venue_id
	           FROM events WHERE venue_id = ? AND id <> ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, venueID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.SeatsLeft, &e.Price, &e.OrganizerID, &e.VenueID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListForStudent returns all events with venue info, how many tickets the
// calling user already holds for each, and the computed active flag.
// Ordered soonest first.
func (r *EventRepo) ListForStudent(ctx context.Context, userID uint64, now time.Time) ([]EventListing, error) {
	const q = `SELECT e.id, e.title, e.starts_at, e.ends_at, e.capacity, e.seats_left, e.price,
	                  e.organizer_id, e.venue_id, v.name, v.location,
	                  (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.user_id = ?)
	           FROM events e
	           JOIN venues v ON v.id = e.venue_id
	           ORDER BY e.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	listings := make([]EventListing, 0)
	for rows.Next() {
		var l EventListing
		if err := rows.Scan(&l.ID, &l.Title, &l.StartsAt, &l.EndsAt, &l.Capacity, &l.SeatsLeft, &l.Price,
			&l.OrganizerID, &l.VenueID, &l.VenueName, &l.VenueLocation, &l.TicketsHeld); err != nil {
			return nil, err
		}
		// Active while seats remain and the start has not passed. An event
		// mid-occurrence already reports inactive; matches observed behavior.
		l.IsActive = l.SeatsLeft > 0 && l.StartsAt.After(now)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListByOrganizer returns the admin's own events with venue info, newest
// start time first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]EventListing, error) {
	const q = `SELECT e.id, e.title, e.starts_at, e.ends_at, e.capacity, e.seats_left, e.price,
	                  e.organizer_id, e.venue_id, v.name, v.location
	           FROM events e
	           JOIN venues v ON v.id = e.venue_id
	           WHERE e.organizer_id = ?
	           ORDER BY e.starts_at DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	listings := make([]EventListing, 0)
	for rows.Next() {
		var l EventListing
		if err := rows.Scan(&l.ID, &l.Title, &l.StartsAt, &l.EndsAt, &l.Capacity, &l.SeatsLeft, &l.Price,
			&l.OrganizerID, &l.VenueID, &l.VenueName, &l.VenueLocation); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpdateTx persists an edited event within the caller's transaction. The
// caller holds the row lock from GetByIDAndOrganizerForUpdateTx and has
// recomputed SeatsLeft from the new capacity; an update that changes
// nothing affects zero rows in MySQL, which is a successful no-op since
// ownership was already checked by the locking read.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *Event, organizerID uint64) error {
	const q = `UPDATE events
	           SET title = ?, starts_at = ?, ends_at = ?, capacity = ?, seats_left = ?, price = ?, venue_id = ?
	           WHERE id = ? AND organizer_id = ?`
	_, err := tx.ExecContext(ctx, q,
		e.Title, e.StartsAt, e.EndsAt, e.Capacity, e.SeatsLeft, e.Price, e.VenueID, e.ID, organizerID)
	return err
}

// DeleteByIDAndOrganizer removes an event owned by the organizer; tickets
// cascade via the foreign key. Zero affected rows reports ErrForbidden.
func (r *EventRepo) DeleteByIDAndOrganizer(ctx context.Context, eventID, organizerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM events WHERE id = ? AND organizer_id = ?", eventID, organizerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}

// SeatsForUpdateTx reads seats_left under a row lock. Concurrent bookings
// and cancellations on the same event serialize on this lock; operations on
// different events do not block each other.
func (r *EventRepo) SeatsForUpdateTx(ctx context.Context, tx *sql.Tx, eventID uint64) (int, error) {
	var seatsLeft int
	err := tx.QueryRowContext(ctx,
		"SELECT seats_left FROM events WHERE id = ? FOR UPDATE", eventID).Scan(&seatsLeft)
	if err == sql.ErrNoRows {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	return seatsLeft, nil
}

// AdjustSeatsTx moves seats_left by delta (negative for booking, +1 for a
// cancellation) within the caller's transaction. The caller has already
// validated the bounds under the row lock.
func (r *EventRepo) AdjustSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE events SET seats_left = seats_left + ? WHERE id = ?", delta, eventID)
	return err
}
