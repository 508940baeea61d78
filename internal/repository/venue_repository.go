// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Venue model and repository methods. A Venue is a
// physical location owned by one admin; events are scheduled into it and the
// conflict checker guards against double-booking its calendar.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Venue represents a venue row. AdminID references the owning admin user.
type Venue struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	AdminID  uint64 `json:"admin_id"`
}

// VenueWithUpcoming extends Venue with the number of events at the venue
// whose start time is still in the future. Used in the admin venue list so
// the UI can tell which venues are safe to delete.
type VenueWithUpcoming struct {
	Venue
	UpcomingEvents int `json:"upcoming_events"`
}

// VenueRepo encapsulates all database queries related to venues.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// Create inserts a new venue. The name column carries a unique index;
// a duplicate insert reports ErrVenueNameTaken.
func (r *VenueRepo) Create(ctx context.Context, v *Venue) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO venues (name, location, admin_id) VALUES (?, ?, ?)",
		v.Name, v.Location, v.AdminID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrVenueNameTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// ListAll returns every venue ordered by name. All authenticated users may
// browse venues when picking an event.
func (r *VenueRepo) ListAll(ctx context.Context) ([]Venue, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, location, admin_id FROM venues ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]Venue, 0)
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.AdminID); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// ListByAdmin returns the admin's venues together with their upcoming event
// counts, ordered by name.
func (r *VenueRepo) ListByAdmin(ctx context.Context, adminID uint64, now time.Time) ([]VenueWithUpcoming, error) {
	const q = `SELECT v.id, v.name, v.location, v.admin_id,
	                  COUNT(CASE WHEN e.starts_at > ? THEN 1 END)
	           FROM venues v
	           LEFT JOIN events e ON e.venue_id = v.id
	           WHERE v.admin_id = ?
	           GROUP BY v.id
	           ORDER BY v.name ASC`
	rows, err := r.db.QueryContext(ctx, q, now, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]VenueWithUpcoming, 0)
	for rows.Next() {
		var v VenueWithUpcoming
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.AdminID, &v.UpcomingEvents); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// DeleteByIDAndAdmin removes a venue owned by the given admin, together
// with its past events via the FK cascade. The venue row is locked while
// upcoming events are counted so the guard and the delete see the same
// schedule. A venue that still hosts upcoming events reports
// ErrVenueHasUpcoming with the count; a missing venue or a different owner
// reports ErrForbidden, the same answer in both cases so the caller cannot
// enumerate other admins' venues.
func (r *VenueRepo) DeleteByIDAndAdmin(ctx context.Context, venueID, adminID uint64, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM venues WHERE id = ? AND admin_id = ? FOR UPDATE",
		venueID, adminID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrForbidden
	}
	if err != nil {
		return 0, err
	}

	var upcoming int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE venue_id = ? AND starts_at > ?",
		venueID, now).Scan(&upcoming)
	if err != nil {
		return 0, err
	}
	if upcoming > 0 {
		return upcoming, ErrVenueHasUpcoming
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM venues WHERE id = ?", venueID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return 0, nil
}
