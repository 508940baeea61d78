// Package repository contains data access logic for the ticket ledger. One
// ticket row is one issued seat. Rows are inserted by the booking engine,
// flipped to checked_in at the door, and hard-deleted on cancellation, so
// the ledger only ever contains live tickets.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Ticket lifecycle statuses. purchased -> checked_in is the only legal
// transition; cancellation deletes the row instead of adding a status.
const (
	StatusPurchased = "purchased"
	StatusCheckedIn = "checked_in"
)

// Ticket mirrors the 'tickets' table.
type Ticket struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	EventID   uint64    `json:"event_id"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetail is a ticket joined with its event and venue for the
// student's "my tickets" view.
type TicketDetail struct {
	Code       string    `json:"code"`
	Status     string    `json:"status"`
	EventTitle string    `json:"event_title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Price      float64   `json:"price"`
	VenueName  string    `json:"venue_name"`
}

// Attendee is one roster entry for the admin attendee list.
type Attendee struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Code     string `json:"code"`
	Status   string `json:"status"`
}

// ReminderTarget is one purchased ticket whose event starts inside the
// reminder window, with everything the mailer needs to compose a message.
type ReminderTarget struct {
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	EventTitle    string    `json:"event_title"`
	StartsAt      time.Time `json:"starts_at"`
	Code          string    `json:"code"`
	VenueName     string    `json:"venue_name"`
	VenueLocation string    `json:"venue_location"`
}

// TicketRepo encapsulates database operations for tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// DB exposes the underlying sql.DB for transaction control.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// CountByUserAndEventTx counts every ticket the user holds for the event,
// checked-in ones included, within the caller's transaction. The booking
// engine compares this against the per-user quota.
func (r *TicketRepo) CountByUserAndEventTx(ctx context.Context, tx *sql.Tx, userID, eventID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE user_id = ? AND event_id = ?",
		userID, eventID).Scan(&n)
	return n, err
}

// InsertBatchTx inserts one purchased ticket row per code in a single
// statement inside the caller's transaction. A unique-index collision on a
// code reports ErrDuplicateCode so the caller can regenerate and retry;
// any other failure aborts the whole batch.
func (r *TicketRepo) InsertBatchTx(ctx context.Context, tx *sql.Tx, userID, eventID uint64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	query := "INSERT INTO tickets (user_id, event_id, code, status) VALUES "
	args := make([]interface{}, 0, len(codes)*4)
	for i, code := range codes {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, userID, eventID, code, StatusPurchased)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

// CancelInfoTx loads the cancellable ticket identified by code for the
// given user, locking the ticket row and its event row so the seat counter
// cannot move underneath the cancellation. Only purchased tickets match;
// a missing, foreign, or already checked-in ticket reports
// ErrTicketNotFound.
func (r *TicketRepo) CancelInfoTx(ctx context.Context, tx *sql.Tx, code string, userID uint64) (ticketID, eventID uint64, startsAt time.Time, price float64, err error) {
	const q = `SELECT t.id, t.event_id, e.starts_at, e.price
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           WHERE t.code = ? AND t.user_id = ? AND t.status = ?
	           FOR UPDATE`
	err = tx.QueryRowContext(ctx, q, code, userID, StatusPurchased).
		Scan(&ticketID, &eventID, &startsAt, &price)
	if err == sql.ErrNoRows {
		err = ErrTicketNotFound
	}
	return
}

// DeleteByIDTx removes one ticket row within the caller's transaction.
func (r *TicketRepo) DeleteByIDTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", ticketID)
	return err
}

// CheckinInfoTx loads a ticket's status and its event start time by code,
// locking the ticket row. Reports ErrTicketNotFound when the code is
// unknown.
func (r *TicketRepo) CheckinInfoTx(ctx context.Context, tx *sql.Tx, code string) (status string, startsAt time.Time, err error) {
	const q = `SELECT t.status, e.starts_at
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           WHERE t.code = ?
	           FOR UPDATE`
	err = tx.QueryRowContext(ctx, q, code).Scan(&status, &startsAt)
	if err == sql.ErrNoRows {
		err = ErrTicketNotFound
	}
	return
}

// CheckInTx flips a purchased ticket to checked_in. The status predicate
// makes the write conditional: a concurrent check-in of the same code
// leaves zero rows for the loser, which the caller reports as already
// checked in rather than double-processing.
func (r *TicketRepo) CheckInTx(ctx context.Context, tx *sql.Tx, code string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE tickets SET status = ? WHERE code = ? AND status = ?",
		StatusCheckedIn, code, StatusPurchased)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns the user's tickets with event and venue details,
// soonest event first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT t.code, t.status, e.title, e.starts_at, e.ends_at, e.price, v.name
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           JOIN venues v ON v.id = e.venue_id
	           WHERE t.user_id = ?
	           ORDER BY e.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	for rows.Next() {
		var d TicketDetail
		if err := rows.Scan(&d.Code, &d.Status, &d.EventTitle, &d.StartsAt, &d.EndsAt, &d.Price, &d.VenueName); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ListByEvent returns the attendee roster for an event.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]Attendee, error) {
	const q = `SELECT u.username, u.email, t.code, t.status
	           FROM tickets t
	           JOIN users u ON u.id = t.user_id
	           WHERE t.event_id = ?
	           ORDER BY u.username ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]Attendee, 0)
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.Username, &a.Email, &a.Code, &a.Status); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// StatusesByEvent returns the status of every ticket ever issued for the
// event (cancelled tickets are physically absent, so they are excluded by
// construction). The reporting engine aggregates over this.
func (r *TicketRepo) StatusesByEvent(ctx context.Context, eventID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status FROM tickets WHERE event_id = ?", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// DueReminders returns purchased tickets whose event starts inside
// [from, to). The reminder scheduler calls this once a minute with a
// one-minute window so each ticket is selected exactly once.
func (r *TicketRepo) DueReminders(ctx context.Context, from, to time.Time) ([]ReminderTarget, error) {
	const q = `SELECT u.email, u.username, e.title, e.starts_at, t.code, v.name, v.location
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           JOIN venues v ON v.id = e.venue_id
	           JOIN users u ON u.id = t.user_id
	           WHERE t.status = ? AND e.starts_at >= ? AND e.starts_at < ?`
	rows, err := r.db.QueryContext(ctx, q, StatusPurchased, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	targets := make([]ReminderTarget, 0)
	for rows.Next() {
		var t ReminderTarget
		if err := rows.Scan(&t.Email, &t.Username, &t.EventTitle, &t.StartsAt, &t.Code, &t.VenueName, &t.VenueLocation); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
