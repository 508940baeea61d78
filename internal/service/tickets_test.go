package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

func newTicketService(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewTicketService(repository.NewEventRepo(db), repository.NewTicketRepo(db), log)
	return svc, mock
}

func cancelInfoRows(ticketID, eventID uint64, startsAt time.Time, price float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_id", "starts_at", "price"}).
		AddRow(ticketID, eventID, startsAt, price)
}

func TestCancelRefundsNinetyPercent(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.id, t.event_id").WithArgs("TKT-AB12CD34", uint64(9), repository.StatusPurchased).
		WillReturnRows(cancelInfoRows(7, 3, startsAt, 50))
	mock.ExpectExec("DELETE FROM tickets").WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE events SET seats_left").WithArgs(1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	refund, err := svc.Cancel(context.Background(), "TKT-AB12CD34", 9)
	require.NoError(t, err)
	assert.Equal(t, "45.00", refund)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRoundsRefund(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.id, t.event_id").WithArgs("TKT-AB12CD34", uint64(9), repository.StatusPurchased).
		WillReturnRows(cancelInfoRows(7, 3, startsAt, 19.99))
	mock.ExpectExec("DELETE FROM tickets").WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE events SET seats_left").WithArgs(1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	refund, err := svc.Cancel(context.Background(), "TKT-AB12CD34", 9)
	require.NoError(t, err)
	// 19.99 * 0.9 = 17.991, rounded to cents.
	assert.Equal(t, "17.99", refund)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTooCloseToStart(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(29 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.id, t.event_id").WithArgs("TKT-AB12CD34", uint64(9), repository.StatusPurchased).
		WillReturnRows(cancelInfoRows(7, 3, startsAt, 50))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), "TKT-AB12CD34", 9)
	assert.ErrorIs(t, err, ErrTooLate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownTicket(t *testing.T) {
	svc, mock := newTicketService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.id, t.event_id").WithArgs("TKT-00000000", uint64(9), repository.StatusPurchased).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "starts_at", "price"}))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), "TKT-00000000", 9)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Exactly thirty minutes out is the last moment a cancellation is still
// accepted; the cutoff rejects strictly-closer starts only.
func TestCancelAtExactCutoff(t *testing.T) {
	svc, mock := newTicketService(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for _, lead := range []time.Duration{30 * time.Minute, 31 * time.Minute} {
		startsAt := now.Add(lead)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT t.id, t.event_id").WithArgs("TKT-AB12CD34", uint64(9), repository.StatusPurchased).
			WillReturnRows(cancelInfoRows(7, 3, startsAt, 50))
		mock.ExpectExec("DELETE FROM tickets").WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE events SET seats_left").WithArgs(1, uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		refund, err := svc.Cancel(context.Background(), "TKT-AB12CD34", 9)
		require.NoError(t, err, "lead %s", lead)
		assert.Equal(t, "45.00", refund)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func checkinInfoRows(status string, startsAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"status", "starts_at"}).AddRow(status, startsAt)
}

func TestCheckInInsideWindow(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(20 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(repository.StatusCheckedIn, "TKT-AB12CD34", repository.StatusPurchased).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.CheckIn(context.Background(), "TKT-AB12CD34"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAfterStartStillAllowed(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(-10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(repository.StatusCheckedIn, "TKT-AB12CD34", repository.StatusPurchased).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.CheckIn(context.Background(), "TKT-AB12CD34"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The door opens at exactly twenty-five minutes before start; one minute
// earlier is still too soon.
func TestCheckInAtWindowEdge(t *testing.T) {
	svc, mock := newTicketService(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	startsAt := now.Add(25 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(repository.StatusCheckedIn, "TKT-AB12CD34", repository.StatusPurchased).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.CheckIn(context.Background(), "TKT-AB12CD34"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInOneMinuteBeforeWindow(t *testing.T) {
	svc, mock := newTicketService(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	startsAt := now.Add(26 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectRollback()

	err := svc.CheckIn(context.Background(), "TKT-AB12CD34")
	var eErr *TooEarlyError
	require.ErrorAs(t, err, &eErr)
	assert.Equal(t, 26, eErr.MinutesLeft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInTooEarly(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(90 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectRollback()

	err := svc.CheckIn(context.Background(), "TKT-AB12CD34")
	var eErr *TooEarlyError
	require.ErrorAs(t, err, &eErr)
	assert.Equal(t, 90, eErr.MinutesLeft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAlreadyCheckedIn(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusCheckedIn, startsAt))
	mock.ExpectRollback()

	err := svc.CheckIn(context.Background(), "TKT-AB12CD34")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInLosesRace(t *testing.T) {
	svc, mock := newTicketService(t)
	startsAt := time.Now().UTC().Add(10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.status, e.starts_at").WithArgs("TKT-AB12CD34").
		WillReturnRows(checkinInfoRows(repository.StatusPurchased, startsAt))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(repository.StatusCheckedIn, "TKT-AB12CD34", repository.StatusPurchased).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.CheckIn(context.Background(), "TKT-AB12CD34")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}
