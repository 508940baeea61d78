package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewBookingService(repository.NewEventRepo(db), repository.NewTicketRepo(db), nil, log)
	return svc, mock
}

func TestBookIssuesTickets(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seats_left FROM events").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_left"}).AddRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("UPDATE events SET seats_left").WithArgs(-2, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	codes, err := svc.Book(context.Background(), 5, 9, 2)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	for _, code := range codes {
		assert.True(t, strings.HasPrefix(code, "TKT-"), "code %q", code)
		assert.Len(t, code, 12)
	}
	assert.NotEqual(t, codes[0], codes[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRejectsBadQuantity(t *testing.T) {
	svc, mock := newBookingService(t)

	for _, qty := range []int{0, -1, 5} {
		_, err := svc.Book(context.Background(), 5, 9, qty)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "quantity %d", qty)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookEnforcesQuota(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seats_left FROM events").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_left"}).AddRow(100))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), 5, 9, 2)
	var qErr *QuotaExceededError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, 3, qErr.Held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSoldOut(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seats_left FROM events").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_left"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), 5, 9, 2)
	var sErr *SoldOutError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 1, sErr.SeatsLeft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookUnknownEvent(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seats_left FROM events").WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_left"}))
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), 404, 9, 1)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRollsBackOnSeatUpdateFailure(t *testing.T) {
	svc, mock := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seats_left FROM events").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_left"}).AddRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE events SET seats_left").WithArgs(-1, uint64(5)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), 5, 9, 1)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
