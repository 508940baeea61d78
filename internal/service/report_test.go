package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestComputeReport(t *testing.T) {
	p := repository.StatusPurchased
	ci := repository.StatusCheckedIn

	rep := computeReport(10, 20, []string{p, ci, ci})
	assert.Equal(t, 3, rep.TotalSold)
	assert.Equal(t, 2, rep.TotalCheckedIn)
	assert.Equal(t, "20.00", rep.PricePerTicket)
	assert.Equal(t, "60.00", rep.TotalRevenue)
	assert.Equal(t, "200.00", rep.PotentialRevenue)
	assert.Equal(t, "66.7", rep.AttendanceRate)
	assert.Equal(t, "30.0", rep.SellThroughRate)
}

func TestComputeReportNoSales(t *testing.T) {
	rep := computeReport(50, 12.5, nil)
	assert.Equal(t, 0, rep.TotalSold)
	assert.Equal(t, "0.00", rep.TotalRevenue)
	assert.Equal(t, "625.00", rep.PotentialRevenue)
	assert.Equal(t, "0.0", rep.AttendanceRate)
	assert.Equal(t, "0.0", rep.SellThroughRate)
}

func TestComputeReportFullHouse(t *testing.T) {
	ci := repository.StatusCheckedIn
	rep := computeReport(2, 9.99, []string{ci, ci})
	assert.Equal(t, "19.98", rep.TotalRevenue)
	assert.Equal(t, "100.0", rep.AttendanceRate)
	assert.Equal(t, "100.0", rep.SellThroughRate)
}

func newReportService(t *testing.T) (*ReportService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewReportService(repository.NewEventRepo(db), repository.NewTicketRepo(db)), mock
}

func eventRow(id uint64, title string, startsAt, endsAt time.Time, capacity, seatsLeft int, price float64, organizerID, venueID uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "starts_at", "ends_at", "capacity", "seats_left", "price", "organizer_id", "venue_id",
	}).AddRow(id, title, startsAt, endsAt, capacity, seatsLeft, price, organizerID, venueID)
}

func TestBuildReport(t *testing.T) {
	svc, mock := newReportService(t)
	endsAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery("SELECT id, title").WithArgs(uint64(4)).
		WillReturnRows(eventRow(4, "Demo Day", endsAt.Add(-2*time.Hour), endsAt, 10, 7, 20, 2, 1))
	mock.ExpectQuery("SELECT status FROM tickets").WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).
			AddRow(repository.StatusPurchased).
			AddRow(repository.StatusCheckedIn).
			AddRow(repository.StatusCheckedIn))

	rep, err := svc.Build(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, "Demo Day", rep.EventTitle)
	assert.Equal(t, "60.00", rep.TotalRevenue)
	assert.Equal(t, "66.7", rep.AttendanceRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildReportBeforeEventEnds(t *testing.T) {
	svc, mock := newReportService(t)
	endsAt := time.Now().UTC().Add(time.Hour)

	mock.ExpectQuery("SELECT id, title").WithArgs(uint64(4)).
		WillReturnRows(eventRow(4, "Demo Day", endsAt.Add(-2*time.Hour), endsAt, 10, 7, 20, 2, 1))

	_, err := svc.Build(context.Background(), 4, 2)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildReportForeignOrganizer(t *testing.T) {
	svc, mock := newReportService(t)
	endsAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery("SELECT id, title").WithArgs(uint64(4)).
		WillReturnRows(eventRow(4, "Demo Day", endsAt.Add(-2*time.Hour), endsAt, 10, 7, 20, 2, 1))

	_, err := svc.Build(context.Background(), 4, 99)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}
