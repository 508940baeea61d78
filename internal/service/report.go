package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Report is the post-event sales and attendance summary. Monetary fields
// carry two decimals, rates one; both are preformatted strings so clients
// render them verbatim.
type Report struct {
	EventTitle       string    `json:"event_title"`
	EndedAt          time.Time `json:"ended_at"`
	PricePerTicket   string    `json:"price_per_ticket"`
	Capacity         int       `json:"capacity"`
	TotalSold        int       `json:"total_sold"`
	TotalCheckedIn   int       `json:"total_checked_in"`
	TotalRevenue     string    `json:"total_revenue"`
	PotentialRevenue string    `json:"potential_revenue"`
	AttendanceRate   string    `json:"attendance_rate"`
	SellThroughRate  string    `json:"sell_through_rate"`
}

// ReportService builds post-event summaries for organizers.
type ReportService struct {
	events  *repository.EventRepo
	tickets *repository.TicketRepo
}

// NewReportService constructs a ReportService.
func NewReportService(events *repository.EventRepo, tickets *repository.TicketRepo) *ReportService {
	return &ReportService{events: events, tickets: tickets}
}

// Build assembles the report for an event the admin owns. Only available
// once the event has ended; cancelled tickets are gone from the ledger, so
// the live rows are exactly the sold count.
func (s *ReportService) Build(ctx context.Context, eventID, adminID uint64) (*Report, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != adminID {
		return nil, repository.ErrForbidden
	}
	if time.Now().UTC().Before(ev.EndsAt) {
		return nil, ErrNotReady
	}

	statuses, err := s.tickets.StatusesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rep := computeReport(ev.Capacity, ev.Price, statuses)
	rep.EventTitle = ev.Title
	rep.EndedAt = ev.EndsAt
	return rep, nil
}

// computeReport derives every figure from capacity, unit price and the
// ticket status list. Rates fall back to "0.0" when their denominator is
// zero.
func computeReport(capacity int, price float64, statuses []string) *Report {
	sold := len(statuses)
	checkedIn := 0
	for _, st := range statuses {
		if st == repository.StatusCheckedIn {
			checkedIn++
		}
	}

	unit := decimal.NewFromFloat(price)
	hundred := decimal.NewFromInt(100)

	attendance := "0.0"
	if sold > 0 {
		attendance = decimal.NewFromInt(int64(checkedIn)).
			Div(decimal.NewFromInt(int64(sold))).Mul(hundred).StringFixed(1)
	}
	sellThrough := "0.0"
	if capacity > 0 {
		sellThrough = decimal.NewFromInt(int64(sold)).
			Div(decimal.NewFromInt(int64(capacity))).Mul(hundred).StringFixed(1)
	}

	return &Report{
		PricePerTicket:   unit.StringFixed(2),
		Capacity:         capacity,
		TotalSold:        sold,
		TotalCheckedIn:   checkedIn,
		TotalRevenue:     unit.Mul(decimal.NewFromInt(int64(sold))).StringFixed(2),
		PotentialRevenue: unit.Mul(decimal.NewFromInt(int64(capacity))).StringFixed(2),
		AttendanceRate:   attendance,
		SellThroughRate:  sellThrough,
	}
}
