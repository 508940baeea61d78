package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

const (
	// cancelCutoffMin is how close to event start a cancellation is still
	// accepted.
	cancelCutoffMin = 30
	// checkinWindowMin is how early before event start the door opens.
	checkinWindowMin = 25
)

// refundRate is the fraction of the ticket price returned on cancellation.
var refundRate = decimal.NewFromFloat(0.9)

// TicketService handles the post-purchase lifecycle: cancellation with a
// partial refund and check-in at the door.
type TicketService struct {
	events  *repository.EventRepo
	tickets *repository.TicketRepo
	log     *logrus.Logger

	// now is swapped out in tests to pin the cutoff checks to a fixed
	// instant.
	now func() time.Time
}

// NewTicketService constructs a TicketService.
func NewTicketService(events *repository.EventRepo, tickets *repository.TicketRepo, log *logrus.Logger) *TicketService {
	return &TicketService{
		events:  events,
		tickets: tickets,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Cancel voids the caller's purchased ticket, frees its seat and computes
// the 90% refund, all in one transaction. The ticket row is locked while
// the cutoff is checked so a concurrent check-in cannot race the delete.
// Returns the refund amount formatted to two decimals.
func (s *TicketService) Cancel(ctx context.Context, code string, userID uint64) (string, error) {
	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin cancel tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ticketID, eventID, startsAt, price, err := s.tickets.CancelInfoTx(ctx, tx, code, userID)
	if err != nil {
		return "", err
	}
	if startsAt.Sub(s.now()) < cancelCutoffMin*time.Minute {
		return "", ErrTooLate
	}

	if err := s.tickets.DeleteByIDTx(ctx, tx, ticketID); err != nil {
		return "", err
	}
	if err := s.events.AdjustSeatsTx(ctx, tx, eventID, 1); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit cancel tx: %w", err)
	}
	committed = true

	refund := decimal.NewFromFloat(price).Mul(refundRate).Round(2)
	s.log.WithFields(logrus.Fields{
		"code":     code,
		"user_id":  userID,
		"event_id": eventID,
		"refund":   refund.StringFixed(2),
	}).Info("ticket cancelled")
	return refund.StringFixed(2), nil
}

// CheckIn marks a purchased ticket as checked in. Only allowed inside the
// 25 minute window before start. The status flip is a conditional update,
// so of two simultaneous scans exactly one succeeds.
func (s *TicketService) CheckIn(ctx context.Context, code string) error {
	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	status, startsAt, err := s.tickets.CheckinInfoTx(ctx, tx, code)
	if err != nil {
		return err
	}
	if until := startsAt.Sub(s.now()); until > checkinWindowMin*time.Minute {
		return &TooEarlyError{MinutesLeft: int(math.Ceil(until.Minutes()))}
	}
	if status != repository.StatusPurchased {
		return ErrAlreadyCheckedIn
	}

	affected, err := s.tickets.CheckInTx(ctx, tx, code)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyCheckedIn
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkin tx: %w", err)
	}
	committed = true

	s.log.WithField("code", code).Info("ticket checked in")
	return nil
}
