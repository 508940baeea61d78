package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const (
	// MaxTicketsPerUser caps how many tickets one user may hold per event.
	MaxTicketsPerUser = 4
	// codeRetries bounds regeneration attempts when a generated ticket
	// code collides with an existing row.
	codeRetries = 3
)

// BookingService issues tickets atomically against the event's seat
// inventory.
type BookingService struct {
	events  *repository.EventRepo
	tickets *repository.TicketRepo
	pub     *Publisher
	log     *logrus.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(events *repository.EventRepo, tickets *repository.TicketRepo, pub *Publisher, log *logrus.Logger) *BookingService {
	return &BookingService{events: events, tickets: tickets, pub: pub, log: log}
}

// Book purchases quantity tickets for the user on the event. The seat row
// is locked for the whole transaction, so concurrent bookings serialize on
// it and the inventory can never go negative. Either every requested
// ticket is issued or none are.
func (s *BookingService) Book(ctx context.Context, eventID, userID uint64, quantity int) ([]string, error) {
	if quantity < 1 || quantity > MaxTicketsPerUser {
		return nil, &ValidationError{Msg: fmt.Sprintf("quantity must be between 1 and %d", MaxTicketsPerUser)}
	}

	tx, err := s.events.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seatsLeft, err := s.events.SeatsForUpdateTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	held, err := s.tickets.CountByUserAndEventTx(ctx, tx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if held+quantity > MaxTicketsPerUser {
		return nil, &QuotaExceededError{Held: held}
	}
	if seatsLeft < quantity {
		return nil, &SoldOutError{SeatsLeft: seatsLeft}
	}

	codes, err := s.issueCodes(ctx, tx, userID, eventID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.events.AdjustSeatsTx(ctx, tx, eventID, -quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	committed = true

	s.log.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
		"quantity": quantity,
	}).Info("tickets booked")

	s.pub.TicketBooked(queue.TicketBookedEvent{
		EventID:     eventID,
		UserID:      userID,
		Quantity:    quantity,
		TicketCodes: codes,
		BookedAt:    time.Now().UTC(),
	})
	return codes, nil
}

// issueCodes generates fresh codes and inserts the batch, regenerating the
// whole batch on a unique-key collision. Collisions are vanishingly rare
// (32 random bits per code) so a handful of retries is plenty.
func (s *BookingService) issueCodes(ctx context.Context, tx *sql.Tx, userID, eventID uint64, quantity int) ([]string, error) {
	for attempt := 0; attempt < codeRetries; attempt++ {
		codes := make([]string, quantity)
		for i := range codes {
			code, err := utils.NewTicketCode()
			if err != nil {
				return nil, err
			}
			codes[i] = code
		}
		err := s.tickets.InsertBatchTx(ctx, tx, userID, eventID, codes)
		if err == nil {
			return codes, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not generate unique ticket codes after %d attempts", codeRetries)
}
