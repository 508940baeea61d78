package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// reminderLead is how far before event start a reminder goes out.
const reminderLead = 30 * time.Minute

// ReminderScheduler scans for events starting in roughly 30 minutes and
// enqueues one reminder per purchased ticket. It ticks once a minute and
// each tick covers a one-minute window, so every ticket is picked up
// exactly once.
type ReminderScheduler struct {
	tickets *repository.TicketRepo
	pub     *Publisher
	log     *logrus.Logger
}

// NewReminderScheduler constructs a ReminderScheduler.
func NewReminderScheduler(tickets *repository.TicketRepo, pub *Publisher, log *logrus.Logger) *ReminderScheduler {
	return &ReminderScheduler{tickets: tickets, pub: pub, log: log}
}

// Run blocks until ctx is cancelled, firing one scan per minute.
func (s *ReminderScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *ReminderScheduler) scan(ctx context.Context) {
	now := time.Now().UTC()
	from := now.Add(reminderLead)
	to := from.Add(time.Minute)

	targets, err := s.tickets.DueReminders(ctx, from, to)
	if err != nil {
		s.log.WithError(err).Error("reminder scan failed")
		return
	}
	for _, t := range targets {
		err := s.pub.Reminder(queue.ReminderEvent{
			Email:         t.Email,
			Username:      t.Username,
			EventTitle:    t.EventTitle,
			StartsAt:      t.StartsAt,
			TicketCode:    t.Code,
			VenueName:     t.VenueName,
			VenueLocation: t.VenueLocation,
			SentAt:        now,
		})
		if err != nil {
			s.log.WithError(err).WithField("ticket", t.Code).Warn("reminder enqueue failed")
		}
	}
	if len(targets) > 0 {
		s.log.WithField("count", len(targets)).Info("reminders enqueued")
	}
}
