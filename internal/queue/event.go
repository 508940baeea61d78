// Package queue defines the message payloads exchanged over RabbitMQ and
// the background consumer for reminder delivery.
package queue

import "time"

// Queue names. Both are declared durable by publisher and consumer.
const (
	TicketBookedQueue = "ticket.booked"
	ReminderQueue     = "event.reminder"
)

// TicketBookedEvent is published after a booking transaction commits, one
// message per booking regardless of quantity.
type TicketBookedEvent struct {
	EventID     uint64    `json:"event_id"`
	UserID      uint64    `json:"user_id"`
	Quantity    int       `json:"quantity"`
	TicketCodes []string  `json:"ticket_codes"`
	BookedAt    time.Time `json:"booked_at"`
}

// ReminderEvent is published by the reminder scheduler roughly 30 minutes
// before an event starts, one message per purchased ticket.
type ReminderEvent struct {
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	EventTitle    string    `json:"event_title"`
	StartsAt      time.Time `json:"starts_at"`
	TicketCode    string    `json:"ticket_code"`
	VenueName     string    `json:"venue_name"`
	VenueLocation string    `json:"venue_location"`
	SentAt        time.Time `json:"sent_at"`
}

// RegistrationOTPEvent carries a one-time code for account verification.
// A mail worker is expected to consume it; in development the code is also
// returned in the API response.
type RegistrationOTPEvent struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}
