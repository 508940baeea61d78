package service

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/queue"
)

// Publisher pushes JSON messages onto RabbitMQ queues. Each publish opens
// its own short-lived connection so a broker restart never leaves the
// service holding a dead channel. A nil *Publisher is valid and silently
// drops messages, which is how the service runs when AMQP_URL is unset.
type Publisher struct {
	url string
	log *logrus.Logger
}

// NewPublisher returns a Publisher for the given AMQP URL, or nil when the
// URL is empty.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, log: log}
}

// TicketBooked announces a committed booking. Failures are logged, never
// returned: the booking already committed and must not be un-done by a
// broker hiccup.
func (p *Publisher) TicketBooked(ev queue.TicketBookedEvent) {
	if p == nil {
		return
	}
	if err := p.publish(queue.TicketBookedQueue, ev); err != nil {
		p.log.WithError(err).WithField("queue", queue.TicketBookedQueue).Warn("publish failed")
	}
}

// Reminder enqueues one reminder message for delivery by the consumer.
func (p *Publisher) Reminder(ev queue.ReminderEvent) error {
	if p == nil {
		return nil
	}
	return p.publish(queue.ReminderQueue, ev)
}

// RegistrationOTP hands a one-time code to the mail pipeline. Best effort
// for the same reason as TicketBooked: the code is already stored and the
// dev response path still surfaces it.
func (p *Publisher) RegistrationOTP(ev queue.RegistrationOTPEvent) {
	if p == nil {
		return
	}
	if err := p.publish("registration.otp", ev); err != nil {
		p.log.WithError(err).Warn("otp publish failed")
	}
}

func (p *Publisher) publish(queueName string, payload any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queueName, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
