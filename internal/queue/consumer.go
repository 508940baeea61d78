package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// reminderLogFile is where delivered reminders are recorded. A real mail
// integration would replace the file append in handleReminder.
const reminderLogFile = "logs/reminder.log"

// StartReminderConsumer connects to RabbitMQ and consumes the reminder
// queue forever, reconnecting with a backoff when the connection drops.
// It blocks, so run it in its own goroutine.
func StartReminderConsumer(url string, log *logrus.Logger) {
	for {
		if err := consumeReminders(url, log); err != nil {
			log.WithError(err).Warn("reminder consumer disconnected; retrying in 5s")
		}
		time.Sleep(5 * time.Second)
	}
}

func consumeReminders(url string, log *logrus.Logger) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(ReminderQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", ReminderQueue, err)
	}
	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	msgs, err := ch.Consume(ReminderQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	log.WithField("queue", ReminderQueue).Info("reminder consumer started")

	for msg := range msgs {
		if err := handleReminder(msg.Body); err != nil {
			log.WithError(err).Error("reminder message rejected")
			_ = msg.Nack(false, false)
			continue
		}
		_ = msg.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// handleReminder appends one formatted line per reminder to the log file.
func handleReminder(body []byte) error {
	var ev ReminderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(reminderLogFile), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(reminderLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] to=%s ticket=%s event=%q starts=%s venue=%s (%s)\n",
		time.Now().UTC().Format(time.RFC3339),
		ev.Email, ev.TicketCode, ev.EventTitle,
		ev.StartsAt.Format("2006-01-02 15:04"),
		ev.VenueName, ev.VenueLocation)
	_, err = f.WriteString(line)
	return err
}
