// Package notifier publishes reservation lifecycle events for the
// notification pipeline. Publishing is best effort: a failed publish is
// logged and never fails the booking operation that triggered it.
package notifier

import (
	"context"
	"time"

	"gymsched/pkg/kafka"
	"gymsched/pkg/logger"
)

// Event kinds emitted by the scheduling services.
const (
	EventReservationCreated     = "reservation.created"
	EventReservationRescheduled = "reservation.rescheduled"
	EventReservationCancelled   = "reservation.cancelled"
	EventReservationCompleted   = "reservation.completed"
	EventReservationBlocked     = "reservation.blocked"
	EventReservationRestored    = "reservation.restored"
)

// Event is the payload published for every notification.
type Event struct {
	Kind          string `json:"kind"`
	UserID        string `json:"user_id"`
	TrainerID     string `json:"trainer_id,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	Date          string `json:"date,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
	Close() error
}

type kafkaNotifier struct {
	producer *kafka.Producer
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

// NewKafkaNotifier wraps a producer with fire-and-forget semantics.
func NewKafkaNotifier(producer *kafka.Producer, source string, timeout time.Duration, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		source:   source,
		timeout:  timeout,
		log:      log,
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, event Event) {
	msg := kafka.NewMessage().
		WithKey(event.UserID).
		WithValue(event).
		WithEventType(event.Kind).
		WithSource(n.source).
		WithSchemaVersion("1").
		Build()

	// Detach from the request context so the publish survives the
	// HTTP response being written.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.producer.Publish(pubCtx, msg); err != nil {
			n.log.Error("Failed to publish notification event",
				"kind", event.Kind,
				"user_id", event.UserID,
				"reservation_id", event.ReservationID,
				"error", err,
			)
		}
	}()
}

func (n *kafkaNotifier) Close() error {
	return n.producer.Close()
}

type noopNotifier struct{}

// NewNoopNotifier returns a notifier that discards all events. Used in
// tests and when the broker is not configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, Event) {}
func (noopNotifier) Close() error                  { return nil }
