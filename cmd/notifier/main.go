package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gymsched/pkg/config"
	"gymsched/pkg/kafka"
	kafkaconfig "gymsched/pkg/kafka/config"
	kafkamiddleware "gymsched/pkg/kafka/middleware"
	"gymsched/pkg/logger"
	"gymsched/pkg/notifier"
)

const (
	ServiceName   = "notifier"
	ConsumerGroup = "notifier-workers"
)

// The notifier worker drains the notification topic and dispatches each
// reservation event to the delivery channel. Delivery is a log line for
// now; the consumer, retry and DLQ wiring is the part that matters.
func main() {
	cfg := config.Load(ServiceName)

	consumer, err := kafka.NewConsumer(
		kafkaconfig.Load(),
		cfg.NotificationsTopic,
		ConsumerGroup,
		cfg.NotificationsDLQTopic,
		dispatch(cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafkamiddleware.MetricsConsumerMiddleware())
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close consumer", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Starting notifier worker",
		"topic", cfg.NotificationsTopic,
		"group", ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Consumer stopped with error", "error", err)
	}

	kafkamiddleware.GetMetrics().Log(cfg.Log)
	cfg.Log.Info("Notifier worker stopped")
}

func dispatch(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event notifier.Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode notification event", err)
		}
		if event.Kind == "" || event.UserID == "" {
			return kafka.NewBusinessError(
				fmt.Sprintf("notification event missing kind or user: %q/%q", event.Kind, event.UserID),
				nil,
			)
		}

		log.Info("Dispatching notification",
			"kind", event.Kind,
			"user_id", event.UserID,
			"trainer_id", event.TrainerID,
			"reservation_id", event.ReservationID,
			"date", event.Date,
			"start", event.Start,
			"end", event.End,
		)
		return nil
	}
}
