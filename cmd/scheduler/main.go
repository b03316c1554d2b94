package main

import (
	"os"

	availabilityhandler "gymsched/internal/availability/handler"
	availabilityservice "gymsched/internal/availability/service"
	blockshandler "gymsched/internal/blocks/handler"
	blocksrepo "gymsched/internal/blocks/repository"
	blocksservice "gymsched/internal/blocks/service"
	blocksvalidator "gymsched/internal/blocks/validator"
	reservationshandler "gymsched/internal/reservations/handler"
	reservationsrepo "gymsched/internal/reservations/repository"
	reservationsservice "gymsched/internal/reservations/service"
	reservationsvalidator "gymsched/internal/reservations/validator"
	trainershandler "gymsched/internal/trainers/handler"
	trainersrepo "gymsched/internal/trainers/repository"
	"gymsched/pkg/app"
	"gymsched/pkg/config"
	"gymsched/pkg/contracts"
	"gymsched/pkg/kafka"
	kafkaconfig "gymsched/pkg/kafka/config"
	kafkamiddleware "gymsched/pkg/kafka/middleware"
	"gymsched/pkg/notifier"
	"gymsched/pkg/schedule"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Scheduler service")

	resolver, err := schedule.NewResolver(cfg.ShiftTemplates())
	if err != nil {
		cfg.Log.Fatal("Failed to build shift resolver", "error", err)
	}

	notify := initNotifier(cfg)
	defer func() {
		if err := notify.Close(); err != nil {
			cfg.Log.Error("Failed to close notifier", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg, initHandlers(cfg, resolver, notify)...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, resolver *schedule.Resolver, notify notifier.Notifier) []contracts.Handler {
	trainerRepo := trainersrepo.NewMongoTrainerRepository(cfg)
	reservationRepo := reservationsrepo.NewMongoReservationRepository(cfg)
	lockRepo := reservationsrepo.NewSlotLockRepository(cfg)
	blockRepo := blocksrepo.NewMongoBlockRepository(cfg)

	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		lockRepo,
		trainerRepo,
		blockRepo,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		resolver,
		notify,
		cfg,
	)
	blockService := blocksservice.NewBlockService(
		blockRepo,
		reservationRepo,
		lockRepo,
		trainerRepo,
		blocksvalidator.NewBlockValidator(cfg.Log),
		notify,
		cfg,
	)
	availabilityService := availabilityservice.NewAvailabilityService(
		reservationRepo,
		blockRepo,
		trainerRepo,
		resolver,
		cfg,
	)

	cfg.Log.Info("Scheduler services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		reservationshandler.NewReservationHandler(reservationService, cfg.Log),
		blockshandler.NewBlockHandler(blockService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		trainershandler.NewTrainerHandler(trainerRepo, cfg.Log),
	}
}

// initNotifier wires the Kafka notifier when brokers are configured and
// falls back to a no-op so the API runs without a broker in development.
func initNotifier(cfg *config.Config) notifier.Notifier {
	if os.Getenv("KAFKA_BROKERS") == "" {
		cfg.Log.Warn("KAFKA_BROKERS not set, notification events will be discarded")
		return notifier.NewNoopNotifier()
	}

	producer, err := kafka.NewProducer(kafkaconfig.Load(), cfg.NotificationsTopic, cfg.NotificationsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafkamiddleware.MetricsProducerMiddleware())

	cfg.Log.Info("Kafka notifier initialized", "topic", cfg.NotificationsTopic)
	return notifier.NewKafkaNotifier(producer, ServiceName, cfg.NotifyTimeout, cfg.Log)
}
