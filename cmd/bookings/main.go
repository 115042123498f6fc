package main

import (
	"context"

	bookingshandler "spacer/internal/bookings/handler"
	bookingsrepo "spacer/internal/bookings/repository"
	bookingssvc "spacer/internal/bookings/service"
	"spacer/internal/bookings/validator"
	"spacer/internal/notifications"
	paymentshandler "spacer/internal/payments/handler"
	"spacer/internal/payments/provider"
	paymentsrepo "spacer/internal/payments/repository"
	paymentssvc "spacer/internal/payments/service"
	spaceshandler "spacer/internal/spaces/handler"
	spacesrepo "spacer/internal/spaces/repository"
	spacessvc "spacer/internal/spaces/service"
	"spacer/pkg/app"
	"spacer/pkg/config"
	"spacer/pkg/kafka"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown()

	cfg.Log.Info("Starting bookings service")

	notifier := initNotifier(cfg)

	spaceRepo := spacesrepo.NewMongoSpaceRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewBookingLockRepository(cfg)
	paymentRepo := paymentsrepo.NewMongoPaymentRepository(cfg)

	ensureIndexes(cfg, bookingRepo, lockRepo, paymentRepo)

	spaceService := spacessvc.NewSpaceService(spaceRepo, cfg)
	bookingService := bookingssvc.NewBookingService(
		bookingRepo,
		lockRepo,
		spaceRepo,
		paymentRepo,
		validator.NewBookingValidator(cfg.MaxBookingDuration),
		notifier,
		cfg,
	)
	paymentService := paymentssvc.NewPaymentService(
		paymentRepo,
		bookingRepo,
		provider.NewDarajaClient(cfg),
		notifier,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		spaceshandler.NewSpaceHandler(spaceService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, cfg.Log),
	)
	serverApp.Run()
}

func initNotifier(cfg *config.Config) notifications.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Warn("No Kafka brokers configured, booking events disabled")
		return notifications.NewNoopNotifier()
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka.LoggingMiddleware(cfg.Log))
	return notifications.NewKafkaNotifier(producer, cfg.Log)
}

func ensureIndexes(
	cfg *config.Config,
	bookings bookingsrepo.BookingRepository,
	locks bookingsrepo.BookingLockRepository,
	payments paymentsrepo.PaymentRepository,
) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	if err := bookings.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create booking indexes", "error", err)
	}
	if err := locks.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create booking lock indexes", "error", err)
	}
	if err := payments.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create payment indexes", "error", err)
	}
}
