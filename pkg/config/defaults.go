package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "spacer"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Bookings may not exceed 24 hours.
	DefaultMaxBookingDuration = 24 * time.Hour
	// Advisory locks self-expire so a crashed holder cannot wedge a space.
	DefaultBookingLockTTL = 10 * time.Second

	DefaultMpesaBaseURL = "https://sandbox.safaricom.co.ke"
	DefaultMpesaTimeout = 15 * time.Second

	DefaultKafkaEventTopic = "spacer.booking.events"

	DefaultPaginationLimit = 100
)
