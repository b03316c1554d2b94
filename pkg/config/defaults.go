package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gymsched"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	// Booking granularity and the soft weekly usage ceiling.
	DefaultSlotStepMinutes = 30
	DefaultWeeklyCapHours  = 48

	// Slot locks auto-expire so a crashed commit cannot wedge a
	// (trainer, date) pair.
	DefaultSlotLockTTL = 10 * time.Second

	DefaultShiftMorningStart   = "07:00"
	DefaultShiftMorningEnd     = "15:00"
	DefaultShiftAfternoonStart = "11:00"
	DefaultShiftAfternoonEnd   = "19:00"
	DefaultShiftNightStart     = "14:00"
	DefaultShiftNightEnd       = "22:00"

	DefaultNotificationsTopic    = "reservation-notifications"
	DefaultNotificationsDLQTopic = "reservation-notifications-dlq"
	DefaultNotifyTimeout         = 5 * time.Second
)
