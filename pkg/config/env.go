package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotStepMinutes = "SLOT_STEP_MINUTES"
	EnvWeeklyCapHours  = "WEEKLY_CAP_HOURS"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"

	EnvShiftMorningStart   = "SHIFT_MORNING_START"
	EnvShiftMorningEnd     = "SHIFT_MORNING_END"
	EnvShiftAfternoonStart = "SHIFT_AFTERNOON_START"
	EnvShiftAfternoonEnd   = "SHIFT_AFTERNOON_END"
	EnvShiftNightStart     = "SHIFT_NIGHT_START"
	EnvShiftNightEnd       = "SHIFT_NIGHT_END"

	EnvNotificationsTopic    = "NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifyTimeout         = "NOTIFY_TIMEOUT"
)
