package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gymsched/pkg/client"
	"gymsched/pkg/logger"
	"gymsched/pkg/schedule"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SlotStepMinutes int
	WeeklyCapHours  int
	SlotLockTTL     time.Duration

	ShiftMorningStart   string
	ShiftMorningEnd     string
	ShiftAfternoonStart string
	ShiftAfternoonEnd   string
	ShiftNightStart     string
	ShiftNightEnd       string

	NotificationsTopic    string
	NotificationsDLQTopic string
	NotifyTimeout         time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SlotStepMinutes: getEnvNum(EnvSlotStepMinutes, DefaultSlotStepMinutes),
		WeeklyCapHours:  getEnvNum(EnvWeeklyCapHours, DefaultWeeklyCapHours),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		ShiftMorningStart:   getEnvStr(EnvShiftMorningStart, DefaultShiftMorningStart),
		ShiftMorningEnd:     getEnvStr(EnvShiftMorningEnd, DefaultShiftMorningEnd),
		ShiftAfternoonStart: getEnvStr(EnvShiftAfternoonStart, DefaultShiftAfternoonStart),
		ShiftAfternoonEnd:   getEnvStr(EnvShiftAfternoonEnd, DefaultShiftAfternoonEnd),
		ShiftNightStart:     getEnvStr(EnvShiftNightStart, DefaultShiftNightStart),
		ShiftNightEnd:       getEnvStr(EnvShiftNightEnd, DefaultShiftNightEnd),

		NotificationsTopic:    getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotificationsDLQTopic: getEnvStr(EnvNotificationsDLQTopic, DefaultNotificationsDLQTopic),
		NotifyTimeout:         getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// ShiftTemplates builds the engine's template set from the configured
// clocks. Load has already validated the clock format, so parse errors
// cannot occur here.
func (cfg *Config) ShiftTemplates() map[string]schedule.Shift {
	mk := func(start, end string) schedule.Shift {
		iv, _ := schedule.ParseInterval(start, end)
		return schedule.Shift{Work: iv}
	}
	return map[string]schedule.Shift{
		schedule.ShiftMorning:   mk(cfg.ShiftMorningStart, cfg.ShiftMorningEnd),
		schedule.ShiftAfternoon: mk(cfg.ShiftAfternoonStart, cfg.ShiftAfternoonEnd),
		schedule.ShiftNight:     mk(cfg.ShiftNightStart, cfg.ShiftNightEnd),
	}
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"RateLimitWindow":  cfg.RateLimitWindow,
		"RequestTimeout":   cfg.RequestTimeout,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"SlotLockTTL":      cfg.SlotLockTTL,
		"NotifyTimeout":    cfg.NotifyTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SlotStepMinutes < 5 || cfg.SlotStepMinutes > 240 {
		errs = append(errs, fmt.Sprintf("SlotStepMinutes must be between 5 and 240, got: %d", cfg.SlotStepMinutes))
	}
	if cfg.WeeklyCapHours < 1 || cfg.WeeklyCapHours > 168 {
		errs = append(errs, fmt.Sprintf("WeeklyCapHours must be between 1 and 168, got: %d", cfg.WeeklyCapHours))
	}

	for name, pair := range map[string][2]string{
		"morning shift":   {cfg.ShiftMorningStart, cfg.ShiftMorningEnd},
		"afternoon shift": {cfg.ShiftAfternoonStart, cfg.ShiftAfternoonEnd},
		"night shift":     {cfg.ShiftNightStart, cfg.ShiftNightEnd},
	} {
		if _, err := schedule.ParseInterval(pair[0], pair[1]); err != nil {
			errs = append(errs, fmt.Sprintf("%s template is invalid (%s-%s): %v", name, pair[0], pair[1], err))
		}
	}

	if cfg.NotificationsTopic == "" {
		errs = append(errs, "NotificationsTopic cannot be empty")
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"slot_step_minutes", cfg.SlotStepMinutes,
		"weekly_cap_hours", cfg.WeeklyCapHours,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"shift_morning", cfg.ShiftMorningStart+"-"+cfg.ShiftMorningEnd,
		"shift_afternoon", cfg.ShiftAfternoonStart+"-"+cfg.ShiftAfternoonEnd,
		"shift_night", cfg.ShiftNightStart+"-"+cfg.ShiftNightEnd,
		"notifications_topic", cfg.NotificationsTopic,
		"notify_timeout", cfg.NotifyTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
