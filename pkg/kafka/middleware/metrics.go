package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"gymsched/pkg/kafka"
	"gymsched/pkg/logger"
)

// Metrics holds counters for Kafka operations. All fields are updated
// atomically.
type Metrics struct {
	MessagesPublished       int64
	MessagesPublishedFailed int64
	PublishDurationTotal    int64 // nanoseconds

	MessagesConsumed       int64
	MessagesConsumedFailed int64
	ConsumeDurationTotal   int64 // nanoseconds
}

var globalMetrics = &Metrics{}

// GetMetrics returns the process-wide metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

// Reset zeroes all counters. Useful between test cases.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.MessagesPublished, 0)
	atomic.StoreInt64(&m.MessagesPublishedFailed, 0)
	atomic.StoreInt64(&m.PublishDurationTotal, 0)
	atomic.StoreInt64(&m.MessagesConsumed, 0)
	atomic.StoreInt64(&m.MessagesConsumedFailed, 0)
	atomic.StoreInt64(&m.ConsumeDurationTotal, 0)
}

// AvgPublishDuration returns the mean publish latency so far.
func (m *Metrics) AvgPublishDuration() time.Duration {
	published := atomic.LoadInt64(&m.MessagesPublished)
	if published == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.PublishDurationTotal) / published)
}

// AvgConsumeDuration returns the mean handling latency so far.
func (m *Metrics) AvgConsumeDuration() time.Duration {
	consumed := atomic.LoadInt64(&m.MessagesConsumed)
	if consumed == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.ConsumeDurationTotal) / consumed)
}

// Log emits a snapshot of the counters.
func (m *Metrics) Log(log *logger.Logger) {
	log.Info("Kafka metrics snapshot",
		"published", atomic.LoadInt64(&m.MessagesPublished),
		"publish_failed", atomic.LoadInt64(&m.MessagesPublishedFailed),
		"avg_publish_duration", m.AvgPublishDuration(),
		"consumed", atomic.LoadInt64(&m.MessagesConsumed),
		"consume_failed", atomic.LoadInt64(&m.MessagesConsumedFailed),
		"avg_consume_duration", m.AvgConsumeDuration(),
	)
}

// MetricsProducerMiddleware counts publishes and their latency.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		atomic.AddInt64(&globalMetrics.PublishDurationTotal, int64(time.Since(start)))

		if err != nil {
			atomic.AddInt64(&globalMetrics.MessagesPublishedFailed, 1)
		} else {
			atomic.AddInt64(&globalMetrics.MessagesPublished, 1)
		}
		return err
	}
}

// MetricsConsumerMiddleware counts handled messages and their latency.
func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		atomic.AddInt64(&globalMetrics.ConsumeDurationTotal, int64(time.Since(start)))

		if err != nil {
			atomic.AddInt64(&globalMetrics.MessagesConsumedFailed, 1)
		} else {
			atomic.AddInt64(&globalMetrics.MessagesConsumed, 1)
		}
		return err
	}
}
