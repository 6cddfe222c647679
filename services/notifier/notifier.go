// Package notifier consumes user notifications from Kafka and hands each one
// to a delivery channel, retrying transient failures and parking the rest on
// a dead-letter topic.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramiqadoumi/go-earn-flow/internal/delivery"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kafka"
	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// HeaderDLQError carries the last delivery error on dead-lettered messages.
const HeaderDLQError = "dlq-error"

const dedupScope = "notifications"

// Notifier delivers notifications consumed from Kafka.
type Notifier struct {
	consumer   kafka.Consumer
	producer   kafka.Producer
	channel    delivery.Channel
	dedup      redisstore.IdempotencyStore
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
	logger     *slog.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithRetries(n int) Option                       { return func(w *Notifier) { w.maxRetries = n } }
func WithTimeout(d time.Duration) Option             { return func(w *Notifier) { w.timeout = d } }
func WithLogger(l *slog.Logger) Option               { return func(w *Notifier) { w.logger = l } }
func WithBaseDelay(d time.Duration) Option           { return func(w *Notifier) { w.baseDelay = d } }
func WithDedup(s redisstore.IdempotencyStore) Option { return func(w *Notifier) { w.dedup = s } }

// New constructs a Notifier. producer is used only for the dead-letter topic.
func New(consumer kafka.Consumer, producer kafka.Producer, channel delivery.Channel, opts ...Option) *Notifier {
	n := &Notifier{
		consumer:   consumer,
		producer:   producer,
		channel:    channel,
		maxRetries: 3,
		timeout:    30 * time.Second,
		baseDelay:  time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run consumes until ctx is cancelled.
func (w *Notifier) Run(ctx context.Context) error {
	return w.consumer.Subscribe(ctx, w.processMessage)
}

// Wait blocks until all in-flight deliveries finish. Call after Run returns.
func (w *Notifier) Wait() { w.wg.Wait() }

// InFlight returns the number of deliveries in progress.
func (w *Notifier) InFlight() int64 { return w.inFlight.Load() }

// processMessage returns nil for every outcome it has dealt with, delivered
// or dead-lettered, so the offset is committed. Only a dedup store failure
// leaves the offset uncommitted.
func (w *Notifier) processMessage(consumerCtx context.Context, msg kafka.Message) error {
	var n domain.Notification
	if err := kafka.Decode(msg.Value, &n); err != nil || n.ID == "" {
		w.logger.Error("malformed notification, discarding", slog.String("raw", string(msg.Value)))
		return nil
	}

	channel := w.channel.Name()
	ctx, span := otel.Tracer("notifier").Start(consumerCtx, "notifier.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("notification.id", n.ID),
		attribute.String("notification.kind", string(n.Kind)),
		attribute.String("delivery.channel", channel),
	)

	log := w.logger.With(
		slog.String("notification_id", n.ID),
		slog.String("session_id", n.SessionID),
		slog.String("kind", string(n.Kind)),
		slog.String("channel", channel),
	)

	if w.dedup != nil {
		fresh, err := w.dedup.Claim(ctx, dedupScope, n.ID)
		if err != nil {
			log.Error("dedup claim failed", slog.String("error", err.Error()))
			return fmt.Errorf("dedup claim: %w", err)
		}
		if !fresh {
			log.Info("notification already handled, skipping")
			telemetry.NotifierDelivered.WithLabelValues(channel, "duplicate").Inc()
			return nil
		}
	}

	w.wg.Add(1)
	w.inFlight.Add(1)
	defer func() {
		w.inFlight.Add(-1)
		w.wg.Done()
	}()

	start := time.Now()
	attempts := 0
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: w.maxRetries + 1,
		BaseDelay:   w.baseDelay,
		OnRetry: func(attempt int, retryErr error) {
			telemetry.NotifierRetriesTotal.WithLabelValues(channel).Inc()
			log.Warn("delivery failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", retryErr.Error()),
			)
		},
	}, func() error {
		attempts++
		// Deliveries outlive consumer shutdown but keep their parent span.
		execCtx, cancel := context.WithTimeout(
			trace.ContextWithSpan(context.Background(), span),
			w.timeout,
		)
		defer cancel()
		return w.channel.Deliver(execCtx, n)
	})
	elapsed := time.Since(start)
	telemetry.NotifierDeliverySeconds.WithLabelValues(channel).Observe(elapsed.Seconds())

	if err == nil {
		telemetry.NotifierDelivered.WithLabelValues(channel, "delivered").Inc()
		log.Info("notification delivered",
			slog.Int("attempts", attempts),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
		return nil
	}

	span.RecordError(err)
	if consumerCtx.Err() != nil {
		// Shutdown interrupted the retries; leave the offset for redelivery.
		if w.dedup != nil {
			if rerr := w.dedup.Release(context.WithoutCancel(ctx), dedupScope, n.ID); rerr != nil {
				log.Warn("dedup release failed", slog.String("error", rerr.Error()))
			}
		}
		log.Warn("delivery interrupted by shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("delivery interrupted: %w", err)
	}
	span.SetStatus(codes.Error, "delivery exhausted")
	log.Error("notification dead-lettered",
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
	telemetry.NotifierDelivered.WithLabelValues(channel, "dead").Inc()
	if perr := w.producer.Publish(ctx, kafka.TopicNotificationsDLQ, n.SessionID, msg.Value,
		segkafka.Header{Key: HeaderDLQError, Value: []byte(err.Error())},
		segkafka.Header{Key: kafka.HeaderEventKind, Value: []byte(n.Kind)},
	); perr != nil {
		log.Error("failed to publish to DLQ", slog.String("error", perr.Error()))
	}
	return nil
}
