package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

const (
	TopicNotifications    = "rewards.notifications"
	TopicNotificationsDLQ = "rewards.notifications.dlq"
	TopicWithdrawals      = "rewards.withdrawals"
)

// Encode serializes an event value.
func Encode(v any) ([]byte, error) { return sonic.Marshal(v) }

// Decode deserializes an event value.
func Decode(data []byte, v any) error { return sonic.Unmarshal(data, v) }

// Publisher turns domain events into Kafka messages.
type Publisher struct {
	producer Producer
	retry    retry.Config
	logger   *slog.Logger
}

// NewPublisher wraps producer. Withdrawal publishes retry per cfg.
func NewPublisher(producer Producer, cfg retry.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: producer, retry: cfg, logger: logger}
}

// Notify publishes n to the notifications topic, keyed by session. Failures
// are logged and counted, never returned.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	log := p.logger.With(
		slog.String("notification_id", n.ID),
		slog.String("session_id", n.SessionID),
		slog.String("kind", string(n.Kind)),
	)

	data, err := Encode(n)
	if err != nil {
		log.Error("encode notification", slog.String("error", err.Error()))
		return
	}
	err = p.producer.Publish(ctx, TopicNotifications, n.SessionID, data,
		kafka.Header{Key: HeaderEventKind, Value: []byte(n.Kind)})
	if err != nil {
		telemetry.EventsPublishFailures.WithLabelValues(TopicNotifications).Inc()
		log.Error("publish notification", slog.String("error", err.Error()))
		return
	}
	log.Debug("notification published")
}

// PublishWithdrawal publishes req for settlement, retrying transient failures.
func (p *Publisher) PublishWithdrawal(ctx context.Context, req domain.WithdrawalRequest) error {
	data, err := Encode(req)
	if err != nil {
		return fmt.Errorf("encode withdrawal: %w", err)
	}
	cfg := p.retry
	cfg.OnRetry = func(attempt int, err error) {
		p.logger.Warn("withdrawal publish failed, retrying",
			slog.String("transaction_id", req.TransactionID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
	err = retry.Do(ctx, cfg, func() error {
		return p.producer.Publish(ctx, TopicWithdrawals, req.SessionID, data,
			kafka.Header{Key: HeaderEventKind, Value: []byte(domain.NotificationWithdrawalRequested)})
	})
	if err != nil {
		telemetry.EventsPublishFailures.WithLabelValues(TopicWithdrawals).Inc()
		return fmt.Errorf("publish withdrawal %s: %w", req.TransactionID, err)
	}
	return nil
}
