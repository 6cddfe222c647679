package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// Message is what a HandlerFunc sees of a Kafka record.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Offset  int64
	Headers []kafka.Header
}

// Header returns the value of the first header named key.
func (m Message) Header(key string) string {
	return HeaderCarrier(m.Headers).Get(key)
}

// HandlerFunc handles one message. A nil return commits the offset; an error
// leaves it uncommitted so the record is redelivered after a restart.
type HandlerFunc func(ctx context.Context, msg Message) error

// Consumer reads one topic as part of a consumer group.
type Consumer interface {
	Subscribe(ctx context.Context, handler HandlerFunc) error
	Close() error
}

type consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// NewConsumer joins groupID on topic, starting from the earliest offset when
// the group has none committed.
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) Consumer {
	return &consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: 0,
			StartOffset:    kafka.FirstOffset,
		}),
		logger: logger,
	}
}

// Subscribe blocks until ctx is cancelled, which is a clean return.
func (c *consumer) Subscribe(ctx context.Context, handler HandlerFunc) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		carrier := HeaderCarrier(m.Headers)
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)

		log := c.logger.With(slog.String("topic", m.Topic), slog.Int64("offset", m.Offset))
		if err := handler(msgCtx, Message{
			Topic:   m.Topic,
			Key:     m.Key,
			Value:   m.Value,
			Offset:  m.Offset,
			Headers: m.Headers,
		}); err != nil {
			log.Error("handler failed, offset not committed", slog.String("error", err.Error()))
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Error("offset commit failed", slog.String("error", err.Error()))
		}
	}
}

func (c *consumer) Close() error {
	return c.reader.Close()
}
