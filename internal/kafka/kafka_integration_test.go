//go:build integration

package kafka

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

func startKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tcKafka.WithClusterID("earnflow-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestKafka_NotificationRoundTrip(t *testing.T) {
	brokers := startKafka(t)

	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	producer := NewProducer(brokers)
	defer func() { _ = producer.Close() }()
	pub := NewPublisher(producer, retry.Config{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond}, slog.Default())

	ctx, span := tp.Tracer("test").Start(context.Background(), "notify")
	// The first write may race topic auto-creation; publish a withdrawal with
	// retries first so the notification write below finds a live broker.
	require.NoError(t, pub.PublishWithdrawal(ctx, domain.WithdrawalRequest{TransactionID: "warmup", SessionID: "sess-it"}))
	pub.Notify(ctx, domain.Notification{
		SessionID: "sess-it",
		Kind:      domain.NotificationTaskCompleted,
		Message:   "Task completed! You earned ₹6",
		Amount:    6,
	})
	span.End()

	consumer := NewConsumer(brokers, TopicNotifications, "earnflow-it", slog.Default())
	defer func() { _ = consumer.Close() }()

	subCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var got domain.Notification
	var traceparent, kind string
	err := consumer.Subscribe(subCtx, func(_ context.Context, msg Message) error {
		if err := Decode(msg.Value, &got); err != nil {
			return err
		}
		traceparent = msg.Header("traceparent")
		kind = msg.Header(HeaderEventKind)
		cancel()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-it", got.SessionID)
	assert.Equal(t, 6, got.Amount)
	assert.Equal(t, string(domain.NotificationTaskCompleted), kind)
	assert.NotEmpty(t, traceparent, "trace context must travel in headers")
}
