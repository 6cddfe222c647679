//go:build integration

package notifier

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/ramiqadoumi/go-earn-flow/internal/auth"
	"github.com/ramiqadoumi/go-earn-flow/internal/delivery"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kafka"
	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

func startInfra(t *testing.T) (brokers []string, redisAddr string) {
	t.Helper()
	ctx := context.Background()

	kafkaCtr, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tcKafka.WithClusterID("earnflow-e2e"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(kafkaCtr) })
	brokers, err = kafkaCtr.Brokers(ctx)
	require.NoError(t, err)

	redisCtr, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(redisCtr) })
	connStr, err := redisCtr.ConnectionString(ctx)
	require.NoError(t, err)
	// ConnectionString returns "redis://host:port"; go-redis wants host:port.
	return brokers, strings.TrimPrefix(connStr, "redis://")
}

// createTopic avoids racing topic auto-creation on the first publish.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.DialContext(context.Background(), "tcp", broker)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestE2E_WithdrawalNotificationDelivered runs the whole notification path:
// a session withdrawal publishes to Kafka, the notifier consumes it with
// Redis dedup and posts it to a webhook.
func TestE2E_WithdrawalNotificationDelivered(t *testing.T) {
	brokers, redisAddr := startInfra(t)
	createTopic(t, brokers[0], kafka.TopicNotifications)

	received := make(chan domain.Notification, 4)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var n domain.Notification
		if err := kafka.Decode(body, &n); err == nil {
			received <- n
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	// ── rewards-api side: session with a Kafka notifier ──────────────────────
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()
	publisher := kafka.NewPublisher(producer, retry.Config{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond}, slog.Default())

	sessions := session.NewManager(session.WithNotifier(publisher))
	defer sessions.Close()
	sess := sessions.Create(auth.NewProfile("E2E User", "e2e@earnflow.dev", "9876543210"), "")

	ctx := context.Background()
	_, err := sess.Ledger.Credit(ctx, 250, "Task Completion Reward")
	require.NoError(t, err)
	_, err = sess.Withdraw(ctx, 150, domain.BankDetails{
		AccountNumber: "12345678",
		IFSC:          "SBIN0001234",
		HolderName:    "E2E User",
	})
	require.NoError(t, err)

	// ── notifier side ────────────────────────────────────────────────────────
	redisClient := redisstore.NewClient(redisAddr)
	defer func() { _ = redisClient.Close() }()

	consumer := kafka.NewConsumer(brokers, kafka.TopicNotifications, "earnflow-e2e", slog.Default())
	defer func() { _ = consumer.Close() }()

	n := New(consumer, producer, delivery.NewWebhookChannel(hook.URL, nil),
		WithDedup(redisstore.NewIdempotencyStore(redisClient, time.Hour)),
		WithBaseDelay(50*time.Millisecond),
	)

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- n.Run(runCtx) }()

	select {
	case got := <-received:
		assert.Equal(t, sess.ID(), got.SessionID)
		assert.Equal(t, domain.NotificationWithdrawalRequested, got.Kind)
		assert.Equal(t, 150, got.Amount)
		assert.Equal(t, "e2e@earnflow.dev", got.Email)

		claimed, err := redisClient.Exists(ctx, "idem:notifications:"+got.ID).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, claimed, "delivered notification is remembered")
	case <-runCtx.Done():
		t.Fatal("timed out waiting for webhook delivery")
	}

	cancel()
	require.NoError(t, <-done)
	n.Wait()
}
