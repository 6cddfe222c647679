package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

type publishedMsg struct {
	topic   string
	key     string
	value   []byte
	headers []segkafka.Header
}

type fakeProducer struct {
	msgs  []publishedMsg
	errs  []error // returned in order, one per call; nil entry = success
	calls int
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, value []byte, headers ...segkafka.Header) error {
	var err error
	if p.calls < len(p.errs) {
		err = p.errs[p.calls]
	}
	p.calls++
	if err != nil {
		return err
	}
	p.msgs = append(p.msgs, publishedMsg{topic, key, value, headers})
	return nil
}
func (p *fakeProducer) Close() error { return nil }

func TestPublisher_Notify(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewPublisher(prod, retry.Config{MaxAttempts: 1}, nil)

	pub.Notify(context.Background(), domain.Notification{
		SessionID: "sess-1",
		Kind:      domain.NotificationTaskCompleted,
		Message:   "Task completed! You earned ₹6",
		Amount:    6,
	})

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, TopicNotifications, msg.topic)
	assert.Equal(t, "sess-1", msg.key)
	assert.Equal(t, string(domain.NotificationTaskCompleted), HeaderCarrier(msg.headers).Get(HeaderEventKind))

	var got domain.Notification
	require.NoError(t, Decode(msg.value, &got))
	assert.NotEmpty(t, got.ID, "id is assigned")
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 6, got.Amount)
}

func TestPublisher_Notify_SwallowsErrors(t *testing.T) {
	prod := &fakeProducer{errs: []error{errors.New("broker down")}}
	pub := NewPublisher(prod, retry.Config{MaxAttempts: 1}, nil)

	assert.NotPanics(t, func() {
		pub.Notify(context.Background(), domain.Notification{SessionID: "s"})
	})
	assert.Empty(t, prod.msgs)
}

func TestPublisher_PublishWithdrawal_Retries(t *testing.T) {
	prod := &fakeProducer{errs: []error{errors.New("transient"), nil}}
	pub := NewPublisher(prod, retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, nil)

	err := pub.PublishWithdrawal(context.Background(), domain.WithdrawalRequest{
		TransactionID: "tx-1",
		SessionID:     "sess-1",
		Amount:        150,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, prod.calls)
	require.Len(t, prod.msgs, 1)
	assert.Equal(t, TopicWithdrawals, prod.msgs[0].topic)

	var got domain.WithdrawalRequest
	require.NoError(t, Decode(prod.msgs[0].value, &got))
	assert.Equal(t, 150, got.Amount)
}

func TestPublisher_PublishWithdrawal_GivesUp(t *testing.T) {
	boom := errors.New("down")
	prod := &fakeProducer{errs: []error{boom, boom, boom}}
	pub := NewPublisher(prod, retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, nil)

	err := pub.PublishWithdrawal(context.Background(), domain.WithdrawalRequest{TransactionID: "tx-2"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, prod.calls)
}

func TestHeaderCarrier_SetReplaces(t *testing.T) {
	var c HeaderCarrier
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("other", "x")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "other"}, c.Keys())
	assert.Equal(t, "", c.Get("missing"))
}
