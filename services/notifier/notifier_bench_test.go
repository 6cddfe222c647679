package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kafka"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type nopChannel struct{}

func (nopChannel) Name() string                                       { return "nop" }
func (nopChannel) Deliver(context.Context, domain.Notification) error { return nil }

func benchMessage(b *testing.B) kafka.Message {
	b.Helper()
	raw, err := kafka.Encode(domain.Notification{
		ID:        "bench-notification",
		SessionID: "bench-session",
		Kind:      domain.NotificationTaskCompleted,
		Message:   "Task completed! You earned ₹6",
		Amount:    6,
	})
	if err != nil {
		b.Fatal(err)
	}
	return kafka.Message{Value: raw}
}

// BenchmarkNotifier_ProcessMessage measures decode, span and retry overhead
// with a channel that does no I/O.
func BenchmarkNotifier_ProcessMessage(b *testing.B) {
	n := New(nil, &fakeProducer{}, nopChannel{},
		WithLogger(discardLogger),
		WithRetries(3),
		WithBaseDelay(time.Millisecond),
	)
	msg := benchMessage(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = n.processMessage(ctx, msg)
	}
}

func BenchmarkNotifier_ProcessMessage_Parallel(b *testing.B) {
	n := New(nil, &fakeProducer{}, nopChannel{},
		WithLogger(discardLogger),
		WithRetries(3),
		WithBaseDelay(time.Millisecond),
	)
	msg := benchMessage(b)

	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			_ = n.processMessage(ctx, msg)
		}
	})
}
