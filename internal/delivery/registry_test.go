package delivery_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/delivery"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

// stub is a minimal Channel implementation for registry tests.
type stub struct{ name string }

func (s *stub) Name() string                                           { return s.name }
func (s *stub) Deliver(_ context.Context, _ domain.Notification) error { return nil }

func TestRegistry_Get_KnownChannel(t *testing.T) {
	reg := delivery.NewRegistry()
	reg.Register(&stub{name: "email"})

	c, err := reg.Get("email")
	require.NoError(t, err)
	assert.Equal(t, "email", c.Name())
}

func TestRegistry_Get_UnknownChannel(t *testing.T) {
	reg := delivery.NewRegistry()

	_, err := reg.Get("sms")
	require.Error(t, err)

	var unknown *domain.UnknownChannelError
	assert.True(t, errors.As(err, &unknown), "expected UnknownChannelError, got %T", err)
	assert.Equal(t, "sms", unknown.Channel)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := delivery.NewRegistry()
	reg.Register(&stub{name: "email"})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); reg.Register(&stub{name: "webhook"}) }()
		go func() { defer wg.Done(); _, _ = reg.Get("email") }()
	}
	wg.Wait()
}

func TestLogChannel_Deliver(t *testing.T) {
	var buf bytes.Buffer
	c := delivery.NewLogChannel(slog.New(slog.NewJSONHandler(&buf, nil)))
	assert.Equal(t, "log", c.Name())

	err := c.Deliver(context.Background(), domain.Notification{
		ID:        "n-1",
		SessionID: "s-1",
		Kind:      domain.NotificationTaskCompleted,
		Message:   "Task completed! You earned ₹6",
		Amount:    6,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"kind":"task.completed"`)
	assert.Contains(t, buf.String(), `"amount":6`)
}
