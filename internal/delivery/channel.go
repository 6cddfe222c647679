package delivery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

// Channel delivers a notification to the user through one medium.
type Channel interface {
	Deliver(ctx context.Context, n domain.Notification) error
	Name() string
}

// Registry maps channel names to their implementations.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel. Safe to call concurrently.
func (r *Registry) Register(c Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[c.Name()] = c
}

// Get returns the channel registered under name.
// Returns UnknownChannelError if none is.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[name]
	if !ok {
		return nil, &domain.UnknownChannelError{Channel: name}
	}
	return c, nil
}

// LogChannel writes notifications to a structured log. It never fails and is
// the default for local runs.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel returns a LogChannel writing to logger.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Deliver(ctx context.Context, n domain.Notification) error {
	c.logger.InfoContext(ctx, "notification",
		slog.String("notification_id", n.ID),
		slog.String("session_id", n.SessionID),
		slog.String("kind", string(n.Kind)),
		slog.String("message", n.Message),
		slog.Int("amount", n.Amount),
	)
	return nil
}
