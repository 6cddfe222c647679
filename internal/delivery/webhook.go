package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

// WebhookChannel POSTs each notification as JSON to a fixed URL.
type WebhookChannel struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookChannel creates a WebhookChannel. headers are set on every request.
func NewWebhookChannel(url string, headers map[string]string) *WebhookChannel {
	return &WebhookChannel{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

// Deliver fails permanently on 4xx responses; 5xx and transport errors are
// worth retrying.
func (c *WebhookChannel) Deliver(ctx context.Context, n domain.Notification) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "delivery.webhook")
	defer span.End()

	if c.url == "" {
		err := errors.New("webhook channel has no url configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing url")
		return retry.Permanent(err)
	}
	span.SetAttributes(
		attribute.String("webhook.url", c.url),
		attribute.String("notification.kind", string(n.Kind)),
	)

	body, err := sonic.Marshal(n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return retry.Permanent(fmt.Errorf("encode notification: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return retry.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return fmt.Errorf("webhook call to %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		err := fmt.Errorf("webhook %s returned status %d", c.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return err
	case resp.StatusCode >= http.StatusBadRequest:
		err := fmt.Errorf("webhook %s rejected notification with status %d", c.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		return retry.Permanent(err)
	}
	return nil
}
