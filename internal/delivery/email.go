package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

// EmailConfig holds SMTP connection details.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// EmailChannel mails the notification to the address the session signed up
// with.
type EmailChannel struct {
	cfg EmailConfig
}

// NewEmailChannel creates an EmailChannel from config.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, n domain.Notification) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "delivery.email")
	defer span.End()

	if n.Email == "" {
		err := errors.New("notification has no recipient email")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing recipient")
		return retry.Permanent(err)
	}
	span.SetAttributes(attribute.String("email.to", n.Email))

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	msg := buildMIME(c.cfg.From, n.Email, Subject(n.Kind), n.Message)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	// smtp.SendMail does not take a context.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, c.cfg.From, []string{n.Email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "smtp send failed")
			return fmt.Errorf("smtp send to %s: %w", n.Email, err)
		}
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("email send timed out: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return err
	}
}

// Subject returns the mail subject line for a notification kind.
func Subject(kind domain.NotificationKind) string {
	switch kind {
	case domain.NotificationTaskCompleted:
		return "Task reward credited"
	case domain.NotificationWithdrawalRequested:
		return "Withdrawal request received"
	case domain.NotificationKycApproved:
		return "KYC verification complete"
	default:
		return "Account notification"
	}
}

func buildMIME(from, to, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	)
	return []byte(msg)
}
