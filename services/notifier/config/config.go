package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the notifier service.
type Config struct {
	LogLevel     string
	KafkaBrokers []string
	GroupID      string
	RedisAddr    string
	DedupTTL     time.Duration

	Channel         string
	MaxRetries      int
	DeliveryTimeout time.Duration
	BaseDelay       time.Duration

	WebhookURL     string
	WebhookHeaders map[string]string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	MetricsAddr  string
	OTelEndpoint string
	TraceSample  float64
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		KafkaBrokers: splitList(v.GetString("kafka_brokers")),
		GroupID:      v.GetString("group_id"),
		RedisAddr:    v.GetString("redis_addr"),
		DedupTTL:     v.GetDuration("dedup_ttl"),

		Channel:         v.GetString("channel"),
		MaxRetries:      v.GetInt("max_retries"),
		DeliveryTimeout: v.GetDuration("delivery_timeout"),
		BaseDelay:       v.GetDuration("base_delay"),

		WebhookURL:     v.GetString("webhook_url"),
		WebhookHeaders: v.GetStringMapString("webhook_headers"),

		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPFrom:     v.GetString("smtp_from"),
		SMTPUsername: v.GetString("smtp_username"),
		SMTPPassword: v.GetString("smtp_password"),

		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),
		TraceSample:  v.GetFloat64("trace_sample_ratio"),
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("kafka_brokers must be set"))
	}
	if c.GroupID == "" {
		errs = append(errs, errors.New("group_id must be set"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}
	if c.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("delivery_timeout must be positive"))
	}
	switch c.Channel {
	case "log":
	case "webhook":
		if c.WebhookURL == "" {
			errs = append(errs, errors.New("webhook_url must be set for the webhook channel"))
		}
	case "email":
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			errs = append(errs, errors.New("smtp_host and smtp_from must be set for the email channel"))
		}
	default:
		errs = append(errs, errors.New("channel must be one of log, webhook, email"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
