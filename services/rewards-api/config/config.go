package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the rewards-api service.
type Config struct {
	LogLevel     string
	HTTPPort     string
	MetricsAddr  string
	OTelEndpoint string
	TraceSample  float64

	KafkaBrokers     []string
	PublishRetries   int
	PublishBaseDelay time.Duration
	RedisAddr        string

	JWTSecret string
	TokenTTL  time.Duration

	SessionIdleTimeout time.Duration
	ReaperSchedule     string
	TimerPeriod        time.Duration
	MinWithdrawal      int

	StoryRateLimit  int
	StartRateLimit  int
	RateLimitWindow time.Duration
	IdempotencyTTL  time.Duration

	GeminiAPIKey string
	GeminiModel  string
	StoryTimeout time.Duration

	KYCMockDelay time.Duration
	KYCMockCode  string

	SupportEmail string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPPort:     v.GetString("http_port"),
		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),
		TraceSample:  v.GetFloat64("trace_sample_ratio"),

		KafkaBrokers:     splitList(v.GetString("kafka_brokers")),
		PublishRetries:   v.GetInt("publish_retries"),
		PublishBaseDelay: v.GetDuration("publish_base_delay"),
		RedisAddr:        v.GetString("redis_addr"),

		JWTSecret: v.GetString("jwt_secret"),
		TokenTTL:  v.GetDuration("token_ttl"),

		SessionIdleTimeout: v.GetDuration("session_idle_timeout"),
		ReaperSchedule:     v.GetString("reaper_schedule"),
		TimerPeriod:        v.GetDuration("timer_period"),
		MinWithdrawal:      v.GetInt("min_withdrawal"),

		StoryRateLimit:  v.GetInt("story_rate_limit"),
		StartRateLimit:  v.GetInt("start_rate_limit"),
		RateLimitWindow: v.GetDuration("rate_limit_window"),
		IdempotencyTTL:  v.GetDuration("idempotency_ttl"),

		GeminiAPIKey: v.GetString("gemini_api_key"),
		GeminiModel:  v.GetString("gemini_model"),
		StoryTimeout: v.GetDuration("story_timeout"),

		KYCMockDelay: v.GetDuration("kyc_mock_delay"),
		KYCMockCode:  v.GetString("kyc_mock_code"),

		SupportEmail: v.GetString("support_email"),
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must be set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.TimerPeriod <= 0 {
		errs = append(errs, errors.New("timer_period must be positive"))
	}
	if c.MinWithdrawal <= 0 {
		errs = append(errs, errors.New("min_withdrawal must be positive"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("session_idle_timeout must be positive"))
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
