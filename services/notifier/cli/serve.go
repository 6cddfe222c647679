package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-earn-flow/internal/delivery"
	"github.com/ramiqadoumi/go-earn-flow/internal/kafka"
	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/internal/version"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
	"github.com/ramiqadoumi/go-earn-flow/services/notifier"
	"github.com/ramiqadoumi/go-earn-flow/services/notifier/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notifier",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	f.String("group-id", "notifier", "Kafka consumer group")
	f.String("redis-addr", "localhost:6379", "Redis address for redelivery dedup; empty disables dedup")
	f.Duration("dedup-ttl", 24*time.Hour, "how long delivered notification IDs are remembered")
	f.String("channel", "log", "delivery channel: log | webhook | email")
	f.Int("max-retries", 3, "retries per notification after the first attempt")
	f.Duration("delivery-timeout", 30*time.Second, "per-attempt delivery timeout")
	f.Duration("base-delay", time.Second, "base backoff between delivery attempts")
	f.String("webhook-url", "", "endpoint the webhook channel posts to")
	f.String("smtp-host", "localhost", "SMTP server host")
	f.Int("smtp-port", 1025, "SMTP server port")
	f.String("smtp-from", "noreply@earnflow.dev", "SMTP sender address")
	f.String("smtp-username", "", "SMTP auth username")
	f.String("smtp-password", "", "SMTP auth password or app password")
	f.String("metrics-addr", ":9096", "Prometheus metrics server address")
	f.String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
	f.Float64("trace-sample-ratio", 1, "fraction of new traces to keep")

	for key, flag := range map[string]string{
		"kafka_brokers":      "kafka-brokers",
		"group_id":           "group-id",
		"redis_addr":         "redis-addr",
		"dedup_ttl":          "dedup-ttl",
		"channel":            "channel",
		"max_retries":        "max-retries",
		"delivery_timeout":   "delivery-timeout",
		"base_delay":         "base-delay",
		"webhook_url":        "webhook-url",
		"smtp_host":          "smtp-host",
		"smtp_port":          "smtp-port",
		"smtp_from":          "smtp-from",
		"smtp_username":      "smtp-username",
		"smtp_password":      "smtp-password",
		"metrics_addr":       "metrics-addr",
		"otel_endpoint":      "otel-endpoint",
		"trace_sample_ratio": "trace-sample-ratio",
	} {
		bindFlag(key, f, flag)
	}
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// buildChannels registers every channel the config can build. Only the
// configured one is used.
func buildChannels(cfg config.Config, logger *slog.Logger) *delivery.Registry {
	reg := delivery.NewRegistry()
	reg.Register(delivery.NewLogChannel(logger))
	if cfg.WebhookURL != "" {
		reg.Register(delivery.NewWebhookChannel(cfg.WebhookURL, cfg.WebhookHeaders))
	}
	if cfg.SMTPHost != "" {
		reg.Register(delivery.NewEmailChannel(delivery.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}))
	}
	return reg
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := buildLogger(cfg.LogLevel, "notifier").With(slog.String("channel", cfg.Channel))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "notifier",
		ServiceVersion: version.Version,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.TraceSample,
	})
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	channel, err := buildChannels(cfg, logger).Get(cfg.Channel)
	if err != nil {
		return err
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, kafka.TopicNotifications, cfg.GroupID, logger)
	defer func() { _ = consumer.Close() }()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer func() { _ = producer.Close() }()

	opts := []notifier.Option{
		notifier.WithLogger(logger),
		notifier.WithRetries(cfg.MaxRetries),
		notifier.WithTimeout(cfg.DeliveryTimeout),
		notifier.WithBaseDelay(cfg.BaseDelay),
	}
	var ready telemetry.ReadyFunc
	if cfg.RedisAddr != "" {
		redisClient := redisstore.NewClient(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		opts = append(opts, notifier.WithDedup(redisstore.NewIdempotencyStore(redisClient, cfg.DedupTTL)))
		ready = func(ctx context.Context) error { return redisstore.Ping(ctx, redisClient) }
	} else {
		logger.Warn("no redis configured, redelivered notifications may be sent twice")
	}

	n := notifier.New(consumer, producer, channel, opts...)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, ready, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down, draining in-flight deliveries...")
		runCancel()
	}()

	logger.Info("notifier starting",
		slog.String("topic", kafka.TopicNotifications),
		slog.Int("max_retries", cfg.MaxRetries),
		slog.Duration("delivery_timeout", cfg.DeliveryTimeout),
	)

	if err := n.Run(runCtx); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	n.Wait()
	logger.Info("stopped cleanly")
	return nil
}
