package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-earn-flow/internal/auth"
	"github.com/ramiqadoumi/go-earn-flow/internal/catalog"
	"github.com/ramiqadoumi/go-earn-flow/internal/content"
	"github.com/ramiqadoumi/go-earn-flow/internal/kafka"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
	"github.com/ramiqadoumi/go-earn-flow/internal/version"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
	"github.com/ramiqadoumi/go-earn-flow/services/rewards-api/config"
	"github.com/ramiqadoumi/go-earn-flow/services/rewards-api/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("http-port", "8080", "HTTP server port")
	f.String("metrics-addr", ":9095", "Prometheus metrics server address")
	f.String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
	f.Float64("trace-sample-ratio", 1, "fraction of new traces to keep")
	f.String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses; empty disables event publishing")
	f.Int("publish-retries", 3, "attempts for a withdrawal publish")
	f.Duration("publish-base-delay", 200*time.Millisecond, "base backoff between withdrawal publish attempts")
	f.String("redis-addr", "localhost:6379", "Redis address (host:port) for rate limits and idempotency keys")
	f.String("jwt-secret", "changeme", "session token signing secret")
	f.Duration("token-ttl", 24*time.Hour, "session token lifetime")
	f.Duration("session-idle-timeout", 30*time.Minute, "evict sessions idle for longer than this")
	f.String("reaper-schedule", "@every 1m", "cron schedule for the idle session reaper")
	f.Duration("timer-period", time.Second, "wall-clock length of one task timer tick")
	f.Int("min-withdrawal", 100, "smallest withdrawal amount")
	f.Int("story-rate-limit", 10, "story generations per session per window; 0 disables")
	f.Int("start-rate-limit", 30, "task starts per session per window; 0 disables")
	f.Duration("rate-limit-window", time.Minute, "rate limit window")
	f.Duration("idempotency-ttl", 24*time.Hour, "how long withdrawal idempotency keys are remembered")
	f.String("gemini-api-key", "", "Gemini API key; empty serves fallback stories")
	f.String("gemini-model", content.DefaultModel, "Gemini model for stories")
	f.Duration("story-timeout", 20*time.Second, "bound on one story generation")
	f.Duration("kyc-mock-delay", kyc.DefaultMockDelay, "simulated face verification latency")
	f.String("kyc-mock-code", kyc.DefaultMockCode, "one-time code the mock KYC provider accepts")
	f.String("support-email", "mpksupport1421@gmail.com", "support contact returned by /api/v1/support")

	for key, flag := range map[string]string{
		"http_port":            "http-port",
		"metrics_addr":         "metrics-addr",
		"otel_endpoint":        "otel-endpoint",
		"trace_sample_ratio":   "trace-sample-ratio",
		"kafka_brokers":        "kafka-brokers",
		"publish_retries":      "publish-retries",
		"publish_base_delay":   "publish-base-delay",
		"redis_addr":           "redis-addr",
		"jwt_secret":           "jwt-secret",
		"token_ttl":            "token-ttl",
		"session_idle_timeout": "session-idle-timeout",
		"reaper_schedule":      "reaper-schedule",
		"timer_period":         "timer-period",
		"min_withdrawal":       "min-withdrawal",
		"story_rate_limit":     "story-rate-limit",
		"start_rate_limit":     "start-rate-limit",
		"rate_limit_window":    "rate-limit-window",
		"idempotency_ttl":      "idempotency-ttl",
		"gemini_api_key":       "gemini-api-key",
		"gemini_model":         "gemini-model",
		"story_timeout":        "story-timeout",
		"kyc_mock_delay":       "kyc-mock-delay",
		"kyc_mock_code":        "kyc-mock-code",
		"support_email":        "support-email",
	} {
		bindFlag(key, f, flag)
	}
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("gemini_api_key", "EARNFLOW_GEMINI_API_KEY", "GEMINI_API_KEY")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := buildLogger(cfg.LogLevel, "rewards-api")
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "rewards-api",
		ServiceVersion: version.Version,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.TraceSample,
	})
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	// ── events ────────────────────────────────────────────────────────────────
	var publisher *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
		publisher = kafka.NewPublisher(producer, retry.Config{
			MaxAttempts: cfg.PublishRetries,
			BaseDelay:   cfg.PublishBaseDelay,
			MaxDelay:    5 * time.Second,
		}, logger)
	} else {
		logger.Warn("no kafka brokers configured, notifications and withdrawals are not published")
	}

	// ── redis ─────────────────────────────────────────────────────────────────
	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()
	ready := func(ctx context.Context) error { return redisstore.Ping(ctx, redisClient) }

	var storyLimiter, startLimiter redisstore.RateLimiter
	if cfg.StoryRateLimit > 0 {
		storyLimiter = redisstore.NewRateLimiter(redisClient, "stories", cfg.StoryRateLimit, cfg.RateLimitWindow)
	}
	if cfg.StartRateLimit > 0 {
		startLimiter = redisstore.NewRateLimiter(redisClient, "task-starts", cfg.StartRateLimit, cfg.RateLimitWindow)
	}

	// ── stories ───────────────────────────────────────────────────────────────
	var gen content.Generator = content.Disabled{}
	if cfg.GeminiAPIKey != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		gemini, err := content.NewGeminiGenerator(initCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		cancel()
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		gen = gemini
	} else {
		logger.Warn("no gemini api key configured, stories fall back to fixed text")
	}

	// ── sessions ──────────────────────────────────────────────────────────────
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithTasks(catalog.Default()),
		session.WithMinWithdrawal(cfg.MinWithdrawal),
		session.WithProvider(&kyc.MockProvider{Delay: cfg.KYCMockDelay, Code: cfg.KYCMockCode}),
		session.WithTimerOptions(timer.WithPeriod(cfg.TimerPeriod)),
	}
	if publisher != nil {
		sessionOpts = append(sessionOpts, session.WithNotifier(publisher))
	}
	sessions := session.NewManager(sessionOpts...)
	defer sessions.Close()

	reaper, err := sessions.StartReaper(cfg.ReaperSchedule, cfg.SessionIdleTimeout)
	if err != nil {
		return err
	}
	defer reaper.Stop()

	opts := handler.Options{
		Sessions:     sessions,
		Issuer:       auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Stories:      content.NewService(gen, cfg.StoryTimeout, logger),
		Idempotency:  redisstore.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL),
		StoryLimiter: storyLimiter,
		StartLimiter: startLimiter,
		LimitWindow:  cfg.RateLimitWindow,
		Ready:        ready,
		SupportEmail: cfg.SupportEmail,
		Logger:       logger,
	}
	if publisher != nil {
		opts.Withdrawals = publisher
	}
	rest := handler.NewREST(opts)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      rest.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── signal handling ───────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, ready, logger)

	go func() {
		logger.Info("rewards-api HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
