package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ramiqadoumi/go-earn-flow/internal/auth"
	"github.com/ramiqadoumi/go-earn-flow/internal/content"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
	"github.com/ramiqadoumi/go-earn-flow/internal/version"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// WithdrawalPublisher hands accepted withdrawals to settlement.
type WithdrawalPublisher interface {
	PublishWithdrawal(ctx context.Context, req domain.WithdrawalRequest) error
}

// Options wires the REST handler. Nil limiters, idempotency store, publisher
// and readiness check disable the corresponding feature.
type Options struct {
	Sessions     *session.Manager
	Issuer       *auth.Issuer
	Stories      *content.Service
	Withdrawals  WithdrawalPublisher
	Idempotency  redisstore.IdempotencyStore
	StoryLimiter redisstore.RateLimiter
	StartLimiter redisstore.RateLimiter
	LimitWindow  time.Duration
	Ready        telemetry.ReadyFunc
	SupportEmail string
	Logger       *slog.Logger
}

// REST handles HTTP requests for the rewards API.
type REST struct {
	sessions     *session.Manager
	issuer       *auth.Issuer
	stories      *content.Service
	withdrawals  WithdrawalPublisher
	idempotency  redisstore.IdempotencyStore
	storyLimiter redisstore.RateLimiter
	startLimiter redisstore.RateLimiter
	limitWindow  time.Duration
	ready        telemetry.ReadyFunc
	supportEmail string
	logger       *slog.Logger
}

// NewREST creates a new REST handler.
func NewREST(opts Options) *REST {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LimitWindow <= 0 {
		opts.LimitWindow = time.Minute
	}
	return &REST{
		sessions:     opts.Sessions,
		issuer:       opts.Issuer,
		stories:      opts.Stories,
		withdrawals:  opts.Withdrawals,
		idempotency:  opts.Idempotency,
		storyLimiter: opts.StoryLimiter,
		startLimiter: opts.StartLimiter,
		limitWindow:  opts.LimitWindow,
		ready:        opts.Ready,
		supportEmail: opts.SupportEmail,
		logger:       opts.Logger,
	}
}

var errEmptyBody = errors.New("request body is empty")

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("not ready", slog.String("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Version handles GET /version.
func (h *REST) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get("rewards-api"))
}

// SupportResponse is the GET /api/v1/support body.
type SupportResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Support handles GET /api/v1/support.
func (h *REST) Support(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SupportResponse{
		Email:   h.supportEmail,
		Message: "Our support team is available to assist you with any issues related to earnings, withdrawals, or account verification.",
	})
}

// currentSession returns the session stored by the auth middleware.
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
	}
	return s, ok
}

// writeDomainError maps typed errors to status codes. Anything unrecognised
// is logged and reported as a 500 without detail.
func (h *REST) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.TaskNotFoundError
		noSession    *domain.SessionNotFoundError
		insufficient *domain.InsufficientBalanceError
		badAmount    *domain.InvalidAmountError
		badOTP       *domain.InvalidOTPError
		badStep      *domain.InvalidStepError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &badAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &noSession), errors.Is(err, timer.ErrEngineClosed):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.As(err, &insufficient), errors.As(err, &badOTP):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &badStep), errors.Is(err, kyc.ErrVerificationInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	data, _ := sonic.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
