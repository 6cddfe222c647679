package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/services/rewards-api/middleware"
)

const maxBodyBytes = 1 << 20

// Router mounts every endpoint behind the shared middleware stack.
func (h *REST) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/version", h.Version)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/support", h.Support)
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(h.issuer, h.sessions, h.logger))

			r.Post("/auth/logout", h.Logout)
			r.Get("/dashboard", h.Dashboard)

			r.Get("/tasks", h.ListTasks)
			r.Get("/tasks/active", h.ActiveTask)
			r.Delete("/tasks/active", h.CancelTask)
			r.With(h.limit(h.startLimiter)).Post("/tasks/{id}/start", h.StartTask)

			r.Get("/wallet", h.Wallet)
			r.Post("/wallet/withdrawals", h.Withdraw)

			r.Get("/kyc", h.KYCState)
			r.Post("/kyc/documents", h.SubmitDocuments)
			r.Post("/kyc/face", h.SubmitFace)
			r.Post("/kyc/otp", h.SendOTP)
			r.Post("/kyc/otp/verify", h.VerifyOTP)

			r.With(h.limit(h.storyLimiter)).Post("/stories", h.GenerateStory)
		})
	})
	return r
}

func (h *REST) limit(l redisstore.RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(l, h.limitWindow, h.logger)
}
