package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramiqadoumi/go-earn-flow/internal/auth"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/validate"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *REST) Signup(w http.ResponseWriter, r *http.Request) {
	var form auth.SignupForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	h.openSession(w, auth.ProfileFromSignup(form), form.Referral, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login. Credentials are not checked; every
// login opens a fresh session.
func (h *REST) Login(w http.ResponseWriter, r *http.Request) {
	var form auth.LoginForm
	if !h.decodeValid(w, r, &form) {
		return
	}
	h.openSession(w, auth.ProfileFromLogin(form), "", http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout. A running task is abandoned.
func (h *REST) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	h.sessions.Delete(s.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *REST) openSession(w http.ResponseWriter, profile domain.User, referral string, status int) {
	s := h.sessions.Create(profile, referral)
	token, exp, err := h.issuer.Issue(s.ID())
	if err != nil {
		h.sessions.Delete(s.ID())
		h.writeDomainError(w, err)
		return
	}
	h.logger.Info("signed in", slog.String("session_id", s.ID()))
	writeJSON(w, status, AuthResponse{Token: token, ExpiresAt: exp, User: s.Profile()})
}

// decodeValid decodes the body into v and runs its validate tags. It writes
// the 400 itself and reports false on failure.
func (h *REST) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decode(r, v); err != nil {
		if errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}
	if err := validate.Struct(v); err != nil {
		h.writeDomainError(w, err)
		return false
	}
	return true
}
