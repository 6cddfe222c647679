package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
)

const idempotencyScope = "withdrawals"

// WalletResponse is the GET /api/v1/wallet body. Transactions are newest first.
type WalletResponse struct {
	Balance      int                  `json:"balance"`
	Transactions []domain.Transaction `json:"transactions"`
}

// WithdrawRequest is the POST /api/v1/wallet/withdrawals body. Bank is
// validated by the wallet.
type WithdrawRequest struct {
	Amount int                `json:"amount"`
	Bank   domain.BankDetails `json:"bank"`
}

// WithdrawResponse is the 201 body of an accepted withdrawal.
type WithdrawResponse struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     int                `json:"balance"`
}

// Wallet handles GET /api/v1/wallet.
func (h *REST) Wallet(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, WalletResponse{
		Balance:      s.Ledger.Balance(),
		Transactions: s.Ledger.Transactions(),
	})
}

// Withdraw handles POST /api/v1/wallet/withdrawals.
//
// An Idempotency-Key header makes a retried request a 409 instead of a second
// debit. Settlement publishing happens after the debit and its failure does
// not undo it.
func (h *REST) Withdraw(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, span := otel.Tracer("rewards-api").Start(r.Context(), "rewards_api.withdraw")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.ID()),
		attribute.Int("withdrawal.amount", req.Amount),
	)

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	claimed := false
	if key != "" && h.idempotency != nil {
		ok, err := h.idempotency.Claim(ctx, s.ID()+":"+idempotencyScope, key)
		switch {
		case err != nil:
			h.logger.Warn("idempotency store unavailable", slog.String("error", err.Error()))
		case !ok:
			writeError(w, http.StatusConflict, "duplicate withdrawal request")
			return
		default:
			claimed = true
		}
	}

	tx, err := s.Withdraw(ctx, req.Amount, req.Bank)
	if err != nil {
		if claimed {
			if rerr := h.idempotency.Release(ctx, s.ID()+":"+idempotencyScope, key); rerr != nil {
				h.logger.Warn("release idempotency key", slog.String("error", rerr.Error()))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "withdraw rejected")
		h.writeDomainError(w, err)
		return
	}

	h.publishWithdrawal(ctx, s, tx, req)
	writeJSON(w, http.StatusCreated, WithdrawResponse{Transaction: tx, Balance: s.Ledger.Balance()})
}

func (h *REST) publishWithdrawal(ctx context.Context, s *session.Session, tx domain.Transaction, req WithdrawRequest) {
	if h.withdrawals == nil {
		return
	}
	err := h.withdrawals.PublishWithdrawal(ctx, domain.WithdrawalRequest{
		TransactionID: tx.ID,
		SessionID:     s.ID(),
		Amount:        req.Amount,
		Bank:          req.Bank,
		RequestedAt:   time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("withdrawal not published for settlement",
			slog.String("session_id", s.ID()),
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
	}
}
