// Package wallet is the reward sink: it holds a session's balance and its
// transaction history, newest first.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/validate"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// DefaultMinWithdrawal is the smallest amount a user may withdraw.
const DefaultMinWithdrawal = 100

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	balance int
	txs     []domain.Transaction

	minWithdrawal int
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithMinWithdrawal(n int) Option        { return func(l *Ledger) { l.minWithdrawal = n } }
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }
func WithLogger(lg *slog.Logger) Option     { return func(l *Ledger) { l.logger = lg } }

// NewLedger returns an empty ledger with a zero balance.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		minWithdrawal: DefaultMinWithdrawal,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Credit adds amount to the balance and records a successful credit.
func (l *Ledger) Credit(_ context.Context, amount int, description string) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, &domain.InvalidAmountError{Amount: amount, Minimum: 1}
	}
	tx := domain.Transaction{
		ID:          uuid.New().String(),
		Date:        l.now(),
		Amount:      amount,
		Type:        domain.TransactionCredit,
		Description: description,
		Status:      domain.TransactionSuccess,
	}

	l.mu.Lock()
	l.balance += amount
	l.prepend(tx)
	balance := l.balance
	l.mu.Unlock()

	telemetry.WalletCreditedAmount.Add(float64(amount))
	l.logger.Info("wallet credited",
		slog.String("transaction_id", tx.ID),
		slog.Int("amount", amount),
		slog.Int("balance", balance),
	)
	return tx, nil
}

// Withdraw debits amount and records a pending withdrawal to bank. The
// balance check and the debit happen under one lock.
func (l *Ledger) Withdraw(_ context.Context, amount int, bank domain.BankDetails) (domain.Transaction, error) {
	if amount < l.minWithdrawal || amount <= 0 {
		telemetry.WalletWithdrawals.WithLabelValues("invalid_amount").Inc()
		return domain.Transaction{}, &domain.InvalidAmountError{Amount: amount, Minimum: l.minWithdrawal}
	}
	if err := validate.Struct(bank); err != nil {
		telemetry.WalletWithdrawals.WithLabelValues("invalid_bank").Inc()
		return domain.Transaction{}, err
	}

	l.mu.Lock()
	if amount > l.balance {
		balance := l.balance
		l.mu.Unlock()
		telemetry.WalletWithdrawals.WithLabelValues("insufficient_balance").Inc()
		return domain.Transaction{}, &domain.InsufficientBalanceError{Requested: amount, Balance: balance}
	}
	tx := domain.Transaction{
		ID:          uuid.New().String(),
		Date:        l.now(),
		Amount:      amount,
		Type:        domain.TransactionDebit,
		Description: fmt.Sprintf("Withdrawal to %s", bank.AccountNumber),
		Status:      domain.TransactionPending,
	}
	l.balance -= amount
	l.prepend(tx)
	balance := l.balance
	l.mu.Unlock()

	telemetry.WalletWithdrawals.WithLabelValues("accepted").Inc()
	l.logger.Info("withdrawal requested",
		slog.String("transaction_id", tx.ID),
		slog.Int("amount", amount),
		slog.Int("balance", balance),
	)
	return tx, nil
}

// Balance returns the current balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Transactions returns a copy of the history, newest first.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Transaction(nil), l.txs...)
}

func (l *Ledger) prepend(tx domain.Transaction) {
	l.txs = append([]domain.Transaction{tx}, l.txs...)
}
