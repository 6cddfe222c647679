// Package session holds the in-memory application state of each signed-in
// user and the manager that creates, looks up and expires it.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ramiqadoumi/go-earn-flow/internal/catalog"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
	"github.com/ramiqadoumi/go-earn-flow/internal/wallet"
)

// Notifier publishes notifications on behalf of a session.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) {}

// Session is one user's application state. Wallet, catalog, timer and KYC
// state each guard themselves; the profile fields are guarded by mu.
type Session struct {
	id        string
	createdAt time.Time

	Ledger  *wallet.Ledger
	Catalog *catalog.Catalog
	Engine  *timer.Engine
	KYC     *kyc.Wizard

	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	profile  domain.User
	lastSeen time.Time
}

// ID returns the session identifier carried in the bearer token.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Profile returns a snapshot of the user with the live wallet balance.
func (s *Session) Profile() domain.User {
	s.mu.Lock()
	u := s.profile
	s.mu.Unlock()
	u.Balance = s.Ledger.Balance()
	return u
}

// Mobile returns the number the KYC code is sent to.
func (s *Session) Mobile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Mobile
}

// MarkFaceVerified records a successful face match.
func (s *Session) MarkFaceVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.IsFaceVerified = true
}

// MarkKycVerified records a completed KYC wizard.
func (s *Session) MarkKycVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.IsKycVerified = true
}

// Withdraw debits the wallet and tells the user the request was received.
func (s *Session) Withdraw(ctx context.Context, amount int, bank domain.BankDetails) (domain.Transaction, error) {
	tx, err := s.Ledger.Withdraw(ctx, amount, bank)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationWithdrawalRequested,
		Message: "Withdrawal request submitted successfully!",
		Amount:  amount,
	})
	return tx, nil
}

// Notify stamps n with this session's id and email and forwards it.
func (s *Session) Notify(ctx context.Context, n domain.Notification) {
	n.SessionID = s.id
	if n.Email == "" {
		s.mu.Lock()
		n.Email = s.profile.Email
		s.mu.Unlock()
	}
	s.notifier.Notify(ctx, n)
}

func (s *Session) addReferral() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Referrals++
}

func (s *Session) referralCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.ReferralCode
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.Engine.Close()
}
