package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ramiqadoumi/go-earn-flow/internal/auth"
	"github.com/ramiqadoumi/go-earn-flow/internal/catalog"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
	"github.com/ramiqadoumi/go-earn-flow/internal/wallet"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// maxCodeAttempts bounds the retries for a referral code no live session uses.
const maxCodeAttempts = 10

// Manager owns every live session. Safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	referrals map[string]string // referral code -> session id

	provider      kyc.Provider
	notifier      Notifier
	tasks         []domain.Task
	minWithdrawal int
	timerOpts     []timer.Option
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

func WithNotifier(n Notifier) Option            { return func(m *Manager) { m.notifier = n } }
func WithProvider(p kyc.Provider) Option        { return func(m *Manager) { m.provider = p } }
func WithTasks(tasks []domain.Task) Option      { return func(m *Manager) { m.tasks = tasks } }
func WithMinWithdrawal(n int) Option            { return func(m *Manager) { m.minWithdrawal = n } }
func WithTimerOptions(o ...timer.Option) Option { return func(m *Manager) { m.timerOpts = o } }
func WithClock(now func() time.Time) Option     { return func(m *Manager) { m.now = now } }
func WithLogger(l *slog.Logger) Option          { return func(m *Manager) { m.logger = l } }

// NewManager returns an empty manager. Without options every session gets
// the default catalog, the mock KYC provider and a notifier that drops
// everything.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:      make(map[string]*Session),
		referrals:     make(map[string]string),
		provider:      kyc.NewMockProvider(),
		notifier:      noopNotifier{},
		tasks:         catalog.Default(),
		minWithdrawal: wallet.DefaultMinWithdrawal,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds a session for profile. A referral code belonging to a live
// session credits that session with one referral; unknown codes are ignored.
func (m *Manager) Create(profile domain.User, referral string) *Session {
	id := uuid.New().String()
	log := m.logger.With(slog.String("session_id", id))
	now := m.now()

	s := &Session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
		profile:   profile,
		notifier:  m.notifier,
		logger:    log,
		Catalog:   catalog.New(m.tasks),
		Ledger: wallet.NewLedger(
			wallet.WithMinWithdrawal(m.minWithdrawal),
			wallet.WithLogger(log),
		),
	}
	engineOpts := append([]timer.Option{timer.WithLogger(log), timer.WithNotifier(s)}, m.timerOpts...)
	s.Engine = timer.NewEngine(s.Catalog, s.Ledger, engineOpts...)
	s.KYC = kyc.NewWizard(m.provider, s, s, log)

	m.mu.Lock()
	for i := 0; i < maxCodeAttempts; i++ {
		if _, taken := m.referrals[s.profile.ReferralCode]; !taken {
			break
		}
		s.profile.ReferralCode = auth.ReferralCode()
	}
	m.sessions[id] = s
	m.referrals[s.profile.ReferralCode] = id
	var referrer *Session
	if code := strings.ToUpper(strings.TrimSpace(referral)); code != "" {
		referrer = m.sessions[m.referrals[code]]
	}
	m.mu.Unlock()

	if referrer != nil && referrer != s {
		referrer.addReferral()
		log.Info("referral credited", slog.String("referrer_session_id", referrer.id))
	}
	telemetry.SessionsActive.Inc()
	log.Info("session created")
	return s
}

// Get returns the session with id or SessionNotFoundError.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &domain.SessionNotFoundError{SessionID: id}
	}
	return s, nil
}

// Touch marks the session as used now. It reports whether the session exists.
func (m *Manager) Touch(id string) bool {
	s, err := m.Get(id)
	if err != nil {
		return false
	}
	s.touch(m.now())
	return true
}

// Delete drops the session and stops its timer. A running task earns nothing.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		m.drop(s)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	telemetry.SessionsActive.Dec()
	s.logger.Info("session deleted")
	return true
}

// Reap deletes sessions idle for longer than maxIdle. Sessions with a running
// timer are kept however long they have been idle.
func (m *Manager) Reap(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var expired []*Session
	for _, s := range m.sessions {
		if !s.idleSince().Before(cutoff) || !s.Engine.State().Idle() {
			continue
		}
		m.drop(s)
		expired = append(expired, s)
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
		telemetry.SessionsActive.Dec()
		telemetry.SessionsReaped.Inc()
		s.logger.Info("session expired")
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close deletes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		m.drop(s)
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
		telemetry.SessionsActive.Dec()
	}
}

// drop must be called with m.mu held.
func (m *Manager) drop(s *Session) {
	delete(m.sessions, s.id)
	if code := s.referralCode(); m.referrals[code] == s.id {
		delete(m.referrals, code)
	}
}

// StartReaper runs Reap(maxIdle) on schedule, a cron spec such as
// "@every 1m". Stop the returned cron to end it.
func (m *Manager) StartReaper(schedule string, maxIdle time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := m.Reap(maxIdle); n > 0 {
			m.logger.Info("idle sessions reaped", slog.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reaper schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
