package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
)

// silentTicker never fires, so tests drive the engine through Engine.Tick.
type silentTicker struct{ c chan time.Time }

func (s silentTicker) C() <-chan time.Time { return s.c }
func (s silentTicker) Stop()               {}

func silent(time.Duration) timer.Ticker { return silentTicker{c: make(chan time.Time)} }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *recordingNotifier, *fakeClock) {
	t.Helper()
	n := &recordingNotifier{}
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	base := []session.Option{
		session.WithNotifier(n),
		session.WithClock(clock.Now),
		session.WithTimerOptions(timer.WithTicker(silent)),
		session.WithTasks([]domain.Task{
			{ID: "1", Title: "Quick Ad", Reward: 6, DurationSeconds: 2, Type: domain.TaskTypeAd},
			{ID: "2", Title: "Long Video", Reward: 12, DurationSeconds: 3, Type: domain.TaskTypeVideo},
		}),
		session.WithProvider(&kyc.MockProvider{Code: "1234"}),
	}
	m := session.NewManager(append(base, opts...)...)
	t.Cleanup(m.Close)
	return m, n, clock
}

func profile(email string) domain.User {
	return domain.User{Name: "Test", Email: email, Mobile: "9876543210", ReferralCode: "MPK1234"}
}

func TestManager_CreateAndGet(t *testing.T) {
	m, _, _ := newManager(t)

	s := m.Create(profile("a@example.com"), "")
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "a@example.com", got.Profile().Email)
	assert.Equal(t, 0, got.Profile().Balance)
	assert.Len(t, got.Catalog.List(), 2)
}

func TestManager_Get_Unknown(t *testing.T) {
	m, _, _ := newManager(t)

	_, err := m.Get("missing")
	var notFound *domain.SessionNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.SessionID)
}

func TestSession_TaskCompletionCreditsWalletAndNotifies(t *testing.T) {
	m, n, _ := newManager(t)
	s := m.Create(profile("a@example.com"), "")
	ctx := context.Background()

	h, err := s.Engine.Start(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, h)

	s.Engine.Tick(ctx)
	s.Engine.Tick(ctx)

	assert.True(t, s.Engine.State().Idle())
	assert.Equal(t, 6, s.Profile().Balance)
	txs := s.Ledger.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "Task Completion Reward", txs[0].Description)

	sent := n.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationTaskCompleted, sent[0].Kind)
	assert.Equal(t, s.ID(), sent[0].SessionID, "notifications carry the session id")
	assert.Equal(t, "a@example.com", sent[0].Email)
}

func TestSession_SessionsAreIsolated(t *testing.T) {
	m, _, _ := newManager(t)
	a := m.Create(profile("a@example.com"), "")
	b := m.Create(profile("b@example.com"), "")
	ctx := context.Background()

	_, err := a.Engine.Start(ctx, "1")
	require.NoError(t, err)
	a.Engine.Tick(ctx)
	a.Engine.Tick(ctx)

	assert.Equal(t, 6, a.Profile().Balance)
	assert.Equal(t, 0, b.Profile().Balance)
	task, err := b.Catalog.Get("1")
	require.NoError(t, err)
	assert.False(t, task.Completed, "completing a task in one session leaves others untouched")
}

func TestSession_Withdraw(t *testing.T) {
	m, n, _ := newManager(t, session.WithMinWithdrawal(5))
	s := m.Create(profile("a@example.com"), "")
	ctx := context.Background()
	_, err := s.Ledger.Credit(ctx, 20, "seed")
	require.NoError(t, err)

	bank := domain.BankDetails{AccountNumber: "12345678", IFSC: "SBIN0001234", HolderName: "Test"}
	tx, err := s.Withdraw(ctx, 15, bank)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.Equal(t, 5, s.Profile().Balance)

	sent := n.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationWithdrawalRequested, sent[0].Kind)
	assert.Equal(t, 15, sent[0].Amount)

	_, err = s.Withdraw(ctx, 50, bank)
	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Len(t, n.all(), 1, "a rejected withdrawal sends nothing")
}

func TestSession_KYCFlagsReachProfile(t *testing.T) {
	m, n, _ := newManager(t)
	s := m.Create(profile("a@example.com"), "")
	ctx := context.Background()

	require.NoError(t, s.KYC.SubmitDocuments(ctx))
	res, err := s.KYC.SubmitFace(ctx, []byte("jpeg"))
	require.NoError(t, err)
	require.True(t, res.Approved)
	assert.True(t, s.Profile().IsFaceVerified)

	require.NoError(t, s.KYC.SendOTP(ctx))
	require.NoError(t, s.KYC.VerifyOTP(ctx, "1234"))
	assert.True(t, s.Profile().IsKycVerified)

	sent := n.all()
	require.NotEmpty(t, sent)
	assert.Equal(t, domain.NotificationKycApproved, sent[len(sent)-1].Kind)
	assert.Equal(t, s.ID(), sent[len(sent)-1].SessionID)
}

func TestManager_Referral(t *testing.T) {
	m, _, _ := newManager(t)
	referrer := m.Create(profile("a@example.com"), "")
	code := referrer.Profile().ReferralCode

	m.Create(domain.User{Email: "b@example.com", ReferralCode: "MPK9999"}, code)
	m.Create(domain.User{Email: "c@example.com", ReferralCode: "MPK8888"}, "nosuchcode")

	assert.Equal(t, 1, referrer.Profile().Referrals)
}

func TestManager_ReferralCodesAreUnique(t *testing.T) {
	m, _, _ := newManager(t)
	a := m.Create(profile("a@example.com"), "")
	b := m.Create(profile("b@example.com"), "")

	assert.NotEqual(t, a.Profile().ReferralCode, b.Profile().ReferralCode)
}

func TestManager_Delete_StopsRunningTimer(t *testing.T) {
	m, n, _ := newManager(t)
	s := m.Create(profile("a@example.com"), "")
	ctx := context.Background()

	_, err := s.Engine.Start(ctx, "2")
	require.NoError(t, err)
	require.True(t, m.Delete(s.ID()))
	assert.False(t, m.Delete(s.ID()), "second delete is a no-op")

	assert.True(t, s.Engine.State().Idle())
	s.Engine.Tick(ctx)
	s.Engine.Tick(ctx)
	s.Engine.Tick(ctx)
	assert.Equal(t, 0, s.Profile().Balance, "a deleted session earns nothing")
	assert.Empty(t, n.all())

	_, err = m.Get(s.ID())
	assert.Error(t, err)
}

func TestManager_Reap(t *testing.T) {
	m, _, clock := newManager(t)
	idle := m.Create(profile("idle@example.com"), "")
	busy := m.Create(profile("busy@example.com"), "")
	fresh := m.Create(profile("fresh@example.com"), "")

	_, err := busy.Engine.Start(context.Background(), "2")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	require.True(t, m.Touch(fresh.ID()))
	assert.False(t, m.Touch("missing"))

	reaped := m.Reap(15 * time.Minute)
	assert.Equal(t, 1, reaped)

	_, err = m.Get(idle.ID())
	assert.Error(t, err, "idle session is evicted")
	_, err = m.Get(busy.ID())
	assert.NoError(t, err, "a running timer keeps the session alive")
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestManager_StartReaper(t *testing.T) {
	m, _, _ := newManager(t)

	_, err := m.StartReaper("not a schedule", time.Minute)
	require.Error(t, err)

	c, err := m.StartReaper("@every 1m", time.Minute)
	require.NoError(t, err)
	<-c.Stop().Done()
}

func TestManager_ConcurrentCreateDelete(t *testing.T) {
	m, _, _ := newManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := m.Create(profile("x@example.com"), "")
			_, _ = m.Get(s.ID())
			m.Touch(s.ID())
			m.Delete(s.ID())
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}
