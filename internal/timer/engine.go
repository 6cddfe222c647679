// Package timer runs one countdown task at a time and grants its reward
// exactly once when the countdown reaches zero.
package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

const rewardDescription = "Task Completion Reward"

// ErrEngineClosed is returned by Start after Close.
var ErrEngineClosed = errors.New("timer engine closed")

// Catalog is the task source. MarkCompleted must report flipped=true only once
// per task.
type Catalog interface {
	Get(id string) (domain.Task, error)
	MarkCompleted(id string) (domain.Task, bool, error)
}

// RewardSink receives the reward of a completed run.
type RewardSink interface {
	Credit(ctx context.Context, amount int, description string) (domain.Transaction, error)
}

// Notifier tells the user about a completed run. Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) {}

// State is a snapshot of the timer session. ActiveTaskID is empty when idle.
type State struct {
	ActiveTaskID    string `json:"active_task_id,omitempty"`
	TimeLeftSeconds int    `json:"time_left_seconds"`
}

// Idle reports whether no task is running.
func (s State) Idle() bool { return s.ActiveTaskID == "" }

type run struct {
	taskID   string
	taskType domain.TaskType
	done     chan struct{}
	once     sync.Once
}

func (r *run) stop() { r.once.Do(func() { close(r.done) }) }

// Handle controls a single run returned by Start.
type Handle struct {
	e *Engine
	r *run
}

// TaskID returns the task this run counts down.
func (h *Handle) TaskID() string { return h.r.taskID }

// Done is closed when the run completes or is cancelled.
func (h *Handle) Done() <-chan struct{} { return h.r.done }

// Cancel stops this run without a reward. It returns false if the run already
// finished.
func (h *Handle) Cancel() bool { return h.e.cancelRun(h.r) }

// Engine owns which task is running and how much time it has left.
type Engine struct {
	catalog   Catalog
	sink      RewardSink
	notifier  Notifier
	newTicker TickerFunc
	period    time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	current  *run
	timeLeft int
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option  { return func(e *Engine) { e.logger = l } }
func WithNotifier(n Notifier) Option    { return func(e *Engine) { e.notifier = n } }
func WithTicker(f TickerFunc) Option    { return func(e *Engine) { e.newTicker = f } }
func WithPeriod(d time.Duration) Option { return func(e *Engine) { e.period = d } }

// NewEngine returns an idle engine bound to a catalog and a reward sink.
func NewEngine(catalog Catalog, sink RewardSink, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		sink:      sink,
		notifier:  noopNotifier{},
		newTicker: NewTicker,
		period:    time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start locks the engine to taskID and begins the countdown.
//
// While another task is running, or when the task is already completed, the
// request is ignored: Start returns a nil Handle and a nil error. An unknown
// task ID returns *domain.TaskNotFoundError.
func (e *Engine) Start(ctx context.Context, taskID string) (*Handle, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	task, err := e.catalog.Get(taskID)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.current != nil {
		active := e.current.taskID
		e.mu.Unlock()
		telemetry.TimerStartsIgnored.WithLabelValues("active").Inc()
		e.logger.Debug("start ignored, another task is running",
			slog.String("task_id", taskID),
			slog.String("active_task_id", active),
		)
		return nil, nil
	}
	if task.Completed {
		e.mu.Unlock()
		telemetry.TimerStartsIgnored.WithLabelValues("completed").Inc()
		e.logger.Debug("start ignored, task already completed", slog.String("task_id", taskID))
		return nil, nil
	}

	r := &run{taskID: task.ID, taskType: task.Type, done: make(chan struct{})}
	e.current = r
	e.timeLeft = task.DurationSeconds
	e.mu.Unlock()

	telemetry.TimerTasksStarted.WithLabelValues(string(task.Type)).Inc()
	telemetry.TimerRunsActive.Inc()
	e.logger.Info("task started",
		slog.String("task_id", task.ID),
		slog.Int("duration_seconds", task.DurationSeconds),
	)

	go e.drive(context.WithoutCancel(ctx), r)
	return &Handle{e: e, r: r}, nil
}

// Tick advances the active run by one second. It is a no-op when idle.
func (e *Engine) Tick(ctx context.Context) {
	e.tick(ctx, nil)
}

// Cancel stops the active run without a reward. It returns false when idle.
func (e *Engine) Cancel() bool {
	return e.cancelRun(nil)
}

// State returns the current timer session.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return State{}
	}
	return State{ActiveTaskID: e.current.taskID, TimeLeftSeconds: e.timeLeft}
}

// Close cancels any active run and rejects further starts.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancelRun(nil)
}

func (e *Engine) drive(ctx context.Context, r *run) {
	t := e.newTicker(e.period)
	defer t.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-t.C():
			e.tick(ctx, r)
		}
	}
}

// tick applies one tick to r, or to whichever run is active when r is nil.
// Ticks from a run that is no longer current are dropped.
func (e *Engine) tick(ctx context.Context, r *run) {
	e.mu.Lock()
	cur := e.current
	if cur == nil || (r != nil && cur != r) {
		e.mu.Unlock()
		return
	}
	if e.timeLeft > 0 {
		e.timeLeft--
	}
	if e.timeLeft > 0 {
		e.mu.Unlock()
		return
	}

	// Back to Idle before the lock is released: no later tick can see this run.
	e.current = nil
	e.timeLeft = 0
	cur.stop()
	task, flipped, err := e.catalog.MarkCompleted(cur.taskID)
	e.mu.Unlock()

	telemetry.TimerRunsActive.Dec()
	e.settle(ctx, cur, task, flipped, err)
}

func (e *Engine) settle(ctx context.Context, r *run, task domain.Task, flipped bool, err error) {
	log := e.logger.With(slog.String("task_id", r.taskID))
	if err != nil {
		log.Warn("active task missing from catalog, no reward", slog.String("error", err.Error()))
		return
	}
	if !flipped {
		log.Warn("task already completed, reward skipped")
		return
	}

	ctx, span := otel.Tracer("timer").Start(ctx, "timer.complete_task")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", task.ID),
		attribute.Int("task.reward", task.Reward),
	)

	tx, err := e.sink.Credit(ctx, task.Reward, rewardDescription)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credit failed")
		log.Error("failed to credit reward", slog.Int("reward", task.Reward), slog.String("error", err.Error()))
		return
	}

	telemetry.TimerTasksCompleted.WithLabelValues(string(r.taskType)).Inc()
	log.Info("task completed",
		slog.Int("reward", task.Reward),
		slog.String("transaction_id", tx.ID),
	)

	e.notifier.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationTaskCompleted,
		Message: fmt.Sprintf("Task completed! You earned ₹%d", task.Reward),
		Amount:  task.Reward,
	})
}

// cancelRun stops r, or whichever run is active when r is nil.
func (e *Engine) cancelRun(r *run) bool {
	e.mu.Lock()
	cur := e.current
	if cur == nil || (r != nil && cur != r) {
		e.mu.Unlock()
		return false
	}
	e.current = nil
	e.timeLeft = 0
	cur.stop()
	e.mu.Unlock()

	telemetry.TimerRunsActive.Dec()
	telemetry.TimerTasksCancelled.Inc()
	e.logger.Info("task cancelled", slog.String("task_id", cur.taskID))
	return true
}
