package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Timer engine ───────────────────────────────────────────────────────────

	TimerTasksStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "timer",
		Name:      "tasks_started_total",
		Help:      "Task runs started, labelled by task type.",
	}, []string{"task_type"})

	TimerStartsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "timer",
		Name:      "starts_ignored_total",
		Help:      "Start requests dropped by the single-run guard, labelled by reason.",
	}, []string{"reason"})

	TimerTasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "timer",
		Name:      "tasks_completed_total",
		Help:      "Task runs that counted down to zero, labelled by task type.",
	}, []string{"task_type"})

	TimerTasksCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "timer",
		Name:      "tasks_cancelled_total",
		Help:      "Task runs cancelled before completion.",
	})

	TimerRunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "earnflow",
		Subsystem: "timer",
		Name:      "runs_active",
		Help:      "Task runs currently counting down across all sessions.",
	})

	// ─── Wallet ─────────────────────────────────────────────────────────────────

	WalletCreditedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "wallet",
		Name:      "credited_amount_total",
		Help:      "Sum of all rewards credited.",
	})

	WalletWithdrawals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "wallet",
		Name:      "withdrawals_total",
		Help:      "Withdrawal requests, labelled by outcome.",
	}, []string{"outcome"})

	// ─── KYC ────────────────────────────────────────────────────────────────────

	KYCSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "kyc",
		Name:      "steps_total",
		Help:      "KYC wizard step attempts, labelled by step and outcome.",
	}, []string{"step", "outcome"})

	// ─── Content ────────────────────────────────────────────────────────────────

	ContentGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "content",
		Name:      "generations_total",
		Help:      "Story generation calls, labelled by outcome (ok | empty | error | rate_limited).",
	}, []string{"outcome"})

	// ─── Sessions ───────────────────────────────────────────────────────────────

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "earnflow",
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently held in memory.",
	})

	SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "session",
		Name:      "reaped_total",
		Help:      "Sessions evicted for inactivity.",
	})

	// ─── Events ─────────────────────────────────────────────────────────────────

	EventsPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Events that could not be published, labelled by topic.",
	}, []string{"topic"})

	// ─── Notifier ───────────────────────────────────────────────────────────────

	NotifierDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "notifier",
		Name:      "delivered_total",
		Help:      "Notifications handled, labelled by channel and terminal status.",
	}, []string{"channel", "status"})

	NotifierRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnflow",
		Subsystem: "notifier",
		Name:      "retries_total",
		Help:      "Total delivery retry attempts.",
	}, []string{"channel"})

	NotifierDeliverySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "earnflow",
		Subsystem: "notifier",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering one notification, retries included.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"channel"})
)
