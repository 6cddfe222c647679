package handler

import (
	"net/http"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
)

const recentTransactions = 5

// DashboardResponse is the GET /api/v1/dashboard body.
type DashboardResponse struct {
	User               domain.User          `json:"user"`
	KYC                kyc.State            `json:"kyc"`
	Timer              timer.State          `json:"timer"`
	TasksCompleted     int                  `json:"tasks_completed"`
	TasksTotal         int                  `json:"tasks_total"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

// Dashboard handles GET /api/v1/dashboard.
func (h *REST) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	tasks := s.Catalog.List()
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	txs := s.Ledger.Transactions()
	if len(txs) > recentTransactions {
		txs = txs[:recentTransactions]
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		User:               s.Profile(),
		KYC:                s.KYC.State(),
		Timer:              s.Engine.State(),
		TasksCompleted:     completed,
		TasksTotal:         len(tasks),
		RecentTransactions: txs,
	})
}
