package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/timer"
)

// TasksResponse is the GET /api/v1/tasks body.
type TasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Timer timer.State   `json:"timer"`
}

// StartResponse is the POST /api/v1/tasks/{id}/start body. Started is false
// when the request was ignored because another task is running or the task
// is already completed.
type StartResponse struct {
	Started bool        `json:"started"`
	Timer   timer.State `json:"timer"`
}

// CancelResponse is the DELETE /api/v1/tasks/active body.
type CancelResponse struct {
	Cancelled bool        `json:"cancelled"`
	Timer     timer.State `json:"timer"`
}

// ListTasks handles GET /api/v1/tasks.
func (h *REST) ListTasks(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TasksResponse{Tasks: s.Catalog.List(), Timer: s.Engine.State()})
}

// StartTask handles POST /api/v1/tasks/{id}/start.
func (h *REST) StartTask(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "id")

	ctx, span := otel.Tracer("rewards-api").Start(r.Context(), "rewards_api.start_task")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.ID()),
		attribute.String("task.id", taskID),
	)

	handle, err := s.Engine.Start(ctx, taskID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	started := handle != nil
	span.SetAttributes(attribute.Bool("task.started", started))
	if !started {
		h.logger.Debug("start ignored",
			slog.String("session_id", s.ID()),
			slog.String("task_id", taskID),
		)
	}
	writeJSON(w, http.StatusOK, StartResponse{Started: started, Timer: s.Engine.State()})
}

// ActiveTask handles GET /api/v1/tasks/active.
func (h *REST) ActiveTask(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.State())
}

// CancelTask handles DELETE /api/v1/tasks/active.
func (h *REST) CancelTask(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	cancelled := s.Engine.Cancel()
	writeJSON(w, http.StatusOK, CancelResponse{Cancelled: cancelled, Timer: s.Engine.State()})
}
