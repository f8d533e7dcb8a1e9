package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/newsmaker-api/internal/api/shared"
	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/task"
)

// TaskService is the orchestrator surface used by the handlers.
// Implemented by *orchestrator.Orchestrator.
type TaskService interface {
	Submit(ctx context.Context, tenantID string, req domain.Request) (string, error)
	Status(ctx context.Context, id string) (*task.Task, error)
	Publish(ctx context.Context, tenantID string, platform domain.Platform, content string) error
	PromoteCase(ctx context.Context, tenantID, caseID, text string) error
}

// TaskHandler serves the task and knowledge endpoints.
type TaskHandler struct {
	service TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(service TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		service: service,
		logger:  logger.With("component", "task_handler"),
	}
}

// Routes mounts the handler's endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/tasks", h.SubmitTask)
	r.Post("/tasks/publish", h.PublishContent)
	r.Get("/tasks/{id}", h.GetTask)
	r.Post("/knowledge", h.PromoteKnowledge)
}

// SubmitTask handles POST /api/tasks.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	tenantID, log := tenantFromRequest(r, h.logger)

	var req SubmitTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	domainReq, err := req.ToDomain()
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	id, err := h.service.Submit(r.Context(), tenantID, domainReq)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("task accepted", "task_id", id)
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{TaskID: id})
}

// GetTask handles GET /api/tasks/{id}. Tasks of other tenants are reported
// as not found.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantFromRequest(r, h.logger)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		HandleAPIError(w, r, task.ErrTaskNotFound)
		return
	}

	t, err := h.service.Status(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if t.TenantID != tenantID {
		HandleAPIError(w, r, task.ErrTaskNotFound)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(t))
}

// PublishContent handles POST /api/tasks/publish.
func (h *TaskHandler) PublishContent(w http.ResponseWriter, r *http.Request) {
	tenantID, log := tenantFromRequest(r, h.logger)

	var req PublishRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	platform, err := parsePlatform(req.Platform)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if err := h.service.Publish(r.Context(), tenantID, platform, req.Content); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("publish announced", "platform", platform)
	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// PromoteKnowledge handles POST /api/knowledge.
func (h *TaskHandler) PromoteKnowledge(w http.ResponseWriter, r *http.Request) {
	tenantID, log := tenantFromRequest(r, h.logger)

	var req KnowledgeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.PromoteCase(r.Context(), tenantID, req.ID, req.Text); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("case promoted", "case_id", req.ID)
	w.WriteHeader(http.StatusNoContent)
}
