package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/newsmaker-api/internal/api/middleware"
	"github.com/phrazzld/newsmaker-api/internal/api/shared"
	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/orchestrator"
	"github.com/phrazzld/newsmaker-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	submitID  string
	submitErr error
	submitted []domain.Request
	tenants   []string

	tasks map[string]*task.Task

	publishErr error
	published  []string

	promoteErr error
	promoted   []string
}

func (f *fakeService) Submit(_ context.Context, tenantID string, req domain.Request) (string, error) {
	f.tenants = append(f.tenants, tenantID)
	f.submitted = append(f.submitted, req)
	return f.submitID, f.submitErr
}

func (f *fakeService) Status(_ context.Context, id string) (*task.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeService) Publish(_ context.Context, tenantID string, platform domain.Platform, content string) error {
	f.published = append(f.published, fmt.Sprintf("%s/%s/%s", tenantID, platform, content))
	return f.publishErr
}

func (f *fakeService) PromoteCase(_ context.Context, tenantID, caseID, text string) error {
	f.promoted = append(f.promoted, fmt.Sprintf("%s/%s/%s", tenantID, caseID, text))
	return f.promoteErr
}

func newTestRouter(svc TaskService) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireTenant)
		NewTaskHandler(svc, log).Routes(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, tenant, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitTask(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := &fakeService{submitID: "task-1"}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a",
			`{"text":"launch news","mode":"blogger","channels":["telegram","vk"]}`)

		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp SubmitTaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "task-1", resp.TaskID)

		require.Len(t, svc.submitted, 1)
		assert.Equal(t, []string{"tenant-a"}, svc.tenants)
		assert.Equal(t, "launch news", svc.submitted[0].Text)
		assert.Equal(t, domain.ModeBlogger, svc.submitted[0].Mode)
		assert.Equal(t, []domain.Platform{domain.PlatformTelegram, domain.PlatformVK}, svc.submitted[0].Channels)
		assert.NotEmpty(t, rec.Header().Get(middleware.TraceIDHeader))
	})

	t.Run("admission denied", func(t *testing.T) {
		svc := &fakeService{submitErr: task.ErrAdmissionDenied}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"text":"x"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Too many active tasks, try again later", resp.Error)
		assert.NotEmpty(t, resp.TraceID)
	})

	t.Run("channel names are case-insensitive", func(t *testing.T) {
		svc := &fakeService{submitID: "task-1"}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a",
			`{"text":"x","channels":[" Telegram ","EMAIL"]}`)

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, svc.submitted, 1)
		assert.Equal(t, []domain.Platform{domain.PlatformTelegram, domain.PlatformEmail}, svc.submitted[0].Channels)
	})

	t.Run("unknown channel", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"channels":["fax"]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unknown platform", decodeError(t, rec).Error)
		assert.Empty(t, svc.submitted)
	})

	t.Run("validation error from service", func(t *testing.T) {
		svc := &fakeService{submitErr: fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrMissingBrand)}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"url":"MONITORING"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Brand profile is required for monitoring", decodeError(t, rec).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"text":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", decodeError(t, rec).Error)
		assert.Empty(t, svc.submitted)
	})

	t.Run("unknown field", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"prompt":"x"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.submitted)
	})

	t.Run("empty body", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Request body is required", decodeError(t, rec).Error)
	})

	t.Run("internal error is sanitized", func(t *testing.T) {
		svc := &fakeService{submitErr: fmt.Errorf("dial redis://:hunter2@cache:6379: refused")}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks", "tenant-a", `{"text":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "hunter2")
		assert.Equal(t, "An unexpected error occurred", decodeError(t, rec).Error)
	})
}

func TestRequireTenant(t *testing.T) {
	svc := &fakeService{submitID: "task-1"}
	h := newTestRouter(svc)

	rec := doRequest(t, h, http.MethodPost, "/api/tasks", "", `{"text":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/tasks", "bad tenant!", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, svc.submitted)
}

func TestGetTask(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &fakeService{tasks: map[string]*task.Task{
		"ready-1": {
			ID:        "ready-1",
			TenantID:  "tenant-a",
			State:     task.StateReady,
			CreatedAt: now,
			UpdatedAt: now.Add(time.Second),
			Result:    json.RawMessage(`{"drafts":[]}`),
		},
		"err-1": {
			ID:        "err-1",
			TenantID:  "tenant-a",
			State:     task.StateError,
			CreatedAt: now,
			UpdatedAt: now,
			Error:     "no content",
		},
	}}
	h := newTestRouter(svc)

	t.Run("ready", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/tasks/ready-1", "tenant-a", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ready-1", resp.ID)
		assert.Equal(t, task.StateReady, resp.State)
		assert.JSONEq(t, `{"drafts":[]}`, string(resp.Result))
		assert.Empty(t, resp.Error)
		assert.True(t, now.Equal(resp.CreatedAt))
	})

	t.Run("error", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/tasks/err-1", "tenant-a", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `"no content"`, string(mustField(t, rec.Body.Bytes(), "error")))
		assert.NotContains(t, rec.Body.String(), `"result"`)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/tasks/missing", "tenant-a", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Task not found", decodeError(t, rec).Error)
	})

	t.Run("other tenant", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/tasks/ready-1", "tenant-b", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	v, ok := m[field]
	require.True(t, ok, "missing field %q", field)
	return v
}

func TestPublishContent(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks/publish", "tenant-a",
			`{"platform":"telegram","content":"hello"}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"tenant-a/telegram/hello"}, svc.published)
	})

	t.Run("missing content", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks/publish", "tenant-a",
			`{"platform":"telegram"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "Content is required")
		assert.Empty(t, svc.published)
	})

	t.Run("platform name is normalized", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks/publish", "tenant-a",
			`{"platform":" VK ","content":"hello"}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"tenant-a/vk/hello"}, svc.published)
	})

	t.Run("unknown platform", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/tasks/publish", "tenant-a",
			`{"platform":"fax","content":"hello"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unknown platform", decodeError(t, rec).Error)
		assert.Empty(t, svc.published)
	})
}

func TestPromoteKnowledge(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/knowledge", "tenant-a",
			`{"id":"case-1","text":"approved post"}`)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.Bytes())
		assert.Equal(t, []string{"tenant-a/case-1/approved post"}, svc.promoted)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := &fakeService{}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/knowledge", "tenant-a", `{"text":"x"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "ID is required")
		assert.Empty(t, svc.promoted)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := &fakeService{promoteErr: fmt.Errorf("weaviate unavailable")}
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/knowledge", "tenant-a",
			`{"id":"case-1","text":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

var _ TaskService = (*orchestrator.Orchestrator)(nil)
