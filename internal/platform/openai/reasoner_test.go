package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/newsmaker-api/internal/config"
	"github.com/phrazzld/newsmaker-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completionBody(content, finish string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "qwen/qwen-2.5-72b-instruct",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	})
	return string(body)
}

func newTestReasoner(t *testing.T, handler http.HandlerFunc) *Reasoner {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.LLMConfig{
		OpenRouterAPIKey:  "test-key",
		OpenRouterBaseURL: server.URL,
		MaxRetries:        2,
		RetryDelaySeconds: 1,
		Temperature:       0.7,
	}
	r, err := New(ProviderQwen, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	r.retry = r.retry.WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return r
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.LLMConfig{OpenRouterAPIKey: "k", OpenRouterBaseURL: "https://openrouter.ai/api/v1"}

	r, err := New(ProviderDeepSeek, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat", r.model)

	_, err = New("claude", cfg, logger)
	assert.ErrorIs(t, err, generation.ErrUnknownProvider)

	_, err = New(ProviderQwen, config.LLMConfig{}, logger)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestComplete_Success(t *testing.T) {
	var got chatRequest
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		_ = json.NewDecoder(req.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody(`{"summary":"ok"}`, "stop"))
	})

	reply, err := r.Complete(context.Background(), generation.Prompt{System: "sys", User: "analyze", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, reply)

	assert.Equal(t, "qwen/qwen-2.5-72b-instruct", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls int32
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream","type":"server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("post|||prompt", "stop"))
	})

	reply, err := r.Complete(context.Background(), generation.Prompt{User: "compose"})
	require.NoError(t, err)
	assert.Equal(t, "post|||prompt", reply)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestComplete_PermanentErrors(t *testing.T) {
	t.Run("bad request is not retried", func(t *testing.T) {
		var calls int32
		r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
		})
		_, err := r.Complete(context.Background(), generation.Prompt{User: "x"})
		assert.ErrorIs(t, err, generation.ErrGenerationFailed)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("unauthorized maps to invalid config", func(t *testing.T) {
		r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"no key","type":"auth_error"}}`)
		})
		_, err := r.Complete(context.Background(), generation.Prompt{User: "x"})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("no choices", func(t *testing.T) {
		r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","choices":[]}`)
		})
		_, err := r.Complete(context.Background(), generation.Prompt{User: "x"})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("content filter", func(t *testing.T) {
		r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionBody("", "content_filter"))
		})
		_, err := r.Complete(context.Background(), generation.Prompt{User: "x"})
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})
}
