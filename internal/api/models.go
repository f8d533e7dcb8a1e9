package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/task"
)

// SubmitTaskRequest is the body of POST /api/tasks.
type SubmitTaskRequest struct {
	Text          string               `json:"text" validate:"max=100000"`
	URL           string               `json:"url"  validate:"max=2048"`
	ModelProvider string               `json:"model_provider" validate:"max=64"`
	Brand         *domain.BrandProfile `json:"brand"`
	Mode          domain.Mode          `json:"mode"`
	TargetBrand   string               `json:"target_brand" validate:"max=256"`
	Channels      []string             `json:"channels" validate:"max=16"`
}

// ToDomain converts the body into a domain request. Channel names are
// case-insensitive.
func (r SubmitTaskRequest) ToDomain() (domain.Request, error) {
	var channels []domain.Platform
	if len(r.Channels) > 0 {
		channels = make([]domain.Platform, 0, len(r.Channels))
		for _, name := range r.Channels {
			p, err := parsePlatform(name)
			if err != nil {
				return domain.Request{}, err
			}
			channels = append(channels, p)
		}
	}

	return domain.Request{
		Text:          r.Text,
		URL:           r.URL,
		ModelProvider: r.ModelProvider,
		Brand:         r.Brand,
		Mode:          r.Mode,
		TargetBrand:   r.TargetBrand,
		Channels:      channels,
	}, nil
}

func parsePlatform(name string) (domain.Platform, error) {
	p, err := domain.ParsePlatform(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return p, nil
}

// SubmitTaskResponse is returned with 202 by POST /api/tasks.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskResponse is the body of GET /api/tasks/{id}.
type TaskResponse struct {
	ID        string          `json:"id"`
	State     task.State      `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		State:     t.State,
		Result:    t.Result,
		Error:     t.Error,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// PublishRequest is the body of POST /api/tasks/publish.
type PublishRequest struct {
	Platform string `json:"platform" validate:"required,max=64"`
	Content  string `json:"content" validate:"required,max=100000"`
}

// LinkDestinationRequest is the body of POST /api/destinations.
type LinkDestinationRequest struct {
	ChatID string `json:"chat_id" validate:"required,max=64"`
}

// KnowledgeRequest is the body of POST /api/knowledge.
type KnowledgeRequest struct {
	ID   string `json:"id" validate:"required,max=256"`
	Text string `json:"text" validate:"required,max=100000"`
}
