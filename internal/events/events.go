package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened.
type Kind string

// Event kinds.
const (
	KindTaskCompleted Kind = "task_completed"
	KindTaskError     Kind = "task_error"
	KindPublish       Kind = "publish"
)

// ErrPayloadKind is returned when a payload is decoded as the wrong kind.
var ErrPayloadKind = errors.New("payload does not match event kind")

// Event is the envelope carried on the event channel.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Kind determines the payload type
	Kind Kind `json:"kind"`

	TaskID   string `json:"task_id,omitempty"`
	TenantID string `json:"tenant_id"`

	// Destination is the delivery address linked to the tenant, e.g. a chat id.
	// Empty when the tenant has none.
	Destination string `json:"destination,omitempty"`

	// Payload contains the kind-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// CompletedPayload is carried by task_completed events.
type CompletedPayload struct {
	Summary string `json:"summary"`
	Score   int    `json:"score"`
	Verdict string `json:"verdict"`
	Excerpt string `json:"excerpt"`
}

// ErrorPayload is carried by task_error events.
type ErrorPayload struct {
	Error string `json:"error"`
}

// PublishPayload is carried by publish events.
type PublishPayload struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
}

func newEvent(kind Kind, taskID, tenantID, destination string, payload interface{}) (*Event, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	return &Event{
		ID:          uuid.New(),
		Kind:        kind,
		TaskID:      taskID,
		TenantID:    tenantID,
		Destination: destination,
		Payload:     payloadBytes,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewCompleted builds a task_completed event.
func NewCompleted(taskID, tenantID, destination string, p CompletedPayload) (*Event, error) {
	return newEvent(KindTaskCompleted, taskID, tenantID, destination, p)
}

// NewError builds a task_error event.
func NewError(taskID, tenantID, destination, errMsg string) (*Event, error) {
	return newEvent(KindTaskError, taskID, tenantID, destination, ErrorPayload{Error: errMsg})
}

// NewPublish builds a publish echo event. Publish events are not tied to a task.
func NewPublish(tenantID, destination string, p PublishPayload) (*Event, error) {
	return newEvent(KindPublish, "", tenantID, destination, p)
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Completed decodes the payload of a task_completed event.
func (e *Event) Completed() (CompletedPayload, error) {
	var p CompletedPayload
	if e.Kind != KindTaskCompleted {
		return p, fmt.Errorf("%w: %s", ErrPayloadKind, e.Kind)
	}
	err := e.UnmarshalPayload(&p)
	return p, err
}

// Failure decodes the payload of a task_error event.
func (e *Event) Failure() (ErrorPayload, error) {
	var p ErrorPayload
	if e.Kind != KindTaskError {
		return p, fmt.Errorf("%w: %s", ErrPayloadKind, e.Kind)
	}
	err := e.UnmarshalPayload(&p)
	return p, err
}

// Published decodes the payload of a publish event.
func (e *Event) Published() (PublishPayload, error) {
	var p PublishPayload
	if e.Kind != KindPublish {
		return p, fmt.Errorf("%w: %s", ErrPayloadKind, e.Kind)
	}
	err := e.UnmarshalPayload(&p)
	return p, err
}

// Publisher defines an interface for components that put events on the channel.
type Publisher interface {
	// Publish sends the event. Delivery is best effort.
	Publish(ctx context.Context, event *Event) error
}

// Subscriber defines an interface for consumers of the event channel.
type Subscriber interface {
	// Subscribe returns a channel of events that is closed when ctx is done
	// or the underlying transport shuts down.
	Subscribe(ctx context.Context) (<-chan *Event, error)
}
