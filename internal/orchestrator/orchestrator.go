package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/events"
	"github.com/phrazzld/newsmaker-api/internal/pipeline"
	"github.com/phrazzld/newsmaker-api/internal/platform/logger"
	"github.com/phrazzld/newsmaker-api/internal/retrieval"
	"github.com/phrazzld/newsmaker-api/internal/task"
)

// MaxExcerptRunes caps the draft excerpt carried by completion events.
const MaxExcerptRunes = 500

// QueueFullMessage is the error recorded on tasks that could not be scheduled.
const QueueFullMessage = "task queue is full"

// ShutdownMessage is the error recorded on queued tasks dropped by a shutdown.
const ShutdownMessage = "service shutting down"

var (
	// ErrNilDependency is returned by New when a required collaborator is missing.
	ErrNilDependency = errors.New("orchestrator dependency cannot be nil")

	// ErrEmptyContent is returned by Publish for blank content.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// Runner executes the stage pipeline. Implemented by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, pc pipeline.Context) pipeline.Context
}

// CaseStore accepts promoted cases. Implemented by *retrieval.Engine.
type CaseStore interface {
	AddCase(ctx context.Context, id, text string, metadata map[string]string) error
}

// DestinationResolver maps a tenant to its notification destination.
type DestinationResolver interface {
	Lookup(ctx context.Context, tenantID string) (string, error)
}

// Recorder receives orchestrator metrics. Implemented by *metrics.Metrics.
type Recorder interface {
	ObserveSubmission(outcome string)
	ObserveTaskFinished(state string)
	ObservePublishFailure(kind string)
}

// Submission outcomes reported to the Recorder.
const (
	outcomeAccepted  = "accepted"
	outcomeDenied    = "denied"
	outcomeInvalid   = "invalid"
	outcomeQueueFull = "queue_full"
	outcomeFailed    = "failed"
)

// Config collects the orchestrator's collaborators.
type Config struct {
	Registry task.Registry
	Queue    task.QueueWriter
	Pipeline Runner
	Events   events.Publisher
	Cases    CaseStore

	// Optional.
	Destinations DestinationResolver
	Metrics      Recorder
}

// Orchestrator owns the lifecycle of submitted tasks.
type Orchestrator struct {
	registry     task.Registry
	queue        task.QueueWriter
	pipeline     Runner
	events       events.Publisher
	cases        CaseStore
	destinations DestinationResolver
	metrics      Recorder
	logger       *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config, log *slog.Logger) (*Orchestrator, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrNilDependency)
	case cfg.Queue == nil:
		return nil, fmt.Errorf("%w: queue", ErrNilDependency)
	case cfg.Pipeline == nil:
		return nil, fmt.Errorf("%w: pipeline", ErrNilDependency)
	case cfg.Events == nil:
		return nil, fmt.Errorf("%w: events", ErrNilDependency)
	case cfg.Cases == nil:
		return nil, fmt.Errorf("%w: cases", ErrNilDependency)
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	return &Orchestrator{
		registry:     cfg.Registry,
		queue:        cfg.Queue,
		pipeline:     cfg.Pipeline,
		events:       cfg.Events,
		cases:        cfg.Cases,
		destinations: cfg.Destinations,
		metrics:      cfg.Metrics,
		logger:       log.With("component", "orchestrator"),
	}, nil
}

// Submit admits a request and schedules its pipeline run. The returned id can
// be polled with Status. task.ErrAdmissionDenied is returned when the tenant
// is at its ceiling. A queue overflow is not an error to the caller: the task
// is failed and the id is still returned.
func (o *Orchestrator) Submit(ctx context.Context, tenantID string, req domain.Request) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		o.metrics.ObserveSubmission(outcomeInvalid)
		return "", task.ErrEmptyTenant
	}
	if err := req.Validate(); err != nil {
		o.metrics.ObserveSubmission(outcomeInvalid)
		return "", err
	}

	id, err := o.registry.Submit(ctx, tenantID)
	if err != nil {
		if errors.Is(err, task.ErrAdmissionDenied) {
			o.metrics.ObserveSubmission(outcomeDenied)
			o.logger.InfoContext(ctx, "submission denied", "tenant_id", tenantID)
		} else {
			o.metrics.ObserveSubmission(outcomeFailed)
		}
		return "", err
	}

	job := task.NewAbandonableJob(id,
		func(jobCtx context.Context) error {
			return o.process(jobCtx, id, tenantID, req)
		},
		func(abandonCtx context.Context, _ error) {
			o.fail(logger.WithTask(abandonCtx, id, tenantID), id, tenantID, ShutdownMessage)
		})
	if err := o.queue.Enqueue(job); err != nil {
		o.metrics.ObserveSubmission(outcomeQueueFull)
		o.logger.WarnContext(ctx, "task could not be scheduled",
			"task_id", id,
			"tenant_id", tenantID,
			"error", err)
		o.fail(logger.WithTask(ctx, id, tenantID), id, tenantID, QueueFullMessage)
		return id, nil
	}

	o.metrics.ObserveSubmission(outcomeAccepted)
	o.logger.InfoContext(ctx, "task submitted",
		"task_id", id,
		"tenant_id", tenantID,
		"monitoring", req.IsMonitoring())
	return id, nil
}

// Status returns the current record of a task, or task.ErrTaskNotFound.
func (o *Orchestrator) Status(ctx context.Context, id string) (*task.Task, error) {
	return o.registry.Get(ctx, id)
}

// Publish announces that content was published to a platform. Only input
// validation errors are returned.
func (o *Orchestrator) Publish(ctx context.Context, tenantID string, platform domain.Platform, content string) error {
	if strings.TrimSpace(tenantID) == "" {
		return task.ErrEmptyTenant
	}
	if !platform.Valid() {
		return fmt.Errorf("%w: %w: %q", domain.ErrValidation, domain.ErrUnknownPlatform, platform)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: %w", domain.ErrValidation, ErrEmptyContent)
	}

	event, err := events.NewPublish(tenantID, o.destination(ctx, tenantID), events.PublishPayload{
		Platform: string(platform),
		Content:  content,
	})
	if err != nil {
		o.publishFailed(ctx, events.KindPublish, err)
		return nil
	}
	o.emit(ctx, event)
	return nil
}

// PromoteCase adds an approved piece of content to the tenant's knowledge base.
func (o *Orchestrator) PromoteCase(ctx context.Context, tenantID, caseID, text string) error {
	if strings.TrimSpace(tenantID) == "" {
		return task.ErrEmptyTenant
	}
	return o.cases.AddCase(ctx, caseID, text, map[string]string{
		retrieval.MetadataTenantKey: tenantID,
	})
}

// process is the body of a scheduled job. The pipeline run is detached from
// the worker's cancellation so a started task always reaches a terminal state.
func (o *Orchestrator) process(jobCtx context.Context, id, tenantID string, req domain.Request) error {
	ctx := logger.WithTask(context.WithoutCancel(jobCtx), id, tenantID)

	if err := o.registry.Transition(ctx, id, task.StateProcessing, nil, ""); err != nil {
		o.fail(ctx, id, tenantID, "task could not be started")
		return fmt.Errorf("mark task processing: %w", err)
	}

	pc := o.run(ctx, pipeline.NewContext(tenantID, req))
	if pc.Failed() {
		o.fail(ctx, id, tenantID, strings.Join(pc.Errors, "; "))
		return nil
	}

	plan := pc.MediaPlan()
	result, err := json.Marshal(plan)
	if err != nil {
		o.fail(ctx, id, tenantID, fmt.Sprintf("encode result: %v", err))
		return nil
	}

	if err := o.registry.Transition(ctx, id, task.StateReady, result, ""); err != nil {
		o.fail(ctx, id, tenantID, "task result could not be stored")
		return fmt.Errorf("mark task ready: %w", err)
	}
	o.metrics.ObserveTaskFinished(string(task.StateReady))
	o.logger.InfoContext(ctx, "task ready",
		"drafts", len(plan.Drafts),
		"relevance_score", plan.Analysis.RelevanceScore)

	event, err := events.NewCompleted(id, tenantID, o.destination(ctx, tenantID), completedPayload(plan))
	if err != nil {
		o.publishFailed(ctx, events.KindTaskCompleted, err)
		return nil
	}
	o.emit(ctx, event)
	return nil
}

// run executes the pipeline, converting a panic into a recorded error.
func (o *Orchestrator) run(ctx context.Context, pc pipeline.Context) (out pipeline.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorContext(ctx, "pipeline panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			out = pc.WithError(fmt.Errorf("pipeline panicked: %v", r))
		}
	}()
	return o.pipeline.Run(ctx, pc)
}

// fail moves a task to ERROR and announces it.
func (o *Orchestrator) fail(ctx context.Context, id, tenantID, msg string) {
	if err := o.registry.Transition(ctx, id, task.StateError, nil, msg); err != nil {
		o.logger.ErrorContext(ctx, "failed to mark task as error", "error", err)
	}
	o.metrics.ObserveTaskFinished(string(task.StateError))
	o.logger.WarnContext(ctx, "task failed", "reason", msg)

	event, err := events.NewError(id, tenantID, o.destination(ctx, tenantID), msg)
	if err != nil {
		o.publishFailed(ctx, events.KindTaskError, err)
		return
	}
	o.emit(ctx, event)
}

func (o *Orchestrator) emit(ctx context.Context, event *events.Event) {
	if err := o.events.Publish(ctx, event); err != nil {
		o.publishFailed(ctx, event.Kind, err)
	}
}

func (o *Orchestrator) publishFailed(ctx context.Context, kind events.Kind, err error) {
	o.metrics.ObservePublishFailure(string(kind))
	o.logger.ErrorContext(ctx, "event publish failed",
		"kind", kind,
		"error", err)
}

// destination resolves the tenant's notification target; failures yield "".
func (o *Orchestrator) destination(ctx context.Context, tenantID string) string {
	if o.destinations == nil {
		return ""
	}
	dest, err := o.destinations.Lookup(ctx, tenantID)
	if err != nil {
		o.logger.DebugContext(ctx, "no notification destination",
			"tenant_id", tenantID,
			"error", err)
		return ""
	}
	return dest
}

func completedPayload(plan domain.MediaPlan) events.CompletedPayload {
	p := events.CompletedPayload{
		Summary: plan.Analysis.Summary,
		Score:   plan.Analysis.RelevanceScore,
		Verdict: plan.Analysis.Verdict,
	}
	if len(plan.Drafts) > 0 {
		p.Excerpt = truncateRunes(plan.Drafts[0].Content, MaxExcerptRunes)
	}
	return p
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type nopRecorder struct{}

func (nopRecorder) ObserveSubmission(string)     {}
func (nopRecorder) ObserveTaskFinished(string)   {}
func (nopRecorder) ObservePublishFailure(string) {}
