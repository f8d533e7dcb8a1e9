package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Stage names.
const (
	StageAnalyze  = "analyze"
	StageRetrieve = "retrieve_context"
	StageCompose  = "compose"
	StageEnrich   = "enrich"
)

// Stage is one step of the pipeline.
type Stage interface {
	// Name identifies the stage in logs and metrics.
	Name() string

	// Run returns the context for the next stage. Failures are recorded with
	// Context.WithError rather than returned.
	Run(ctx context.Context, pc Context) Context
}

// StageObserver receives per-stage timings. Implemented by the metrics package.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, failed bool)
}

// Pipeline runs stages in order and stops after the first stage that records an error.
type Pipeline struct {
	stages   []Stage
	observer StageObserver
	logger   *slog.Logger
}

// New creates a Pipeline over the given stages.
func New(logger *slog.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		stages: stages,
		logger: logger.With("component", "pipeline"),
	}
}

// SetObserver installs a stage observer. It must be called before Run.
func (p *Pipeline) SetObserver(o StageObserver) {
	p.observer = o
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the stages. If pc already carries errors no stage runs.
func (p *Pipeline) Run(ctx context.Context, pc Context) Context {
	for i, stage := range p.stages {
		if pc.Failed() {
			p.logger.DebugContext(ctx, "short-circuit, skipping remaining stages",
				"skipped_from", stage.Name(),
				"skipped_count", len(p.stages)-i)
			break
		}

		before := len(pc.Errors)
		start := time.Now()
		next := stage.Run(ctx, pc.clone())
		elapsed := time.Since(start)
		failed := len(next.Errors) > before

		if p.observer != nil {
			p.observer.ObserveStage(stage.Name(), elapsed, failed)
		}

		if failed {
			p.logger.WarnContext(ctx, "stage failed",
				"stage", stage.Name(),
				"duration", elapsed,
				"errors", next.Errors[before:])
		} else {
			p.logger.DebugContext(ctx, "stage finished",
				"stage", stage.Name(),
				"duration", elapsed)
		}
		pc = next
	}
	return pc
}
