package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/newsmaker-api/internal/api"
	"github.com/phrazzld/newsmaker-api/internal/config"
	"github.com/phrazzld/newsmaker-api/internal/fetch"
	"github.com/phrazzld/newsmaker-api/internal/generation"
	"github.com/phrazzld/newsmaker-api/internal/metrics"
	"github.com/phrazzld/newsmaker-api/internal/notify"
	"github.com/phrazzld/newsmaker-api/internal/orchestrator"
	"github.com/phrazzld/newsmaker-api/internal/pipeline"
	"github.com/phrazzld/newsmaker-api/internal/platform/gemini"
	"github.com/phrazzld/newsmaker-api/internal/platform/openai"
	"github.com/phrazzld/newsmaker-api/internal/platform/postgres"
	"github.com/phrazzld/newsmaker-api/internal/platform/redis"
	"github.com/phrazzld/newsmaker-api/internal/platform/telegram"
	"github.com/phrazzld/newsmaker-api/internal/platform/weaviate"
	"github.com/phrazzld/newsmaker-api/internal/retrieval"
	"github.com/phrazzld/newsmaker-api/internal/task"
)

// application holds the wired service. Fields are set by newApplication.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry     *prometheus.Registry
	orchestrator *orchestrator.Orchestrator
	fanout       *notify.Fanout
	queue        *task.TaskQueue
	workers      *task.WorkerPool
	destinations destinationDirectory

	redisClient *goredis.Client
	db          *sql.DB
}

// destinationDirectory resolves and records tenant notification destinations.
type destinationDirectory interface {
	orchestrator.DestinationResolver
	api.DestinationLinker
}

// dependencies are the external collaborators newApplication would otherwise
// build from configuration. Tests supply them directly.
type dependencies struct {
	Redis        goredis.UniversalClient
	Corpus       retrieval.Corpus
	Providers    *generation.Providers
	Destinations destinationDirectory
	Sinks        []notify.Sink
}

// newApplication connects to the configured backends and wires the service.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	client, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redisClient = client

	deps := dependencies{
		Redis:     client,
		Providers: buildProviders(ctx, cfg.LLM, log),
	}

	if deps.Corpus, err = buildCorpus(ctx, cfg.Weaviate, log); err != nil {
		app.cleanup()
		return nil, err
	}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		app.db = db
		if err := postgres.Migrate(ctx, db, log); err != nil {
			app.cleanup()
			return nil, err
		}
		deps.Destinations = postgres.NewDirectory(db, log)
	} else {
		deps.Destinations = newFallbackDirectory()
	}

	if deps.Sinks, err = buildSinks(cfg.Notify, log); err != nil {
		app.cleanup()
		return nil, err
	}

	if err := app.wire(deps); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

// wire assembles the registry, pipeline, orchestrator and fanout around deps.
func (app *application) wire(deps dependencies) error {
	cfg, log := app.config, app.logger

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(app.registry)

	registry, err := redis.NewRegistry(deps.Redis, task.RegistryConfig{
		AdmissionCeiling: cfg.Task.AdmissionCeiling,
		TTL:              cfg.Redis.TaskTTL,
	}, log)
	if err != nil {
		return err
	}
	bus, err := redis.NewBus(deps.Redis, cfg.Redis.Channel, log)
	if err != nil {
		return err
	}

	engine, err := retrieval.NewEngine(deps.Corpus, retrieval.Config{
		K:                 cfg.Retrieval.K,
		DistanceThreshold: cfg.Retrieval.DistanceThreshold,
	}, log)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewStandard(pipeline.Dependencies{
		Providers:       deps.Providers,
		Decoder:         generation.JSONDecoder{},
		Retriever:       engine,
		Fetcher:         fetch.NewHTTPFetcher(cfg.Fetch.Timeout, log),
		Mentions:        fetch.StaticMentions{},
		Images:          pipeline.URLImageResolver{BaseURL: cfg.Enrich.ImageBaseURL},
		MinTextLength:   cfg.Fetch.MinTextLength,
		ComposeParallel: cfg.Task.ComposeParallel,
	}, log)
	if err != nil {
		return err
	}
	runner.SetObserver(m)

	app.queue = task.NewTaskQueue(cfg.Task.QueueSize, log)
	app.workers = task.NewWorkerPool(app.queue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
	}, log)
	app.workers.SetErrorHandler(func(_ task.Job, err error) {
		m.ObserveJobFailure(jobFailureReason(err))
	})
	app.destinations = deps.Destinations

	app.orchestrator, err = orchestrator.New(orchestrator.Config{
		Registry:     registry,
		Queue:        app.queue,
		Pipeline:     runner,
		Events:       bus,
		Cases:        engine,
		Destinations: deps.Destinations,
		Metrics:      m,
	}, log)
	if err != nil {
		return err
	}

	app.fanout, err = notify.NewFanout(bus, notify.Formatter{WebAppURL: cfg.Notify.WebAppURL}, deps.Sinks, m, log)
	return err
}

// cleanup releases backend connections. Safe to call on a partially built app.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
}

// buildProviders registers every reasoning provider that has credentials.
func buildProviders(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) *generation.Providers {
	providers := generation.NewProviders(cfg.DefaultProvider, log)

	if cfg.GeminiAPIKey != "" {
		r, err := gemini.New(ctx, cfg, log)
		if err != nil {
			log.Error("gemini provider unavailable", "error", err)
		} else {
			providers.Register(gemini.ProviderName, r)
		}
	}

	if cfg.OpenRouterAPIKey != "" {
		for _, name := range []string{openai.ProviderQwen, openai.ProviderDeepSeek} {
			r, err := openai.New(name, cfg, log)
			if err != nil {
				log.Error("openrouter provider unavailable", "provider", name, "error", err)
				continue
			}
			providers.Register(name, r)
		}
	}

	if len(providers.Names()) == 0 {
		log.Warn("no reasoning provider configured; tasks will fail")
	}
	return providers
}

// buildCorpus returns the Weaviate corpus, or the in-memory corpus when no
// Weaviate URL is set.
func buildCorpus(ctx context.Context, cfg config.WeaviateConfig, log *slog.Logger) (retrieval.Corpus, error) {
	if cfg.URL == "" {
		log.Info("using in-memory case corpus")
		return retrieval.NewMemoryCorpus(retrieval.HashEmbedder{}), nil
	}
	client, err := weaviate.NewClient(cfg.URL)
	if err != nil {
		return nil, err
	}
	corpus, err := weaviate.NewCorpus(client, weaviate.Config{ClassName: cfg.ClassName}, log)
	if err != nil {
		return nil, err
	}
	if err := corpus.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare weaviate schema: %w", err)
	}
	return corpus, nil
}

// buildSinks returns the Telegram sink when a bot token is set and the log
// sink otherwise.
func buildSinks(cfg config.NotifyConfig, log *slog.Logger) ([]notify.Sink, error) {
	if cfg.TelegramBotToken == "" {
		return []notify.Sink{notify.NewLogSink(log)}, nil
	}
	sink, err := telegram.NewSink(cfg.TelegramBotToken, cfg.TelegramAPIURL, nil, log)
	if err != nil {
		return nil, err
	}
	return []notify.Sink{sink}, nil
}

// jobFailureReason classifies an error reported by the worker pool.
func jobFailureReason(err error) string {
	switch {
	case errors.Is(err, task.ErrJobPanicked):
		return metrics.JobFailurePanic
	case errors.Is(err, task.ErrPoolStopped):
		return metrics.JobFailureAbandoned
	default:
		return metrics.JobFailureError
	}
}

// fallbackDirectory keeps destination links in memory when no database is
// configured. Unlinked numeric tenant ids resolve to themselves, since
// tenants created by the Telegram bot are keyed by the user's chat id.
type fallbackDirectory struct {
	links *postgres.StaticDirectory
}

func newFallbackDirectory() *fallbackDirectory {
	return &fallbackDirectory{links: postgres.NewStaticDirectory(nil)}
}

func (d *fallbackDirectory) Lookup(ctx context.Context, tenantID string) (string, error) {
	chatID, err := d.links.Lookup(ctx, tenantID)
	if err == nil {
		return chatID, nil
	}
	if _, perr := strconv.ParseInt(tenantID, 10, 64); perr != nil {
		return "", err
	}
	return tenantID, nil
}

func (d *fallbackDirectory) Link(ctx context.Context, tenantID, chatID string) error {
	return d.links.Link(ctx, tenantID, chatID)
}
