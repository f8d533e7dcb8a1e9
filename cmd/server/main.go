// Package main runs the newsmaker API server: the HTTP boundary, the task
// worker pool and the notification fanout.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/newsmaker-api/internal/config"
	"github.com/phrazzld/newsmaker-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("newsmaker-api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"default_provider", cfg.LLM.DefaultProvider,
		"weaviate", cfg.Weaviate.URL != "",
		"database", cfg.Database.URL != "",
		"telegram", cfg.Notify.TelegramBotToken != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.serve(ctx)
}
