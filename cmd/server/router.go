package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/newsmaker-api/internal/api"
	apiMiddleware "github.com/phrazzld/newsmaker-api/internal/api/middleware"
	"github.com/phrazzld/newsmaker-api/internal/metrics"
)

// setupRouter mounts the API, health and metrics endpoints.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.orchestrator, app.logger)
	destinationHandler := api.NewDestinationHandler(app.destinations, app.logger)
	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.RequireTenant)
		taskHandler.Routes(r)
		destinationHandler.Routes(r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}
