package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DestinationLinker records where a tenant's notifications are delivered.
// Implemented by *postgres.Directory and *postgres.StaticDirectory.
type DestinationLinker interface {
	Link(ctx context.Context, tenantID, chatID string) error
}

// DestinationHandler serves the destination endpoints.
type DestinationHandler struct {
	linker DestinationLinker
	logger *slog.Logger
}

// NewDestinationHandler creates a DestinationHandler.
func NewDestinationHandler(linker DestinationLinker, logger *slog.Logger) *DestinationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DestinationHandler{
		linker: linker,
		logger: logger.With("component", "destination_handler"),
	}
}

// Routes mounts the handler's endpoints on r.
func (h *DestinationHandler) Routes(r chi.Router) {
	r.Post("/destinations", h.LinkDestination)
}

// LinkDestination handles POST /api/destinations. The calling tenant's
// previous destination, if any, is replaced.
func (h *DestinationHandler) LinkDestination(w http.ResponseWriter, r *http.Request) {
	tenantID, log := tenantFromRequest(r, h.logger)

	var req LinkDestinationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.linker.Link(r.Context(), tenantID, req.ChatID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Info("destination linked")
	w.WriteHeader(http.StatusNoContent)
}
